package scripting

import (
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// MaterialContext is handed to a Lua material generator as a table:
// { name = ..., params = { key = number, ... } }.
type MaterialContext struct {
	Name   string
	Params map[string]float64
}

// MaterialResult is read back from the generator's returned table:
// { shader = "...", textures = { slot = path }, uniforms = { name = number },
// color = { r, g, b, a } }. Color stays white and HasColor false when the
// table has no color.
type MaterialResult struct {
	Shader   string
	Textures map[string]string
	Uniforms map[string]float64
	Color    [4]float32
	HasColor bool
}

// GenerateMaterial calls the Lua function fn with ctx.
func (e *Engine) GenerateMaterial(fn string, ctx MaterialContext) (MaterialResult, error) {
	t := e.vm.NewTable()
	t.RawSetString("name", lua.LString(ctx.Name))

	params := e.vm.NewTable()
	keys := make([]string, 0, len(ctx.Params))
	for k := range ctx.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		params.RawSetString(k, lua.LNumber(ctx.Params[k]))
	}
	t.RawSetString("params", params)

	rt, err := e.callTable(fn, t)
	if err != nil {
		e.log.Error("lua material generator error", zap.String("func", fn), zap.Error(err))
		return MaterialResult{}, err
	}

	res := MaterialResult{
		Shader:   lStr(rt, "shader"),
		Textures: make(map[string]string),
		Uniforms: make(map[string]float64),
		Color:    [4]float32{1, 1, 1, 1},
	}
	if tex, ok := rt.RawGetString("textures").(*lua.LTable); ok {
		tex.ForEach(func(k, v lua.LValue) {
			res.Textures[lua.LVAsString(k)] = lua.LVAsString(v)
		})
	}
	if uni, ok := rt.RawGetString("uniforms").(*lua.LTable); ok {
		uni.ForEach(func(k, v lua.LValue) {
			res.Uniforms[lua.LVAsString(k)] = float64(lua.LVAsNumber(v))
		})
	}
	if col, ok := rt.RawGetString("color").(*lua.LTable); ok {
		res.HasColor = true
		for i := range res.Color {
			if v, ok := col.RawGetInt(i + 1).(lua.LNumber); ok {
				res.Color[i] = float32(v)
			}
		}
	}
	e.log.Debug("material generated",
		zap.String("func", fn),
		zap.String("name", ctx.Name),
		zap.Int("textures", len(res.Textures)))
	return res, nil
}
