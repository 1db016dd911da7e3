package resource

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/Longseabear/LEapsGLEngine/internal/scripting"
	"golang.org/x/image/colornames"
)

// Material binds a shader program to textures and uniform values.
type Material struct {
	Name     string
	Shader   string
	Textures map[string]string
	Uniforms map[string]float64
	Color    [4]float32
}

func (m Material) Clone() Material {
	m.Textures = maps.Clone(m.Textures)
	m.Uniforms = maps.Clone(m.Uniforms)
	return m
}

// Generator produces a material from a named Lua function.
type Generator interface {
	GenerateMaterial(fn string, ctx scripting.MaterialContext) (scripting.MaterialResult, error)
}

// MaterialSpec describes a material either statically (Shader, Color,
// Textures) or through a Lua generator function. Scripts is not part of the
// identity.
type MaterialSpec struct {
	Name      string
	Generator string
	Params    map[string]float64
	Shader    string
	Color     string
	Textures  map[string]string
	Scripts   Generator
}

func (s MaterialSpec) Hash() uint64 {
	parts := []string{s.Name, s.Generator, NormalizePath(s.Shader), s.Color}
	for _, k := range slices.Sorted(maps.Keys(s.Params)) {
		parts = append(parts, k, strconv.FormatFloat(s.Params[k], 'g', -1, 64))
	}
	for _, k := range slices.Sorted(maps.Keys(s.Textures)) {
		parts = append(parts, k, NormalizePath(s.Textures[k]))
	}
	return contentHash("material", parts...)
}

func (s MaterialSpec) Generate() (Material, error) {
	m := Material{
		Name:     s.Name,
		Shader:   s.Shader,
		Textures: make(map[string]string, len(s.Textures)),
		Uniforms: make(map[string]float64),
		Color:    [4]float32{1, 1, 1, 1},
	}
	for k, v := range s.Textures {
		m.Textures[k] = NormalizePath(v)
	}
	if s.Color != "" {
		c, err := ParseColor(s.Color)
		if err != nil {
			return Material{}, fmt.Errorf("material %s: %w", s.Name, err)
		}
		m.Color = c
	}
	if s.Generator == "" {
		return m, nil
	}
	if s.Scripts == nil {
		return Material{}, fmt.Errorf("material %s: generator %s without a script engine", s.Name, s.Generator)
	}
	res, err := s.Scripts.GenerateMaterial(s.Generator, scripting.MaterialContext{
		Name:   s.Name,
		Params: s.Params,
	})
	if err != nil {
		return Material{}, fmt.Errorf("material %s: %w", s.Name, err)
	}
	if res.Shader != "" {
		m.Shader = res.Shader
	}
	for k, v := range res.Textures {
		m.Textures[k] = NormalizePath(v)
	}
	maps.Copy(m.Uniforms, res.Uniforms)
	if res.HasColor {
		m.Color = res.Color
	}
	return m, nil
}

// ParseColor accepts SVG color names ("crimson") and hex forms "#rrggbb" and
// "#rrggbbaa".
func ParseColor(s string) ([4]float32, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if c, ok := colornames.Map[s]; ok {
		return [4]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255}, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return [4]float32{}, fmt.Errorf("invalid color %q", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return [4]float32{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return [4]float32{
		float32(v>>24&0xff) / 255,
		float32(v>>16&0xff) / 255,
		float32(v>>8&0xff) / 255,
		float32(v&0xff) / 255,
	}, nil
}
