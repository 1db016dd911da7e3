package resource

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Longseabear/LEapsGLEngine/internal/core/proxy"
	"go.uber.org/zap"
)

// Entity groups of the resource worlds.
type (
	ShaderGroup   struct{}
	TextureGroup  struct{}
	MaterialGroup struct{}
)

// Scripts is the script engine as seen by the library.
type Scripts interface {
	Generator
	Reload(path string) error
}

// Library holds one Requestor per manifest entry, keeping every declared
// resource alive, and maps file paths back to the resources built from them.
type Library struct {
	proxy   *proxy.Proxy
	root    string
	scripts Scripts

	shaders   map[string]*proxy.Requestor[ShaderSource]
	textures  map[string]*proxy.Requestor[Texture]
	materials map[string]*proxy.Requestor[Material]

	// deps maps a normalized path to the resources rebuilt when it changes,
	// keyed by "kind:name".
	deps map[string]map[string]func() error
	log  *zap.Logger
}

func NewLibrary(p *proxy.Proxy, root string, scripts Scripts, log *zap.Logger) (*Library, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := proxy.DeclareGroup[ShaderSource, ShaderGroup](p); err != nil {
		return nil, err
	}
	if err := proxy.DeclareGroup[Texture, TextureGroup](p); err != nil {
		return nil, err
	}
	if err := proxy.DeclareGroup[Material, MaterialGroup](p); err != nil {
		return nil, err
	}
	return &Library{
		proxy:     p,
		root:      root,
		scripts:   scripts,
		shaders:   make(map[string]*proxy.Requestor[ShaderSource]),
		textures:  make(map[string]*proxy.Requestor[Texture]),
		materials: make(map[string]*proxy.Requestor[Material]),
		deps:      make(map[string]map[string]func() error),
		log:       log,
	}, nil
}

func (l *Library) Proxy() *proxy.Proxy { return l.proxy }

// Load requests and builds every entry of m. Entries already loaded under
// the same name are skipped.
func (l *Library) Load(m *Manifest) error {
	var errs []error
	for _, e := range m.Shaders {
		if _, ok := l.shaders[e.Name]; ok {
			continue
		}
		stage, err := e.stage()
		if err != nil {
			errs = append(errs, fmt.Errorf("shader %s: %w", e.Name, err))
			continue
		}
		if err := l.loadShader(e.Name, ShaderSpec{Root: l.root, Path: e.Path, Stage: stage}); err != nil {
			errs = append(errs, err)
		}
	}
	for _, e := range m.Textures {
		if _, ok := l.textures[e.Name]; ok {
			continue
		}
		spec := TextureSpec{Root: l.root, Path: e.Path, FlipY: e.FlipY, MaxSize: e.MaxSize}
		if err := l.loadTexture(e.Name, spec); err != nil {
			errs = append(errs, err)
		}
	}
	for _, e := range m.Materials {
		if _, ok := l.materials[e.Name]; ok {
			continue
		}
		spec := MaterialSpec{
			Name:      e.Name,
			Generator: e.Generator,
			Params:    e.Params,
			Shader:    e.Shader,
			Color:     e.Color,
			Textures:  e.Textures,
			Scripts:   l.scripts,
		}
		if err := l.loadMaterial(e.Name, spec); err != nil {
			errs = append(errs, err)
		}
	}
	l.log.Info("resources loaded",
		zap.Int("shaders", len(l.shaders)),
		zap.Int("textures", len(l.textures)),
		zap.Int("materials", len(l.materials)),
		zap.Int("errors", len(errs)))
	return errors.Join(errs...)
}

func (l *Library) loadShader(name string, spec ShaderSpec) error {
	c := proxy.CacheFor[ShaderSource](l.proxy)
	r := c.Get(spec)
	src, err := c.Assure(r)
	if err != nil {
		_ = r.Release()
		return fmt.Errorf("shader %s: %w", name, err)
	}
	l.shaders[name] = r
	key := "shader:" + name
	rebuild := func() error {
		s, err := c.Update(r)
		if err != nil {
			return err
		}
		l.track(key, s.Dependencies(), nil)
		return nil
	}
	l.track(key, src.Dependencies(), rebuild)
	return nil
}

func (l *Library) loadTexture(name string, spec TextureSpec) error {
	c := proxy.CacheFor[Texture](l.proxy)
	r := c.Get(spec)
	if _, err := c.Assure(r); err != nil {
		_ = r.Release()
		return fmt.Errorf("texture %s: %w", name, err)
	}
	l.textures[name] = r
	l.track("texture:"+name, []string{NormalizePath(spec.Path)}, func() error {
		_, err := c.Update(r)
		return err
	})
	return nil
}

func (l *Library) loadMaterial(name string, spec MaterialSpec) error {
	c := proxy.CacheFor[Material](l.proxy)
	r := c.Get(spec)
	if _, err := c.Assure(r); err != nil {
		_ = r.Release()
		return err
	}
	l.materials[name] = r
	if spec.Generator != "" {
		l.track("material:"+name, []string{scriptsKey}, func() error {
			_, err := c.Update(r)
			return err
		})
	}
	return nil
}

// scriptsKey collects resources rebuilt after any script reload.
const scriptsKey = "*.lua"

// track binds key to paths, dropping paths it no longer depends on. A nil
// rebuild keeps the existing function.
func (l *Library) track(key string, paths []string, rebuild func() error) {
	if rebuild == nil {
		for _, fns := range l.deps {
			if fn, ok := fns[key]; ok {
				rebuild = fn
				break
			}
		}
	}
	for p, fns := range l.deps {
		if _, ok := fns[key]; ok && !slices.Contains(paths, p) {
			delete(fns, key)
			if len(fns) == 0 {
				delete(l.deps, p)
			}
		}
	}
	for _, p := range paths {
		fns, ok := l.deps[p]
		if !ok {
			fns = make(map[string]func() error)
			l.deps[p] = fns
		}
		fns[key] = rebuild
	}
}

// Watched returns the normalized paths the library reacts to.
func (l *Library) Watched() []string {
	out := make([]string, 0, len(l.deps))
	for p := range l.deps {
		if p != scriptsKey {
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return out
}

// Changed rebuilds every resource built from path, which may be absolute or
// relative to the library root. It returns how many resources were rebuilt.
// Resources whose rebuild fails keep their previous instance.
func (l *Library) Changed(path string) (int, error) {
	rel := path
	if r, err := filepath.Rel(l.root, path); err == nil && !strings.HasPrefix(r, "..") {
		rel = r
	}
	rel = NormalizePath(rel)

	var errs []error
	if strings.EqualFold(filepath.Ext(rel), ".lua") && l.scripts != nil {
		if err := l.scripts.Reload(path); err != nil {
			return 0, err
		}
		rel = scriptsKey
	}
	// Rebuilds may retrack dependencies, so snapshot first.
	fns := maps.Clone(l.deps[rel])
	n := 0
	for _, k := range slices.Sorted(maps.Keys(fns)) {
		if err := fns[k](); err != nil {
			errs = append(errs, fmt.Errorf("rebuild %s: %w", k, err))
			continue
		}
		n++
	}
	if n > 0 || len(errs) > 0 {
		l.log.Info("resources rebuilt", zap.String("path", rel), zap.Int("count", n), zap.Int("errors", len(errs)))
	}
	return n, errors.Join(errs...)
}

// Shader returns a new Requestor for the named shader. The caller releases it.
func (l *Library) Shader(name string) (*proxy.Requestor[ShaderSource], error) {
	return cloneNamed(l.shaders, "shader", name)
}

func (l *Library) Texture(name string) (*proxy.Requestor[Texture], error) {
	return cloneNamed(l.textures, "texture", name)
}

func (l *Library) Material(name string) (*proxy.Requestor[Material], error) {
	return cloneNamed(l.materials, "material", name)
}

func cloneNamed[I any](m map[string]*proxy.Requestor[I], kind, name string) (*proxy.Requestor[I], error) {
	r, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%s %q not in library", kind, name)
	}
	return r.Clone()
}

// Close releases the library's Requestors. Instances still referenced
// elsewhere stay cached.
func (l *Library) Close() {
	for _, r := range l.shaders {
		_ = r.Release()
	}
	for _, r := range l.textures {
		_ = r.Release()
	}
	for _, r := range l.materials {
		_ = r.Release()
	}
	clear(l.shaders)
	clear(l.textures)
	clear(l.materials)
	clear(l.deps)
}
