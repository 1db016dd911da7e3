package resource

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest lists the resources preloaded at startup.
type Manifest struct {
	Shaders   []ShaderEntry   `yaml:"shaders"`
	Textures  []TextureEntry  `yaml:"textures"`
	Materials []MaterialEntry `yaml:"materials"`
}

type ShaderEntry struct {
	Name  string `yaml:"name"`
	Path  string `yaml:"path"`
	Stage string `yaml:"stage"` // empty: derived from the file extension
}

type TextureEntry struct {
	Name    string `yaml:"name"`
	Path    string `yaml:"path"`
	FlipY   bool   `yaml:"flip_y"`
	MaxSize int    `yaml:"max_size"`
}

type MaterialEntry struct {
	Name      string             `yaml:"name"`
	Generator string             `yaml:"generator"`
	Params    map[string]float64 `yaml:"params"`
	Shader    string             `yaml:"shader"`
	Color     string             `yaml:"color"`
	Textures  map[string]string  `yaml:"textures"`
}

// LoadManifest loads and validates a resource manifest from YAML.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	names := make(map[string]string)
	claim := func(kind, name string) error {
		if name == "" {
			return fmt.Errorf("%s without a name", kind)
		}
		if prev, ok := names[name]; ok {
			return fmt.Errorf("%s %q already declared as %s", kind, name, prev)
		}
		names[name] = kind
		return nil
	}
	for _, s := range m.Shaders {
		if err := claim("shader", s.Name); err != nil {
			return err
		}
		if s.Path == "" {
			return fmt.Errorf("shader %q has no path", s.Name)
		}
		if _, err := s.stage(); err != nil {
			return fmt.Errorf("shader %q: %w", s.Name, err)
		}
	}
	for _, t := range m.Textures {
		if err := claim("texture", t.Name); err != nil {
			return err
		}
		if t.Path == "" {
			return fmt.Errorf("texture %q has no path", t.Name)
		}
	}
	for _, mat := range m.Materials {
		if err := claim("material", mat.Name); err != nil {
			return err
		}
		if mat.Generator == "" && mat.Shader == "" {
			return fmt.Errorf("material %q needs a shader or a generator", mat.Name)
		}
	}
	return nil
}

func (s ShaderEntry) stage() (ShaderStage, error) {
	if s.Stage != "" {
		return ParseStage(s.Stage)
	}
	ext := filepath.Ext(s.Path)
	if ext == "" {
		return 0, fmt.Errorf("no stage and no extension in %q", s.Path)
	}
	return ParseStage(ext)
}
