package resource

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type ShaderStage uint8

const (
	StageVertex ShaderStage = iota
	StageFragment
	StageGeometry
	StageCompute
)

func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageGeometry:
		return "geometry"
	case StageCompute:
		return "compute"
	}
	return fmt.Sprintf("stage(%d)", uint8(s))
}

// ParseStage accepts stage names and the usual file extensions.
func ParseStage(s string) (ShaderStage, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "vertex", "vert", "vs":
		return StageVertex, nil
	case "fragment", "frag", "fs":
		return StageFragment, nil
	case "geometry", "geom", "gs":
		return StageGeometry, nil
	case "compute", "comp", "cs":
		return StageCompute, nil
	}
	return 0, fmt.Errorf("unknown shader stage %q", s)
}

// ShaderSource is a loaded shader with its includes expanded. Compiling it is
// left to the rendering backend.
type ShaderSource struct {
	Path     string
	Stage    ShaderStage
	Source   string
	Includes []string
}

// ShaderSpec requests the shader at Path (relative to Root) for Stage. Root
// is not part of the identity.
type ShaderSpec struct {
	Root  string
	Path  string
	Stage ShaderStage
}

func (s ShaderSpec) Hash() uint64 {
	return contentHash("shader", NormalizePath(s.Path), s.Stage.String())
}

func (s ShaderSpec) Generate() (ShaderSource, error) {
	src := ShaderSource{Path: NormalizePath(s.Path), Stage: s.Stage}
	var buf bytes.Buffer
	if err := expand(&buf, s.Root, src.Path, map[string]bool{}, &src.Includes); err != nil {
		return ShaderSource{}, err
	}
	src.Source = buf.String()
	return src, nil
}

// Dependencies returns the normalized paths whose change invalidates this
// shader: the file itself and every include it pulls in.
func (s ShaderSource) Dependencies() []string {
	return append([]string{s.Path}, s.Includes...)
}

// expand copies path into buf, replacing `#include "file"` lines with the
// file's content. Includes resolve relative to the including file.
func expand(buf *bytes.Buffer, root, path string, seen map[string]bool, includes *[]string) error {
	if seen[path] {
		return fmt.Errorf("shader include cycle at %s", path)
	}
	seen[path] = true
	defer delete(seen, path)

	raw, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(path)))
	if err != nil {
		return fmt.Errorf("read shader %s: %w", path, err)
	}
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(trimmed, "#include"); ok {
			name := strings.Trim(strings.TrimSpace(rest), `"<>`)
			inc := NormalizePath(filepath.Join(filepath.Dir(path), name))
			*includes = append(*includes, inc)
			if err := expand(buf, root, inc, seen, includes); err != nil {
				return err
			}
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return sc.Err()
}
