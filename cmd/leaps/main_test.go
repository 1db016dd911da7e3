package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Longseabear/LEapsGLEngine/internal/component"
	"github.com/Longseabear/LEapsGLEngine/internal/core/ecs"
	"github.com/Longseabear/LEapsGLEngine/internal/core/proxy"
	"github.com/Longseabear/LEapsGLEngine/internal/core/universe"
	"github.com/Longseabear/LEapsGLEngine/internal/resource"
	"go.uber.org/zap/zaptest"
)

func newSceneLibrary(t *testing.T) (*ecs.World, *proxy.Proxy, *resource.Library) {
	t.Helper()
	root := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "tex"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "tex", "floor.png"), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	log := zaptest.NewLogger(t)
	policies := ecs.NewPolicyTable()
	component.RegisterPolicies(policies)
	u := universe.New(universe.WithLogger(log), universe.WithPolicies(policies))
	px := proxy.New(u, log)
	lib, err := resource.NewLibrary(px, root, nil, log)
	if err != nil {
		t.Fatal(err)
	}
	return u.BaseWorld(), px, lib
}

func TestSpawnSceneReleasesUnusedTexture(t *testing.T) {
	tests := []struct {
		name      string
		materials []resource.MaterialEntry
		spawned   int
	}{
		{"no materials", nil, 1},
		{"with material", []resource.MaterialEntry{{Name: "stone", Shader: "lit.frag", Color: "gray"}}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, px, lib := newSceneLibrary(t)
			m := &resource.Manifest{
				Textures:  []resource.TextureEntry{{Name: "floor", Path: "tex/floor.png"}},
				Materials: tt.materials,
			}
			if err := lib.Load(m); err != nil {
				t.Fatal(err)
			}
			if n := spawnScene(w, lib, m, zaptest.NewLogger(t)); n != tt.spawned {
				t.Fatalf("spawned %d, want %d", n, tt.spawned)
			}

			// Release what the scene holds, then the library's own handles.
			ecs.NewView1[component.Renderable](w).Each(func(_ ecs.EntityID, r *component.Renderable) {
				if r.Material != nil {
					_ = r.Material.Release()
				}
				if r.Texture != nil {
					_ = r.Texture.Release()
				}
			})
			lib.Close()
			if n := px.Specs(); n != 0 {
				t.Fatalf("%d specifications outlived every holder", n)
			}
		})
	}
}
