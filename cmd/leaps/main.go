package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Longseabear/LEapsGLEngine/internal/component"
	"github.com/Longseabear/LEapsGLEngine/internal/config"
	"github.com/Longseabear/LEapsGLEngine/internal/core/ecs"
	"github.com/Longseabear/LEapsGLEngine/internal/core/event"
	"github.com/Longseabear/LEapsGLEngine/internal/core/proxy"
	coresys "github.com/Longseabear/LEapsGLEngine/internal/core/system"
	"github.com/Longseabear/LEapsGLEngine/internal/core/universe"
	"github.com/Longseabear/LEapsGLEngine/internal/resource"
	"github.com/Longseabear/LEapsGLEngine/internal/scripting"
	"github.com/Longseabear/LEapsGLEngine/internal/system"
	"github.com/pkg/profile"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfgPath := "config/engine.toml"
	if p := os.Getenv("LEAPS_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	usedDefaults := false
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err, usedDefaults = config.Default(), nil, true
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()
	if usedDefaults {
		log.Warn("config file not found, using defaults", zap.String("path", cfgPath))
	}

	if stop := startProfile(cfg.Profile); stop != nil {
		defer stop()
	}

	// 3. Runtime context: policies, worlds, bus, runner
	policies := ecs.NewPolicyTable()
	component.RegisterPolicies(policies)
	for name, p := range cfg.ECS.Policies {
		pol, err := ecs.ParsePolicy(p)
		if err != nil {
			return fmt.Errorf("ecs.policies[%s]: %w", name, err)
		}
		policies.SetByName(name, pol)
	}
	u := universe.New(
		universe.WithLogger(log),
		universe.WithPolicies(policies),
		universe.WithWorldOptions(
			ecs.WithPageSize(cfg.ECS.PageSize),
			ecs.WithCapacity(cfg.ECS.InitialCapacity),
		),
	)
	scene := u.BaseWorld()

	// 4. Scripts and resources
	lua, err := scripting.NewEngine(cfg.Scripting.Dir, log.Named("lua"))
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer lua.Close()

	px := proxy.New(u, log.Named("proxy"))
	lib, err := resource.NewLibrary(px, cfg.Resources.Root, lua, log.Named("resource"))
	if err != nil {
		return fmt.Errorf("resource library: %w", err)
	}
	defer lib.Close()

	manifest, err := resource.LoadManifest(cfg.Resources.Manifest)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn("resource manifest not found", zap.String("path", cfg.Resources.Manifest))
		manifest = &resource.Manifest{}
	case err != nil:
		return fmt.Errorf("load manifest: %w", err)
	}
	if err := lib.Load(manifest); err != nil {
		// Missing files should not keep the engine from starting.
		log.Warn("some resources failed to load", zap.Error(err))
	}

	var changes <-chan string
	var watchErrs <-chan error
	if cfg.Resources.Watch {
		dirs := []string{cfg.Resources.Root}
		if _, err := os.Stat(cfg.Scripting.Dir); err == nil {
			dirs = append(dirs, cfg.Scripting.Dir)
		}
		watcher, err := resource.NewWatcher(dirs...)
		if err != nil {
			log.Warn("hot reload disabled", zap.Error(err))
		} else {
			defer watcher.Close()
			changes, watchErrs = watcher.Events, watcher.Errors
		}
	}

	// 5. Scene
	spawned := spawnScene(scene, lib, manifest, log)

	// 6. Create systems and register with the universe
	inputs := system.NewInputQueue(64)
	backend := &system.LogBackend{Log: log.Named("render"), Every: 60}
	for _, s := range []coresys.System{
		system.NewInputSystem(inputs, u.Bus(), 32, log),
		system.NewCameraSystem(scene, u.Bus()),
		system.NewHotReloadSystem(changes, watchErrs, u.Bus(), lib, log.Named("reload")),
		system.NewMovementSystem(scene),
		system.NewTransformSystem(scene, log),
		system.NewRenderPrepSystem(scene, backend, log),
		system.NewCleanupSystem(scene, "scene", u.Bus(), px, cfg.Proxy.SweepEvery, log),
	} {
		if err := u.RegisterSystem(s); err != nil {
			return err
		}
	}
	event.Subscribe(u.Bus(), func(ev event.ResourceReloaded) {
		if ev.Err != nil {
			log.Warn("reload failed", zap.String("path", ev.Path), zap.Error(ev.Err))
			return
		}
		log.Info("reloaded", zap.String("path", ev.Path))
	})
	if err := u.Start(); err != nil {
		return fmt.Errorf("start systems: %w", err)
	}
	inputs.PushResize(event.WindowResized{Width: 1280, Height: 720})

	// 7. Update loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Engine.TickRate)
	defer ticker.Stop()

	log.Info("engine running",
		zap.String("name", cfg.Engine.Name),
		zap.Duration("tick", cfg.Engine.TickRate),
		zap.Int("entities", spawned),
		zap.Int("specs", px.Specs()))

	for {
		select {
		case <-ticker.C:
			u.Update(cfg.Engine.TickRate)
			if cfg.Engine.MaxTicks > 0 && u.Passes() >= uint64(cfg.Engine.MaxTicks) {
				log.Info("tick limit reached", zap.Uint64("passes", u.Passes()))
				return shutdown(u, scene, px, log)
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			return shutdown(u, scene, px, log)
		}
	}
}

// shutdown destroys the scene through the cleanup path so renderables
// release their Requestors, then sweeps the caches.
func shutdown(u *universe.Universe, scene *ecs.World, px *proxy.Proxy, log *zap.Logger) error {
	for e := range ecs.NewView1[component.Transform](scene).Entities() {
		scene.MarkForDestruction(e)
	}
	u.Update(0)
	n := px.Sweep()
	log.Info("engine stopped", zap.Int("swept", n), zap.Int("entities", scene.Size()))
	return nil
}

// spawnScene places one entity per manifest material in a row, plus a camera.
func spawnScene(w *ecs.World, lib *resource.Library, m *resource.Manifest, log *zap.Logger) int {
	cam := w.Create()
	_ = ecs.Emplace(w, cam, component.NewTransform(component.Vec3{0, 2, 10}))
	_ = ecs.Emplace(w, cam, component.Camera{FovY: 1.0, Near: 0.1, Far: 100, Aspect: 16.0 / 9, Active: true})
	_ = ecs.Emplace(w, cam, component.Static{})

	n := 1
	for i, entry := range m.Materials {
		mat, err := lib.Material(entry.Name)
		if err != nil {
			continue
		}
		e := w.Create()
		_ = ecs.Emplace(w, e, component.NewTransform(component.Vec3{float32(i) * 2, 0, 0}))
		_ = ecs.Emplace(w, e, component.Velocity{Angular: component.Vec3{0, 0.5, 0}})
		_ = ecs.Emplace(w, e, component.Renderable{Material: mat})
		n++
	}
	// A textured quad needs both a texture and a material to draw with.
	if len(m.Textures) > 0 && len(m.Materials) > 0 {
		tex, err := lib.Texture(m.Textures[0].Name)
		if err == nil {
			mat, err := lib.Material(m.Materials[0].Name)
			if err != nil {
				_ = tex.Release()
			} else {
				e := w.Create()
				_ = ecs.Emplace(w, e, component.NewTransform(component.Vec3{0, -1, 0}))
				_ = ecs.Emplace(w, e, component.Renderable{Material: mat, Texture: tex})
				n++
			}
		}
	}
	log.Info("scene spawned", zap.Int("entities", n))
	return n
}

func startProfile(cfg config.ProfileConfig) func() {
	var mode func(*profile.Profile)
	switch cfg.Mode {
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfileAllocs
	case "trace":
		mode = profile.TraceProfile
	default:
		return nil
	}
	p := profile.Start(mode, profile.ProfilePath(cfg.Path), profile.NoShutdownHook)
	return p.Stop
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
