// Package viewer hosts the showcase scene in an SDL2 window.
package viewer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sqweek/dialog"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/retroscene/internal/assets"
	"github.com/Faultbox/retroscene/internal/config"
	"github.com/Faultbox/retroscene/internal/engine/debug"
	"github.com/Faultbox/retroscene/internal/engine/gpu"
	"github.com/Faultbox/retroscene/internal/engine/gpu/glgpu"
	"github.com/Faultbox/retroscene/internal/engine/input"
	"github.com/Faultbox/retroscene/internal/engine/input/sdlinput"
	"github.com/Faultbox/retroscene/internal/engine/loader"
	"github.com/Faultbox/retroscene/internal/engine/perf"
	"github.com/Faultbox/retroscene/internal/engine/scene"
	"github.com/Faultbox/retroscene/internal/engine/window"
	"github.com/Faultbox/retroscene/internal/logger"
)

// App is the viewer instance: one window, one GL device and the scene.
type App struct {
	cfg *config.Config
	log *zap.Logger

	window    *window.Window
	device    *glgpu.Device
	input     *sdlinput.Input
	listeners *input.Registry
	assets    *assets.Manager
	loader    *loader.Loader
	scene     *scene.Scene
	perf      *perf.Monitor
	shots     *debug.ScreenshotCapture

	running     bool
	shotPending bool
	picking     bool
	picked      chan string
	title       string
}

// New creates the window, the GL device and the scene.
func New(cfg *config.Config) (*App, error) {
	app := &App{
		cfg:       cfg,
		log:       logger.Named("viewer"),
		listeners: input.NewRegistry(),
		assets:    assets.NewManager(),
		perf:      perf.NewMonitor(cfg.Window.ShowFPS),
		shots:     debug.NewScreenshotCapture(cfg.Screenshots.Dir, "retroscene"),
		picked:    make(chan string, 1),
	}

	var err error
	app.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
		Antialias:  cfg.Scene.Renderer.Antialias,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The device needs the GL context the window just made current.
	app.device, err = glgpu.New(logger.Named("gpu"))
	if err != nil {
		app.window.Close()
		return nil, fmt.Errorf("failed to create GPU device: %w", err)
	}

	app.input = sdlinput.New(app.window.Size)

	if err := app.assets.AddDir(cfg.Scene.Decoder.Dir); err != nil {
		// The scene still runs; the model load reports the failure.
		app.log.Warn("asset directory unavailable", zap.Error(err))
	}
	app.loader = loader.New(loader.NewDecoder(app.assets, cfg.Scene.Decoder, logger.Named("loader")), logger.Named("loader"))

	if err := app.startScene(cfg.Scene); err != nil {
		return nil, multierr.Append(err, app.Close())
	}

	app.log.Info("viewer initialized")
	return app, nil
}

// startScene builds a scene sized to the current window.
func (app *App) startScene(sc config.SceneConfig) error {
	sc.Renderer.Width, sc.Renderer.Height = app.window.Size()
	sc.Renderer.PixelRatio = app.window.PixelRatio()

	s, err := scene.New(scene.Deps{
		Device:     app.device,
		Listeners:  app.listeners,
		Loader:     app.loader,
		PixelRatio: app.window.PixelRatio,
		Perf:       app.perf,
		Log:        logger.Named("scene"),
	}, sc)
	if err != nil {
		return fmt.Errorf("failed to create scene: %w", err)
	}

	s.OnLoaded(func(r scene.LoadResult) {
		if r.Err != nil {
			app.log.Warn("showing scene without model", zap.Error(r.Err))
			return
		}
		app.log.Info("scene loaded")
	})
	s.OnModelClicked(func() {
		// The modal lives in the embedding host; the standalone viewer
		// only records the click.
		app.log.Info("model clicked")
	})
	app.scene = s
	return nil
}

// Run drives the display loop until the window is closed or Escape is
// pressed.
func (app *App) Run() error {
	app.running = true
	start := time.Now()
	app.log.Info("starting display loop")

	for app.running {
		if app.input.Update() {
			app.running = false
			break
		}
		for _, ev := range app.input.Events() {
			app.handle(ev)
		}
		app.input.Dispatch(app.listeners)

		select {
		case path := <-app.picked:
			app.picking = false
			if path != "" {
				app.openModel(path)
			}
		default:
		}

		app.scene.Tick(time.Since(start))
		if app.shotPending {
			app.shotPending = false
			app.screenshot()
		}
		app.updateTitle()
		app.window.SwapBuffers()
	}
	return nil
}

func (app *App) handle(ev input.Event) {
	switch ev.Type {
	case input.EventWindowResize:
		if err := app.scene.ResizeView(ev.Width, ev.Height); err != nil {
			app.log.Warn("resize failed", zap.Int("width", ev.Width), zap.Int("height", ev.Height), zap.Error(err))
		}
	case input.EventKeyDown:
		switch ev.Key {
		case input.KeyEscape:
			app.running = false
		case input.KeyR:
			app.scene.ResetView()
		case input.KeyG:
			glitch := app.scene.Pipeline().Glitch()
			glitch.SetWild(!glitch.Wild())
			app.log.Debug("glitch mode toggled", zap.Bool("wild", glitch.Wild()))
		case input.KeyF12:
			app.shotPending = true
		case input.KeyO:
			app.pickModel()
		}
	}
}

// pickModel asks for a model file in a native dialog. The dialog runs off
// the display thread; its answer is picked up by Run.
func (app *App) pickModel() {
	if app.picking {
		return
	}
	app.picking = true
	go func() {
		path, err := dialog.File().
			Filter("Mesh assets", "mshz").
			Filter("All Files", "*").
			Title("Open model").
			Load()
		if err != nil && !errors.Is(err, dialog.ErrCancelled) {
			app.log.Warn("file dialog failed", zap.Error(err))
		}
		app.picked <- path
	}()
}

// openModel replaces the scene with one showing the model at path.
func (app *App) openModel(path string) {
	dir, file := filepath.Split(path)
	if err := app.assets.AddDir(dir); err != nil {
		app.log.Warn("cannot open model", zap.String("path", path), zap.Error(err))
		return
	}

	sc := app.cfg.Scene
	sc.Model.Path, sc.Model.File = "", file
	app.scene.DisposeAll()
	if err := app.startScene(sc); err != nil {
		app.log.Error("failed to rebuild scene", zap.String("path", path), zap.Error(err))
		app.running = false
	}
}

// screenshot reads the default framebuffer back and writes a PNG.
func (app *App) screenshot() {
	w, h := app.window.DrawableSize()
	pixels, err := app.device.ReadPixels(gpu.Handle{}, w, h)
	if err != nil {
		app.log.Warn("screenshot read failed", zap.Error(err))
		return
	}
	path, err := app.shots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		app.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	app.log.Info("screenshot saved", zap.String("path", path))
}

func (app *App) updateTitle() {
	if !app.perf.Enabled() {
		return
	}
	w, _ := app.window.Size()
	title := app.cfg.Window.Title
	if text := app.perf.Text(w); text != "" {
		title += " | " + strings.ReplaceAll(text, "\n", " | ")
	}
	if title != app.title {
		app.title = title
		app.window.SetTitle(title)
	}
}

// Close disposes the scene while the GL context is still alive, then
// tears down the device and the window.
func (app *App) Close() error {
	app.log.Info("closing viewer")

	var err error
	if app.scene != nil {
		app.scene.DisposeAll()
		app.scene = nil
	}
	if app.loader != nil {
		app.loader.Close()
	}
	app.assets.Close()
	if app.device != nil {
		err = multierr.Append(err, app.device.Close())
		app.device = nil
	}
	if app.window != nil {
		app.window.Close()
		app.window = nil
	}
	return err
}
