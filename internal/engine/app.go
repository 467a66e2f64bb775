package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"Skyview/internal/behaviour"
	"Skyview/internal/flycam"
	"Skyview/internal/logger"
	"Skyview/internal/renderer"
	"Skyview/internal/schedule"
	"Skyview/internal/texture"

	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"
)

// Names of the built-in update systems, for ordering user systems against them.
const (
	SystemBehaviours = "behaviours"
)

// fixed updates run every fixedUpdateFrames frames
const fixedUpdateFrames = 2

var ErrNotRunning = errors.New("app is not running")

type WindowOptions struct {
	Title  string
	Width  int32
	Height int32
	// X and Y place the window; zero lets the platform decide.
	X, Y int
}

// Window is an OS window with its own GL context. Contexts share objects with the primary.
type Window struct {
	ID     renderer.WindowID
	Title  string
	handle *glfw.Window
}

// App owns the windows, the scene and the frame loop. All methods must be called from the
// goroutine that called Run, which is locked to its OS thread.
type App struct {
	Scene    *behaviour.ComponentManager
	Env      renderer.Environment
	Startup  *schedule.Schedule
	Update   *schedule.Schedule
	Renderer renderer.Render

	primaryOptions WindowOptions
	windows        []*Window // indexed by WindowID, nil once closed
	time           schedule.Time
	input          *windowInput
	formats        texture.CompressedImageFormats
	frameTrackId   int
	running        bool
}

func NewApp(primary WindowOptions, rend renderer.Render) *App {
	app := &App{
		Scene:          behaviour.NewComponentManager(),
		Env:            renderer.Environment{Ambient: renderer.DefaultAmbientLight()},
		Startup:        schedule.New("startup"),
		Update:         schedule.New("update"),
		Renderer:       rend,
		primaryOptions: primary,
		input:          newWindowInput(),
	}
	app.Update.MustAdd(SystemBehaviours, app.updateBehaviours)
	return app
}

// Time is the frame clock. It implements the delta source the fly camera needs.
func (app *App) Time() *schedule.Time { return &app.time }

// Input is the keyboard and mouse state of whichever window has focus.
func (app *App) Input() flycam.Input { return app.input }

// SupportedFormats is the set of compressed texture families the GL device can sample.
// It is empty until Run has created the primary context.
func (app *App) SupportedFormats() texture.CompressedImageFormats { return app.formats }

func (app *App) SetDebugMode(debug bool) {
	renderer.Debug = debug
}

func (app *App) SetFrustumCulling(enabled bool) {
	renderer.FrustumCullingEnabled = enabled
}

// Run opens the primary window, runs the startup schedule once and then the update schedule
// every frame until the primary window closes or ctx is done.
func (app *App) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("could not initialize glfw: %w", err)
	}
	defer glfw.Terminate()

	primary, err := app.createWindow(app.primaryOptions, nil)
	if err != nil {
		return err
	}
	primary.MakeContextCurrent()
	glfw.SwapInterval(1)
	app.windows = append(app.windows, &Window{ID: renderer.PrimaryWindow, Title: app.primaryOptions.Title, handle: primary})

	if err := app.Renderer.Init(); err != nil {
		primary.Destroy()
		return err
	}
	app.formats = renderer.QueryCompressedFormats()
	app.running = true
	defer app.shutdown()

	app.time.Advance(glfw.GetTime())
	if err := app.Startup.Run(app.time); err != nil {
		return err
	}

	return app.loop(ctx)
}

// SpawnWindow opens another window sharing the primary's GL objects. Cameras whose target is
// the returned id draw into it.
func (app *App) SpawnWindow(opts WindowOptions) (renderer.WindowID, error) {
	if !app.running {
		return 0, ErrNotRunning
	}
	primary := app.windows[renderer.PrimaryWindow].handle
	handle, err := app.createWindow(opts, primary)
	if err != nil {
		return 0, err
	}
	handle.MakeContextCurrent()
	glfw.SwapInterval(0)
	primary.MakeContextCurrent()

	id := renderer.WindowID(len(app.windows))
	app.windows = append(app.windows, &Window{ID: id, Title: opts.Title, handle: handle})
	logger.Log.Info("Window spawned", zap.Stringer("window", id), zap.String("title", opts.Title))
	return id, nil
}

func (app *App) createWindow(opts WindowOptions, share *glfw.Window) (*glfw.Window, error) {
	glfw.WindowHint(glfw.Decorated, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.DepthBits, 32)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(int(opts.Width), int(opts.Height), opts.Title, nil, share)
	if err != nil {
		return nil, fmt.Errorf("could not create window %q: %w", opts.Title, err)
	}
	if opts.X != 0 || opts.Y != 0 {
		window.SetPos(opts.X, opts.Y)
	}
	window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	decorate(window)
	return window, nil
}

func (app *App) loop(ctx context.Context) error {
	primary := app.windows[renderer.PrimaryWindow].handle
	for !primary.ShouldClose() {
		select {
		case <-ctx.Done():
			logger.Log.Info("Frame loop stopped", zap.Error(ctx.Err()))
			return nil
		default:
		}

		app.time.Advance(glfw.GetTime())
		app.input.update(app.windows)

		if err := app.Update.Run(app.time); err != nil {
			return err
		}

		for _, w := range app.windows {
			if w == nil {
				continue
			}
			if w.ID != renderer.PrimaryWindow && w.handle.ShouldClose() {
				app.closeWindow(w)
				continue
			}
			w.handle.MakeContextCurrent()
			width, height := w.handle.GetFramebufferSize()
			if width > 0 && height > 0 {
				app.Renderer.Render(w.ID, int32(width), int32(height), app.Scene, app.Env)
			}
			w.handle.SwapBuffers()
		}
		primary.MakeContextCurrent()
		glfw.PollEvents()
	}
	return nil
}

func (app *App) updateBehaviours(schedule.Time) error {
	if app.frameTrackId >= fixedUpdateFrames {
		app.Scene.FixedUpdateAll()
		app.frameTrackId = 0
	}
	app.Scene.UpdateAll()
	app.frameTrackId++
	return nil
}

func (app *App) closeWindow(w *Window) {
	w.handle.MakeContextCurrent()
	app.Renderer.ReleaseWindow(w.ID)
	w.handle.Destroy()
	app.windows[w.ID] = nil
	app.windows[renderer.PrimaryWindow].handle.MakeContextCurrent()
	logger.Log.Info("Window closed", zap.Stringer("window", w.ID))
}

func (app *App) shutdown() {
	for _, w := range app.windows[1:] {
		if w != nil {
			app.closeWindow(w)
		}
	}
	primary := app.windows[renderer.PrimaryWindow].handle
	primary.MakeContextCurrent()
	app.Renderer.Cleanup()
	primary.Destroy()
	app.windows = nil
	app.running = false
	logger.Log.Info("Renderer shut down", zap.Uint64("frames", app.time.Frame))
}
