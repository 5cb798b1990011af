// Package window opens the SDL2 window the renderer presents to.
package window

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
)

// Options describes the window to open.
type Options struct {
	Title  string
	Width  int
	Height int
	Log    logrus.FieldLogger
}

// Window is a Vulkan-capable SDL window.
type Window struct {
	window *sdl.Window
	log    logrus.FieldLogger

	paused bool
}

// New initialises SDL video and opens a resizable window.
func New(options Options) (*Window, error) {
	if options.Width <= 0 || options.Height <= 0 {
		return nil, errors.Newf("invalid window size %dx%d", options.Width, options.Height)
	}

	log := options.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "init sdl")
	}

	window, err := sdl.CreateWindow(options.Title,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(options.Width), int32(options.Height),
		sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "create window")
	}

	log.WithFields(logrus.Fields{
		"title":  options.Title,
		"width":  options.Width,
		"height": options.Height,
	}).Debug("opened window")

	return &Window{window: window, log: log}, nil
}

// SDL returns the native window.
func (w *Window) SDL() *sdl.Window {
	return w.window
}

// RequiredInstanceExtensions lists the instance extensions SDL needs to
// create a surface for this window.
func (w *Window) RequiredInstanceExtensions() []string {
	return w.window.VulkanGetInstanceExtensions()
}

// DrawableSize is the size of the window in pixels, which can differ from
// its size in screen coordinates on high-DPI displays.
func (w *Window) DrawableSize() (int, int) {
	width, height := w.window.VulkanGetDrawableSize()
	return int(width), int(height)
}

// Minimized reports whether the window is currently minimized.
func (w *Window) Minimized() bool {
	return w.window.GetFlags()&sdl.WINDOW_MINIMIZED != 0
}

// Paused reports whether drawing should be skipped.
func (w *Window) Paused() bool {
	return w.paused || w.Minimized()
}

// Destroy closes the window and shuts SDL down. It must run after the
// renderer has been torn down.
func (w *Window) Destroy() {
	if w.window != nil {
		w.window.Destroy()
		w.window = nil
	}
	sdl.Quit()
}
