package window

import (
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
)

// ControlFlow tells the main loop whether to keep running.
type ControlFlow int

const (
	Continue ControlFlow = iota
	Exit
)

func (c ControlFlow) String() string {
	if c == Exit {
		return "exit"
	}
	return "continue"
}

// Resizer is notified when the drawable size changes.
type Resizer interface {
	Resize()
}

// PollEvents drains the SDL event queue. Quit and Escape end the loop;
// a resize to a non-empty size is forwarded to resizer.
func (w *Window) PollEvents(resizer Resizer) ControlFlow {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			return Exit
		case *sdl.KeyboardEvent:
			if e.Type != sdl.KEYDOWN {
				continue
			}
			switch e.Keysym.Sym {
			case sdl.K_ESCAPE:
				return Exit
			case sdl.K_UP, sdl.K_DOWN:
				w.log.WithField("key", sdl.GetKeyName(e.Keysym.Sym)).Debug("key pressed")
			}
		case *sdl.WindowEvent:
			switch e.Event {
			case sdl.WINDOWEVENT_MINIMIZED:
				w.paused = true
			case sdl.WINDOWEVENT_RESTORED:
				w.paused = false
			case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
				width, height := w.DrawableSize()
				if width > 0 && height > 0 {
					w.paused = false
					if resizer != nil {
						resizer.Resize()
					}
				} else {
					w.paused = true
				}
				w.log.WithFields(logrus.Fields{
					"width":  width,
					"height": height,
				}).Debug("window resized")
			}
		}
	}
	return Continue
}
