package main

import (
	"flag"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/honoriocassiano/idky/config"
	"github.com/honoriocassiano/idky/render"
	"github.com/honoriocassiano/idky/render/vkng"
	"github.com/honoriocassiano/idky/window"
)

func init() {
	runtime.LockOSThread()
}

const pausedPoll = 50 * time.Millisecond

var envFile = flag.String("env", "", "additional env file with IDKY_* settings (./.env is always read when present)")

func main() {
	flag.Parse()

	if err := run(); err != nil {
		log.Fatalf("%+v\n", err)
	}
}

func run() error {
	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}

	logger := cfg.Logger()
	log.SetLevel(cfg.LogLevel)
	log.SetFormatter(logger.Formatter)

	win, err := window.New(window.Options{
		Title:  cfg.Title,
		Width:  cfg.Width,
		Height: cfg.Height,
		Log:    logger.WithField("stage", "window"),
	})
	if err != nil {
		return err
	}
	defer win.Destroy()

	driver, err := vkng.New(win.SDL(), logger)
	if err != nil {
		return err
	}

	renderer, err := render.Bootstrap(driver, win, cfg.Renderer(logger))
	if err != nil {
		return err
	}
	defer renderer.Teardown()

	selected := renderer.Adapter()
	surface := renderer.SurfaceConfig()
	logger.WithFields(log.Fields{
		"adapter": selected.Info.Name,
		"format":  surface.Format.Format,
		"extent":  surface.Extent,
	}).Info("presenting")

	for win.PollEvents(renderer) == window.Continue {
		if win.Paused() {
			time.Sleep(pausedPoll)
			continue
		}
		if err := renderer.DrawFrame(); err != nil {
			return err
		}
	}

	stats := renderer.Stats()
	logger.WithFields(log.Fields{
		"frames": stats.Frames,
		"mean":   stats.Mean(),
	}).Info("exiting")

	return nil
}
