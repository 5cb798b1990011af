// Package config resolves the application settings from an optional env
// file and the process environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/core1_0"

	"github.com/honoriocassiano/idky/render"
)

// Environment keys.
const (
	KeyTitle              = "IDKY_TITLE"
	KeyWidth              = "IDKY_WIDTH"
	KeyHeight             = "IDKY_HEIGHT"
	KeyDebug              = "IDKY_DEBUG"
	KeyShaderDir          = "IDKY_SHADER_DIR"
	KeyShaderName         = "IDKY_SHADER_NAME"
	KeySurfaceFormat      = "IDKY_SURFACE_FORMAT"
	KeyFenceTimeout       = "IDKY_FENCE_TIMEOUT"
	KeyLogLevel           = "IDKY_LOG_LEVEL"
	KeyLogFormat          = "IDKY_LOG_FORMAT"
	KeyFrameStatsInterval = "IDKY_FRAME_STATS_INTERVAL"
)

// Surface format policies accepted by IDKY_SURFACE_FORMAT.
const (
	FormatAvoidUNORM = "avoid-unorm"
	FormatPreferSRGB = "prefer-srgb"
)

// ErrInvalid marks every configuration error.
var ErrInvalid = errors.New("invalid configuration")

// Config is the resolved application configuration.
type Config struct {
	Title  string
	Width  int
	Height int

	Debug bool

	ShaderDir     string
	ShaderName    string
	SurfaceFormat string
	FenceTimeout  time.Duration

	LogLevel           logrus.Level
	LogFormat          string
	FrameStatsInterval int
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Title:              "idky",
		Width:              800,
		Height:             600,
		ShaderDir:          "shaders",
		ShaderName:         "triangle",
		SurfaceFormat:      FormatAvoidUNORM,
		LogLevel:           logrus.InfoLevel,
		LogFormat:          "text",
		FrameStatsInterval: 600,
	}
}

// Load reads envFile, if given, into the environment and resolves every key.
// Values already present in the process environment win over the file.
// envy loads ./.env on its own when the package is initialised, so a .env in
// the working directory applies even when envFile is empty.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		if err != nil {
			return Config{}, errors.Mark(errors.Wrapf(err, "read %s", envFile), ErrInvalid)
		}
		current := envy.Map()
		for key, value := range values {
			if _, set := current[key]; !set {
				envy.Set(key, value)
			}
		}
	}

	return resolve()
}

func resolve() (Config, error) {
	c := Default()
	var err error

	c.Title = envy.Get(KeyTitle, c.Title)

	if c.Width, err = intValue(KeyWidth, c.Width); err != nil {
		return Config{}, err
	}
	if c.Height, err = intValue(KeyHeight, c.Height); err != nil {
		return Config{}, err
	}
	if c.Width <= 0 || c.Height <= 0 {
		return Config{}, invalid(errors.Newf("window size %dx%d must be positive", c.Width, c.Height))
	}

	if c.Debug, err = boolValue(KeyDebug, c.Debug); err != nil {
		return Config{}, err
	}

	c.ShaderDir = envy.Get(KeyShaderDir, c.ShaderDir)
	c.ShaderName = envy.Get(KeyShaderName, c.ShaderName)

	c.SurfaceFormat = envy.Get(KeySurfaceFormat, c.SurfaceFormat)
	if c.SurfaceFormat != FormatAvoidUNORM && c.SurfaceFormat != FormatPreferSRGB {
		return Config{}, invalid(errors.Newf("%s: unknown surface format policy %q", KeySurfaceFormat, c.SurfaceFormat))
	}

	if raw := envy.Get(KeyFenceTimeout, ""); raw != "" {
		c.FenceTimeout, err = time.ParseDuration(raw)
		if err != nil {
			return Config{}, invalid(errors.Wrap(err, KeyFenceTimeout))
		}
		if c.FenceTimeout < 0 {
			return Config{}, invalid(errors.Newf("%s: negative timeout %s", KeyFenceTimeout, c.FenceTimeout))
		}
	}

	if raw := envy.Get(KeyLogLevel, ""); raw != "" {
		c.LogLevel, err = logrus.ParseLevel(raw)
		if err != nil {
			return Config{}, invalid(errors.Wrap(err, KeyLogLevel))
		}
	}

	c.LogFormat = envy.Get(KeyLogFormat, c.LogFormat)
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return Config{}, invalid(errors.Newf("%s: unknown log format %q", KeyLogFormat, c.LogFormat))
	}

	if c.FrameStatsInterval, err = intValue(KeyFrameStatsInterval, c.FrameStatsInterval); err != nil {
		return Config{}, err
	}
	if c.FrameStatsInterval < 0 {
		return Config{}, invalid(errors.Newf("%s: negative interval %d", KeyFrameStatsInterval, c.FrameStatsInterval))
	}

	return c, nil
}

// Logger builds the application logger.
func (c Config) Logger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(c.LogLevel)
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

// Renderer converts the configuration into the renderer's.
func (c Config) Renderer(log logrus.FieldLogger) render.Config {
	rc := render.DefaultConfig()
	rc.ApplicationName = c.Title
	rc.Debug = c.Debug
	rc.Shaders = os.DirFS(c.ShaderDir)
	rc.ShaderName = c.ShaderName
	rc.FenceTimeout = c.FenceTimeout
	rc.StatsInterval = c.FrameStatsInterval
	rc.Logger = log

	if c.SurfaceFormat == FormatPreferSRGB {
		rc.SurfaceFormat = render.PreferFormat(core1_0.FormatB8G8R8A8SRGB)
	} else {
		rc.SurfaceFormat = render.AvoidFormat(render.DefaultSurfaceFormat)
	}
	return rc
}

func invalid(err error) error {
	return errors.Mark(err, ErrInvalid)
}

func intValue(key string, fallback int) (int, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid(errors.Wrap(err, key))
	}
	return v, nil
}

func boolValue(key string, fallback bool) (bool, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, invalid(errors.Wrap(err, key))
	}
	return v, nil
}
