package render

import (
	"io/fs"
	"time"

	"github.com/sirupsen/logrus"
)

// Config carries everything Bootstrap needs besides the driver and window.
type Config struct {
	ApplicationName string

	// Debug enables the validation layer and the debug messenger.
	Debug bool

	// Shaders holds the compiled SPIR-V files; ShaderName selects
	// <ShaderName>_vert.spv and <ShaderName>_frag.spv inside it.
	Shaders    fs.FS
	ShaderName string
	EntryPoint string

	SurfaceFormat FormatPolicy

	// FenceTimeout bounds the wait for the previous frame. Zero waits forever.
	FenceTimeout time.Duration

	ClearColor [4]float32

	// Predicates are the adapter suitability checks, applied in order.
	Predicates []Predicate

	// StatsInterval is the number of frames between frame-time log lines.
	// Zero disables them.
	StatsInterval int

	Logger logrus.FieldLogger
}

// DefaultConfig returns the configuration the application starts from.
func DefaultConfig() Config {
	return Config{
		ApplicationName: "idky",
		ShaderName:      "triangle",
		EntryPoint:      "main",
		SurfaceFormat:   AvoidFormat(DefaultSurfaceFormat),
		ClearColor:      [4]float32{0, 0, 0, 1},
		Predicates:      DefaultPredicates(),
		StatsInterval:   600,
	}
}

func (c Config) fenceTimeout() time.Duration {
	if c.FenceTimeout <= 0 {
		return NoTimeout
	}
	return c.FenceTimeout
}

func (c Config) logger() logrus.FieldLogger {
	if c.Logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		return l
	}
	return c.Logger
}
