package render

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/core1_0"
)

// FrameState is the step the frame executor is in.
type FrameState int

const (
	StateIdle FrameState = iota
	StateAcquiring
	StateRecording
	StateSubmitted
	StatePresenting
	StateTerminated
)

func (s FrameState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateRecording:
		return "recording"
	case StateSubmitted:
		return "submitted"
	case StatePresenting:
		return "presenting"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

// FrameResult is the non-fatal outcome of one frame.
type FrameResult int

const (
	// FramePresented means the frame reached the screen and the loop can go on.
	FramePresented FrameResult = iota
	// FrameNeedsRebuild means the swapchain no longer matches the surface and
	// must be rebuilt before the next frame.
	FrameNeedsRebuild
)

func (r FrameResult) String() string {
	switch r {
	case FramePresented:
		return "presented"
	case FrameNeedsRebuild:
		return "needs rebuild"
	}
	return "unknown"
}

// FrameTargets are the swapchain-dependent objects a frame draws with. They
// are replaced as a whole when the swapchain is rebuilt.
type FrameTargets struct {
	Swapchain    *Swapchain
	Pipeline     *Pipeline
	Framebuffers []Handle
	// Commands holds one primary buffer per framebuffer, by image index.
	Commands     []CommandBuffer
	Vertices     *VertexBuffer
}

// FrameStats accumulates frame times.
type FrameStats struct {
	Frames int
	Last   time.Duration
	Total  time.Duration
}

// Mean is the average frame time so far.
func (s FrameStats) Mean() time.Duration {
	if s.Frames == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Frames)
}

func (s *FrameStats) record(d time.Duration) {
	s.Frames++
	s.Last = d
	s.Total += d
}

// FrameExecutor drives acquire, record, submit and present for a single
// frame-in-flight slot.
type FrameExecutor struct {
	Graphics Queue
	Present  Queue
	Sync     *SyncObjects
	Targets  FrameTargets

	ClearColor    [4]float32
	FenceTimeout  time.Duration
	StatsInterval int
	Log           logrus.FieldLogger

	state FrameState
	stats FrameStats
}

// State is the executor's current step.
func (e *FrameExecutor) State() FrameState {
	return e.state
}

// Stats returns the frame time statistics.
func (e *FrameExecutor) Stats() FrameStats {
	return e.stats
}

// Terminate moves the executor into its terminal state. Draw fails afterwards.
func (e *FrameExecutor) Terminate() {
	e.setState(StateTerminated)
}

func (e *FrameExecutor) setState(s FrameState) {
	if e.state == s {
		return
	}
	e.state = s
	e.logger().WithField("state", s).Trace("frame state")
}

// Draw renders and presents one frame.
//
// The fence is only reset once an image has been acquired: an out-of-date
// acquire returns FrameNeedsRebuild with the fence still signaled, so the
// next frame does not wait on work that was never submitted.
func (e *FrameExecutor) Draw() (FrameResult, error) {
	if e.state == StateTerminated {
		return FramePresented, frameFailure(ErrTornDown, "draw")
	}

	if e.Targets.Swapchain == nil || e.Targets.Swapchain.Handle == nil || e.Targets.Pipeline == nil {
		e.logger().Warn("no swapchain to draw to")
		return FrameNeedsRebuild, nil
	}

	start := hrtime.Now()
	e.setState(StateIdle)

	timeout := e.FenceTimeout
	if timeout <= 0 {
		timeout = NoTimeout
	}
	if err := e.Sync.InFlight.Wait(timeout); err != nil {
		return FramePresented, frameFailure(err, "wait for in-flight fence")
	}

	e.setState(StateAcquiring)
	imageIndex, suboptimal, err := e.Targets.Swapchain.Handle.AcquireNextImage(NoTimeout, e.Sync.ImageAvailable)
	if errors.Is(err, ErrSurfaceOutOfDate) {
		e.setState(StateIdle)
		e.logger().Warn("swapchain out of date on acquire")
		return FrameNeedsRebuild, nil
	} else if err != nil {
		e.setState(StateIdle)
		return FramePresented, frameFailure(err, "acquire image")
	}
	if imageIndex < 0 || imageIndex >= len(e.Targets.Framebuffers) || imageIndex >= len(e.Targets.Commands) {
		e.setState(StateIdle)
		return FramePresented, frameFailure(errors.Newf("image index %d outside %d framebuffers and %d command buffers",
			imageIndex, len(e.Targets.Framebuffers), len(e.Targets.Commands)), "acquire image")
	}
	commands := e.Targets.Commands[imageIndex]

	if err := e.Sync.InFlight.Reset(); err != nil {
		e.setState(StateIdle)
		return FramePresented, frameFailure(err, "reset in-flight fence")
	}

	e.setState(StateRecording)
	if err := e.record(commands, imageIndex); err != nil {
		e.setState(StateIdle)
		return FramePresented, frameFailure(err, "record commands")
	}

	err = e.Graphics.Submit(Submission{
		Wait:      e.Sync.ImageAvailable,
		WaitStage: core1_0.PipelineStageColorAttachmentOutput,
		Commands:  commands,
		Signal:    e.Sync.RenderFinished,
		Fence:     e.Sync.InFlight,
	})
	if err != nil {
		e.setState(StateIdle)
		return FramePresented, frameFailure(err, "submit")
	}
	e.setState(StateSubmitted)

	e.setState(StatePresenting)
	presentSuboptimal, err := e.Present.Present(e.Targets.Swapchain.Handle, imageIndex, e.Sync.RenderFinished)
	e.setState(StateIdle)
	if err != nil && !errors.Is(err, ErrSurfaceOutOfDate) {
		return FramePresented, frameFailure(err, "present")
	}

	e.stats.record(hrtime.Since(start))
	if e.StatsInterval > 0 && e.stats.Frames%e.StatsInterval == 0 {
		e.logger().WithFields(logrus.Fields{
			"frames": e.stats.Frames,
			"last":   e.stats.Last,
			"mean":   e.stats.Mean(),
		}).Debug("frame stats")
	}

	if err != nil || suboptimal || presentSuboptimal {
		e.logger().WithFields(logrus.Fields{
			"outOfDate":  err != nil,
			"suboptimal": suboptimal || presentSuboptimal,
		}).Warn("swapchain needs rebuild after present")
		return FrameNeedsRebuild, nil
	}

	return FramePresented, nil
}

func (e *FrameExecutor) record(commands CommandBuffer, imageIndex int) error {
	if err := commands.Reset(); err != nil {
		return errors.Wrap(err, "reset command buffer")
	}
	if err := commands.Begin(); err != nil {
		return errors.Wrap(err, "begin command buffer")
	}

	err := commands.BeginRenderPass(
		e.Targets.Pipeline.RenderPass,
		e.Targets.Framebuffers[imageIndex],
		e.Targets.Swapchain.Config.Extent,
		e.ClearColor,
	)
	if err != nil {
		return errors.Wrap(err, "begin render pass")
	}

	commands.BindPipeline(e.Targets.Pipeline.Pipeline)
	commands.BindVertexBuffer(e.Targets.Vertices.Buffer)
	commands.Draw(e.Targets.Vertices.VertexCount)
	commands.EndRenderPass()

	if err := commands.End(); err != nil {
		return errors.Wrap(err, "end command buffer")
	}
	return nil
}

func (e *FrameExecutor) logger() logrus.FieldLogger {
	if e.Log == nil {
		return logrus.StandardLogger()
	}
	return e.Log
}
