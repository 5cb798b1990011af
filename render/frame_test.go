package render

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func bootstrapFake(t *testing.T) (*fakeEnv, *Renderer) {
	t.Helper()
	env := newFakeEnv()
	r, err := env.bootstrap()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(r.Teardown)
	env.j.reset()
	return env, r
}

func assertNoDeadlock(t *testing.T, j *journal) {
	t.Helper()
	if d := j.with("deadlock"); len(d) > 0 {
		t.Fatalf("frame waited on a fence nothing will signal: %v", j.entries)
	}
}

func TestFirstFrameDoesNotBlock(t *testing.T) {
	env, r := bootstrapFake(t)

	if err := r.DrawFrame(); err != nil {
		t.Fatal(err)
	}
	assertNoDeadlock(t, env.j)

	want := []string{
		"wait fence#1",
		"acquire 0",
		"reset fence#1",
		"cmd reset",
		"cmd begin",
		"cmd begin render pass framebuffer#1 800x600",
		"cmd bind pipeline",
		"cmd bind vertex buffer",
		"cmd draw 3",
		"cmd end render pass",
		"cmd end",
		"submit 0",
		"present 0",
	}
	if len(env.j.entries) != len(want) {
		t.Fatalf("journal %v, want %v", env.j.entries, want)
	}
	for i := range want {
		if env.j.entries[i] != want[i] {
			t.Errorf("step %d is %q, want %q", i, env.j.entries[i], want[i])
		}
	}
	if r.State() != StateIdle {
		t.Errorf("state %v after a frame, want idle", r.State())
	}
}

func TestSubmissionWiring(t *testing.T) {
	env, r := bootstrapFake(t)

	if err := r.DrawFrame(); err != nil {
		t.Fatal(err)
	}

	queue := env.device().queues[0]
	if len(queue.submits) != 1 {
		t.Fatalf("expected one submission, got %d", len(queue.submits))
	}
	s := queue.submits[0]
	sync := r.res.Sync
	if s.Wait != sync.ImageAvailable || s.Signal != sync.RenderFinished || s.Fence != sync.InFlight {
		t.Error("submission is not wired to the frame's sync objects")
	}
}

func TestConsecutiveFramesReuseSwapchain(t *testing.T) {
	env, r := bootstrapFake(t)

	for i := 0; i < 2; i++ {
		if err := r.DrawFrame(); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	assertNoDeadlock(t, env.j)

	for _, step := range []string{"acquire", "submit", "present"} {
		if n := len(env.j.with(step)); n != 2 {
			t.Errorf("%s ran %d times, want 2", step, n)
		}
	}
	if n := env.device().counts["swapchain"]; n != 1 {
		t.Errorf("swapchain created %d times, want 1", n)
	}
	if got := env.j.with("present"); got[0] != "present 0" || got[1] != "present 1" {
		t.Errorf("presented %v, want images 0 then 1", got)
	}
	if r.Stats().Frames != 2 {
		t.Errorf("stats counted %d frames, want 2", r.Stats().Frames)
	}
}

func TestOutOfDateAcquireRebuilds(t *testing.T) {
	env, r := bootstrapFake(t)
	env.device().acquires = []acquireResult{{err: ErrSurfaceOutOfDate}}
	env.window.width, env.window.height = 1024, 768

	if err := r.DrawFrame(); err != nil {
		t.Fatalf("out-of-date acquire should not be fatal: %v", err)
	}
	if len(env.j.with("reset fence")) != 0 {
		t.Error("fence reset although no image was acquired")
	}
	if len(env.j.with("submit")) != 0 {
		t.Error("submitted although no image was acquired")
	}
	if n := env.device().counts["swapchain"]; n != 2 {
		t.Fatalf("swapchain created %d times, want a rebuild", n)
	}
	if got := r.SurfaceConfig().Extent; got.Width != 1024 || got.Height != 768 {
		t.Errorf("rebuilt extent %+v, want 1024x768", got)
	}

	if err := r.DrawFrame(); err != nil {
		t.Fatal(err)
	}
	assertNoDeadlock(t, env.j)
}

func TestOutOfDatePresentRebuilds(t *testing.T) {
	env, r := bootstrapFake(t)
	env.device().presents = []presentResult{{err: ErrSurfaceOutOfDate}}

	if err := r.DrawFrame(); err != nil {
		t.Fatalf("out-of-date present should not be fatal: %v", err)
	}
	if n := env.device().counts["swapchain"]; n != 2 {
		t.Fatalf("swapchain created %d times, want a rebuild", n)
	}

	if err := r.DrawFrame(); err != nil {
		t.Fatal(err)
	}
	assertNoDeadlock(t, env.j)
}

func TestSuboptimalStillPresents(t *testing.T) {
	env, r := bootstrapFake(t)
	env.device().acquires = []acquireResult{{index: 1, suboptimal: true}}

	result, err := r.executor.Draw()
	if err != nil {
		t.Fatal(err)
	}
	if result != FrameNeedsRebuild {
		t.Errorf("result %v, want needs rebuild", result)
	}
	if got := env.j.with("present"); len(got) != 1 || got[0] != "present 1" {
		t.Errorf("presented %v, want image 1", got)
	}

	env.device().presents = []presentResult{{suboptimal: true}}
	if result, err = r.executor.Draw(); err != nil || result != FrameNeedsRebuild {
		t.Errorf("suboptimal present: got %v, %v; want needs rebuild", result, err)
	}
}

func TestFrameFailures(t *testing.T) {
	cases := []struct {
		name  string
		setup func(env *fakeEnv, r *Renderer)
		want  error
	}{
		{
			name: "acquire",
			setup: func(env *fakeEnv, r *Renderer) {
				env.device().acquires = []acquireResult{{err: errors.New("device lost")}}
			},
		},
		{
			name: "submit",
			setup: func(env *fakeEnv, r *Renderer) {
				env.device().fail["submit"] = errors.New("device lost")
			},
		},
		{
			name: "present",
			setup: func(env *fakeEnv, r *Renderer) {
				env.device().presents = []presentResult{{err: errors.New("surface lost")}}
			},
		},
		{
			name: "acquired index out of range",
			setup: func(env *fakeEnv, r *Renderer) {
				env.device().acquires = []acquireResult{{index: 7}}
			},
		},
		{
			name: "fence never signals",
			setup: func(env *fakeEnv, r *Renderer) {
				_ = r.res.Sync.InFlight.Reset()
			},
			want: ErrFenceTimeout,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			env, r := bootstrapFake(t)
			c.setup(env, r)

			err := r.DrawFrame()
			if !errors.Is(err, ErrFrameExecution) {
				t.Fatalf("expected a frame execution failure, got %v", err)
			}
			if c.want != nil && !errors.Is(err, c.want) {
				t.Errorf("expected %v, got %v", c.want, err)
			}
			if r.State() != StateIdle {
				t.Errorf("state %v after a failed frame, want idle", r.State())
			}
		})
	}
}

func TestFrameStatsLogged(t *testing.T) {
	env, r := bootstrapFake(t)
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	r.executor.Log = logger
	r.executor.StatsInterval = 2

	for i := 0; i < 4; i++ {
		if err := r.DrawFrame(); err != nil {
			t.Fatal(err)
		}
	}
	assertNoDeadlock(t, env.j)

	var logged int
	for _, e := range hook.AllEntries() {
		if e.Message == "frame stats" {
			logged++
		}
	}
	if logged != 2 {
		t.Errorf("frame stats logged %d times, want 2", logged)
	}

	stats := r.Stats()
	if stats.Frames != 4 || stats.Mean() != stats.Total/4 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestDrawAfterTeardown(t *testing.T) {
	_, r := bootstrapFake(t)
	r.Teardown()

	err := r.DrawFrame()
	if !errors.Is(err, ErrTornDown) {
		t.Fatalf("expected ErrTornDown, got %v", err)
	}
	if r.State() != StateTerminated {
		t.Errorf("state %v, want terminated", r.State())
	}
}

func TestFrameStateNames(t *testing.T) {
	names := map[FrameState]string{
		StateIdle:       "idle",
		StateAcquiring:  "acquiring",
		StateRecording:  "recording",
		StateSubmitted:  "submitted",
		StatePresenting: "presenting",
		StateTerminated: "terminated",
	}
	for state, name := range names {
		if state.String() != name {
			t.Errorf("%d.String() = %q, want %q", int(state), state.String(), name)
		}
	}
}

func TestFrameStateTransitions(t *testing.T) {
	_, r := bootstrapFake(t)
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.TraceLevel)
	r.executor.Log = logger

	if err := r.DrawFrame(); err != nil {
		t.Fatal(err)
	}

	var got []FrameState
	for _, e := range hook.AllEntries() {
		if e.Message == "frame state" {
			got = append(got, e.Data["state"].(FrameState))
		}
	}
	want := []FrameState{StateAcquiring, StateRecording, StateSubmitted, StatePresenting, StateIdle}
	if len(got) != len(want) {
		t.Fatalf("states %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transition %d is %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEachImageHasItsOwnCommandBuffer(t *testing.T) {
	env, r := bootstrapFake(t)

	for i := 0; i < 4; i++ {
		if err := r.DrawFrame(); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}

	submits := env.device().queues[0].submits
	if len(submits) != 4 {
		t.Fatalf("expected 4 submissions, got %d", len(submits))
	}
	for i, s := range submits {
		image := i % 3
		if s.Commands != r.res.Commands[image] {
			t.Errorf("frame %d submitted a command buffer other than image %d's", i, image)
		}
	}
}
