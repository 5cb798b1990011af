package render

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

// Renderer owns the device, the swapchain and everything built on them, and
// draws the triangle once per DrawFrame.
type Renderer struct {
	config   Config
	log      logrus.FieldLogger
	window   Window
	selected SelectedAdapter

	res      *Resources
	executor *FrameExecutor

	needsRebuild bool
	tornDown     bool
}

// Bootstrap creates every object needed to draw: instance, surface, device,
// swapchain, pipeline, framebuffers, command buffers, sync objects, vertex
// buffer and sampler. On failure whatever was created is torn down again.
func Bootstrap(driver Driver, window Window, config Config) (*Renderer, error) {
	r := &Renderer{
		config: config,
		log:    config.logger(),
		window: window,
		res:    &Resources{},
	}

	if err := r.bootstrap(driver); err != nil {
		r.teardown().Teardown(r.res)
		r.tornDown = true
		return nil, err
	}

	return r, nil
}

func (r *Renderer) bootstrap(driver Driver) error {
	res := r.res

	instance, err := driver.CreateInstance(InstanceInfo{
		ApplicationName: r.config.ApplicationName,
		Extensions:      r.window.RequiredInstanceExtensions(),
		Debug:           r.config.Debug,
	})
	if err != nil {
		return creationFailure(err, "create instance")
	}
	res.Instance = instance

	res.Surface, err = instance.CreateSurface()
	if err != nil {
		return creationFailure(err, "create surface")
	}

	adapters, err := instance.Adapters()
	if err != nil {
		return creationFailure(err, "enumerate adapters")
	}

	selector := DeviceSelector{Predicates: r.config.Predicates, Log: r.stage("adapter")}
	r.selected, err = selector.Select(adapters, res.Surface)
	if err != nil {
		return err
	}

	factory := LogicalDeviceFactory{Log: r.stage("device")}
	res.Device, err = factory.Create(r.selected)
	if err != nil {
		return err
	}
	device := res.Device.Device

	res.CommandPool, err = device.CreateCommandPool(res.Device.Families.Graphics)
	if err != nil {
		return creationFailure(err, "create command pool")
	}

	if err := r.buildSwapchainTargets(); err != nil {
		return err
	}

	res.Sync, err = NewSyncObjects(device)
	if err != nil {
		return err
	}

	res.Vertices, err = NewVertexBuffer(device, r.selected.Info.MemoryTypes, TriangleVertices)
	if err != nil {
		return err
	}

	res.Sampler, err = device.CreateSampler(r.selected.Info.MaxSamplerAnisotropy)
	if err != nil {
		return creationFailure(err, "create texture sampler")
	}

	r.executor = &FrameExecutor{
		Graphics:      res.Device.Graphics,
		Present:       res.Device.Present,
		Sync:          res.Sync,
		ClearColor:    r.config.ClearColor,
		FenceTimeout:  r.config.fenceTimeout(),
		StatsInterval: r.config.StatsInterval,
		Log:           r.stage("frame"),
	}
	r.updateTargets()

	r.log.WithField("adapter", r.selected.Info.Name).Info("renderer ready")
	return nil
}

// buildSwapchainTargets negotiates the surface and builds the swapchain, the
// pipeline, the framebuffers and one command buffer per framebuffer on top of it.
func (r *Renderer) buildSwapchainTargets() error {
	res := r.res
	device := res.Device.Device

	negotiator := SurfaceNegotiator{Policy: r.config.SurfaceFormat, Log: r.stage("surface")}
	surfaceConfig, err := negotiator.Negotiate(r.selected.Adapter, res.Surface, res.Device.Families, r.window)
	if err != nil {
		return err
	}

	swapchains := SwapchainManager{Device: device, Surface: res.Surface, Log: r.stage("swapchain")}
	res.Swapchain, err = swapchains.Create(surfaceConfig)
	if err != nil {
		return err
	}

	builder := PipelineBuilder{
		Device:     device,
		Shaders:    r.config.Shaders,
		ShaderName: r.config.ShaderName,
		EntryPoint: r.config.EntryPoint,
		Log:        r.stage("pipeline"),
	}
	res.Pipeline, err = builder.Build(surfaceConfig)
	if err != nil {
		return err
	}

	res.Framebuffers, err = builder.Framebuffers(res.Pipeline, res.Swapchain)
	if err != nil {
		return err
	}

	res.Commands, err = res.CommandPool.Allocate(len(res.Framebuffers))
	if err != nil {
		return creationFailure(err, "allocate command buffers")
	}
	if len(res.Commands) != len(res.Framebuffers) {
		return creationFailure(errors.Newf("got %d command buffers for %d framebuffers", len(res.Commands), len(res.Framebuffers)), "allocate command buffers")
	}

	return nil
}

func (r *Renderer) updateTargets() {
	if r.executor == nil {
		return
	}
	r.executor.Targets = FrameTargets{
		Swapchain:    r.res.Swapchain,
		Pipeline:     r.res.Pipeline,
		Framebuffers: r.res.Framebuffers,
		Commands:     r.res.Commands,
		Vertices:     r.res.Vertices,
	}
}

// DrawFrame draws and presents one frame. A swapchain that has gone out of
// date is rebuilt here; only fatal errors are returned.
func (r *Renderer) DrawFrame() error {
	if r.tornDown {
		return frameFailure(ErrTornDown, "draw")
	}

	if r.needsRebuild {
		if err := r.Rebuild(); err != nil {
			return err
		}
	}

	result, err := r.executor.Draw()
	if err != nil {
		return err
	}

	if result == FrameNeedsRebuild {
		return r.Rebuild()
	}
	return nil
}

// Resize schedules a swapchain rebuild before the next frame.
func (r *Renderer) Resize() {
	r.needsRebuild = true
}

// Rebuild waits for the device to go idle and replaces the swapchain and
// everything sized after it. Sync objects, the vertex buffer, the sampler and
// the command pool are kept. If the rebuild fails, the next DrawFrame
// tries again.
func (r *Renderer) Rebuild() error {
	if r.tornDown {
		return creationFailure(ErrTornDown, "rebuild swapchain")
	}

	if err := r.res.Device.Device.WaitIdle(); err != nil {
		return creationFailure(err, "wait for device idle")
	}

	r.needsRebuild = true
	releaseSwapchainTargets(r.res)
	r.updateTargets()

	err := r.buildSwapchainTargets()
	r.updateTargets()
	if err != nil {
		return err
	}
	r.needsRebuild = false

	r.log.WithFields(logrus.Fields{
		"width":  r.res.Swapchain.Config.Extent.Width,
		"height": r.res.Swapchain.Config.Extent.Height,
	}).Info("rebuilt swapchain")

	return nil
}

// Teardown releases every owned object. It is safe to call more than once.
func (r *Renderer) Teardown() {
	if r.tornDown {
		return
	}
	r.tornDown = true
	if r.executor != nil {
		r.executor.Terminate()
	}
	r.teardown().Teardown(r.res)
}

// SurfaceConfig is the configuration of the current swapchain.
func (r *Renderer) SurfaceConfig() SurfaceConfig {
	if r.res.Swapchain == nil {
		return SurfaceConfig{}
	}
	return r.res.Swapchain.Config
}

// Adapter is the adapter the renderer selected.
func (r *Renderer) Adapter() SelectedAdapter {
	return r.selected
}

// State is the frame executor's current step.
func (r *Renderer) State() FrameState {
	if r.executor == nil {
		return StateTerminated
	}
	return r.executor.State()
}

// Stats returns frame time statistics.
func (r *Renderer) Stats() FrameStats {
	if r.executor == nil {
		return FrameStats{}
	}
	return r.executor.Stats()
}

func (r *Renderer) teardown() TeardownSequencer {
	return TeardownSequencer{Log: r.stage("teardown")}
}

func (r *Renderer) stage(name string) logrus.FieldLogger {
	return r.log.WithField("stage", name)
}
