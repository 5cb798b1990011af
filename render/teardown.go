package render

import (
	"github.com/sirupsen/logrus"
)

// Resources is every object the renderer owns. Fields are filled in as
// bootstrap progresses, so any suffix of them may be nil.
type Resources struct {
	Instance Instance
	Surface  Surface
	Device   *LogicalDevice

	Swapchain    *Swapchain
	Pipeline     *Pipeline
	Framebuffers []Handle

	CommandPool CommandPool
	Commands    []CommandBuffer

	Sync     *SyncObjects
	Vertices *VertexBuffer
	Sampler  Handle
}

// TeardownSequencer destroys Resources in reverse dependency order: device
// children, then the device, the surface and the instance.
type TeardownSequencer struct {
	Log logrus.FieldLogger
}

// Teardown waits for the device to go idle and releases everything in res.
// Released fields are cleared, so calling it again is a no-op.
func (t TeardownSequencer) Teardown(res *Resources) {
	if res == nil {
		return
	}

	if res.Device != nil && res.Device.Device != nil {
		if err := res.Device.Device.WaitIdle(); err != nil {
			t.logger().WithError(err).Warn("device did not go idle before teardown")
		}
	}

	res.Vertices.Destroy()
	res.Vertices = nil

	res.Sync.Destroy()
	res.Sync = nil

	// Freeing the pool frees its command buffers.
	if res.CommandPool != nil {
		res.CommandPool.Destroy()
		res.CommandPool = nil
	}
	res.Commands = nil

	DestroyAll(res.Framebuffers)
	res.Framebuffers = nil

	res.Pipeline.Destroy()
	res.Pipeline = nil

	if res.Sampler != nil {
		res.Sampler.Destroy()
		res.Sampler = nil
	}

	SwapchainManager{}.Destroy(res.Swapchain)
	res.Swapchain = nil

	if res.Device != nil {
		if res.Device.Device != nil {
			res.Device.Device.Destroy()
		}
		res.Device = nil
	}

	if res.Surface != nil {
		res.Surface.Destroy()
		res.Surface = nil
	}

	if res.Instance != nil {
		res.Instance.Destroy()
		res.Instance = nil
		t.logger().Info("teardown complete")
	}
}

// releaseSwapchainTargets destroys what a rebuild replaces: command buffers,
// framebuffers, the pipeline and the swapchain. The caller waits for idle.
func releaseSwapchainTargets(res *Resources) {
	if res.CommandPool != nil && len(res.Commands) > 0 {
		res.CommandPool.Free(res.Commands)
	}
	res.Commands = nil

	DestroyAll(res.Framebuffers)
	res.Framebuffers = nil

	res.Pipeline.Destroy()
	res.Pipeline = nil

	SwapchainManager{}.Destroy(res.Swapchain)
	res.Swapchain = nil
}

func (t TeardownSequencer) logger() logrus.FieldLogger {
	if t.Log == nil {
		return logrus.StandardLogger()
	}
	return t.Log
}
