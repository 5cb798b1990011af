package render

import (
	"math"
	"time"

	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
)

// NoTimeout makes a fence wait or image acquisition block until it completes.
const NoTimeout = time.Duration(math.MaxInt64)

// Handle is any native object the renderer owns and must release explicitly.
type Handle interface {
	Destroy()
}

// Image is a swapchain-owned image. It is never destroyed on its own.
type Image interface{}

// Driver is the entry point into the native graphics API.
type Driver interface {
	CreateInstance(info InstanceInfo) (Instance, error)
}

// InstanceInfo describes the API instance to create.
type InstanceInfo struct {
	ApplicationName string
	Extensions      []string
	Debug           bool
}

// Instance is an API instance bound to one window.
type Instance interface {
	Adapters() ([]Adapter, error)
	// CreateSurface creates the presentation surface for the window the
	// driver was opened on.
	CreateSurface() (Surface, error)
	Destroy()
}

// Adapter is one physical device.
type Adapter interface {
	Info() (AdapterInfo, error)
	CreateDevice(info core1_0.DeviceCreateInfo) (Device, error)
}

// AdapterInfo is the read-only snapshot of an adapter used for selection.
type AdapterInfo struct {
	Name                 string
	QueueFamilies        []QueueFamily
	Extensions           map[string]struct{}
	Features             core1_0.PhysicalDeviceFeatures
	MaxSamplerAnisotropy float32
	// MemoryTypes holds the property flags of each memory type, by index.
	MemoryTypes []core1_0.MemoryPropertyFlags
}

// HasExtension reports whether the adapter advertises the named device extension.
func (i AdapterInfo) HasExtension(name string) bool {
	_, ok := i.Extensions[name]
	return ok
}

// QueueFamily describes one queue family of an adapter.
type QueueFamily struct {
	Flags      core1_0.QueueFlags
	QueueCount int
}

// Surface is the window's presentation surface.
type Surface interface {
	PresentSupport(adapter Adapter, family int) (bool, error)
	Capabilities(adapter Adapter) (*khr_surface.SurfaceCapabilities, error)
	Formats(adapter Adapter) ([]khr_surface.SurfaceFormat, error)
	Destroy()
}

// Device is a logical device. It allocates every other object.
type Device interface {
	Queue(family int) Queue

	CreateSwapchain(surface Surface, config SurfaceConfig) (SwapchainHandle, error)
	CreateImageView(image Image, format core1_0.Format) (Handle, error)
	CreateRenderPass(info core1_0.RenderPassCreateInfo) (Handle, error)
	CreateShaderModule(code []uint32) (Handle, error)
	CreatePipelineLayout() (Handle, error)
	CreateGraphicsPipeline(spec PipelineSpec) (Handle, error)
	CreateFramebuffer(renderPass Handle, view Handle, extent core1_0.Extent2D) (Handle, error)
	CreateCommandPool(family int) (CommandPool, error)
	CreateSemaphore() (Handle, error)
	CreateFence(signaled bool) (Fence, error)
	CreateBuffer(size int, usage core1_0.BufferUsageFlags) (Buffer, error)
	AllocateMemory(size int, memoryType int) (Memory, error)
	CreateSampler(maxAnisotropy float32) (Handle, error)

	WaitIdle() error
	Destroy()
}

// SwapchainHandle is the native swapchain object.
type SwapchainHandle interface {
	Images() ([]Image, error)
	// AcquireNextImage returns ErrSurfaceOutOfDate when the swapchain must be
	// rebuilt before it can be used again.
	AcquireNextImage(timeout time.Duration, signal Handle) (index int, suboptimal bool, err error)
	Destroy()
}

// Submission is one batch submitted to a queue.
type Submission struct {
	Wait      Handle
	WaitStage core1_0.PipelineStageFlags
	Commands  CommandBuffer
	Signal    Handle
	Fence     Fence
}

// Queue is a device queue.
type Queue interface {
	Submit(submission Submission) error
	// Present returns ErrSurfaceOutOfDate when the swapchain must be rebuilt.
	Present(swapchain SwapchainHandle, imageIndex int, wait Handle) (suboptimal bool, err error)
}

// Fence is a host-visible completion signal.
type Fence interface {
	// Wait returns ErrFenceTimeout when the timeout expires first.
	Wait(timeout time.Duration) error
	Reset() error
	Destroy()
}

// CommandPool allocates primary command buffers for one queue family.
type CommandPool interface {
	Allocate(count int) ([]CommandBuffer, error)
	Free(buffers []CommandBuffer)
	Destroy()
}

// CommandBuffer records the commands of one frame.
type CommandBuffer interface {
	Reset() error
	Begin() error
	BeginRenderPass(renderPass Handle, framebuffer Handle, extent core1_0.Extent2D, clear [4]float32) error
	BindPipeline(pipeline Handle)
	BindVertexBuffer(buffer Buffer)
	Draw(vertexCount int)
	EndRenderPass()
	End() error
}

// MemoryRequirements of a buffer.
type MemoryRequirements struct {
	Size int
	// TypeBits has bit i set when memory type i can back the buffer.
	TypeBits uint32
}

// Buffer is a device buffer without its backing memory.
type Buffer interface {
	Requirements() MemoryRequirements
	Bind(memory Memory) error
	Destroy()
}

// Memory is a device memory allocation.
type Memory interface {
	Write(offset int, data []byte) error
	Destroy()
}
