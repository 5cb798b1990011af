package vkng

import (
	"time"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/honoriocassiano/idky/render"
)

type imageViewHandle struct{ view core1_0.ImageView }

func (h *imageViewHandle) Destroy() { h.view.Destroy(nil) }

type renderPassHandle struct{ renderPass core1_0.RenderPass }

func (h *renderPassHandle) Destroy() { h.renderPass.Destroy(nil) }

type shaderModuleHandle struct{ module core1_0.ShaderModule }

func (h *shaderModuleHandle) Destroy() { h.module.Destroy(nil) }

type pipelineLayoutHandle struct{ layout core1_0.PipelineLayout }

func (h *pipelineLayoutHandle) Destroy() { h.layout.Destroy(nil) }

type pipelineHandle struct{ pipeline core1_0.Pipeline }

func (h *pipelineHandle) Destroy() { h.pipeline.Destroy(nil) }

type framebufferHandle struct{ framebuffer core1_0.Framebuffer }

func (h *framebufferHandle) Destroy() { h.framebuffer.Destroy(nil) }

type semaphoreHandle struct{ semaphore core1_0.Semaphore }

func (h *semaphoreHandle) Destroy() { h.semaphore.Destroy(nil) }

type samplerHandle struct{ sampler core1_0.Sampler }

func (h *samplerHandle) Destroy() { h.sampler.Destroy(nil) }

func semaphoreOf(h render.Handle) core1_0.Semaphore {
	if h == nil {
		return nil
	}
	return h.(*semaphoreHandle).semaphore
}

func timeoutOf(timeout time.Duration) time.Duration {
	if timeout == render.NoTimeout {
		return common.NoTimeout
	}
	return timeout
}

type swapchain struct {
	swapchain khr_swapchain.Swapchain
}

func (s *swapchain) Images() ([]render.Image, error) {
	images, _, err := s.swapchain.SwapchainImages()
	if err != nil {
		return nil, err
	}

	out := make([]render.Image, len(images))
	for i, image := range images {
		out[i] = image
	}
	return out, nil
}

func (s *swapchain) AcquireNextImage(timeout time.Duration, signal render.Handle) (int, bool, error) {
	imageIndex, res, err := s.swapchain.AcquireNextImage(timeoutOf(timeout), semaphoreOf(signal), nil)
	if res == khr_swapchain.VKErrorOutOfDate {
		return 0, false, errors.Wrap(render.ErrSurfaceOutOfDate, "acquire")
	} else if err != nil {
		return 0, false, err
	}
	return imageIndex, res == khr_swapchain.VKSuboptimal, nil
}

func (s *swapchain) Destroy() {
	s.swapchain.Destroy(nil)
}

type queue struct {
	queue              core1_0.Queue
	swapchainExtension khr_swapchain.Extension
}

func (q *queue) Submit(submission render.Submission) error {
	var vkFence core1_0.Fence
	if submission.Fence != nil {
		vkFence = submission.Fence.(*fence).fence
	}

	_, err := q.queue.Submit(vkFence, []core1_0.SubmitInfo{
		{
			WaitSemaphores:   []core1_0.Semaphore{semaphoreOf(submission.Wait)},
			WaitDstStageMask: []core1_0.PipelineStageFlags{submission.WaitStage},
			CommandBuffers:   []core1_0.CommandBuffer{submission.Commands.(*commandBuffer).buffer},
			SignalSemaphores: []core1_0.Semaphore{semaphoreOf(submission.Signal)},
		},
	})
	return err
}

func (q *queue) Present(sc render.SwapchainHandle, imageIndex int, wait render.Handle) (bool, error) {
	res, err := q.swapchainExtension.QueuePresent(q.queue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{semaphoreOf(wait)},
		Swapchains:     []khr_swapchain.Swapchain{sc.(*swapchain).swapchain},
		ImageIndices:   []int{imageIndex},
	})
	if res == khr_swapchain.VKErrorOutOfDate {
		return false, errors.Wrap(render.ErrSurfaceOutOfDate, "present")
	} else if err != nil {
		return false, err
	}
	return res == khr_swapchain.VKSuboptimal, nil
}

type fence struct {
	device core1_0.Device
	fence  core1_0.Fence
}

func (f *fence) Wait(timeout time.Duration) error {
	res, err := f.device.WaitForFences(true, timeoutOf(timeout), []core1_0.Fence{f.fence})
	if err != nil {
		return err
	}
	if res == core1_0.VKTimeout {
		return errors.Wrapf(render.ErrFenceTimeout, "after %s", timeout)
	}
	return nil
}

func (f *fence) Reset() error {
	_, err := f.device.ResetFences([]core1_0.Fence{f.fence})
	return err
}

func (f *fence) Destroy() {
	f.fence.Destroy(nil)
}

type commandPool struct {
	device core1_0.Device
	pool   core1_0.CommandPool
}

func (p *commandPool) Allocate(count int) ([]render.CommandBuffer, error) {
	buffers, _, err := p.device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        p.pool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, err
	}

	out := make([]render.CommandBuffer, len(buffers))
	for i, b := range buffers {
		out[i] = &commandBuffer{buffer: b}
	}
	return out, nil
}

func (p *commandPool) Free(buffers []render.CommandBuffer) {
	vkBuffers := make([]core1_0.CommandBuffer, 0, len(buffers))
	for _, b := range buffers {
		vkBuffers = append(vkBuffers, b.(*commandBuffer).buffer)
	}
	p.device.FreeCommandBuffers(vkBuffers)
}

func (p *commandPool) Destroy() {
	p.pool.Destroy(nil)
}

type commandBuffer struct {
	buffer core1_0.CommandBuffer
}

func (c *commandBuffer) Reset() error {
	_, err := c.buffer.Reset(0)
	return err
}

func (c *commandBuffer) Begin() error {
	_, err := c.buffer.Begin(core1_0.CommandBufferBeginInfo{})
	return err
}

func (c *commandBuffer) BeginRenderPass(renderPass render.Handle, framebuffer render.Handle, extent core1_0.Extent2D, clear [4]float32) error {
	return c.buffer.CmdBeginRenderPass(core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  renderPass.(*renderPassHandle).renderPass,
			Framebuffer: framebuffer.(*framebufferHandle).framebuffer,
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: extent,
			},
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat{clear[0], clear[1], clear[2], clear[3]},
			},
		})
}

func (c *commandBuffer) BindPipeline(pipeline render.Handle) {
	c.buffer.CmdBindPipeline(core1_0.PipelineBindPointGraphics, pipeline.(*pipelineHandle).pipeline)
}

func (c *commandBuffer) BindVertexBuffer(b render.Buffer) {
	c.buffer.CmdBindVertexBuffers(0, []core1_0.Buffer{b.(*buffer).buffer}, []int{0})
}

func (c *commandBuffer) Draw(vertexCount int) {
	c.buffer.CmdDraw(vertexCount, 1, 0, 0)
}

func (c *commandBuffer) EndRenderPass() {
	c.buffer.CmdEndRenderPass()
}

func (c *commandBuffer) End() error {
	_, err := c.buffer.End()
	return err
}

type buffer struct {
	buffer core1_0.Buffer
}

func (b *buffer) Requirements() render.MemoryRequirements {
	memRequirements := b.buffer.MemoryRequirements()
	return render.MemoryRequirements{
		Size:     memRequirements.Size,
		TypeBits: memRequirements.MemoryTypeBits,
	}
}

func (b *buffer) Bind(m render.Memory) error {
	_, err := b.buffer.BindBufferMemory(m.(*memory).memory, 0)
	return err
}

func (b *buffer) Destroy() {
	b.buffer.Destroy(nil)
}

type memory struct {
	memory core1_0.DeviceMemory
}

// Write maps the range, copies data into it and unmaps it again. The memory
// must be host-visible and coherent.
func (m *memory) Write(offset int, data []byte) error {
	memoryPtr, _, err := m.memory.Map(offset, len(data), 0)
	if err != nil {
		return err
	}
	defer m.memory.Unmap()

	dataBuffer := unsafe.Slice((*byte)(memoryPtr), len(data))
	copy(dataBuffer, data)
	return nil
}

func (m *memory) Destroy() {
	m.memory.Free(nil)
}
