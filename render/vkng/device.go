package vkng

import (
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/honoriocassiano/idky/render"
)

type device struct {
	device             core1_0.Device
	swapchainExtension khr_swapchain.Extension
}

func (d *device) Queue(family int) render.Queue {
	return &queue{
		queue:              d.device.GetQueue(family, 0),
		swapchainExtension: d.swapchainExtension,
	}
}

func (d *device) CreateSwapchain(s render.Surface, config render.SurfaceConfig) (render.SwapchainHandle, error) {
	vkSwapchain, _, err := d.swapchainExtension.CreateSwapchain(d.device, nil, khr_swapchain.SwapchainCreateInfo{
		Surface: s.(*surface).surface,

		MinImageCount:    config.ImageCount,
		ImageFormat:      config.Format.Format,
		ImageColorSpace:  config.Format.ColorSpace,
		ImageExtent:      config.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   config.SharingMode,
		QueueFamilyIndices: config.QueueFamilies,

		PreTransform:   config.Capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    config.PresentMode,
		Clipped:        true,
	})
	if err != nil {
		return nil, err
	}

	return &swapchain{swapchain: vkSwapchain}, nil
}

func (d *device) CreateImageView(image render.Image, format core1_0.Format) (render.Handle, error) {
	imageView, _, err := d.device.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    image.(core1_0.Image),
		ViewType: core1_0.ImageViewType2D,
		Format:   format,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     core1_0.ImageAspectColor,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	if err != nil {
		return nil, err
	}
	return &imageViewHandle{view: imageView}, nil
}

func (d *device) CreateRenderPass(info core1_0.RenderPassCreateInfo) (render.Handle, error) {
	renderPass, _, err := d.device.CreateRenderPass(nil, info)
	if err != nil {
		return nil, err
	}
	return &renderPassHandle{renderPass: renderPass}, nil
}

func (d *device) CreateShaderModule(code []uint32) (render.Handle, error) {
	module, _, err := d.device.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: code,
	})
	if err != nil {
		return nil, err
	}
	return &shaderModuleHandle{module: module}, nil
}

func (d *device) CreatePipelineLayout() (render.Handle, error) {
	layout, _, err := d.device.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{})
	if err != nil {
		return nil, err
	}
	return &pipelineLayoutHandle{layout: layout}, nil
}

func (d *device) CreateGraphicsPipeline(spec render.PipelineSpec) (render.Handle, error) {
	vertStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageVertex,
		Module: spec.VertexShader.(*shaderModuleHandle).module,
		Name:   spec.EntryPoint,
	}

	fragStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageFragment,
		Module: spec.FragmentShader.(*shaderModuleHandle).module,
		Name:   spec.EntryPoint,
	}

	pipelines, _, err := d.device.CreateGraphicsPipelines(nil, nil, []core1_0.GraphicsPipelineCreateInfo{
		{
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				vertStage,
				fragStage,
			},
			VertexInputState:   &spec.VertexInput,
			InputAssemblyState: &spec.InputAssembly,
			ViewportState:      &spec.Viewport,
			RasterizationState: &spec.Rasterization,
			MultisampleState:   &spec.Multisample,
			ColorBlendState:    &spec.ColorBlend,
			Layout:             spec.Layout.(*pipelineLayoutHandle).layout,
			RenderPass:         spec.RenderPass.(*renderPassHandle).renderPass,
			Subpass:            0,
			BasePipelineIndex:  -1,
		},
	})
	if err != nil {
		return nil, err
	}
	return &pipelineHandle{pipeline: pipelines[0]}, nil
}

func (d *device) CreateFramebuffer(renderPass render.Handle, view render.Handle, extent core1_0.Extent2D) (render.Handle, error) {
	framebuffer, _, err := d.device.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass: renderPass.(*renderPassHandle).renderPass,
		Layers:     1,
		Attachments: []core1_0.ImageView{
			view.(*imageViewHandle).view,
		},
		Width:  extent.Width,
		Height: extent.Height,
	})
	if err != nil {
		return nil, err
	}
	return &framebufferHandle{framebuffer: framebuffer}, nil
}

func (d *device) CreateCommandPool(family int) (render.CommandPool, error) {
	pool, _, err := d.device.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: family,
	})
	if err != nil {
		return nil, err
	}
	return &commandPool{device: d.device, pool: pool}, nil
}

func (d *device) CreateSemaphore() (render.Handle, error) {
	semaphore, _, err := d.device.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return nil, err
	}
	return &semaphoreHandle{semaphore: semaphore}, nil
}

func (d *device) CreateFence(signaled bool) (render.Fence, error) {
	var options core1_0.FenceCreateInfo
	if signaled {
		options.Flags = core1_0.FenceCreateSignaled
	}

	vkFence, _, err := d.device.CreateFence(nil, options)
	if err != nil {
		return nil, err
	}
	return &fence{device: d.device, fence: vkFence}, nil
}

func (d *device) CreateBuffer(size int, usage core1_0.BufferUsageFlags) (render.Buffer, error) {
	vkBuffer, _, err := d.device.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, err
	}
	return &buffer{buffer: vkBuffer}, nil
}

func (d *device) AllocateMemory(size int, memoryType int) (render.Memory, error) {
	vkMemory, _, err := d.device.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  size,
		MemoryTypeIndex: memoryType,
	})
	if err != nil {
		return nil, err
	}
	return &memory{memory: vkMemory}, nil
}

func (d *device) CreateSampler(maxAnisotropy float32) (render.Handle, error) {
	sampler, _, err := d.device.CreateSampler(nil, core1_0.SamplerCreateInfo{
		MagFilter:    core1_0.FilterLinear,
		MinFilter:    core1_0.FilterLinear,
		AddressModeU: core1_0.SamplerAddressModeRepeat,
		AddressModeV: core1_0.SamplerAddressModeRepeat,
		AddressModeW: core1_0.SamplerAddressModeRepeat,

		AnisotropyEnable: true,
		MaxAnisotropy:    maxAnisotropy,

		BorderColor: core1_0.BorderColorIntOpaqueBlack,

		MipmapMode: core1_0.SamplerMipmapModeLinear,
	})
	if err != nil {
		return nil, err
	}
	return &samplerHandle{sampler: sampler}, nil
}

func (d *device) WaitIdle() error {
	_, err := d.device.WaitIdle()
	return err
}

func (d *device) Destroy() {
	if d.device != nil {
		d.device.Destroy(nil)
		d.device = nil
	}
}
