package render

import (
	"io/fs"

	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

// PipelineSpec is everything a driver needs to create the graphics pipeline.
// The shader modules only have to live until CreateGraphicsPipeline returns.
type PipelineSpec struct {
	RenderPass     Handle
	Layout         Handle
	VertexShader   Handle
	FragmentShader Handle
	EntryPoint     string

	VertexInput   core1_0.PipelineVertexInputStateCreateInfo
	InputAssembly core1_0.PipelineInputAssemblyStateCreateInfo
	Viewport      core1_0.PipelineViewportStateCreateInfo
	Rasterization core1_0.PipelineRasterizationStateCreateInfo
	Multisample   core1_0.PipelineMultisampleStateCreateInfo
	ColorBlend    core1_0.PipelineColorBlendStateCreateInfo
}

// Pipeline holds the render pass and the pipeline bound to it.
type Pipeline struct {
	RenderPass Handle
	Layout     Handle
	Pipeline   Handle
}

// Destroy releases the pipeline, its layout and then the render pass.
func (p *Pipeline) Destroy() {
	if p == nil {
		return
	}
	if p.Pipeline != nil {
		p.Pipeline.Destroy()
		p.Pipeline = nil
	}
	if p.Layout != nil {
		p.Layout.Destroy()
		p.Layout = nil
	}
	if p.RenderPass != nil {
		p.RenderPass.Destroy()
		p.RenderPass = nil
	}
}

// RenderPassInfo describes a render pass with a single color attachment that
// is cleared, stored, and left ready for presentation.
func RenderPassInfo(format core1_0.Format) core1_0.RenderPassCreateInfo {
	return core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         format,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentWrite,
			},
		},
	}
}

// FixedFunctionState fills in the non-programmable stages of spec for a
// swapchain of the given extent.
func FixedFunctionState(spec *PipelineSpec, extent core1_0.Extent2D) {
	spec.VertexInput = core1_0.PipelineVertexInputStateCreateInfo{
		VertexBindingDescriptions:   vertexBindingDescriptions(),
		VertexAttributeDescriptions: vertexAttributeDescriptions(),
	}

	spec.InputAssembly = core1_0.PipelineInputAssemblyStateCreateInfo{
		Topology:               core1_0.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: false,
	}

	spec.Viewport = core1_0.PipelineViewportStateCreateInfo{
		Viewports: []core1_0.Viewport{
			{
				X:        0,
				Y:        0,
				Width:    float32(extent.Width),
				Height:   float32(extent.Height),
				MinDepth: 0,
				MaxDepth: 1,
			},
		},
		Scissors: []core1_0.Rect2D{
			{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: extent,
			},
		},
	}

	spec.Rasterization = core1_0.PipelineRasterizationStateCreateInfo{
		DepthClampEnable:        false,
		RasterizerDiscardEnable: false,

		PolygonMode: core1_0.PolygonModeFill,
		CullMode:    core1_0.CullModeBack,
		FrontFace:   core1_0.FrontFaceClockwise,

		DepthBiasEnable: false,

		LineWidth: 1.0,
	}

	spec.Multisample = core1_0.PipelineMultisampleStateCreateInfo{
		SampleShadingEnable:  false,
		RasterizationSamples: core1_0.Samples1,
		MinSampleShading:     1.0,
	}

	spec.ColorBlend = core1_0.PipelineColorBlendStateCreateInfo{
		LogicOpEnabled: false,
		LogicOp:        core1_0.LogicOpCopy,

		BlendConstants: [4]float32{0, 0, 0, 0},
		Attachments: []core1_0.PipelineColorBlendAttachmentState{
			{
				BlendEnabled:   false,
				ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
			},
		},
	}
}

// PipelineBuilder creates the render pass, the graphics pipeline and the
// framebuffers for one swapchain.
type PipelineBuilder struct {
	Device     Device
	Shaders    fs.FS
	ShaderName string
	EntryPoint string
	Log        logrus.FieldLogger
}

// Build creates the render pass and the pipeline for config. Shader modules
// are destroyed as soon as the pipeline exists.
func (b PipelineBuilder) Build(config SurfaceConfig) (*Pipeline, error) {
	code, err := LoadShaders(b.Shaders, b.ShaderName)
	if err != nil {
		return nil, err
	}

	pipeline := &Pipeline{}

	pipeline.RenderPass, err = b.Device.CreateRenderPass(RenderPassInfo(config.Format.Format))
	if err != nil {
		return nil, creationFailure(err, "create render pass")
	}

	vertShader, err := b.Device.CreateShaderModule(code.Vertex)
	if err != nil {
		pipeline.Destroy()
		return nil, creationFailure(err, "create vertex shader module")
	}
	defer vertShader.Destroy()

	fragShader, err := b.Device.CreateShaderModule(code.Fragment)
	if err != nil {
		pipeline.Destroy()
		return nil, creationFailure(err, "create fragment shader module")
	}
	defer fragShader.Destroy()

	pipeline.Layout, err = b.Device.CreatePipelineLayout()
	if err != nil {
		pipeline.Destroy()
		return nil, creationFailure(err, "create pipeline layout")
	}

	entryPoint := b.EntryPoint
	if entryPoint == "" {
		entryPoint = "main"
	}

	spec := PipelineSpec{
		RenderPass:     pipeline.RenderPass,
		Layout:         pipeline.Layout,
		VertexShader:   vertShader,
		FragmentShader: fragShader,
		EntryPoint:     entryPoint,
	}
	FixedFunctionState(&spec, config.Extent)

	pipeline.Pipeline, err = b.Device.CreateGraphicsPipeline(spec)
	if err != nil {
		pipeline.Destroy()
		return nil, creationFailure(err, "create graphics pipeline")
	}

	if b.Log != nil {
		b.Log.WithField("shader", b.ShaderName).Debug("created graphics pipeline")
	}

	return pipeline, nil
}

// Framebuffers creates one framebuffer per swapchain image view. On failure
// the framebuffers created so far are destroyed.
func (b PipelineBuilder) Framebuffers(pipeline *Pipeline, swapchain *Swapchain) ([]Handle, error) {
	framebuffers := make([]Handle, 0, len(swapchain.Views))
	for i, view := range swapchain.Views {
		framebuffer, err := b.Device.CreateFramebuffer(pipeline.RenderPass, view, swapchain.Config.Extent)
		if err != nil {
			DestroyAll(framebuffers)
			return nil, creationFailure(err, "create framebuffer %d", i)
		}
		framebuffers = append(framebuffers, framebuffer)
	}
	return framebuffers, nil
}

// DestroyAll destroys every non-nil handle in order.
func DestroyAll(handles []Handle) {
	for _, h := range handles {
		if h != nil {
			h.Destroy()
		}
	}
}
