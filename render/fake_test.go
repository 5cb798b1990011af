package render

import (
	"fmt"
	"strings"
	"testing/fstest"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

// journal records every call the fake driver sees, in order.
type journal struct {
	entries []string
}

func (j *journal) add(format string, args ...interface{}) {
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

// with returns the entries that start with prefix.
func (j *journal) with(prefix string) []string {
	var out []string
	for _, e := range j.entries {
		if strings.HasPrefix(e, prefix) {
			out = append(out, e)
		}
	}
	return out
}

// destroyedKinds returns the kinds of destroyed objects in destruction order,
// dropping the instance counter suffix.
func (j *journal) destroyedKinds() []string {
	var out []string
	for _, e := range j.with("destroy ") {
		name := strings.TrimPrefix(e, "destroy ")
		if i := strings.IndexByte(name, '#'); i >= 0 {
			name = name[:i]
		}
		out = append(out, name)
	}
	return out
}

func (j *journal) reset() {
	j.entries = nil
}

type fakeHandle struct {
	j         *journal
	name      string
	destroyed bool
}

func (h *fakeHandle) Destroy() {
	if h.destroyed {
		h.j.add("double-destroy %s", h.name)
		return
	}
	h.destroyed = true
	h.j.add("destroy %s", h.name)
}

type fakeDriver struct {
	j        *journal
	instance *fakeInstance
	err      error
	lastInfo InstanceInfo
}

func (d *fakeDriver) CreateInstance(info InstanceInfo) (Instance, error) {
	d.lastInfo = info
	if d.err != nil {
		return nil, d.err
	}
	d.j.add("create instance")
	return d.instance, nil
}

type fakeInstance struct {
	fakeHandle
	adapters    []Adapter
	adaptersErr error
	surface     *fakeSurface
	surfaceErr  error
}

func (i *fakeInstance) Adapters() ([]Adapter, error) {
	return i.adapters, i.adaptersErr
}

func (i *fakeInstance) CreateSurface() (Surface, error) {
	if i.surfaceErr != nil {
		return nil, i.surfaceErr
	}
	i.j.add("create surface")
	return i.surface, nil
}

type fakeAdapter struct {
	j       *journal
	info    AdapterInfo
	infoErr error

	// present lists the families that can present; nil means all of them.
	present    map[int]bool
	presentErr error

	formats      []khr_surface.SurfaceFormat
	capabilities khr_surface.SurfaceCapabilities

	device         *fakeDevice
	deviceErr      error
	lastCreateInfo *core1_0.DeviceCreateInfo
	presentQueries int
}

func (a *fakeAdapter) Info() (AdapterInfo, error) {
	return a.info, a.infoErr
}

func (a *fakeAdapter) CreateDevice(info core1_0.DeviceCreateInfo) (Device, error) {
	a.lastCreateInfo = &info
	if a.deviceErr != nil {
		return nil, a.deviceErr
	}
	a.j.add("create device")
	return a.device, nil
}

type fakeSurface struct {
	fakeHandle
}

func (s *fakeSurface) PresentSupport(adapter Adapter, family int) (bool, error) {
	a := adapter.(*fakeAdapter)
	a.presentQueries++
	if a.presentErr != nil {
		return false, a.presentErr
	}
	if a.present == nil {
		return true, nil
	}
	return a.present[family], nil
}

func (s *fakeSurface) Capabilities(adapter Adapter) (*khr_surface.SurfaceCapabilities, error) {
	caps := adapter.(*fakeAdapter).capabilities
	return &caps, nil
}

func (s *fakeSurface) Formats(adapter Adapter) ([]khr_surface.SurfaceFormat, error) {
	return adapter.(*fakeAdapter).formats, nil
}

type acquireResult struct {
	index      int
	suboptimal bool
	err        error
}

type presentResult struct {
	suboptimal bool
	err        error
}

type fakeDevice struct {
	fakeHandle
	counts map[string]int
	fail   map[string]error

	queues map[int]*fakeQueue

	imageCount  int
	memoryBits  uint32
	acquires    []acquireResult
	presents    []presentResult
	nextImage   int
	swapchains  []*fakeSwapchain
	lastSpec    *PipelineSpec
	lastPass    *core1_0.RenderPassCreateInfo
	anisotropy  float32
	memories    []*fakeMemory
	waitIdles   int
	fences      []*fakeFence
	shaderCodes [][]uint32
}

func (d *fakeDevice) handle(kind string) (*fakeHandle, error) {
	if err := d.fail[kind]; err != nil {
		return nil, err
	}
	d.counts[kind]++
	name := fmt.Sprintf("%s#%d", kind, d.counts[kind])
	d.j.add("create %s", name)
	return &fakeHandle{j: d.j, name: name}, nil
}

func (d *fakeDevice) Queue(family int) Queue {
	q, ok := d.queues[family]
	if !ok {
		q = &fakeQueue{j: d.j, device: d, family: family}
		d.queues[family] = q
	}
	return q
}

func (d *fakeDevice) CreateSwapchain(surface Surface, config SurfaceConfig) (SwapchainHandle, error) {
	h, err := d.handle("swapchain")
	if err != nil {
		return nil, err
	}
	sc := &fakeSwapchain{fakeHandle: *h, device: d, images: d.imageCount, config: config}
	d.swapchains = append(d.swapchains, sc)
	return sc, nil
}

func (d *fakeDevice) CreateImageView(image Image, format core1_0.Format) (Handle, error) {
	return d.handle("view")
}

func (d *fakeDevice) CreateRenderPass(info core1_0.RenderPassCreateInfo) (Handle, error) {
	d.lastPass = &info
	return d.handle("renderpass")
}

func (d *fakeDevice) CreateShaderModule(code []uint32) (Handle, error) {
	d.shaderCodes = append(d.shaderCodes, code)
	return d.handle("shader")
}

func (d *fakeDevice) CreatePipelineLayout() (Handle, error) {
	return d.handle("layout")
}

func (d *fakeDevice) CreateGraphicsPipeline(spec PipelineSpec) (Handle, error) {
	d.lastSpec = &spec
	for _, shader := range []Handle{spec.VertexShader, spec.FragmentShader} {
		if shader.(*fakeHandle).destroyed {
			d.j.add("pipeline-with-destroyed-shader")
		}
	}
	return d.handle("pipeline")
}

func (d *fakeDevice) CreateFramebuffer(renderPass Handle, view Handle, extent core1_0.Extent2D) (Handle, error) {
	return d.handle("framebuffer")
}

func (d *fakeDevice) CreateCommandPool(family int) (CommandPool, error) {
	h, err := d.handle("pool")
	if err != nil {
		return nil, err
	}
	return &fakeCommandPool{fakeHandle: *h, device: d}, nil
}

func (d *fakeDevice) CreateSemaphore() (Handle, error) {
	return d.handle("semaphore")
}

func (d *fakeDevice) CreateFence(signaled bool) (Fence, error) {
	h, err := d.handle("fence")
	if err != nil {
		return nil, err
	}
	f := &fakeFence{fakeHandle: *h, signaled: signaled}
	d.fences = append(d.fences, f)
	return f, nil
}

func (d *fakeDevice) CreateBuffer(size int, usage core1_0.BufferUsageFlags) (Buffer, error) {
	h, err := d.handle("buffer")
	if err != nil {
		return nil, err
	}
	return &fakeBuffer{fakeHandle: *h, size: size, bits: d.memoryBits}, nil
}

func (d *fakeDevice) AllocateMemory(size int, memoryType int) (Memory, error) {
	h, err := d.handle("memory")
	if err != nil {
		return nil, err
	}
	m := &fakeMemory{fakeHandle: *h, size: size, memoryType: memoryType}
	d.memories = append(d.memories, m)
	return m, nil
}

func (d *fakeDevice) CreateSampler(maxAnisotropy float32) (Handle, error) {
	d.anisotropy = maxAnisotropy
	return d.handle("sampler")
}

func (d *fakeDevice) WaitIdle() error {
	d.waitIdles++
	d.j.add("wait idle")
	for _, f := range d.fences {
		f.signaled = f.signaled || f.pending
		f.pending = false
	}
	return d.fail["idle"]
}

type fakeSwapchain struct {
	fakeHandle
	device *fakeDevice
	images int
	config SurfaceConfig
}

func (s *fakeSwapchain) Images() ([]Image, error) {
	if err := s.device.fail["images"]; err != nil {
		return nil, err
	}
	images := make([]Image, s.images)
	for i := range images {
		images[i] = i
	}
	return images, nil
}

func (s *fakeSwapchain) AcquireNextImage(timeout time.Duration, signal Handle) (int, bool, error) {
	d := s.device
	if len(d.acquires) > 0 {
		r := d.acquires[0]
		d.acquires = d.acquires[1:]
		d.j.add("acquire %d", r.index)
		return r.index, r.suboptimal, r.err
	}
	index := d.nextImage % s.images
	d.nextImage++
	d.j.add("acquire %d", index)
	return index, false, nil
}

type fakeQueue struct {
	j       *journal
	device  *fakeDevice
	family  int
	submits []Submission
}

func (q *fakeQueue) Submit(submission Submission) error {
	if err := q.device.fail["submit"]; err != nil {
		return err
	}
	q.submits = append(q.submits, submission)
	q.j.add("submit %d", q.family)
	// Work is never finished until the next wait, so only an explicit
	// completion (WaitIdle or a fence wait) signals the fence.
	submission.Fence.(*fakeFence).pending = true
	return nil
}

func (q *fakeQueue) Present(swapchain SwapchainHandle, imageIndex int, wait Handle) (bool, error) {
	d := q.device
	q.j.add("present %d", imageIndex)
	if len(d.presents) > 0 {
		r := d.presents[0]
		d.presents = d.presents[1:]
		return r.suboptimal, r.err
	}
	return false, nil
}

type fakeFence struct {
	fakeHandle
	signaled bool
	// pending is submitted work that completes on the next wait.
	pending bool
}

func (f *fakeFence) Wait(timeout time.Duration) error {
	f.j.add("wait %s", f.name)
	if f.pending {
		f.signaled = true
		f.pending = false
	}
	if !f.signaled {
		// Nothing will ever signal this fence.
		f.j.add("deadlock %s", f.name)
		return errors.Mark(errors.New("fence never signaled"), ErrFenceTimeout)
	}
	return nil
}

func (f *fakeFence) Reset() error {
	f.j.add("reset %s", f.name)
	f.signaled = false
	return nil
}

type fakeCommandPool struct {
	fakeHandle
	device *fakeDevice
}

func (p *fakeCommandPool) Allocate(count int) ([]CommandBuffer, error) {
	if err := p.device.fail["commands"]; err != nil {
		return nil, err
	}
	buffers := make([]CommandBuffer, count)
	for i := range buffers {
		buffers[i] = &fakeCommandBuffer{j: p.j}
	}
	p.j.add("allocate commands %d", count)
	return buffers, nil
}

func (p *fakeCommandPool) Free(buffers []CommandBuffer) {
	p.j.add("free commands %d", len(buffers))
}

type fakeCommandBuffer struct {
	j *journal
}

func (c *fakeCommandBuffer) Reset() error {
	c.j.add("cmd reset")
	return nil
}

func (c *fakeCommandBuffer) Begin() error {
	c.j.add("cmd begin")
	return nil
}

func (c *fakeCommandBuffer) BeginRenderPass(renderPass Handle, framebuffer Handle, extent core1_0.Extent2D, clear [4]float32) error {
	c.j.add("cmd begin render pass %s %dx%d", framebuffer.(*fakeHandle).name, extent.Width, extent.Height)
	return nil
}

func (c *fakeCommandBuffer) BindPipeline(pipeline Handle) {
	c.j.add("cmd bind pipeline")
}

func (c *fakeCommandBuffer) BindVertexBuffer(buffer Buffer) {
	c.j.add("cmd bind vertex buffer")
}

func (c *fakeCommandBuffer) Draw(vertexCount int) {
	c.j.add("cmd draw %d", vertexCount)
}

func (c *fakeCommandBuffer) EndRenderPass() {
	c.j.add("cmd end render pass")
}

func (c *fakeCommandBuffer) End() error {
	c.j.add("cmd end")
	return nil
}

type fakeBuffer struct {
	fakeHandle
	size  int
	bits  uint32
	bound Memory
}

func (b *fakeBuffer) Requirements() MemoryRequirements {
	return MemoryRequirements{Size: b.size, TypeBits: b.bits}
}

func (b *fakeBuffer) Bind(memory Memory) error {
	b.bound = memory
	return nil
}

type fakeMemory struct {
	fakeHandle
	size       int
	memoryType int
	data       []byte
}

func (m *fakeMemory) Write(offset int, data []byte) error {
	if offset+len(data) > m.size {
		return errors.Newf("write of %d bytes at %d overflows %d", len(data), offset, m.size)
	}
	if m.data == nil {
		m.data = make([]byte, m.size)
	}
	copy(m.data[offset:], data)
	return nil
}

type fakeWindow struct {
	width, height int
	extensions    []string
}

func (w *fakeWindow) RequiredInstanceExtensions() []string {
	return w.extensions
}

func (w *fakeWindow) DrawableSize() (int, int) {
	return w.width, w.height
}

// spirv returns a minimal blob that passes bytecode validation.
func spirv() []byte {
	return []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00}
}

func testShaders() fstest.MapFS {
	return fstest.MapFS{
		"triangle_vert.spv": {Data: spirv()},
		"triangle_frag.spv": {Data: spirv()},
	}
}

func testCapabilities() khr_surface.SurfaceCapabilities {
	return khr_surface.SurfaceCapabilities{
		MinImageCount:  2,
		MaxImageCount:  3,
		MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
	}
}

func testFormats() []khr_surface.SurfaceFormat {
	return []khr_surface.SurfaceFormat{
		{Format: DefaultSurfaceFormat, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
		{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
	}
}

func newFakeAdapter(j *journal, name string, families ...core1_0.QueueFlags) *fakeAdapter {
	info := AdapterInfo{
		Name:                 name,
		Extensions:           map[string]struct{}{khr_swapchain.ExtensionName: {}},
		Features:             core1_0.PhysicalDeviceFeatures{SamplerAnisotropy: true},
		MaxSamplerAnisotropy: 16,
		MemoryTypes: []core1_0.MemoryPropertyFlags{
			core1_0.MemoryPropertyDeviceLocal,
			core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent,
		},
	}
	for _, flags := range families {
		info.QueueFamilies = append(info.QueueFamilies, QueueFamily{Flags: flags, QueueCount: 1})
	}

	return &fakeAdapter{
		j:            j,
		info:         info,
		formats:      testFormats(),
		capabilities: testCapabilities(),
		device: &fakeDevice{
			fakeHandle: fakeHandle{j: j, name: "device"},
			counts:     map[string]int{},
			fail:       map[string]error{},
			queues:     map[int]*fakeQueue{},
			imageCount: 3,
			memoryBits: 0x3,
		},
	}
}

type fakeEnv struct {
	j       *journal
	driver  *fakeDriver
	adapter *fakeAdapter
	window  *fakeWindow
	config  Config
}

func (e *fakeEnv) device() *fakeDevice {
	return e.adapter.device
}

// newFakeEnv is a single adapter with one graphics family that can present.
func newFakeEnv() *fakeEnv {
	j := &journal{}
	adapter := newFakeAdapter(j, "gpu0", core1_0.QueueGraphics)
	instance := &fakeInstance{
		fakeHandle: fakeHandle{j: j, name: "instance"},
		adapters:   []Adapter{adapter},
		surface:    &fakeSurface{fakeHandle: fakeHandle{j: j, name: "surface"}},
	}

	config := DefaultConfig()
	config.Shaders = testShaders()
	config.StatsInterval = 0

	return &fakeEnv{
		j:       j,
		driver:  &fakeDriver{j: j, instance: instance},
		adapter: adapter,
		window:  &fakeWindow{width: 800, height: 600, extensions: []string{"VK_KHR_surface"}},
		config:  config,
	}
}

func (e *fakeEnv) bootstrap() (*Renderer, error) {
	return Bootstrap(e.driver, e.window, e.config)
}
