package renderer

import (
	"errors"
	"fmt"
	"image"
	"runtime"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-volume/common"
	"github.com/Carmen-Shannon/oxy-volume/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-volume/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-volume/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   PresentMode
	capabilities  Capabilities

	// surfaceWidth and surfaceHeight are zero until the surface has been configured with a visible size
	surfaceWidth, surfaceHeight int

	// Frame state for the render pass currently being recorded
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	// offscreen is set between BeginOffscreenFrame and EndOffscreenFrame
	offscreen *offscreenTarget
}

// offscreenTarget is a copyable color target used for screenshots.
type offscreenTarget struct {
	texture       *wgpu.Texture
	view          *wgpu.TextureView
	width, height int
}

type wgpuRendererBackend interface {
	Device() *wgpu.Device
	Queue() *wgpu.Queue
	Adapter() *wgpu.Adapter
	Surface() *wgpu.Surface

	// Capabilities returns the surface format, limits and features probed at construction.
	//
	// Returns:
	//   - Capabilities: the probed capabilities
	Capabilities() Capabilities

	// ConfigureSurface is a wrapper for boilerplate logic required when calling ConfigureSurface on a surface.
	// This is required when the surface size changes, such as when the window is resized.
	// A zero width or height leaves the surface unconfigured until a visible size arrives.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// RegisterRenderPipeline creates the shader modules, the merged pipeline layout and the render
	// pipeline for p, then stores the GPU pipeline on p.
	//
	// Parameters:
	//   - p: the pipeline object containing the shaders and fixed-function configuration
	//
	// Returns:
	//   - error: an error if the pipeline could not be created, otherwise nil
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// InitMeshBuffers creates a vertex buffer from raw vertex data and stores it with its vertex count on the given provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created vertex buffer on
	//   - vertexData: the raw vertex data bytes to upload to the GPU
	//   - vertexCount: the number of vertices represented in vertexData, used for draw calls
	//
	// Returns:
	//   - error: an error if the buffer could not be created, otherwise nil
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount int) error

	// InitBindGroup creates GPU buffers and a bind group based on a layout descriptor and stores them on the provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider receiving the bind group
	//   - descriptor: the BindGroupLayoutDescriptor describing the layout of the bind group
	//   - bufferUsageOverrides: a map of binding indices to extra buffer usage flags
	//   - bufferSizeOverrides: a map of binding indices to buffer sizes
	//
	// Returns:
	//   - error: an error if the bind group could not be initialized, otherwise nil
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// InitTextureView creates a GPU texture and view from staging data and stores both on the provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created texture view on
	//   - bindingKey: the binding index of the texture
	//   - stagingData: the texel data and metadata for creating the texture
	//
	// Returns:
	//   - error: an error if the texture view could not be created, otherwise nil
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// ReplaceTextureView creates a successor texture for a binding and a bind group that uses it,
	// and only then releases the predecessor texture, view and bind group. On failure the provider
	// is left untouched.
	//
	// Parameters:
	//   - provider: the initialized BindGroupProvider holding the binding
	//   - bindingKey: the binding index of the texture to replace
	//   - descriptor: the layout descriptor the provider's bind group was created with
	//   - stagingData: the texel data of the successor texture
	//
	// Returns:
	//   - error: an error if any successor resource could not be created
	ReplaceTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, descriptor wgpu.BindGroupLayoutDescriptor, stagingData common.TextureStagingData) error

	// InitSampler creates a GPU sampler based on the provided staging data, and stores it on the given BindGroupProvider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created sampler on
	//   - bindingKey: the binding index of the sampler
	//   - samplerStagingData: the sampler configuration
	//
	// Returns:
	//   - error: an error if the sampler could not be created, otherwise nil
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the next swapchain texture, creates a command encoder, and begins
	// the main render pass. Must be paired with EndFrame after all DrawCall invocations.
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame() error

	// BeginOffscreenFrame begins a render pass into a copyable texture of the surface format.
	// Must be paired with EndOffscreenFrame.
	//
	// Parameters:
	//   - width: the target width in pixels
	//   - height: the target height in pixels
	//
	// Returns:
	//   - error: an error if a frame is already being recorded or the target cannot be created
	BeginOffscreenFrame(width, height int) error

	// DrawCall encodes a non-indexed draw of the mesh provider's vertices within the current render pass.
	//
	// Parameters:
	//   - p: the cached Pipeline containing the render pipeline to use
	//   - meshProvider: the BindGroupProvider holding the vertex buffer
	//   - bindGroups: providers whose bind groups are set at group indices 0..n-1
	//
	// Returns:
	//   - error: an error if no frame is being recorded
	DrawCall(p pipeline.Pipeline, meshProvider bind_group_provider.BindGroupProvider, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndFrame ends the current render pass and submits the command buffer to the GPU.
	// Does not present the surface, call Present() after EndFrame to display the frame.
	EndFrame()

	// EndOffscreenFrame ends the offscreen render pass, copies the target into a readback buffer
	// and returns it as an opaque RGBA image.
	//
	// Returns:
	//   - *image.RGBA: the rendered pixels
	//   - error: an error if the copy or the buffer mapping fails
	EndOffscreenFrame() (*image.RGBA, error)

	// Present presents the surface to the display and releases the swapchain texture.
	// Must be called once per frame after EndFrame.
	Present()

	// WaitIdle blocks until the GPU has finished all submitted work.
	WaitIdle()

	// Release releases the device, surface, adapter and instance.
	Release()
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool) (wgpuRendererBackend, error) {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: PresentModeVSync,
	}
	if surfaceDescriptor == nil {
		w.Release()
		return nil, &CapabilityError{Feature: "surface", Detail: "window has no surface descriptor"}
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		w.Release()
		return nil, &CapabilityError{Feature: "adapter", Detail: err.Error()}
	}
	w.adapter = a

	format, err := chooseSurfaceFormat(w.surface.GetCapabilities(a).Formats)
	if err != nil {
		w.Release()
		return nil, err
	}
	w.surfaceFormat = format

	// Start from the WebGPU default limits and raise the 3-D texture extent to what the adapter allows.
	limits := wgpu.DefaultLimits()
	if supported := a.GetLimits().Limits.MaxTextureDimension3D; supported > limits.MaxTextureDimension3D {
		limits.MaxTextureDimension3D = supported
	}

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		w.Release()
		return nil, &CapabilityError{Feature: "device", Detail: err.Error()}
	}
	w.device = d
	w.queue = d.GetQueue()

	w.capabilities = Capabilities{
		SurfaceFormat:         format,
		MaxTextureDimension3D: d.GetLimits().Limits.MaxTextureDimension3D,
		Float32Filterable:     a.HasFeature(wgpu.FeatureNameFloat32Filterable),
	}
	common.Logger().Info("gpu device ready",
		"surface_format", format,
		"max_texture_3d", w.capabilities.MaxTextureDimension3D,
		"float32_filterable", w.capabilities.Float32Filterable)

	return w, nil
}

func (b *wgpuRendererBackendImpl) Capabilities() Capabilities {
	return b.capabilities
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if width <= 0 || height <= 0 {
		b.surfaceWidth, b.surfaceHeight = 0, 0
		return
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpuPresentMode(b.presentMode, capabilities.PresentModes),
		AlphaMode:   capabilities.AlphaModes[0],
	})
	b.surfaceWidth, b.surfaceHeight = width, height
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presentMode = mode
}

func (b *wgpuRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	if vertexShader == nil || fragmentShader == nil {
		return errors.New("both vertex and fragment shaders must be set to create a render pipeline")
	}

	vs, err := b.device.CreateShaderModule(vertexShader.Module())
	if err != nil {
		return fmt.Errorf("vertex shader %s: %w", vertexShader.Key(), err)
	}
	defer vs.Release()
	fs, err := b.device.CreateShaderModule(fragmentShader.Module())
	if err != nil {
		return fmt.Errorf("fragment shader %s: %w", fragmentShader.Key(), err)
	}
	defer fs.Release()

	merged, err := pipeline.MergedBindGroupLayouts(p)
	if err != nil {
		return err
	}
	maxGroup := -1
	for g := range merged {
		maxGroup = max(maxGroup, g)
	}
	bindGroupLayouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g := 0; g <= maxGroup; g++ {
		desc := merged[g]
		layout, layoutErr := b.device.CreateBindGroupLayout(&desc)
		if layoutErr != nil {
			return fmt.Errorf("failed to create bind group layout for group %d: %w", g, layoutErr)
		}
		defer layout.Release()
		bindGroupLayouts[g] = layout
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return err
	}
	defer pipelineLayout.Release()

	layouts := vertexShader.VertexLayouts()
	vertexLayouts := make([]wgpu.VertexBufferLayout, 0, len(layouts))
	for i := 0; i < len(layouts); i++ {
		vertexLayouts = append(vertexLayouts, layouts[i]...)
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    vertexLayouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets: []wgpu.ColorTargetState{{
				Format:    b.surfaceFormat,
				Blend:     p.BlendState(),
				WriteMask: p.WriteMask(),
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return err
	}

	p.SetRenderPipeline(created)
	return nil
}

func (b *wgpuRendererBackendImpl) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(vertexData) == 0 {
		return fmt.Errorf("%s: no vertex data", provider.Label())
	}
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: provider.Label() + " Vertex Buffer",
		Size:  uint64(len(vertexData)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	b.queue.WriteBuffer(buf, 0, vertexData)
	provider.SetVertexBuffer(buf)
	provider.SetVertexCount(vertexCount)

	return nil
}

func (b *wgpuRendererBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(descriptor.Entries) == 0 {
		return nil
	}

	layout := provider.BindGroupLayout()
	if layout == nil {
		var err error
		layout, err = b.device.CreateBindGroupLayout(&descriptor)
		if err != nil {
			return err
		}
		provider.SetBindGroupLayout(layout)
	}

	entries, err := b.bindGroupEntries(provider, descriptor, bufferUsageOverrides, bufferSizeOverrides, nil)
	if err != nil {
		return err
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return err
	}
	if old := provider.BindGroup(); old != nil {
		old.Release()
	}
	provider.SetBindGroup(bindGroup)

	return nil
}

// bindGroupEntries resolves every layout entry to a provider resource, creating uniform buffers
// that do not exist yet. Views in replace take precedence over the provider's texture views.
func (b *wgpuRendererBackendImpl) bindGroupEntries(
	provider bind_group_provider.BindGroupProvider,
	descriptor wgpu.BindGroupLayoutDescriptor,
	bufferUsageOverrides map[int]wgpu.BufferUsage,
	bufferSizeOverrides map[int]uint64,
	replace map[int]*wgpu.TextureView,
) ([]wgpu.BindGroupEntry, error) {
	entries := make([]wgpu.BindGroupEntry, len(descriptor.Entries))
	for i, entry := range descriptor.Entries {
		binding := int(entry.Binding)

		switch {
		case entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
			tv := replace[binding]
			if tv == nil {
				tv = provider.TextureView(binding)
			}
			if tv == nil {
				return nil, fmt.Errorf("%s: texture binding %d has no texture view, call InitTextureView first", provider.Label(), binding)
			}
			entries[i] = wgpu.BindGroupEntry{Binding: entry.Binding, TextureView: tv}
		case entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
			samp := provider.Sampler(binding)
			if samp == nil {
				return nil, fmt.Errorf("%s: sampler binding %d has no sampler, call InitSampler first", provider.Label(), binding)
			}
			entries[i] = wgpu.BindGroupEntry{Binding: entry.Binding, Sampler: samp}
		default:
			buf := provider.Buffer(binding)
			if buf == nil {
				usage := wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
				if overrideUsage, ok := bufferUsageOverrides[binding]; ok {
					usage |= overrideUsage
				}
				size := entry.Buffer.MinBindingSize
				if overrideSize, ok := bufferSizeOverrides[binding]; ok {
					size = overrideSize
				}
				var err error
				buf, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
					Label: fmt.Sprintf("%s Buffer %d", provider.Label(), binding),
					Size:  size,
					Usage: usage,
				})
				if err != nil {
					return nil, err
				}
				provider.SetBuffer(binding, buf)
			}
			entries[i] = wgpu.BindGroupEntry{
				Binding: entry.Binding,
				Buffer:  buf,
				Offset:  0,
				Size:    wgpu.WholeSize,
			}
		}
	}
	return entries, nil
}

// createTexture uploads staging data into a new 2-D or 3-D texture. The caller holds b.mu.
func (b *wgpuRendererBackendImpl) createTexture(label string, stagingData common.TextureStagingData) (*wgpu.Texture, *wgpu.TextureView, error) {
	if stagingData.Width == 0 || stagingData.Height == 0 {
		return nil, nil, fmt.Errorf("%s: empty texture %dx%d", label, stagingData.Width, stagingData.Height)
	}
	want := uint64(stagingData.RowBytes()) * uint64(stagingData.Height) * uint64(stagingData.Layers())
	if uint64(len(stagingData.Pixels)) < want {
		return nil, nil, fmt.Errorf("%s: texture needs %d bytes, staging holds %d", label, want, len(stagingData.Pixels))
	}

	dimension := wgpu.TextureDimension2D
	if stagingData.Is3D() {
		dimension = wgpu.TextureDimension3D
	}
	size := wgpu.Extent3D{
		Width:              stagingData.Width,
		Height:             stagingData.Height,
		DepthOrArrayLayers: stagingData.Layers(),
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label + " Texture",
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     dimension,
		Size:          size,
		Format:        stagingData.ResolvedFormat(),
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, nil, err
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		stagingData.Pixels[:want],
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  stagingData.RowBytes(),
			RowsPerImage: stagingData.Height,
		},
		&size,
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, err
	}
	return tex, view, nil
}

func (b *wgpuRendererBackendImpl) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tex, view, err := b.createTexture(provider.Label(), stagingData)
	if err != nil {
		return err
	}
	if old := provider.TextureView(bindingKey); old != nil {
		old.Release()
	}
	if old := provider.Texture(bindingKey); old != nil {
		old.Release()
	}
	provider.SetTexture(bindingKey, tex)
	provider.SetTextureView(bindingKey, view)

	return nil
}

func (b *wgpuRendererBackendImpl) ReplaceTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, descriptor wgpu.BindGroupLayoutDescriptor, stagingData common.TextureStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	layout := provider.BindGroupLayout()
	if layout == nil {
		return fmt.Errorf("%s: bind group not initialized, call InitBindGroup first", provider.Label())
	}

	tex, view, err := b.createTexture(provider.Label(), stagingData)
	if err != nil {
		return err
	}
	discard := func() {
		view.Release()
		tex.Release()
	}

	entries, err := b.bindGroupEntries(provider, descriptor, nil, nil, map[int]*wgpu.TextureView{bindingKey: view})
	if err != nil {
		discard()
		return err
	}
	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		discard()
		return err
	}

	oldGroup, oldView, oldTex := provider.BindGroup(), provider.TextureView(bindingKey), provider.Texture(bindingKey)
	provider.SetBindGroup(bindGroup)
	provider.SetTextureView(bindingKey, view)
	provider.SetTexture(bindingKey, tex)

	if oldGroup != nil {
		oldGroup.Release()
	}
	if oldView != nil {
		oldView.Release()
	}
	if oldTex != nil {
		oldTex.Release()
	}
	return nil
}

func (b *wgpuRendererBackendImpl) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         provider.Label() + " Sampler",
		AddressModeU:  common.Coalesce(samplerStagingData.AddressModeU, wgpu.AddressModeClampToEdge),
		AddressModeV:  common.Coalesce(samplerStagingData.AddressModeV, wgpu.AddressModeClampToEdge),
		AddressModeW:  common.Coalesce(samplerStagingData.AddressModeW, wgpu.AddressModeClampToEdge),
		MagFilter:     common.Coalesce(samplerStagingData.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(samplerStagingData.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(samplerStagingData.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   samplerStagingData.LodMinClamp,
		LodMaxClamp:   common.Coalesce(samplerStagingData.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(samplerStagingData.MaxAnisotropy, 1),
	})
	if err != nil {
		return err
	}
	if old := provider.Sampler(bindingKey); old != nil {
		old.Release()
	}
	provider.SetSampler(bindingKey, samp)

	return nil
}

func (b *wgpuRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			continue
		}
		if !w.Fits(buf.GetSize()) {
			common.Logger().Error("buffer write out of range", "provider", w.Provider.Label(),
				"binding", w.Binding, "offset", w.Offset, "len", len(w.Data), "size", buf.GetSize())
			continue
		}
		b.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}

// passDescriptor returns a single-attachment render pass that clears the target to black.
func passDescriptor(view *wgpu.TextureView) *wgpu.RenderPassDescriptor {
	return &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	}
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface != nil || b.framePass != nil {
		return errors.New("previous frame not yet presented")
	}
	if b.surfaceWidth == 0 || b.surfaceHeight == 0 {
		return errors.New("surface not configured")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	b.frameEncoder = encoder
	b.framePass = encoder.BeginRenderPass(passDescriptor(view))
	b.frameSurface = surfaceTexture
	b.frameView = view

	return nil
}

func (b *wgpuRendererBackendImpl) BeginOffscreenFrame(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass != nil {
		return errors.New("a frame is already being recorded")
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid offscreen size %dx%d", width, height)
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Offscreen Target",
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc,
		Dimension:     wgpu.TextureDimension2D,
		Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		Format:        b.surfaceFormat,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return err
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		tex.Release()
		return err
	}

	b.frameEncoder = encoder
	b.framePass = encoder.BeginRenderPass(passDescriptor(view))
	b.offscreen = &offscreenTarget{texture: tex, view: view, width: width, height: height}
	return nil
}

func (b *wgpuRendererBackendImpl) DrawCall(
	p pipeline.Pipeline,
	meshProvider bind_group_provider.BindGroupProvider,
	bindGroups []bind_group_provider.BindGroupProvider,
) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return errors.New("draw outside of a frame")
	}
	if p.RenderPipeline() == nil {
		return fmt.Errorf("pipeline %s has not been created", p.PipelineKey())
	}

	b.framePass.SetPipeline(p.RenderPipeline())
	for i, bg := range bindGroups {
		b.framePass.SetBindGroup(uint32(i), bg.BindGroup(), nil)
	}
	b.framePass.SetVertexBuffer(0, meshProvider.VertexBuffer(), 0, wgpu.WholeSize)
	b.framePass.Draw(uint32(meshProvider.VertexCount()), 1, 0, 0)
	return nil
}

func (b *wgpuRendererBackendImpl) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	b.framePass.End()
	b.framePass.Release()
	b.framePass = nil

	commandBuffer, err := b.frameEncoder.Finish(nil)
	b.frameEncoder.Release()
	b.frameEncoder = nil
	if err != nil {
		common.Logger().Error("frame encoding failed", "error", err)
		b.releaseSurfaceFrame()
		return
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
}

func (b *wgpuRendererBackendImpl) EndOffscreenFrame() (*image.RGBA, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	target := b.offscreen
	if target == nil || b.framePass == nil {
		return nil, errors.New("no offscreen frame in progress")
	}
	b.offscreen = nil
	defer func() {
		target.view.Release()
		target.texture.Release()
	}()

	b.framePass.End()
	b.framePass.Release()
	b.framePass = nil
	encoder := b.frameEncoder
	b.frameEncoder = nil
	defer encoder.Release()

	bytesPerRow := alignedBytesPerRow(target.width)
	size := uint64(bytesPerRow * target.height)
	readback, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Readback Buffer",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	defer readback.Release()

	extent := wgpu.Extent3D{Width: uint32(target.width), Height: uint32(target.height), DepthOrArrayLayers: 1}
	err = encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{Texture: target.texture, Aspect: wgpu.TextureAspectAll},
		&wgpu.ImageCopyBuffer{
			Buffer: readback,
			Layout: wgpu.TextureDataLayout{BytesPerRow: uint32(bytesPerRow), RowsPerImage: uint32(target.height)},
		},
		&extent,
	)
	if err != nil {
		return nil, fmt.Errorf("copy offscreen target: %w", err)
	}

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return nil, err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()

	status := wgpu.BufferMapAsyncStatusUnknown
	mapped := false
	err = readback.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
		mapped = true
	})
	if err != nil {
		return nil, fmt.Errorf("map readback buffer: %w", err)
	}
	for !mapped {
		b.device.Poll(true, nil)
	}
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("map readback buffer: status %v", status)
	}
	defer readback.Unmap()

	data := readback.GetMappedRange(0, uint(size))
	bgra := slices.Contains([]wgpu.TextureFormat{wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatBGRA8UnormSrgb}, b.surfaceFormat)
	return readbackToRGBA(data, target.width, target.height, bytesPerRow, bgra), nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}
	b.surface.Present()
	b.releaseSurfaceFrame()
}

func (b *wgpuRendererBackendImpl) WaitIdle() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.device == nil {
		return
	}
	b.device.Poll(true, nil)
}

// releaseSurfaceFrame drops the acquired swapchain texture and view. The caller holds b.mu.
func (b *wgpuRendererBackendImpl) releaseSurfaceFrame() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseSurfaceFrame()
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

func (b *wgpuRendererBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuRendererBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuRendererBackendImpl) Adapter() *wgpu.Adapter {
	return b.adapter
}

func (b *wgpuRendererBackendImpl) Surface() *wgpu.Surface {
	return b.surface
}
