package canvas

import (
	"encoding/binary"
	"math"

	vk "github.com/vulkan-go/vulkan"
	lin "github.com/xlab/linmath"

	"github.com/ashura-engine/ashura/canvas/passes"
	"github.com/ashura-engine/ashura/gpu"
)

// arena is a growth-on-demand host-visible buffer, the canvas renderer's
// analogue of the descriptor heap's pool-of-pools growth (gpu/descriptor.go
// DescriptorHeap.Allocate): rather than recreate a fixed-capacity resource
// on every frame, it reallocates (doubling) only when the host-side data
// outgrows the current GPU allocation; the data itself is written on every
// upload.
type arena struct {
	buffer   *gpu.Buffer
	usage    gpu.BufferUsage
	capacity uint64
}

func (a *arena) upload(device *gpu.Device, data []byte) error {
	needed := uint64(len(data))
	if needed == 0 {
		return nil
	}
	if a.buffer == nil || a.capacity < needed {
		if a.buffer != nil {
			device.UninitBuffer(a.buffer)
		}
		capacity := a.capacity
		if capacity == 0 {
			capacity = needed
		}
		for capacity < needed {
			capacity *= 2
		}
		buf, err := device.CreateBuffer(capacity, a.usage, true)
		if err != nil {
			return err
		}
		a.buffer = buf
		a.capacity = capacity
	}
	return device.WriteBufferMemory(a.buffer, data)
}

func (a *arena) uninit(device *gpu.Device) {
	if a.buffer != nil {
		device.UninitBuffer(a.buffer)
		a.buffer = nil
		a.capacity = 0
	}
}

// Renderer owns the GPU-side buffers a Canvas's host-side recording feeds
// and walks its pass_runs, dispatching each run's parameter sub-range to
// the matching pass executor (spec §2 data-flow steps 3-4: "Canvas walks
// its pass-runs; each pass executor records into the encoder").
type Renderer struct {
	device *gpu.Device

	rrectPass *passes.RRectPass
	ngonPass  *passes.NgonPass
	blurPass  *passes.BlurPass

	vertices    arena
	indices     arena
	rrectParams arena
	ngonParams  arena
}

func NewRenderer(device *gpu.Device, rrect *passes.RRectPass, ngon *passes.NgonPass, blur *passes.BlurPass) *Renderer {
	return &Renderer{
		device:      device,
		rrectPass:   rrect,
		ngonPass:    ngon,
		blurPass:    blur,
		vertices:    arena{usage: gpu.BufferUsageVertex | gpu.BufferUsageTransferDst},
		indices:     arena{usage: gpu.BufferUsageIndex | gpu.BufferUsageTransferDst},
		rrectParams: arena{usage: gpu.BufferUsageStorage | gpu.BufferUsageTransferDst},
		ngonParams:  arena{usage: gpu.BufferUsageStorage | gpu.BufferUsageTransferDst},
	}
}

func (r *Renderer) Uninit() {
	r.vertices.uninit(r.device)
	r.indices.uninit(r.device)
	r.rrectParams.uninit(r.device)
	r.ngonParams.uninit(r.device)
}

// VertexBuffer/IndexBuffer/RRectParamsBuffer/NgonParamsBuffer expose the
// uploaded arenas so a caller can build the descriptor sets Execute's
// rrectSets/ngonSets parameters need (the params SSBO binding in
// particular, per renderer/passes/rrect.cc's params_ssbo descriptor).
func (r *Renderer) VertexBuffer() *gpu.Buffer      { return r.vertices.buffer }
func (r *Renderer) IndexBuffer() *gpu.Buffer       { return r.indices.buffer }
func (r *Renderer) RRectParamsBuffer() *gpu.Buffer { return r.rrectParams.buffer }
func (r *Renderer) NgonParamsBuffer() *gpu.Buffer  { return r.ngonParams.buffer }

func encodeVertices(vs []Vec2) []byte {
	buf := make([]byte, len(vs)*8)
	for i, v := range vs {
		binary.LittleEndian.PutUint32(buf[i*8:], math.Float32bits(v.X))
		binary.LittleEndian.PutUint32(buf[i*8+4:], math.Float32bits(v.Y))
	}
	return buf
}

func encodeIndices(is []uint32) []byte {
	buf := make([]byte, len(is)*4)
	for i, idx := range is {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

func putF32(dst []byte, v float32) int {
	binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
	return 4
}

func putU32(dst []byte, v uint32) int {
	binary.LittleEndian.PutUint32(dst, v)
	return 4
}

func putVec2(dst []byte, v Vec2) int {
	off := putF32(dst, v.X)
	off += putF32(dst[off:], v.Y)
	return off
}

func putVec4(dst []byte, v Vec4) int {
	off := putF32(dst, v.X)
	off += putF32(dst[off:], v.Y)
	off += putF32(dst[off:], v.Z)
	off += putF32(dst[off:], v.W)
	return off
}

func putMat4(dst []byte, m lin.Mat4x4) int {
	off := 0
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			off += putF32(dst[off:], m[i][j])
		}
	}
	return off
}

// rrectParamSize/ngonParamSize are each row's std430-compatible byte size:
// a 4x4 transform, four tint corners, two uv corners, then the scalar
// fields a Go struct would otherwise pad inconsistently versus the GLSL
// SSBO layout the RRect/Ngon pass shaders expect, rounded up to the
// 16-byte array stride std430 gives a struct with mat4/vec4 members.
const rrectParamSize = (16*4 + 4*4*4 + 2*2*4 + 4*4 + 5*4 + 15) &^ 15
const ngonParamSize = (16*4 + 4*4*4 + 2*2*4 + 4 + 15) &^ 15

func encodeRRectParams(ps []RRectParam) []byte {
	buf := make([]byte, len(ps)*rrectParamSize)
	for i, p := range ps {
		row := buf[i*rrectParamSize:]
		off := putMat4(row, p.Transform)
		for _, t := range p.Tint {
			off += putVec4(row[off:], t)
		}
		for _, uv := range p.UV {
			off += putVec2(row[off:], uv)
		}
		off += putVec4(row[off:], p.BorderRadii)
		off += putF32(row[off:], p.Stroke)
		off += putF32(row[off:], p.Thickness)
		off += putU32(row[off:], p.Texture)
		off += putF32(row[off:], p.Tiling)
		off += putF32(row[off:], p.EdgeSmoothness)
	}
	return buf
}

func encodeNgonParams(ps []NgonParam) []byte {
	buf := make([]byte, len(ps)*ngonParamSize)
	for i, p := range ps {
		row := buf[i*ngonParamSize:]
		off := putMat4(row, p.Transform)
		for _, t := range p.Tint {
			off += putVec4(row[off:], t)
		}
		for _, uv := range p.UV {
			off += putVec2(row[off:], uv)
		}
		putU32(row[off:], p.Texture)
	}
	return buf
}

// Upload pushes the canvas's current host-side recording into the
// renderer's GPU arenas, growing each as needed. Call once per frame
// after the canvas has finished recording, before Execute.
func (r *Renderer) Upload(c *Canvas) error {
	if err := r.vertices.upload(r.device, encodeVertices(c.Vertices)); err != nil {
		return err
	}
	if err := r.indices.upload(r.device, encodeIndices(c.Indices)); err != nil {
		return err
	}
	if err := r.rrectParams.upload(r.device, encodeRRectParams(c.RRectParams)); err != nil {
		return err
	}
	if err := r.ngonParams.upload(r.device, encodeNgonParams(c.NgonParams)); err != nil {
		return err
	}
	return nil
}

// BlurResolver supplies the caller-owned ping-pong source views a Blur
// pass_run needs (spec §4.8 Blur pass notes the source/destination images
// live outside the canvas's own arenas); it receives the BlurParam row and
// the run's target area.
type BlurResolver func(param BlurParam, area vk.Rect2D) passes.BlurPassParams

// Execute walks c.PassRuns in order and dispatches each run's parameter
// sub-range to its matching pass executor, implementing spec §2 step 3's
// "Canvas walks its pass-runs; each pass executor records into the
// encoder". Custom runs invoke their stored CustomPassFunc directly rather
// than going through a passes.* executor.
func (r *Renderer) Execute(c *Canvas, encoder *gpu.CommandEncoder, area vk.Rect2D, rrectSets, ngonSets []*gpu.DescriptorSet, resolveBlur BlurResolver) {
	var rrectStart, ngonStart, blurStart, customStart uint32
	var indexCursor uint32

	for _, run := range c.PassRuns {
		scissor := rectToVk(run.Scissor, area)
		switch run.Type {
		case PassRRect:
			r.rrectPass.AddPass(encoder, passes.RRectPassParams{
				Area:          scissor,
				Sets:          rrectSets,
				FirstInstance: rrectStart,
				NumInstances:  run.End - rrectStart,
			})
			rrectStart = run.End

		case PassNgon:
			batches := make([]passes.NgonSubBatch, 0, run.End-ngonStart)
			for i := ngonStart; i < run.End; i++ {
				count := c.NgonIndexCounts[i]
				batches = append(batches, passes.NgonSubBatch{
					FirstIndex: indexCursor,
					IndexCount: count,
					ParamIndex: i,
				})
				indexCursor += count
			}
			r.ngonPass.AddPass(encoder, passes.NgonPassParams{
				Area:         scissor,
				VertexBuffer: r.vertices.buffer,
				IndexBuffer:  r.indices.buffer,
				Sets:         ngonSets,
				Batches:      batches,
			})
			ngonStart = run.End

		case PassBlur:
			for i := blurStart; i < run.End; i++ {
				r.blurPass.AddPass(encoder, resolveBlur(c.BlurParams[i], scissor))
			}
			blurStart = run.End

		case PassCustom:
			for i := customStart; i < run.End; i++ {
				p := c.CustomParams[i]
				p.Encode(p.Data)
			}
			customStart = run.End
		}
	}
}

func rectToVk(r Rect, area vk.Rect2D) vk.Rect2D {
	out := vk.Rect2D{
		Offset: vk.Offset2D{X: int32(r.OffsetX), Y: int32(r.OffsetY)},
		Extent: vk.Extent2D{Width: r.ExtentX, Height: r.ExtentY},
	}
	if r.ExtentX == MaxExtent {
		out.Extent.Width = area.Extent.Width
	}
	if r.ExtentY == MaxExtent {
		out.Extent.Height = area.Extent.Height
	}
	return out
}
