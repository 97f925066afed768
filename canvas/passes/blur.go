package passes

import (
	"math"

	vk "github.com/vulkan-go/vulkan"

	"github.com/ashura-engine/ashura/gpu"
)

// Fixed-radius Gaussian weight tables, ported verbatim from
// original_source/ashura/engine/passes/gaussian_weights.h. BlurParam picks
// the nearest supported radius; the pipeline runs two full-screen passes
// (horizontal then vertical) rather than renderer/passes/blur.cc's
// mip-chain Kawase down/up-sample, since this package's resource model has
// no standing notion of a blur-chain's intermediate mip targets — the
// caller supplies one ping-pong pair of views/samplers instead (see
// BlurPassParams).
var gaussianWeights = map[uint32][]float32{
	2:  {0.38883081312055, 0.43276926113573877, 0.17839992574371122},
	4:  {0.15642123799829394, 0.26718801880015064, 0.29738065394682034, 0.21568339342709997, 0.06332669582763516},
	8:  {0.012886119174695622, 0.0519163052253057, 0.1361482870984158, 0.23255915602238483, 0.2588386792559968, 0.18772977983330918, 0.08870474727392855, 0.027292496709325292, 0.003924429406638234},
	16: {6.531899156556559e-7, 0.000014791298968627152, 0.00021720986764341157, 0.0020706559053401204, 0.012826757713634169, 0.05167714650813829, 0.13552110360479683, 0.23148784424126953, 0.25764630768379954, 0.18686497997661272, 0.0882961181645837, 0.027166770533840135, 0.0054386298156352516, 0.0007078187356988374, 0.00005983099317322662, 0.0000032814299066650715, 1.0033704349693544e-7},
}

// nearestGaussianRadius rounds a requested radius up to the nearest
// supported weight table (2, 4, 8, or 16).
func nearestGaussianRadius(radius uint32) uint32 {
	for _, r := range []uint32{2, 4, 8, 16} {
		if radius <= r {
			return r
		}
	}
	return 16
}

// blurPushConstant matches the shader's expected push-constant layout:
// a 2D texel-space direction and the weight count for the active radius.
type blurPushConstant struct {
	DirX, DirY float32
	Count      uint32
}

func (p blurPushConstant) bytes() []byte {
	buf := make([]byte, 12)
	putF32(buf[0:4], p.DirX)
	putF32(buf[4:8], p.DirY)
	putU32(buf[8:12], p.Count)
	return buf
}

func putF32(dst []byte, v float32) {
	putU32(dst, math.Float32bits(v))
}

func putU32(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
}

// BlurPipelineInfo configures the separable blur pass's single graphics
// pipeline, grounded on renderer/passes/blur.cc's KawaseBlur pipeline
// shape (textures-only descriptor set layout, push-constant-sized
// uniform, straight-alpha color blend).
type BlurPipelineInfo struct {
	VertexShader, FragmentShader gpu.Shader
	ColorFormat                  vk.Format
	TexturesLayout               *gpu.DescriptorSetLayout
	Cache                        *gpu.PipelineCache
}

// BlurPass runs the two-pass separable Gaussian blur described above.
type BlurPass struct {
	pipeline *gpu.GraphicsPipeline
}

func NewBlurPass(device *gpu.Device, info BlurPipelineInfo) (*BlurPass, error) {
	pipeline, err := device.CreateGraphicsPipeline(gpu.GraphicsPipelineInfo{
		VertexShader:       info.VertexShader,
		FragmentShader:     info.FragmentShader,
		VertexEntryPoint:   "main",
		FragmentEntryPoint: "main",
		Topology:           vk.PrimitiveTopologyTriangleList,
		PolygonMode:        vk.PolygonModeFill,
		CullMode:           vk.CullModeFlagBits(vk.CullModeNone),
		FrontFace:          vk.FrontFaceCounterClockwise,
		ColorFormats:       []vk.Format{info.ColorFormat},
		ColorBlend:         []vk.PipelineColorBlendAttachmentState{straightAlphaBlend()},
		SetLayouts:         []*gpu.DescriptorSetLayout{info.TexturesLayout},
		PushConstants: []gpu.PushConstantRange{
			{Stages: vk.ShaderStageFlags(vk.ShaderStageFragmentBit), Offset: 0, Size: 12},
		},
		Cache: info.Cache,
	})
	if err != nil {
		return nil, err
	}
	return &BlurPass{pipeline: pipeline}, nil
}

func (p *BlurPass) Uninit(device *gpu.Device) {
	device.UninitGraphicsPipeline(p.pipeline)
}

// BlurPassParams is one AddPass invocation's worth of state: the target
// area, the source-texture descriptor set for each of the two passes
// (the second pass samples the first pass's output — the caller owns
// that ping-pong pair, per renderer/passes/blur.h's single `view` input
// generalized to two), and the requested blur radius.
type BlurPassParams struct {
	Area          vk.Rect2D
	HorizontalSet *gpu.DescriptorSet
	VerticalSet   *gpu.DescriptorSet
	Radius        uint32
	TexelSize     [2]float32
}

// AddPass implements spec §4.8's Blur pass draw: two full-screen
// triangles (6-vertex quad), one per axis, each weighted by the nearest
// supported Gaussian radius table.
func (p *BlurPass) AddPass(e *gpu.CommandEncoder, params BlurPassParams) {
	radius := nearestGaussianRadius(params.Radius)
	weights := gaussianWeights[radius]

	e.BindGraphicsPipeline(p.pipeline)
	e.SetGraphicsState(viewportFor(params.Area))

	e.BindGraphicsDescriptorSets(0, []*gpu.DescriptorSet{params.HorizontalSet})
	e.PushGraphicsConstants(vk.ShaderStageFlags(vk.ShaderStageFragmentBit), 0,
		blurPushConstant{DirX: params.TexelSize[0], DirY: 0, Count: uint32(len(weights))}.bytes())
	e.Draw(6, 1, 0, 0)

	e.BindGraphicsDescriptorSets(0, []*gpu.DescriptorSet{params.VerticalSet})
	e.PushGraphicsConstants(vk.ShaderStageFlags(vk.ShaderStageFragmentBit), 0,
		blurPushConstant{DirX: 0, DirY: params.TexelSize[1], Count: uint32(len(weights))}.bytes())
	e.Draw(6, 1, 0, 0)
}
