package base

import (
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"
)

// VGGBlock is two successive (conv3x3 -> batchnorm -> relu) stages.
// Spatial size is preserved, channels go cIn -> cMid -> cOut.
type VGGBlock struct {
	Conv1 *nn.Conv2D
	Bn1   *nn.BatchNorm
	Conv2 *nn.Conv2D
	Bn2   *nn.BatchNorm
}

// NewVGGBlock creates a VGGBlock.
func NewVGGBlock(p *nn.Path, cIn, cMid, cOut int64) *VGGBlock {
	conv1 := Conv2d(p.Sub("conv1"), cIn, cMid, 3, 1, 1)
	bn1 := nn.BatchNorm2D(p.Sub("bn1"), cMid, nn.DefaultBatchNormConfig())
	conv2 := Conv2d(p.Sub("conv2"), cMid, cOut, 3, 1, 1)
	bn2 := nn.BatchNorm2D(p.Sub("bn2"), cOut, nn.DefaultBatchNormConfig())

	return &VGGBlock{conv1, bn1, conv2, bn2}
}

// ForwardT implements ts.ModuleT for VGGBlock struct.
func (b *VGGBlock) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	c1 := b.Conv1.ForwardT(x, train)
	bn1Ts := b.Bn1.ForwardT(c1, train)
	c1.MustDrop()
	relu := bn1Ts.MustRelu(true)
	c2 := b.Conv2.ForwardT(relu, train)
	relu.MustDrop()
	bn2Ts := b.Bn2.ForwardT(c2, train)
	c2.MustDrop()

	return bn2Ts.MustRelu(true)
}

// Conv2d creates Conv2D module.
func Conv2d(p *nn.Path, cIn, cOut, ksize, padding, stride int64) *nn.Conv2D {
	config := nn.DefaultConv2DConfig()
	config.Stride = []int64{stride, stride}
	config.Padding = []int64{padding, padding}

	return nn.NewConv2D(p, cIn, cOut, ksize, config)
}

// MaxPool2x2 halves spatial resolution: [B C H W] => [B C H/2 W/2]
func MaxPool2x2(x *ts.Tensor) *ts.Tensor {
	// ksize = 2; stride=2; padding=0; dilation=1; ceil=false
	return x.MustMaxPool2d([]int64{2, 2}, []int64{2, 2}, []int64{0, 0}, []int64{1, 1}, false, false)
}
