package encoder

import (
	"fmt"

	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/unetpp/base"
)

// VGGEncoder is the encoder column of a nested UNet.
// Block i sees the input downsampled i times.
type VGGEncoder struct {
	blocks []*base.VGGBlock
}

// NewVGGEncoder creates a VGGEncoder with len(filters) depths.
// Parameters are named `conv{i}_0` under p.
func NewVGGEncoder(p *nn.Path, cIn int64, filters []int64) *VGGEncoder {
	blocks := make([]*base.VGGBlock, len(filters))
	prev := cIn
	for i, f := range filters {
		blocks[i] = base.NewVGGBlock(p.Sub(fmt.Sprintf("conv%d_0", i)), prev, f, f)
		prev = f
	}

	return &VGGEncoder{blocks}
}

// ForwardAll implements Encoder interface for VGGEncoder.
//
// E.g. x [4 3 256 256], filters [32 64 128 256 512]
// 0- [4  32 256 256]
// 1- [4  64 128 128]
// 2- [4 128  64  64]
// 3- [4 256  32  32]
// 4- [4 512  16  16]
func (e *VGGEncoder) ForwardAll(x *ts.Tensor, train bool) []*ts.Tensor {
	features := make([]*ts.Tensor, len(e.blocks))
	for i, b := range e.blocks {
		if i == 0 {
			features[i] = b.ForwardT(x, train)
			continue
		}
		down := base.MaxPool2x2(features[i-1])
		features[i] = b.ForwardT(down, train)
		down.MustDrop()
	}

	return features
}
