package unetpp

import (
	"fmt"
	"log"

	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/unetpp/base"
	"github.com/sugarme/unetpp/encoder"
)

// Depth is the number of resolution levels of the grid.
const Depth = 5

// NumOutputs is the number of supervised outputs when deep supervision is on.
const NumOutputs = Depth - 1

// DownFactor is the total downsampling between the finest and coarsest level.
const DownFactor = 1 << (Depth - 1)

// DefaultFilters are the feature channels at each depth.
var DefaultFilters = []int64{32, 64, 128, 256, 512}

// Options configures a NestedUNet.
type Options struct {
	InChannels      int64
	Classes         int64
	Filters         []int64
	DeepSupervision bool
}

// DefaultOptions returns a 3-channel in, 1-class out model with deep supervision.
func DefaultOptions() Options {
	return Options{
		InChannels:      3,
		Classes:         1,
		Filters:         DefaultFilters,
		DeepSupervision: true,
	}
}

// NestedUNet is a UNet++ model.
// Ref: https://arxiv.org/abs/1807.10165
//
// Node X[i][j] exists for i+j < Depth. Column j=0 is the encoder,
// columns j>0 are nested decoders:
//
//	X[i][j] = VGG(cat(X[i][j-1], up(X[i+1][j-1])))
type NestedUNet struct {
	encoder encoder.Encoder
	nodes   [Depth][Depth]*base.VGGBlock // only j >= 1 are set
	heads   []*nn.Conv2D
	deep    bool
}

// New creates a NestedUNet.
func New(p *nn.Path, opts Options) *NestedUNet {
	f := opts.Filters
	if len(f) != Depth {
		log.Fatalf("Expected %v filter sizes. Got %v\n", Depth, len(f))
	}

	n := &NestedUNet{
		encoder: encoder.NewVGGEncoder(p, opts.InChannels, f),
		deep:    opts.DeepSupervision,
	}

	for j := 1; j < Depth; j++ {
		for i := 0; i+j < Depth; i++ {
			name := fmt.Sprintf("conv%d_%d", i, j)
			n.nodes[i][j] = base.NewVGGBlock(p.Sub(name), f[i]+f[i+1], f[i], f[i])
		}
	}

	if n.deep {
		for k := 1; k <= NumOutputs; k++ {
			head := base.NewSegmentationHead(p.Sub(fmt.Sprintf("final%d", k)), f[0], opts.Classes, 1)
			n.heads = append(n.heads, head)
		}
	} else {
		n.heads = []*nn.Conv2D{base.NewSegmentationHead(p.Sub("final"), f[0], opts.Classes, 1)}
	}

	return n
}

// DeepSupervision reports whether ForwardAll returns NumOutputs maps.
func (n *NestedUNet) DeepSupervision() bool {
	return n.deep
}

// ForwardAll runs the grid and returns the logit maps, most nested last.
// With deep supervision the result holds NumOutputs maps, otherwise one.
// Each map has shape [B Classes H W].
func (n *NestedUNet) ForwardAll(x *ts.Tensor, train bool) []*ts.Tensor {
	var grid [Depth][Depth]*ts.Tensor

	features := n.encoder.ForwardAll(x, train)
	if len(features) != Depth {
		log.Fatalf("Expected features of %v tensors. Got %v\n", Depth, len(features))
	}
	for i, feat := range features {
		grid[i][0] = feat
	}

	// Column order: every X[i][j-1] and X[i+1][j-1] is ready before X[i][j].
	for j := 1; j < Depth; j++ {
		for i := 0; i+j < Depth; i++ {
			lateral := grid[i][j-1]
			up := upsampling(grid[i+1][j-1], lateral.MustSize()[2:])
			cat := ts.MustCat([]ts.Tensor{*lateral, *up}, 1)
			up.MustDrop()
			grid[i][j] = n.nodes[i][j].ForwardT(cat, train)
			cat.MustDrop()
		}
	}

	var outputs []*ts.Tensor
	if n.deep {
		for k, head := range n.heads {
			outputs = append(outputs, head.ForwardT(grid[0][k+1], train))
		}
	} else {
		outputs = append(outputs, n.heads[0].ForwardT(grid[0][Depth-1], train))
	}

	for j := 0; j < Depth; j++ {
		for i := 0; i+j < Depth; i++ {
			grid[i][j].MustDrop()
		}
	}

	return outputs
}

// ForwardT implements ts.ModuleT for NestedUNet. It returns the most
// nested output only.
func (n *NestedUNet) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	outputs := n.ForwardAll(x, train)
	last := len(outputs) - 1
	for _, o := range outputs[:last] {
		o.MustDrop()
	}

	return outputs[last]
}

// CheckInputSize verifies that an input of h x w pixels survives
// the down/up sampling round trip of the grid.
func CheckInputSize(h, w int64) error {
	if h <= 0 || w <= 0 {
		return fmt.Errorf("invalid input size %vx%v", h, w)
	}
	if h%DownFactor != 0 || w%DownFactor != 0 {
		return fmt.Errorf("input size %vx%v is not divisible by %v", h, w, DownFactor)
	}
	return nil
}

// CheckInput verifies an input batch of shape [B C H W].
func CheckInput(x *ts.Tensor, channels int64) error {
	size := x.MustSize()
	if len(size) != 4 {
		return fmt.Errorf("expected input of 4 dimensions [B C H W]. Got shape %v", size)
	}
	if size[1] != channels {
		return fmt.Errorf("expected %v input channels. Got %v", channels, size[1])
	}
	return CheckInputSize(size[2], size[3])
}

// interpolation using `bilinear` algorithm, align corners.
// x should be in shape: [BatchSize CHW]
// Always resamples so the result stays attached to the autograd graph.
func upsampling(x *ts.Tensor, outSize []int64) *ts.Tensor {
	return x.MustUpsampleBilinear2d(outSize, true, nil, nil, false)
}
