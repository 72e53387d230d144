package base

import "github.com/sugarme/gotch/nn"

// NewSegmentationHead creates a projection from cIn feature channels to
// cOut logit channels. Padding keeps the spatial size for odd kernel sizes.
func NewSegmentationHead(p *nn.Path, cIn, cOut, ksize int64) *nn.Conv2D {
	return Conv2d(p, cIn, cOut, ksize, ksize/2, 1)
}
