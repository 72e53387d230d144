package metric

import (
	"fmt"

	"github.com/sugarme/gotch"
	ts "github.com/sugarme/gotch/tensor"
)

// Smooth is added to both terms of IoU so that two empty masks score 1.
const Smooth = 1e-5

// BCEWithLogitsLoss is pixel-wise binary cross entropy computed from logits.
// It returns a scalar (mean reduction) tensor attached to the autograd graph.
func BCEWithLogitsLoss(logit, target *ts.Tensor) *ts.Tensor {
	logitR := logit.MustReshape([]int64{-1}, false)
	targetR := target.MustReshape([]int64{-1}, false)
	if targetR.DType() != logitR.DType() {
		targetR = targetR.MustTotype(logitR.DType(), true)
	}

	// NOTE: reduction: none = 0; mean = 1; sum = 2. Default=mean
	// ref. https://pytorch.org/docs/master/nn.functional.html#torch.nn.functional.binary_cross_entropy_with_logits
	retVal := logitR.MustBinaryCrossEntropyWithLogits(targetR, ts.NewTensor(), ts.NewTensor(), 1, true)
	targetR.MustDrop()

	return retVal
}

// IoU computes intersection over union between a logit map binarized at 0
// and a target binarized at 0.5, over all elements of the batch.
func IoU(logit, target *ts.Tensor) float64 {
	lflat := logit.MustView([]int64{-1}, false)
	tflat := target.MustView([]int64{-1}, false)
	p := lflat.MustGt(ts.FloatScalar(0), true)
	t := tflat.MustGt(ts.FloatScalar(0.5), true)

	ptMul := p.MustMul(t, false)
	inter := ptMul.MustSum(gotch.Double, true)
	pSum := p.MustSum(gotch.Double, true)
	tSum := t.MustSum(gotch.Double, true)

	intersection := inter.Float64Values()[0]
	union := pSum.Float64Values()[0] + tSum.Float64Values()[0] - intersection
	inter.MustDrop()
	pSum.MustDrop()
	tSum.MustDrop()

	return (intersection + Smooth) / (union + Smooth)
}

// DeepLoss averages BCEWithLogitsLoss over all outputs of a forward pass.
func DeepLoss(outputs []*ts.Tensor, target *ts.Tensor) (*ts.Tensor, error) {
	if len(outputs) == 0 {
		return nil, fmt.Errorf("no outputs to compute loss on")
	}

	var sum *ts.Tensor
	for _, o := range outputs {
		l := BCEWithLogitsLoss(o, target)
		if sum == nil {
			sum = l
			continue
		}
		sum = sum.MustAdd(l, true)
		l.MustDrop()
	}
	if len(outputs) == 1 {
		return sum, nil
	}

	return sum.MustDiv1(ts.FloatScalar(float64(len(outputs))), true), nil
}

// DeepIoU averages IoU over all outputs of a forward pass.
func DeepIoU(outputs []*ts.Tensor, target *ts.Tensor) (float64, error) {
	if len(outputs) == 0 {
		return 0, fmt.Errorf("no outputs to compute IoU on")
	}

	var sum float64
	for _, o := range outputs {
		sum += IoU(o, target)
	}
	return sum / float64(len(outputs)), nil
}
