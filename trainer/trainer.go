package trainer

import (
	"fmt"

	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/unetpp/dataset"
	"github.com/sugarme/unetpp/dutil"
	"github.com/sugarme/unetpp/metric"
	"github.com/sugarme/unetpp/unetpp"
)

// Trainer implements Stepper for a NestedUNet.
type Trainer struct {
	Net     *unetpp.NestedUNet
	Opt     *nn.Optimizer
	Device  gotch.Device
	TrainDL *dutil.DataLoader
	ValDL   *dutil.DataLoader
}

// TrainEpoch implements Stepper interface.
func (t *Trainer) TrainEpoch() (Metrics, error) {
	return t.runEpoch(t.TrainDL, true)
}

// ValidateEpoch implements Stepper interface.
func (t *Trainer) ValidateEpoch() (Metrics, error) {
	var (
		m   Metrics
		err error
	)
	ts.NoGrad(func() {
		m, err = t.runEpoch(t.ValDL, false)
	})
	return m, err
}

func (t *Trainer) runEpoch(dl *dutil.DataLoader, train bool) (Metrics, error) {
	losses := metric.NewAverageMeter()
	ious := metric.NewAverageMeter()

	dl.Reset()
	for dl.HasNext() {
		s, err := dl.Next()
		if err != nil {
			return Metrics{}, err
		}
		imgTs, maskTs, err := dataset.Stack(s.([]dataset.ImageMask))
		if err != nil {
			return Metrics{}, err
		}
		if err := checkBatch(imgTs, maskTs); err != nil {
			imgTs.MustDrop()
			maskTs.MustDrop()
			return Metrics{}, err
		}
		n := int(imgTs.MustSize()[0])

		input := imgTs.MustTo(t.Device, true)
		target := maskTs.MustTo(t.Device, true)
		outputs := t.Net.ForwardAll(input, train)
		input.MustDrop()

		lossVal, iouVal, err := t.step(outputs, target, train)
		target.MustDrop()
		for _, o := range outputs {
			o.MustDrop()
		}
		if err != nil {
			return Metrics{}, err
		}

		losses.Update(lossVal, n)
		ious.Update(iouVal, n)
	}

	if losses.Count == 0 {
		return Metrics{}, fmt.Errorf("no batches in epoch")
	}
	return Metrics{Loss: losses.Avg, IoU: ious.Avg}, nil
}

// step computes loss and IoU of one batch and, when training, updates the
// parameters. Callers own outputs and target.
func (t *Trainer) step(outputs []*ts.Tensor, target *ts.Tensor, train bool) (lossVal, iouVal float64, err error) {
	loss, err := metric.DeepLoss(outputs, target)
	if err != nil {
		return 0, 0, err
	}
	if train {
		t.Opt.BackwardStep(loss)
	}
	lossVal = loss.Float64Values()[0]
	loss.MustDrop()

	iouVal, err = metric.DeepIoU(outputs, target)
	if err != nil {
		return 0, 0, err
	}
	return lossVal, iouVal, nil
}

// checkBatch verifies image [B 3 H W] and mask [B 1 H W] agree.
func checkBatch(img, mask *ts.Tensor) error {
	if err := unetpp.CheckInput(img, 3); err != nil {
		return err
	}
	iSize := img.MustSize()
	mSize := mask.MustSize()
	if len(mSize) != 4 || mSize[0] != iSize[0] || mSize[1] != 1 || mSize[2] != iSize[2] || mSize[3] != iSize[3] {
		return fmt.Errorf("mask shape %v does not match image shape %v", mSize, iSize)
	}
	return nil
}
