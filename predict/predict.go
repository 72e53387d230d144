package predict

import (
	"fmt"
	"image"
	"log"

	"github.com/disintegration/imaging"
	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"
	"golang.org/x/image/draw"

	"github.com/sugarme/unetpp/config"
	"github.com/sugarme/unetpp/dataset"
	"github.com/sugarme/unetpp/unetpp"
)

// Foreground is the pixel value of a foreground mask pixel.
const Foreground = 255

// Predictor turns a single image into a binary mask.
type Predictor struct {
	Net       *unetpp.NestedUNet
	Device    gotch.Device
	Selection unetpp.Selection
	Threshold float64 // logits strictly above are foreground
	InputSize int     // network input resolution
	Width     int     // output mask width
	Height    int     // output mask height
}

// Load builds a network as described by cfg and loads its checkpoint.
func Load(cfg *config.Config, device gotch.Device) (*Predictor, error) {
	if err := cfg.ValidatePredict(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	vs := nn.NewVarStore(device)
	net := unetpp.New(vs.Root(), cfg.ModelOptions())
	if err := vs.Load(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("load checkpoint %q: %w", cfg.ModelPath, err)
	}

	return &Predictor{
		Net:       net,
		Device:    device,
		Selection: unetpp.DefaultSelection(cfg.DeepSupervision),
		Threshold: cfg.Threshold,
		InputSize: cfg.InputSize,
		Width:     cfg.ImWidth,
		Height:    cfg.ImHeight,
	}, nil
}

// Logits runs the network in evaluation mode on x [1 3 H W] and returns
// the selected logit map as a row-major slice with its width and height.
func (p *Predictor) Logits(x *ts.Tensor) (vals []float64, w, h int, err error) {
	if err := unetpp.CheckInput(x, 3); err != nil {
		return nil, 0, 0, err
	}
	if n := x.MustSize()[0]; n != 1 {
		return nil, 0, 0, fmt.Errorf("expected a single image. Got batch of %v", n)
	}

	var outputs []*ts.Tensor
	ts.NoGrad(func() {
		input := x.MustTo(p.Device, false)
		outputs = p.Net.ForwardAll(input, false)
		input.MustDrop()
	})
	defer func() {
		for _, o := range outputs {
			o.MustDrop()
		}
	}()

	logit, err := p.Selection.Pick(outputs)
	if err != nil {
		return nil, 0, 0, err
	}

	size := logit.MustSize() // [1 1 H W]
	if size[1] != 1 {
		return nil, 0, 0, fmt.Errorf("expected single channel output. Got %v channels", size[1])
	}
	h, w = int(size[2]), int(size[3])
	cpu := logit.MustTo(gotch.CPU, false)
	vals = cpu.Float64Values()
	cpu.MustDrop()

	return vals, w, h, nil
}

// Predict returns the binary mask of x resized to Width x Height.
func (p *Predictor) Predict(x *ts.Tensor) (*image.Gray, error) {
	vals, w, h, err := p.Logits(x)
	if err != nil {
		return nil, err
	}

	mask := Binarize(vals, w, h, p.Threshold)
	return Resize(mask, p.Width, p.Height), nil
}

// PredictFile reads the image at in and writes its mask to out.
func (p *Predictor) PredictFile(in, out string) error {
	x, orig, err := dataset.LoadImage(in, p.InputSize)
	if err != nil {
		return fmt.Errorf("load image %q: %w", in, err)
	}
	defer x.MustDrop()

	mask, err := p.Predict(x)
	if err != nil {
		return err
	}
	if err := Save(mask, out); err != nil {
		return fmt.Errorf("save mask %q: %w", out, err)
	}

	log.Printf("mask %dx%d (input %dx%d) saved to %v\n", p.Width, p.Height, orig.X, orig.Y, out)
	return nil
}

// Binarize maps a row-major w x h logit map to a grayscale mask:
// Foreground where logit > threshold, 0 elsewhere.
func Binarize(logits []float64, w, h int, threshold float64) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, w, h))
	for i, v := range logits[:w*h] {
		if v > threshold {
			mask.Pix[i] = Foreground
		}
	}
	return mask
}

// Resize scales mask to w x h with nearest neighbour sampling, so the
// result stays binary.
func Resize(mask *image.Gray, w, h int) *image.Gray {
	b := mask.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return mask
	}

	resized := imaging.Resize(mask, w, h, imaging.NearestNeighbor)
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), resized, resized.Bounds().Min, draw.Src)
	return dst
}

// Save writes mask as a single channel image. Format follows the file
// extension.
func Save(mask *image.Gray, path string) error {
	return imaging.Save(mask, path)
}

// ForegroundFraction returns the share of Foreground pixels in mask.
func ForegroundFraction(mask *image.Gray) float64 {
	if len(mask.Pix) == 0 {
		return 0
	}
	var n int
	for _, v := range mask.Pix {
		if v == Foreground {
			n++
		}
	}
	return float64(n) / float64(len(mask.Pix))
}
