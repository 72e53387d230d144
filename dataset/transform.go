package dataset

import (
	"image"
	"math/rand"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// Transform augments an image together with its mask.
// Geometric transforms apply to both, colour transforms to the image only.
type Transform interface {
	Apply(img, mask image.Image, rng *rand.Rand) (image.Image, image.Image)
}

// Compose applies transforms in order.
type Compose []Transform

// Apply implements Transform interface.
func (c Compose) Apply(img, mask image.Image, rng *rand.Rand) (image.Image, image.Image) {
	for _, t := range c {
		img, mask = t.Apply(img, mask, rng)
	}
	return img, mask
}

// OneOf applies exactly one transform chosen uniformly at random.
type OneOf []Transform

// Apply implements Transform interface.
func (o OneOf) Apply(img, mask image.Image, rng *rand.Rand) (image.Image, image.Image) {
	if len(o) == 0 {
		return img, mask
	}
	return o[rng.Intn(len(o))].Apply(img, mask, rng)
}

// RandomRotate90 rotates by a random multiple of 90 degrees.
type RandomRotate90 struct{}

// Apply implements Transform interface.
func (RandomRotate90) Apply(img, mask image.Image, rng *rand.Rand) (image.Image, image.Image) {
	switch rng.Intn(4) {
	case 1:
		return imaging.Rotate90(img), imaging.Rotate90(mask)
	case 2:
		return imaging.Rotate180(img), imaging.Rotate180(mask)
	case 3:
		return imaging.Rotate270(img), imaging.Rotate270(mask)
	}
	return img, mask
}

// Flip flips horizontally, vertically or both, with probability 0.5.
type Flip struct{}

// Apply implements Transform interface.
func (Flip) Apply(img, mask image.Image, rng *rand.Rand) (image.Image, image.Image) {
	if rng.Float64() >= 0.5 {
		return img, mask
	}
	switch rng.Intn(3) {
	case 0:
		return imaging.FlipH(img), imaging.FlipH(mask)
	case 1:
		return imaging.FlipV(img), imaging.FlipV(mask)
	default:
		return imaging.Rotate180(img), imaging.Rotate180(mask)
	}
}

// Saturation shifts colour saturation by up to +/-Limit percent.
type Saturation struct {
	Limit float64
}

// Apply implements Transform interface.
func (s Saturation) Apply(img, mask image.Image, rng *rand.Rand) (image.Image, image.Image) {
	return imaging.AdjustSaturation(img, uniform(rng, s.Limit)), mask
}

// Brightness shifts brightness by up to +/-Limit percent.
type Brightness struct {
	Limit float64
}

// Apply implements Transform interface.
func (b Brightness) Apply(img, mask image.Image, rng *rand.Rand) (image.Image, image.Image) {
	return imaging.AdjustBrightness(img, uniform(rng, b.Limit)), mask
}

// Contrast shifts contrast by up to +/-Limit percent.
type Contrast struct {
	Limit float64
}

// Apply implements Transform interface.
func (c Contrast) Apply(img, mask image.Image, rng *rand.Rand) (image.Image, image.Image) {
	return imaging.AdjustContrast(img, uniform(rng, c.Limit)), mask
}

// Resize scales the image bilinearly and the mask with nearest neighbour,
// so mask values never blend.
type Resize struct {
	Width, Height int
}

// Apply implements Transform interface.
func (r Resize) Apply(img, mask image.Image, rng *rand.Rand) (image.Image, image.Image) {
	w, h := uint(r.Width), uint(r.Height)
	if img.Bounds().Dx() != r.Width || img.Bounds().Dy() != r.Height {
		img = resize.Resize(w, h, img, resize.Bilinear)
	}
	if mask != nil && (mask.Bounds().Dx() != r.Width || mask.Bounds().Dy() != r.Height) {
		mask = imaging.Resize(mask, r.Width, r.Height, imaging.NearestNeighbor)
	}
	return img, mask
}

func uniform(rng *rand.Rand, limit float64) float64 {
	return (rng.Float64()*2 - 1) * limit
}

// TrainTransform returns the training augmentation: random rot90, flip,
// one colour jitter, then resize to size x size.
func TrainTransform(size int) Transform {
	return Compose{
		RandomRotate90{},
		Flip{},
		OneOf{
			Saturation{Limit: 30},
			Brightness{Limit: 20},
			Contrast{Limit: 20},
		},
		Resize{Width: size, Height: size},
	}
}

// ValTransform returns the validation transform: resize only.
func ValTransform(size int) Transform {
	return Resize{Width: size, Height: size}
}
