package dataset

import (
	"image"

	ts "github.com/sugarme/gotch/tensor"
)

// LoadImage reads a single image for inference, resizes it to size x size
// and normalizes it like validation data. It returns a [1 3 size size]
// tensor and the original image size.
func LoadImage(path string, size int) (*ts.Tensor, image.Point, error) {
	img, err := ReadImage(path)
	if err != nil {
		return nil, image.Point{}, err
	}
	orig := img.Bounds().Size()

	img, _ = ValTransform(size).Apply(img, nil, nil)
	x := ImageTensor(img).MustUnsqueeze(0, true)

	return x, orig, nil
}
