package dataset

import (
	"image"

	ts "github.com/sugarme/gotch/tensor"
)

// ImageNet statistics used to normalize RGB inputs.
var (
	Mean = [3]float32{0.485, 0.456, 0.406} // image RGB mean
	Std  = [3]float32{0.229, 0.224, 0.225} // image RGB standard error
)

// maxPixel is the value a normalized channel is scaled from.
const maxPixel = 255.0

// ImageTensor converts img to a normalized float tensor [3 H W]:
// x = (pixel/255 - mean)/std per channel. Alpha is ignored.
func ImageTensor(img image.Image) *ts.Tensor {
	src := toNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	plane := w * h
	data := make([]float32, 3*plane)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := src.PixOffset(x, y)
			idx := y*w + x
			for c := 0; c < 3; c++ {
				v := float32(src.Pix[off+c]) / maxPixel
				data[c*plane+idx] = (v - Mean[c]) / Std[c]
			}
		}
	}

	return ts.MustOfSlice(data).MustView([]int64{3, int64(h), int64(w)}, true)
}

// MaskTensor converts mask to a float tensor [1 H W] with values in [0, 1].
func MaskTensor(mask image.Image) *ts.Tensor {
	gray := toGray(mask)
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	data := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			data[y*w+x] = float32(gray.Pix[gray.PixOffset(x, y)]) / maxPixel
		}
	}

	return ts.MustOfSlice(data).MustView([]int64{1, int64(h), int64(w)}, true)
}
