package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	ts "github.com/sugarme/gotch/tensor"
)

// ImageMask is a single augmented sample.
type ImageMask struct {
	Image ts.Tensor // [3 H W]
	Mask  ts.Tensor // [1 H W]
}

// SegDataset pairs images with masks of the same id.
// It implements dutil.Dataset.
type SegDataset struct {
	ids       []string
	imgDir    string
	maskDir   string
	ext       string
	transform Transform
	rng       *rand.Rand
}

// NewSegDataset creates a SegDataset. Image <id> is read from
// imgDir/<id><ext> and its mask from maskDir/<id><ext>.
func NewSegDataset(ids []string, imgDir, maskDir, ext string, transform Transform, seed int64) *SegDataset {
	return &SegDataset{
		ids:       ids,
		imgDir:    imgDir,
		maskDir:   maskDir,
		ext:       ext,
		transform: transform,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Len implements dutil.Dataset interface.
func (ds *SegDataset) Len() int {
	return len(ds.ids)
}

// DType implements dutil.Dataset interface.
func (ds *SegDataset) DType() reflect.Type {
	return reflect.TypeOf(ImageMask{})
}

// Item implements dutil.Dataset interface.
func (ds *SegDataset) Item(idx int) (interface{}, error) {
	if idx < 0 || idx >= len(ds.ids) {
		return nil, fmt.Errorf("index %v out of range [0, %v)", idx, len(ds.ids))
	}
	id := ds.ids[idx]

	img, err := ReadImage(filepath.Join(ds.imgDir, id+ds.ext))
	if err != nil {
		return nil, fmt.Errorf("image %q: %w", id, err)
	}
	mask, err := ReadImage(filepath.Join(ds.maskDir, id+ds.ext))
	if err != nil {
		return nil, fmt.Errorf("mask %q: %w", id, err)
	}
	if img.Bounds().Size() != mask.Bounds().Size() {
		return nil, fmt.Errorf("sample %q: image size %v and mask size %v differ", id, img.Bounds().Size(), mask.Bounds().Size())
	}

	if ds.transform != nil {
		img, mask = ds.transform.Apply(img, mask, ds.rng)
	}

	return ImageMask{
		Image: *ImageTensor(img),
		Mask:  *MaskTensor(mask),
	}, nil
}

// Stack stacks a batch into image [B 3 H W] and mask [B 1 H W] tensors.
// Sample tensors are dropped.
func Stack(batch []ImageMask) (imgTs, maskTs *ts.Tensor, err error) {
	if len(batch) == 0 {
		return nil, nil, fmt.Errorf("empty batch")
	}

	var img, mask []ts.Tensor
	for _, i := range batch {
		img = append(img, i.Image)
		mask = append(mask, i.Mask)
	}
	imgTs = ts.MustStack(img, 0)
	for _, x := range img {
		x.MustDrop()
	}
	maskTs = ts.MustStack(mask, 0)
	for _, x := range mask {
		x.MustDrop()
	}

	return imgTs, maskTs, nil
}

// DiscoverIDs lists file names without extension of all files in dir
// ending with ext, sorted.
func DiscoverIDs(dir, ext string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*"+ext))
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, f := range files {
		ids = append(ids, strings.TrimSuffix(filepath.Base(f), ext))
	}
	sort.Strings(ids)

	return ids, nil
}

// Split randomly splits ids into train and validation ids.
// The validation part holds ceil(len(ids)*valFrac) ids.
func Split(ids []string, valFrac float64, seed int64) (train, val []string, err error) {
	if valFrac <= 0 || valFrac >= 1 {
		return nil, nil, fmt.Errorf("validation fraction must be in (0, 1). Got %v", valFrac)
	}
	if len(ids) < 2 {
		return nil, nil, fmt.Errorf("need at least 2 samples to split. Got %v", len(ids))
	}

	shuffled := append([]string(nil), ids...)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	nVal := int(math.Ceil(float64(len(ids)) * valFrac))
	if nVal >= len(ids) {
		nVal = len(ids) - 1
	}

	return shuffled[nVal:], shuffled[:nVal], nil
}
