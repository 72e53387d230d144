package dataset_test

import (
	"image"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sugarme/unetpp/dataset"
	"github.com/sugarme/unetpp/dutil"
)

// writePair writes an RGB image and a half-foreground mask under dir.
func writePair(t *testing.T, dir, id string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	mask := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{uint8(x), uint8(y), 128, 255})
			if x < w/2 {
				mask.SetGray(x, y, color.Gray{255})
			}
		}
	}
	require.NoError(t, imaging.Save(img, filepath.Join(dir, "images", id+".png")))
	require.NoError(t, imaging.Save(mask, filepath.Join(dir, "masks", id+".png")))
}

func setupDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "images"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "masks"), 0755))
	return dir
}

func TestDiscoverIDs(t *testing.T) {
	dir := setupDir(t)
	writePair(t, dir, "b", 8, 8)
	writePair(t, dir, "a", 8, 8)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "images", "notes.txt"), []byte("x"), 0644))

	ids, err := dataset.DiscoverIDs(filepath.Join(dir, "images"), ".png")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestSplit(t *testing.T) {
	ids := []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}
	train, val, err := dataset.Split(ids, 0.2, 41)
	require.NoError(t, err)
	assert.Len(t, val, 3)
	assert.Len(t, train, 8)
	assert.ElementsMatch(t, ids, append(append([]string{}, train...), val...))

	train2, val2, err := dataset.Split(ids, 0.2, 41)
	require.NoError(t, err)
	assert.Equal(t, train, train2)
	assert.Equal(t, val, val2)

	_, _, err = dataset.Split(ids, 0, 1)
	assert.Error(t, err)
	_, _, err = dataset.Split([]string{"x"}, 0.2, 1)
	assert.Error(t, err)
}

func TestSegDatasetItem(t *testing.T) {
	dir := setupDir(t)
	writePair(t, dir, "s1", 40, 24)

	ds := dataset.NewSegDataset([]string{"s1"}, filepath.Join(dir, "images"), filepath.Join(dir, "masks"), ".png", dataset.TrainTransform(32), 1)
	assert.Equal(t, 1, ds.Len())

	item, err := ds.Item(0)
	require.NoError(t, err)
	im := item.(dataset.ImageMask)
	assert.Equal(t, []int64{3, 32, 32}, im.Image.MustSize())
	assert.Equal(t, []int64{1, 32, 32}, im.Mask.MustSize())

	// nearest neighbour keeps the mask binary
	for _, v := range im.Mask.Float64Values() {
		assert.True(t, v == 0 || v == 1, "non binary mask value %v", v)
	}

	_, err = ds.Item(1)
	assert.Error(t, err)
}

func TestSegDatasetSizeMismatch(t *testing.T) {
	dir := setupDir(t)
	writePair(t, dir, "s1", 16, 16)
	big := image.NewGray(image.Rect(0, 0, 32, 32))
	require.NoError(t, imaging.Save(big, filepath.Join(dir, "masks", "s1.png")))

	ds := dataset.NewSegDataset([]string{"s1"}, filepath.Join(dir, "images"), filepath.Join(dir, "masks"), ".png", nil, 1)
	_, err := ds.Item(0)
	assert.Error(t, err)
}

func TestSegDatasetWithLoader(t *testing.T) {
	dir := setupDir(t)
	ids := []string{"a", "b", "c"}
	for _, id := range ids {
		writePair(t, dir, id, 16, 16)
	}

	ds := dataset.NewSegDataset(ids, filepath.Join(dir, "images"), filepath.Join(dir, "masks"), ".png", dataset.ValTransform(16), 1)
	s, err := dutil.NewBatchSampler(ds.Len(), 2, false, false)
	require.NoError(t, err)
	dl, err := dutil.NewDataLoader(ds, s)
	require.NoError(t, err)

	var sizes [][]int64
	for dl.HasNext() {
		b, err := dl.Next()
		require.NoError(t, err)
		imgTs, maskTs, err := dataset.Stack(b.([]dataset.ImageMask))
		require.NoError(t, err)
		sizes = append(sizes, imgTs.MustSize(), maskTs.MustSize())
	}
	assert.Equal(t, [][]int64{{2, 3, 16, 16}, {2, 1, 16, 16}, {1, 3, 16, 16}, {1, 1, 16, 16}}, sizes)

	_, _, err = dataset.Stack(nil)
	assert.Error(t, err)
}

func TestImageTensorNormalize(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, color.NRGBA{255, 0, 0, 255})
		}
	}

	vals := dataset.ImageTensor(img).Float64Values()
	require.Len(t, vals, 12)
	assert.InDelta(t, (1-0.485)/0.229, vals[0], 1e-5)
	assert.InDelta(t, (0-0.456)/0.224, vals[4], 1e-5)
	assert.InDelta(t, (0-0.406)/0.225, vals[8], 1e-5)
}

func TestTransformsKeepAlignment(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	mask := image.NewGray(image.Rect(0, 0, 8, 4))
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 20; i++ {
		outImg, outMask := dataset.Compose{dataset.RandomRotate90{}, dataset.Flip{}}.Apply(img, mask, rng)
		assert.Equal(t, outImg.Bounds().Size(), outMask.Bounds().Size())
	}
}

func TestLoadImage(t *testing.T) {
	dir := setupDir(t)
	writePair(t, dir, "q", 50, 30)

	x, orig, err := dataset.LoadImage(filepath.Join(dir, "images", "q.png"), 32)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 32, 32}, x.MustSize())
	assert.Equal(t, image.Pt(50, 30), orig)

	_, _, err = dataset.LoadImage(filepath.Join(dir, "images", "missing.png"), 32)
	assert.Error(t, err)

	_, err = dataset.ReadImage(filepath.Join(dir, "images", "q.webp"))
	assert.Error(t, err)
}
