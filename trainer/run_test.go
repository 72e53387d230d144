package trainer_test

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"

	"github.com/sugarme/unetpp/config"
	"github.com/sugarme/unetpp/trainer"
	"github.com/sugarme/unetpp/unetpp"
)

// writeSamples writes n 256x256 images with a centered square mask.
func writeSamples(t *testing.T, dir string, n int) {
	t.Helper()
	for _, sub := range []string{"images", "masks"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0755))
	}
	for k := 0; k < n; k++ {
		img := image.NewNRGBA(image.Rect(0, 0, 256, 256))
		mask := image.NewGray(image.Rect(0, 0, 256, 256))
		lo, hi := 64+8*k, 192-8*k
		for y := 0; y < 256; y++ {
			for x := 0; x < 256; x++ {
				img.Set(x, y, color.NRGBA{20, 20, 20, 255})
				if x >= lo && x < hi && y >= lo && y < hi {
					img.Set(x, y, color.NRGBA{220, 180, 160, 255})
					mask.SetGray(x, y, color.Gray{255})
				}
			}
		}
		id := string(rune('a' + k))
		require.NoError(t, imaging.Save(img, filepath.Join(dir, "images", id+".png")))
		require.NoError(t, imaging.Save(mask, filepath.Join(dir, "masks", id+".png")))
	}
}

func TestRunScenario(t *testing.T) {
	dir := t.TempDir()
	writeSamples(t, dir, 4)

	cfg := config.Default()
	cfg.Epochs = 2
	cfg.BatchSize = 2
	cfg.Filters = []int64{4, 8, 16, 32, 64}
	cfg.ImagePath = filepath.Join(dir, "images")
	cfg.MaskPath = filepath.Join(dir, "masks")
	cfg.LogPath = filepath.Join(dir, "log.csv")
	cfg.PlotPath = filepath.Join(dir, "log.png")
	cfg.ModelPath = filepath.Join(dir, "model.gt")

	s, err := trainer.Run(cfg, gotch.CPU)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Epoch)
	assert.True(t, s.BestIoU > 0 && s.BestIoU <= 1)

	rows, err := trainer.ReadHistory(cfg.LogPath)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 0, rows[0].Epoch)
	assert.Equal(t, 1, rows[1].Epoch)
	assert.Equal(t, s.BestIoU, maxValIoU(rows))

	_, err = os.Stat(cfg.ModelPath)
	require.NoError(t, err)

	// checkpoint loads into a fresh network with matching shapes
	ref := nn.NewVarStore(gotch.CPU)
	unetpp.New(ref.Root(), cfg.ModelOptions())
	fresh := nn.NewVarStore(gotch.CPU)
	unetpp.New(fresh.Root(), cfg.ModelOptions())
	require.NoError(t, fresh.Load(cfg.ModelPath))

	refVars := ref.Variables()
	freshVars := fresh.Variables()
	require.Equal(t, len(refVars), len(freshVars))
	for name, v := range refVars {
		fv, ok := freshVars[name]
		require.True(t, ok, "missing variable %v", name)
		assert.Equal(t, v.MustSize(), fv.MustSize(), name)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := config.Default()
	_, err := trainer.Run(cfg, gotch.CPU)
	assert.Error(t, err)
}

func maxValIoU(rows []trainer.Record) float64 {
	var best float64
	for _, r := range rows {
		if r.ValIoU > best {
			best = r.ValIoU
		}
	}
	return best
}
