package trainer

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Record is one row of the training log.
type Record struct {
	Epoch   int
	Loss    float64
	IoU     float64
	ValLoss float64
	ValIoU  float64
}

// History is the ordered training log. Every Append rewrites the CSV file
// at csvPath and, if plotPath is set, a PNG chart of the curves.
type History struct {
	records  []Record
	csvPath  string
	plotPath string
}

// NewHistory creates an empty History.
func NewHistory(csvPath, plotPath string) *History {
	return &History{csvPath: csvPath, plotPath: plotPath}
}

// Records returns a copy of the logged rows.
func (h *History) Records() []Record {
	return append([]Record(nil), h.records...)
}

// Len returns number of logged rows.
func (h *History) Len() int {
	return len(h.records)
}

// Append adds r and persists the log. Epochs must strictly increase.
func (h *History) Append(r Record) error {
	if n := len(h.records); n > 0 && r.Epoch <= h.records[n-1].Epoch {
		return fmt.Errorf("epoch %v logged after epoch %v", r.Epoch, h.records[n-1].Epoch)
	}
	records := append(append([]Record(nil), h.records...), r)

	if err := h.writeCSV(records); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	h.records = records

	if h.plotPath != "" {
		if err := h.plot(); err != nil {
			return fmt.Errorf("plot log: %w", err)
		}
	}
	return nil
}

// dataFrame holds float columns as strings: gota prints Float series
// with 6 decimals only.
func dataFrame(records []Record) dataframe.DataFrame {
	n := len(records)
	epochs := make([]int, n)
	loss := make([]string, n)
	iou := make([]string, n)
	valLoss := make([]string, n)
	valIoU := make([]string, n)
	for i, r := range records {
		epochs[i] = r.Epoch
		loss[i] = formatFloat(r.Loss)
		iou[i] = formatFloat(r.IoU)
		valLoss[i] = formatFloat(r.ValLoss)
		valIoU[i] = formatFloat(r.ValIoU)
	}

	return dataframe.New(
		series.New(epochs, series.Int, "epoch"),
		series.New(loss, series.String, "loss"),
		series.New(iou, series.String, "iou"),
		series.New(valLoss, series.String, "val_loss"),
		series.New(valIoU, series.String, "val_iou"),
	)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// writeCSV writes to a temporary file then renames it over csvPath so a
// crash never leaves a truncated log behind.
func (h *History) writeCSV(records []Record) error {
	dir := filepath.Dir(h.csvPath)
	tmp, err := os.CreateTemp(dir, ".log-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := dataFrame(records).WriteCSV(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), h.csvPath)
}

func (h *History) plot() error {
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = "Training history"
	p.X.Label.Text = "epoch"

	n := len(h.records)
	loss := make(plotter.XYs, n)
	valLoss := make(plotter.XYs, n)
	iou := make(plotter.XYs, n)
	valIoU := make(plotter.XYs, n)
	for i, r := range h.records {
		x := float64(r.Epoch)
		loss[i].X, loss[i].Y = x, r.Loss
		valLoss[i].X, valLoss[i].Y = x, r.ValLoss
		iou[i].X, iou[i].Y = x, r.IoU
		valIoU[i].X, valIoU[i].Y = x, r.ValIoU
	}

	err = plotutil.AddLinePoints(p,
		"loss", loss,
		"val_loss", valLoss,
		"iou", iou,
		"val_iou", valIoU,
	)
	if err != nil {
		return err
	}

	return p.Save(6*vg.Inch, 4*vg.Inch, h.plotPath)
}

// ReadHistory loads a training log written by History.
func ReadHistory(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	df := dataframe.ReadCSV(f, dataframe.HasHeader(true))
	if df.Err != nil {
		return nil, df.Err
	}

	epochs, err := df.Col("epoch").Int()
	if err != nil {
		return nil, err
	}
	loss := df.Col("loss").Float()
	iou := df.Col("iou").Float()
	valLoss := df.Col("val_loss").Float()
	valIoU := df.Col("val_iou").Float()

	records := make([]Record, df.Nrow())
	for i := range records {
		records[i] = Record{
			Epoch:   epochs[i],
			Loss:    loss[i],
			IoU:     iou[i],
			ValLoss: valLoss[i],
			ValIoU:  valIoU[i],
		}
	}
	return records, nil
}
