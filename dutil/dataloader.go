package dutil

import (
	"fmt"
	"reflect"
)

// DataLoader iterates over a Dataset in batches drawn from a Sampler.
type DataLoader struct {
	dataset Dataset
	sampler Sampler
	batches [][]int
	current int
}

// NewDataLoader creates a DataLoader and samples its first pass.
func NewDataLoader(data Dataset, s Sampler) (*DataLoader, error) {
	if data == nil {
		return nil, fmt.Errorf("nil dataset")
	}
	if s == nil {
		return nil, fmt.Errorf("nil sampler")
	}

	dl := &DataLoader{
		dataset: data,
		sampler: s,
	}
	dl.Reset()

	return dl, nil
}

// Reset starts a new pass, resampling the batch order.
func (dl *DataLoader) Reset() {
	dl.batches = dl.sampler.Sample()
	dl.current = 0
}

// Len returns number of batches in one pass.
func (dl *DataLoader) Len() int {
	return len(dl.batches)
}

// HasNext reports whether another batch is available.
func (dl *DataLoader) HasNext() bool {
	return dl.current < len(dl.batches)
}

// Next returns the next batch as a slice of the dataset's DType,
// e.g. []ImageMask.
func (dl *DataLoader) Next() (interface{}, error) {
	if !dl.HasNext() {
		return nil, fmt.Errorf("no more batches")
	}

	idxs := dl.batches[dl.current]
	dl.current++

	batch := reflect.MakeSlice(reflect.SliceOf(dl.dataset.DType()), 0, len(idxs))
	for _, idx := range idxs {
		item, err := dl.dataset.Item(idx)
		if err != nil {
			return nil, fmt.Errorf("load item %v: %w", idx, err)
		}
		batch = reflect.Append(batch, reflect.ValueOf(item))
	}

	return batch.Interface(), nil
}
