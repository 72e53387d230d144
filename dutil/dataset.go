package dutil

import (
	"reflect"
)

// Dataset is a random-access collection of samples.
type Dataset interface {
	// Item returns sample at index idx.
	Item(idx int) (interface{}, error)
	// Len returns number of samples.
	Len() int
	// DType returns the type of a single sample returned by Item.
	DType() reflect.Type
}
