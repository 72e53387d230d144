package unetpp

import (
	"fmt"

	ts "github.com/sugarme/gotch/tensor"
)

// Selection picks one map out of the outputs of ForwardAll.
// It is either a single-output selection or an explicit index into a
// deep-supervision sequence.
type Selection struct {
	sequence bool
	index    int
}

// SingleOutput selects the only map of a model without deep supervision.
func SingleOutput() Selection {
	return Selection{}
}

// SequenceIndex selects map i of a deep-supervision sequence.
func SequenceIndex(i int) Selection {
	return Selection{sequence: true, index: i}
}

// DefaultSelection selects the most nested map of a model.
func DefaultSelection(deepSupervision bool) Selection {
	if deepSupervision {
		return SequenceIndex(NumOutputs - 1)
	}
	return SingleOutput()
}

// IsSequence reports whether s indexes into a sequence.
func (s Selection) IsSequence() bool {
	return s.sequence
}

// Index returns the sequence index. It is 0 for a single-output selection.
func (s Selection) Index() int {
	return s.index
}

func (s Selection) String() string {
	if s.sequence {
		return fmt.Sprintf("sequence[%d]", s.index)
	}
	return "single"
}

// Pick returns the selected map. The caller keeps ownership of all outputs.
func (s Selection) Pick(outputs []*ts.Tensor) (*ts.Tensor, error) {
	if !s.sequence {
		if len(outputs) != 1 {
			return nil, fmt.Errorf("single output selection: got %v outputs", len(outputs))
		}
		return outputs[0], nil
	}

	if len(outputs) < 2 {
		return nil, fmt.Errorf("%v selection: model produced a single output", s)
	}
	if s.index < 0 || s.index >= len(outputs) {
		return nil, fmt.Errorf("%v selection: index out of range [0, %v)", s, len(outputs))
	}
	return outputs[s.index], nil
}
