package unetpp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugarme/gotch"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/unetpp/unetpp"
)

func maps(n int) []*ts.Tensor {
	var out []*ts.Tensor
	for i := 0; i < n; i++ {
		out = append(out, ts.MustZeros([]int64{1, 1, 2, 2}, gotch.Float, gotch.CPU))
	}
	return out
}

func TestSelectionPick(t *testing.T) {
	seq := maps(unetpp.NumOutputs)

	got, err := unetpp.DefaultSelection(true).Pick(seq)
	require.NoError(t, err)
	assert.Same(t, seq[unetpp.NumOutputs-1], got)

	got, err = unetpp.SequenceIndex(1).Pick(seq)
	require.NoError(t, err)
	assert.Same(t, seq[1], got)

	single := maps(1)
	got, err = unetpp.DefaultSelection(false).Pick(single)
	require.NoError(t, err)
	assert.Same(t, single[0], got)
}

func TestSelectionMismatch(t *testing.T) {
	_, err := unetpp.SingleOutput().Pick(maps(unetpp.NumOutputs))
	assert.Error(t, err)

	_, err = unetpp.SequenceIndex(0).Pick(maps(1))
	assert.Error(t, err)

	_, err = unetpp.SequenceIndex(unetpp.NumOutputs).Pick(maps(unetpp.NumOutputs))
	assert.Error(t, err)

	_, err = unetpp.SequenceIndex(-1).Pick(maps(unetpp.NumOutputs))
	assert.Error(t, err)
}

func TestSelectionString(t *testing.T) {
	assert.Equal(t, "single", unetpp.SingleOutput().String())
	assert.Equal(t, "sequence[3]", unetpp.SequenceIndex(3).String())
	assert.True(t, unetpp.SequenceIndex(2).IsSequence())
	assert.Equal(t, 2, unetpp.SequenceIndex(2).Index())
}
