package encoder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	ts "github.com/sugarme/gotch/tensor"

	"github.com/sugarme/unetpp/encoder"
)

func TestVGGEncoderForwardAll(t *testing.T) {
	vs := nn.NewVarStore(gotch.CPU)
	var enc encoder.Encoder = encoder.NewVGGEncoder(vs.Root(), 3, []int64{4, 8, 16, 32, 64})

	x := ts.MustRand([]int64{2, 3, 64, 32}, gotch.Float, gotch.CPU)
	features := enc.ForwardAll(x, false)
	require.Len(t, features, 5)

	want := [][]int64{
		{2, 4, 64, 32},
		{2, 8, 32, 16},
		{2, 16, 16, 8},
		{2, 32, 8, 4},
		{2, 64, 4, 2},
	}
	for i, f := range features {
		assert.Equal(t, want[i], f.MustSize())
	}
}
