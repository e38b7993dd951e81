package grading

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChain(t *testing.T) {
	tests := []struct {
		desc string
		want []Op
	}{
		{"hard", []Op{{Kind: OpHard}}},
		{"soft_threshlow_50", []Op{{Kind: OpSoft}, {Kind: OpThreshLow, Args: []float64{50}}}},
		{"num_0.05", []Op{{Kind: OpNum, Args: []float64{0.05}}}},
		{"soft_threshhigh_80_normalize_100", []Op{
			{Kind: OpSoft},
			{Kind: OpThreshHigh, Args: []float64{80}},
			{Kind: OpNormalize, Args: []float64{100}},
		}},
		{" code ", []Op{{Kind: OpCode}}},
		{"data_reweight_-1", []Op{{Kind: OpData}, {Kind: OpReweight, Args: []float64{-1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			c, err := ParseChain(tt.desc)
			require.NoError(t, err)
			assert.Equal(t, tt.desc, c.Descriptor)
			if diff := cmp.Diff(tt.want, c.Ops); diff != "" {
				t.Errorf("ops mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseChainEmptyIsInactive(t *testing.T) {
	c, err := ParseChain("")
	require.NoError(t, err)
	assert.True(t, c.Empty())
}

func TestParseChainUnknownOperation(t *testing.T) {
	_, err := ParseChain("soft_fuzzy_50")
	require.ErrorIs(t, err, ErrUnknownOperation)
	assert.Contains(t, err.Error(), `"fuzzy"`)

	_, err = ParseChain("50_hard")
	require.ErrorIs(t, err, ErrUnknownOperation)
}

func TestParseChainTooManyArgs(t *testing.T) {
	for _, desc := range []string{"hard_5", "threshlow_50_60", "code_1"} {
		_, err := ParseChain(desc)
		assert.ErrorIs(t, err, ErrTooManyArgs, desc)
	}
}

func TestChainHelpers(t *testing.T) {
	c, err := ParseChain("soft_threshlow_50")
	require.NoError(t, err)
	assert.True(t, c.Has(OpThreshLow))
	assert.False(t, c.Has(OpCode))
	assert.Equal(t, "threshlow_50", c.Ops[1].String())
	assert.Equal(t, 50.0, c.Ops[1].arg(0, 10))
	assert.Equal(t, 10.0, c.Ops[0].arg(0, 10))
	assert.Equal(t, "op(99)", OpKind(99).String())
}
