package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDistribution_NilAndEmpty(t *testing.T) {
	got, err := ValidateDistribution(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ValidateDistribution(&Distribution{})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestValidateDistribution_AttrsWithoutData(t *testing.T) {
	_, err := ValidateDistribution(&Distribution{
		Attrs: map[string]any{"pixel_calibration": 5.5},
	})
	require.Error(t, err)
	assert.True(t, IsValueError(err))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrDistPairing, ve.Code)
}

func TestValidateDistribution_ImageWithoutAttrs(t *testing.T) {
	_, err := ValidateDistribution(&Distribution{
		Image: Image{{1, 2}, {3, 4}},
	})
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrDistPairing, ve.Code)
}

func TestValidateDistribution_ImageNeedsCalibration(t *testing.T) {
	_, err := ValidateDistribution(&Distribution{
		Image: Image{{1, 2}, {3, 4}},
		Attrs: map[string]any{"camera": "cam1"},
	})
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrDistCalibration, ve.Code)
}

func TestValidateDistribution_RaggedImage(t *testing.T) {
	_, err := ValidateDistribution(&Distribution{
		Image: Image{{1, 2}, {3}},
		Attrs: map[string]any{"pixel_calibration": 5.5},
	})
	require.Error(t, err)
	assert.True(t, IsTypeError(err))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrDistRagged, ve.Code)
}

func TestValidateDistribution_BothPayloads(t *testing.T) {
	_, err := ValidateDistribution(&Distribution{
		Image:    Image{{1, 2}},
		Ensemble: Ensemble{"x": {1}},
		Attrs:    map[string]any{"pixel_calibration": 5.5},
	})
	require.Error(t, err)
	assert.True(t, IsTypeError(err))
}

func TestValidateDistribution_EnsembleAttrsOptional(t *testing.T) {
	d := &Distribution{Ensemble: Ensemble{"x": {1, 2}, "px": {3, 4}}}
	got, err := ValidateDistribution(d)
	require.NoError(t, err)
	assert.Same(t, d, got)
}

func TestValidateDistribution_ValidImage(t *testing.T) {
	d := &Distribution{
		Image: Image{{1, 2, 3}, {4, 5, 6}},
		Attrs: map[string]any{"pixel_calibration": 5.5, "camera": "cam1"},
	}
	got, err := ValidateDistribution(d)
	require.NoError(t, err)
	assert.True(t, got.IsImage())
}
