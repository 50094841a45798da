package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scalarOutput() SingleOutput {
	return SingleOutput{
		Name:      "xrms",
		Type:      DatumScalar,
		Locations: []Position{At(0.5), AtLabel("final")},
		Units:     "mm",
		Scalars:   []float64{1.2, 0.8},
	}
}

func TestValidateOutput_ScalarFoldsUnits(t *testing.T) {
	got, err := ValidateOutput(scalarOutput())
	require.NoError(t, err)

	assert.Equal(t, "m", got.Units)
	assert.InDelta(t, 1.2e-3, got.Scalars[0], 1e-15)
	assert.InDelta(t, 0.8e-3, got.Scalars[1], 1e-15)
}

func TestValidateOutput_LengthMismatch(t *testing.T) {
	out := scalarOutput()
	out.Scalars = []float64{1.2}

	_, err := ValidateOutput(out)
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrOutputLength, ve.Code)
	assert.Equal(t, "outputs.xrms", ve.Field)
}

func TestValidateOutput_ScalarRequiresUnits(t *testing.T) {
	out := scalarOutput()
	out.Units = ""

	_, err := ValidateOutput(out)
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrOutputUnits, ve.Code)
}

func TestValidateOutput_RequiresNameTypeLocation(t *testing.T) {
	out := scalarOutput()
	out.Name = ""
	_, err := ValidateOutput(out)
	require.Error(t, err)

	out = scalarOutput()
	out.Type = "waveform"
	_, err = ValidateOutput(out)
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrOutputType, ve.Code)

	out = scalarOutput()
	out.Locations = nil
	out.Scalars = nil
	_, err = ValidateOutput(out)
	require.Error(t, err)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrOutputLocation, ve.Code)
}

func TestValidateOutput_PayloadExclusivity(t *testing.T) {
	out := scalarOutput()
	out.Images = []Image{{{1}}}
	_, err := ValidateOutput(out)
	require.Error(t, err)
	assert.True(t, IsTypeError(err))

	imgOut := SingleOutput{
		Name:      "screen",
		Type:      DatumImage,
		Locations: []Position{AtLabel("screen3")},
		Attrs:     map[string]any{"pixel_calibration": 5.5},
		Images:    []Image{{{1, 2}, {3, 4}}},
		Scalars:   []float64{1},
	}
	_, err = ValidateOutput(imgOut)
	require.Error(t, err)
	assert.True(t, IsTypeError(err))
}

func TestValidateOutput_ImageNeedsCalibration(t *testing.T) {
	out := SingleOutput{
		Name:      "screen",
		Type:      DatumImage,
		Locations: []Position{AtLabel("screen3")},
		Images:    []Image{{{1, 2}, {3, 4}}},
	}
	_, err := ValidateOutput(out)
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrDistCalibration, ve.Code)
}

func TestValidateOutput_DistributionNeedsNonEmptyEnsembles(t *testing.T) {
	out := SingleOutput{
		Name:      "phase_space",
		Type:      DatumDistribution,
		Locations: []Position{AtLabel("final")},
		Ensembles: []Ensemble{{}},
	}
	_, err := ValidateOutput(out)
	require.Error(t, err)
	assert.True(t, IsTypeError(err))

	out.Ensembles = []Ensemble{{"x": {1, 2}}}
	got, err := ValidateOutput(out)
	require.NoError(t, err)
	assert.Len(t, got.Ensembles, 1)
}

func TestPositionMatches(t *testing.T) {
	assert.True(t, AtLabel("final").matches(AtLabel("final")))
	assert.False(t, AtLabel("final").matches(AtLabel("gun")))
	assert.False(t, AtLabel("final").matches(At(0)))
	assert.True(t, At(1.0).matches(At(1.0+1e-12)))
	assert.False(t, At(1.0).matches(At(1.1)))
}
