package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSummary(t *testing.T) {
	// An empty key list means no extraction was requested and is valid
	// even under strict validation.
	got, err := ValidateSummary(Summary{}, false)
	require.NoError(t, err)
	assert.Empty(t, got.Keys)

	_, err = ValidateSummary(Summary{Keys: []string{"charge", ""}}, false)
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrSummaryKeyBlank, ve.Code)

	_, err = ValidateSummary(Summary{Keys: []string{"charge", "charge"}}, false)
	require.Error(t, err)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrSummaryKeyDup, ve.Code)

	_, err = ValidateSummary(Summary{Keys: []string{"summary_keys"}}, false)
	require.Error(t, err)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrSummaryReserved, ve.Code)

	// "ID" is allowed; the serializer writes the structural attribute
	// last so it wins the collision.
	_, err = ValidateSummary(Summary{Keys: []string{"ID", "charge"}}, false)
	require.NoError(t, err)
}

func TestValidateRunInfo(t *testing.T) {
	_, err := ValidateRunInfo(RunInfo{}, false)
	require.Error(t, err)

	got, err := ValidateRunInfo(RunInfo{}, true)
	require.NoError(t, err)
	assert.Equal(t, RunInfo{}, got)

	// A partially blank block fails even under allow-blank.
	_, err = ValidateRunInfo(RunInfo{Source: "beamline A"}, true)
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrRunInfoBlank, ve.Code)

	info := RunInfo{Source: "beamline A", Date: "2024-03-15", Notes: "scan"}
	got, err = ValidateRunInfo(info, false)
	require.NoError(t, err)
	assert.Equal(t, info, got)
}

func TestValidateSimulationMeta(t *testing.T) {
	_, err := ValidateSimulationMeta(SimulationMeta{}, false)
	require.Error(t, err)

	_, err = ValidateSimulationMeta(SimulationMeta{}, true)
	require.NoError(t, err)

	_, err = ValidateSimulationMeta(SimulationMeta{Start: "t0"}, true)
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrSimMetaBlank, ve.Code)

	meta := SimulationMeta{Start: "t0", End: "t1", Code: "impact-t", InputFile: "fodo.in"}
	got, err := ValidateSimulationMeta(meta, false)
	require.NoError(t, err)
	assert.Equal(t, meta, got)
}
