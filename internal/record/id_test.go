package record

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fingerInputs() map[string]ScalarField {
	return map[string]ScalarField{
		"charge": {Name: "charge", Value: 2.5e-10, Location: "gun", Units: "C", Description: "bunch charge"},
		"energy": {Name: "energy", Value: 1.3e9, Location: "linac exit", Units: "eV", Description: "beam energy"},
	}
}

func TestComputeID_Deterministic(t *testing.T) {
	a, err := ComputeID(fingerInputs(), "/lattices/fodo.lat")
	require.NoError(t, err)
	b, err := ComputeID(fingerInputs(), "/lattices/fodo.lat")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex SHA-256
}

func TestComputeID_SensitiveToEveryIdentifyingField(t *testing.T) {
	base := MustComputeID(fingerInputs(), "/lattices/fodo.lat")

	mutations := map[string]func(map[string]ScalarField) (map[string]ScalarField, string){
		"value": func(in map[string]ScalarField) (map[string]ScalarField, string) {
			f := in["charge"]
			f.Value = 2.6e-10
			in["charge"] = f
			return in, "/lattices/fodo.lat"
		},
		"units": func(in map[string]ScalarField) (map[string]ScalarField, string) {
			f := in["charge"]
			f.Units = "count"
			in["charge"] = f
			return in, "/lattices/fodo.lat"
		},
		"location": func(in map[string]ScalarField) (map[string]ScalarField, string) {
			f := in["charge"]
			f.Location = "cathode"
			in["charge"] = f
			return in, "/lattices/fodo.lat"
		},
		"description": func(in map[string]ScalarField) (map[string]ScalarField, string) {
			f := in["charge"]
			f.Description = "other"
			in["charge"] = f
			return in, "/lattices/fodo.lat"
		},
		"field set": func(in map[string]ScalarField) (map[string]ScalarField, string) {
			delete(in, "energy")
			return in, "/lattices/fodo.lat"
		},
		"lattice location": func(in map[string]ScalarField) (map[string]ScalarField, string) {
			return in, "/lattices/chicane.lat"
		},
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			inputs, lattice := mutate(fingerInputs())
			got := MustComputeID(inputs, lattice)
			assert.NotEqual(t, base, got)
		})
	}
}

func TestComputeID_IgnoresNonIdentifyingFields(t *testing.T) {
	// Two records differing only in outputs, distribution and metadata
	// share an ID: run identity is inputs plus lattice location.
	build := func(withExtras bool) *Record {
		rec := New()
		require.NoError(t, rec.AddScalarInput(ScalarField{
			Name: "charge", Value: 250, Location: "gun", Units: "pC", Description: "bunch charge",
		}))
		require.NoError(t, rec.SetLattice(LatticeRef{Location: "/lattices/fodo.lat"}))
		require.NoError(t, rec.SetSummary(Summary{Keys: []string{"charge"}}))
		notes := "first pass"
		if withExtras {
			notes = "second pass with extras"
			require.NoError(t, rec.AddOutput(SingleOutput{
				Name:      "xrms",
				Type:      DatumScalar,
				Locations: []Position{AtLabel("final")},
				Units:     "mm",
				Scalars:   []float64{0.8},
			}))
			require.NoError(t, rec.SetDistribution(&Distribution{
				Ensemble: Ensemble{"x": {1, 2, 3}},
			}))
		}
		require.NoError(t, rec.SetRunInfo(RunInfo{Source: "beamline A", Date: "2024-03-15", Notes: notes}))
		require.NoError(t, rec.Finalize())
		return rec
	}

	assert.Equal(t, build(false).ID(), build(true).ID())
}

func TestComputeID_RejectsNonFiniteValue(t *testing.T) {
	inputs := fingerInputs()
	f := inputs["charge"]
	f.Value = math.Inf(1)
	inputs["charge"] = f

	_, err := ComputeID(inputs, "/lattices/fodo.lat")
	require.Error(t, err)
	assert.True(t, IsTypeError(err))
}
