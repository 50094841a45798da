package record

import (
	"math"

	"github.com/roach88/beamstd/internal/units"
)

// ScalarField is one scalar input parameter: a per-run override of the
// lattice defaults, tied to a beamline location and a unit.
type ScalarField struct {
	Name        string
	Value       float64
	Location    string
	Units       string
	Description string

	// Blank marks a field accepted under allow-blank. Blank fields carry
	// no data and are skipped by fingerprinting and serialization.
	Blank bool
}

// ValidateScalar checks and normalizes one scalar field.
//
// Normalization is the only coercion performed: a recognized SI prefix is
// folded into the value and Units is replaced by the canonical symbol
// ("pC" becomes value*1e-12 with units "C"). Custom units pass through
// unchanged. A fully blank field is accepted when allowBlank is set and
// returned with the Blank marker; otherwise blank name, location or
// units fail with a value-kind error.
func ValidateScalar(f ScalarField, allowBlank bool) (ScalarField, error) {
	if f.Name == "" && f.Location == "" && f.Units == "" && f.Value == 0 {
		if allowBlank {
			return ScalarField{Blank: true}, nil
		}
		return ScalarField{}, valueErr(ErrScalarBlank, "scalar_inputs", "blank scalar field")
	}

	if f.Name == "" {
		return ScalarField{}, valueErr(ErrScalarBlank, "scalar_inputs", "name must not be blank")
	}
	field := "scalar_inputs." + f.Name
	if f.Location == "" {
		return ScalarField{}, valueErr(ErrScalarBlank, field, "location must not be blank")
	}
	if f.Units == "" {
		return ScalarField{}, valueErr(ErrScalarBlank, field, "units must not be blank")
	}
	if math.IsNaN(f.Value) || math.IsInf(f.Value, 0) {
		return ScalarField{}, typeErr(ErrScalarValue, field, "value must be a finite number, got %v", f.Value)
	}

	u, err := units.Resolve(f.Units)
	if err != nil {
		return ScalarField{}, valueErr(ErrScalarUnits, field, "units %q: %v", f.Units, err)
	}

	out := f
	if !u.Custom {
		out.Value = f.Value * u.Factor
		out.Units = u.Symbol
	}
	return out, nil
}
