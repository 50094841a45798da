package record

import (
	"math"

	"github.com/roach88/beamstd/internal/units"
)

// Position is a beamline position: either a named location ("gun exit",
// "final") or a numeric coordinate along the line. The zero Position is
// "unset", distinct from the numeric coordinate 0.
type Position struct {
	Label string
	S     float64
	Named bool

	set bool
}

// At returns a numeric position.
func At(s float64) Position { return Position{S: s, set: true} }

// AtLabel returns a named position.
func AtLabel(label string) Position { return Position{Label: label, Named: true, set: true} }

// Unset reports whether the position was never specified.
func (p Position) Unset() bool { return !p.set }

// matches reports whether two positions refer to the same place.
// Numeric positions compare with a relative tolerance since they may
// have passed through serialization.
func (p Position) matches(q Position) bool {
	if p.Named != q.Named {
		return false
	}
	if p.Named {
		return p.Label == q.Label
	}
	diff := math.Abs(p.S - q.S)
	scale := math.Max(math.Abs(p.S), math.Abs(q.S))
	return diff <= 1e-9*math.Max(scale, 1)
}

// DatumType tags the payload variant of a SingleOutput.
type DatumType string

const (
	DatumScalar       DatumType = "scalar"
	DatumImage        DatumType = "image"
	DatumDistribution DatumType = "distribution"
)

func (t DatumType) valid() bool {
	switch t {
	case DatumScalar, DatumImage, DatumDistribution:
		return true
	}
	return false
}

// SingleOutput is one measured or computed per-run result. Exactly one
// payload slice is populated, selected by Type, with one element per
// location.
type SingleOutput struct {
	Name      string
	Type      DatumType
	Locations []Position
	Units     string // required iff Type == DatumScalar
	Attrs     map[string]any

	Scalars   []float64  // DatumScalar payload
	Images    []Image    // DatumImage payload
	Ensembles []Ensemble // DatumDistribution payload
}

// ValidateOutput checks and normalizes a single output, dispatching on
// the datum type tag.
//
// Every output needs a name, a known type, and at least one location;
// the payload matching the type must have exactly one element per
// location. Scalar outputs additionally require resolvable units, whose
// SI prefix is folded into the values like scalar inputs. Image outputs
// require rank-2 uniform grids and a pixel_calibration attribute.
func ValidateOutput(out SingleOutput) (SingleOutput, error) {
	if out.Name == "" {
		return SingleOutput{}, valueErr(ErrOutputName, "outputs", "datum name must not be blank")
	}
	field := "outputs." + out.Name
	if !out.Type.valid() {
		return SingleOutput{}, valueErr(ErrOutputType, field,
			"datum_type must be %q, %q or %q, got %q",
			DatumScalar, DatumImage, DatumDistribution, out.Type)
	}
	if len(out.Locations) == 0 {
		return SingleOutput{}, valueErr(ErrOutputLocation, field, "at least one location required")
	}

	n := len(out.Locations)
	switch out.Type {
	case DatumScalar:
		if len(out.Images) > 0 || len(out.Ensembles) > 0 {
			return SingleOutput{}, typeErr(ErrOutputPayload, field,
				"scalar output must not carry image or distribution data")
		}
		if len(out.Scalars) != n {
			return SingleOutput{}, valueErr(ErrOutputLength, field,
				"datum length %d does not match location length %d", len(out.Scalars), n)
		}
		if out.Units == "" {
			return SingleOutput{}, valueErr(ErrOutputUnits, field,
				"units required for scalar outputs")
		}
		for i, v := range out.Scalars {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return SingleOutput{}, typeErr(ErrOutputPayload, field,
					"datum[%d] must be a finite number, got %v", i, v)
			}
		}
		u, err := units.Resolve(out.Units)
		if err != nil {
			return SingleOutput{}, valueErr(ErrOutputUnits, field, "units %q: %v", out.Units, err)
		}
		if !u.Custom {
			scaled := make([]float64, n)
			for i, v := range out.Scalars {
				scaled[i] = v * u.Factor
			}
			out.Scalars = scaled
			out.Units = u.Symbol
		}

	case DatumImage:
		if len(out.Scalars) > 0 || len(out.Ensembles) > 0 {
			return SingleOutput{}, typeErr(ErrOutputPayload, field,
				"image output must not carry scalar or distribution data")
		}
		if len(out.Images) != n {
			return SingleOutput{}, valueErr(ErrOutputLength, field,
				"datum length %d does not match location length %d", len(out.Images), n)
		}
		for _, img := range out.Images {
			if err := validateImage(img, field); err != nil {
				return SingleOutput{}, err
			}
		}
		if _, ok := out.Attrs["pixel_calibration"]; !ok {
			return SingleOutput{}, valueErr(ErrDistCalibration, field,
				"attrs must contain pixel_calibration for image data")
		}

	case DatumDistribution:
		if len(out.Scalars) > 0 || len(out.Images) > 0 {
			return SingleOutput{}, typeErr(ErrOutputPayload, field,
				"distribution output must not carry scalar or image data")
		}
		if len(out.Ensembles) != n {
			return SingleOutput{}, valueErr(ErrOutputLength, field,
				"datum length %d does not match location length %d", len(out.Ensembles), n)
		}
		for i, e := range out.Ensembles {
			if len(e) == 0 {
				return SingleOutput{}, typeErr(ErrOutputPayload, field,
					"datum[%d] must be a non-empty particle ensemble", i)
			}
		}
	}

	return out, nil
}
