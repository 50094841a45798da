package record

// Image is a 2D numeric grid (camera frame, phase-space projection).
type Image [][]float64

// Ensemble is an opaque particle-ensemble payload: named coordinate
// arrays (x, px, t, ...). The core only cares whether it exists; the
// component arrays are carried through serialization untouched.
type Ensemble map[string][]float64

// Distribution is the optional input distribution of a run: either an
// image grid with pixel calibration, or a particle ensemble.
type Distribution struct {
	Image    Image
	Ensemble Ensemble
	Attrs    map[string]any
}

// Empty reports whether the distribution carries no data.
func (d *Distribution) Empty() bool {
	return d == nil || (len(d.Image) == 0 && len(d.Ensemble) == 0)
}

// IsImage reports whether the distribution payload is an image grid.
func (d *Distribution) IsImage() bool {
	return d != nil && len(d.Image) > 0
}

// ValidateDistribution checks the distribution/attrs pairing and, for
// image data, the grid shape and calibration.
//
// Invariant: image data and attributes are both present or both absent;
// attrs without a grid, or a grid without attrs, is a partial state and
// fails. A nil or empty distribution with no attrs validates to nil.
// Particle ensembles are opaque beyond existence; their attrs are
// optional.
func ValidateDistribution(d *Distribution) (*Distribution, error) {
	if d == nil {
		return nil, nil
	}
	if d.Empty() {
		if len(d.Attrs) > 0 {
			return nil, valueErr(ErrDistPairing, "input_distribution",
				"attributes present without distribution data")
		}
		return nil, nil
	}

	if len(d.Image) > 0 && len(d.Ensemble) > 0 {
		return nil, typeErr(ErrDistRank, "input_distribution",
			"distribution cannot be both an image and a particle ensemble")
	}

	if d.IsImage() {
		if len(d.Attrs) == 0 {
			return nil, valueErr(ErrDistPairing, "input_distribution",
				"image data present without attributes")
		}
		if err := validateImage(d.Image, "input_distribution"); err != nil {
			return nil, err
		}
		if _, ok := d.Attrs["pixel_calibration"]; !ok {
			return nil, valueErr(ErrDistCalibration, "input_distribution",
				"attrs must contain pixel_calibration for image data")
		}
	}

	return d, nil
}

// validateImage checks that a grid is rank 2 with uniform rows.
func validateImage(img Image, field string) error {
	if len(img) == 0 {
		return typeErr(ErrDistRank, field, "image grid must not be empty")
	}
	width := len(img[0])
	if width == 0 {
		return typeErr(ErrDistRank, field, "image rows must not be empty")
	}
	for i, row := range img {
		if len(row) != width {
			return typeErr(ErrDistRagged, field,
				"image row %d has %d columns, expected %d", i, len(row), width)
		}
	}
	return nil
}
