package record

import (
	"crypto/sha256"
	"encoding/hex"
)

// domainRun prefixes the run fingerprint for domain separation.
// The version suffix enables future algorithm migration.
const domainRun = "beamstd/run/v1"

// hashWithDomain computes SHA-256 over domain + 0x00 + data.
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ComputeID derives the content-addressed run fingerprint from the
// normalized scalar inputs and the lattice location. Nothing else feeds
// the ID: outputs, distributions and run metadata can change without
// changing run identity, while any change to an input value, the input
// set, or the lattice location produces a different ID.
//
// The inputs map holds normalized scalar fields keyed by name.
func ComputeID(inputs map[string]ScalarField, latticeLocation string) (string, error) {
	scalars := make(map[string]any, len(inputs))
	for name, f := range inputs {
		scalars[name] = map[string]any{
			"name":        f.Name,
			"value":       f.Value,
			"location":    f.Location,
			"units":       f.Units,
			"description": f.Description,
		}
	}

	canonical, err := MarshalCanonical(map[string]any{
		"lattice_location": latticeLocation,
		"scalar_inputs":    scalars,
	})
	if err != nil {
		return "", err
	}

	return hashWithDomain(domainRun, canonical), nil
}

// MustComputeID is ComputeID but panics on error.
// Use only in tests with inputs known to be valid.
func MustComputeID(inputs map[string]ScalarField, latticeLocation string) string {
	id, err := ComputeID(inputs, latticeLocation)
	if err != nil {
		panic(err)
	}
	return id
}
