package cli

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/beamstd/internal/record"
)

//go:embed schema.cue
var schemaCUE string

// RunDescriptor is the on-disk shape of a run: the fields a builder
// script provides before validation. Image and particle-ensemble
// payloads are API-only; descriptors carry scalar outputs.
type RunDescriptor struct {
	Run struct {
		Source string `json:"source" yaml:"source"`
		Date   string `json:"date" yaml:"date"`
		Notes  string `json:"notes" yaml:"notes"`
	} `json:"run" yaml:"run"`

	Inputs []InputDescriptor `json:"inputs" yaml:"inputs"`

	Lattice struct {
		Location string   `json:"location" yaml:"location"`
		Files    []string `json:"files" yaml:"files"`
	} `json:"lattice" yaml:"lattice"`

	Outputs []OutputDescriptor `json:"outputs" yaml:"outputs"`

	Summary struct {
		Keys     []string `json:"keys" yaml:"keys"`
		Location any      `json:"location" yaml:"location"`
	} `json:"summary" yaml:"summary"`

	Simulation *struct {
		Start     string `json:"start" yaml:"start"`
		End       string `json:"end" yaml:"end"`
		Code      string `json:"code" yaml:"code"`
		InputFile string `json:"input_file" yaml:"input_file"`
	} `json:"simulation" yaml:"simulation"`
}

// InputDescriptor is one scalar input in a descriptor.
type InputDescriptor struct {
	Name        string  `json:"name" yaml:"name"`
	Value       float64 `json:"value" yaml:"value"`
	Location    string  `json:"location" yaml:"location"`
	Units       string  `json:"units" yaml:"units"`
	Description string  `json:"description" yaml:"description"`
}

// OutputDescriptor is one scalar output in a descriptor. Locations are
// strings (named positions) or numbers (beamline coordinates).
type OutputDescriptor struct {
	Name      string    `json:"name" yaml:"name"`
	Locations []any     `json:"locations" yaml:"locations"`
	Units     string    `json:"units" yaml:"units"`
	Values    []float64 `json:"values" yaml:"values"`
}

// LoadDescriptor loads a run descriptor from a CUE or YAML file,
// dispatching on extension.
func LoadDescriptor(path string) (*RunDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return loadCUE(path, data)
	case ".yaml", ".yml":
		return loadYAML(path, data)
	default:
		return nil, fmt.Errorf("descriptor %q: unsupported extension (want .cue, .yaml or .yml)", path)
	}
}

func loadCUE(path string, data []byte) (*RunDescriptor, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile descriptor schema: %w", err)
	}
	runSchema := schema.LookupPath(cue.ParsePath("#Run"))
	if err := runSchema.Err(); err != nil {
		return nil, fmt.Errorf("lookup #Run schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("parse descriptor: %s", cueerrors.Details(err, nil))
	}

	unified := runSchema.Unify(value)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return nil, fmt.Errorf("descriptor does not satisfy schema: %s", cueerrors.Details(err, nil))
	}

	var desc RunDescriptor
	if err := unified.Decode(&desc); err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}
	return &desc, nil
}

func loadYAML(path string, data []byte) (*RunDescriptor, error) {
	var desc RunDescriptor
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&desc); err != nil {
		return nil, fmt.Errorf("parse descriptor %q: %w", path, err)
	}
	return &desc, nil
}

// BuildRecord populates a record from a descriptor. Validation runs
// field by field as the record is populated; the caller finalizes.
func BuildRecord(desc *RunDescriptor, opts ...record.Option) (*record.Record, error) {
	var rec *record.Record
	if desc.Simulation != nil {
		rec = record.NewSimulated(opts...)
	} else {
		rec = record.New(opts...)
	}

	for _, in := range desc.Inputs {
		err := rec.AddScalarInput(record.ScalarField{
			Name:        in.Name,
			Value:       in.Value,
			Location:    in.Location,
			Units:       in.Units,
			Description: in.Description,
		})
		if err != nil {
			return nil, err
		}
	}

	if len(desc.Lattice.Files) > 0 {
		if err := rec.SetLatticePaths(desc.Lattice.Location, desc.Lattice.Files); err != nil {
			return nil, err
		}
	} else if err := rec.SetLattice(record.LatticeRef{Location: desc.Lattice.Location}); err != nil {
		return nil, err
	}

	for _, out := range desc.Outputs {
		locs := make([]record.Position, len(out.Locations))
		for i, raw := range out.Locations {
			p, err := toPosition(raw)
			if err != nil {
				return nil, fmt.Errorf("output %q: %w", out.Name, err)
			}
			locs[i] = p
		}
		err := rec.AddOutput(record.SingleOutput{
			Name:      out.Name,
			Type:      record.DatumScalar,
			Locations: locs,
			Units:     out.Units,
			Scalars:   out.Values,
		})
		if err != nil {
			return nil, err
		}
	}

	summary := record.Summary{Keys: desc.Summary.Keys}
	if desc.Summary.Location != nil {
		loc, err := toPosition(desc.Summary.Location)
		if err != nil {
			return nil, fmt.Errorf("summary location: %w", err)
		}
		summary.Location = loc
	}
	if err := rec.SetSummary(summary); err != nil {
		return nil, err
	}

	err := rec.SetRunInfo(record.RunInfo{
		Source: desc.Run.Source,
		Date:   desc.Run.Date,
		Notes:  desc.Run.Notes,
	})
	if err != nil {
		return nil, err
	}

	if desc.Simulation != nil {
		err := rec.SetSimulationMeta(record.SimulationMeta{
			Start:     desc.Simulation.Start,
			End:       desc.Simulation.End,
			Code:      desc.Simulation.Code,
			InputFile: desc.Simulation.InputFile,
		})
		if err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// toPosition converts a decoded location value (string label or numeric
// coordinate) to a Position. CUE decodes integer literals as int,
// YAML as int or float64.
func toPosition(v any) (record.Position, error) {
	switch val := v.(type) {
	case string:
		return record.AtLabel(val), nil
	case float64:
		return record.At(val), nil
	case int:
		return record.At(float64(val)), nil
	case int64:
		return record.At(float64(val)), nil
	default:
		return record.Position{}, fmt.Errorf("location must be a string or number, got %T", v)
	}
}
