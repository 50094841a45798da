package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/roach88/beamstd/internal/record"
)

// Read loads a finalized record from a single-run container. Structural
// and type checks are re-applied while rebuilding; blank checks are not,
// since the file may legitimately omit optional metadata. The stored ID
// is trusted (the show command can recompute it on demand).
func Read(src string) (*record.Record, error) {
	f, err := Open(src)
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	defer f.Close()

	return f.readRun("", "/")
}

// ReadBatch loads every run of a batch container, in group-name order,
// pairing each with its source_file provenance when present.
func ReadBatch(src string) ([]BatchEntry, error) {
	f, err := Open(src)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	defer f.Close()

	groups, err := f.topGroups()
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, record.NewValueError(record.ErrContainerLayout, "/",
			"batch container holds no run groups")
	}

	entries := make([]BatchEntry, 0, len(groups))
	for _, group := range groups {
		rec, err := f.readRun(group+"/", group)
		if err != nil {
			return nil, fmt.Errorf("run group %q: %w", group, err)
		}
		attrs, err := f.attrsAt(group)
		if err != nil {
			return nil, err
		}
		source, _ := attrs["source_file"].(string)
		entries = append(entries, BatchEntry{Record: rec, SourceFile: source})
	}
	return entries, nil
}

// readRun reconstructs one record from the layout under a path prefix,
// taking file-scope attributes from attrPath.
func (f *File) readRun(prefix, attrPath string) (*record.Record, error) {
	rec := record.New(record.WithAllowBlank())

	if err := f.readInputs(rec, prefix); err != nil {
		return nil, err
	}
	if err := f.readLattice(rec, prefix); err != nil {
		return nil, err
	}
	if err := f.readOutputs(rec, prefix); err != nil {
		return nil, err
	}
	if err := f.readSimulationMeta(rec, prefix); err != nil {
		return nil, err
	}
	return f.readFileAttrs(rec, attrPath)
}

func (f *File) readInputs(rec *record.Record, prefix string) error {
	path := prefix + "inputs"
	ok, err := f.hasObject(path)
	if err != nil {
		return err
	}
	if !ok {
		return record.NewValueError(record.ErrContainerLayout, path, "inputs group missing")
	}

	names, err := f.children(path)
	if err != nil {
		return err
	}
	for _, name := range names {
		if name == "input_distribution" {
			continue
		}
		child := path + "/" + name
		kind, dtype, _, data, err := f.object(child)
		if err != nil {
			return fmt.Errorf("input %q: %w", name, err)
		}
		if kind != kindDataset || dtype != dtypeFloat {
			return record.NewTypeError(record.ErrContainerData, child,
				"scalar input must be a %s dataset, got %s %s", dtypeFloat, kind, dtype)
		}
		value, err := decodeFloat(data)
		if err != nil {
			return record.NewTypeError(record.ErrContainerData, child, "%v", err)
		}
		attrs, err := f.attrsAt(child)
		if err != nil {
			return err
		}
		field := record.ScalarField{
			Name:        name,
			Value:       value,
			Units:       attrString(attrs, "units"),
			Location:    attrString(attrs, "location"),
			Description: attrString(attrs, "description"),
		}
		if err := rec.AddScalarInput(field); err != nil {
			return err
		}
	}

	return f.readDistribution(rec, path+"/input_distribution")
}

func (f *File) readDistribution(rec *record.Record, path string) error {
	kind, dtype, _, data, err := f.object(path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("input_distribution: %w", err)
	}

	attrs, err := f.attrsAt(path)
	if err != nil {
		return err
	}

	dist := record.Distribution{Attrs: attrs}
	switch {
	case kind == kindDataset && dtype == dtypeImage:
		img, err := decodeImage(data)
		if err != nil {
			return record.NewTypeError(record.ErrContainerData, path, "%v", err)
		}
		dist.Image = img
	case kind == kindGroup:
		e, err := f.readEnsemble(path)
		if err != nil {
			return err
		}
		dist.Ensemble = e
	default:
		return record.NewTypeError(record.ErrContainerData, path,
			"input_distribution must be an image dataset or an ensemble group, got %s %s", kind, dtype)
	}
	return rec.SetDistribution(&dist)
}

func (f *File) readEnsemble(path string) (record.Ensemble, error) {
	names, err := f.children(path)
	if err != nil {
		return nil, err
	}
	e := make(record.Ensemble, len(names))
	for _, name := range names {
		child := path + "/" + name
		kind, dtype, _, data, err := f.object(child)
		if err != nil {
			return nil, fmt.Errorf("ensemble component %q: %w", name, err)
		}
		if kind != kindDataset || dtype != dtypeFloatArray {
			return nil, record.NewTypeError(record.ErrContainerData, child,
				"ensemble component must be a %s dataset, got %s %s", dtypeFloatArray, kind, dtype)
		}
		values, err := decodeFloats(data)
		if err != nil {
			return nil, record.NewTypeError(record.ErrContainerData, child, "%v", err)
		}
		e[name] = values
	}
	return e, nil
}

func (f *File) readLattice(rec *record.Record, prefix string) error {
	path := prefix + "lattice"
	ok, err := f.hasObject(path)
	if err != nil {
		return err
	}
	if !ok {
		return record.NewValueError(record.ErrContainerLayout, path, "lattice group missing")
	}

	attrs, err := f.attrsAt(path)
	if err != nil {
		return err
	}
	ref := record.LatticeRef{Location: attrString(attrs, "location")}

	filesPath := path + "/files"
	hasFiles, err := f.hasObject(filesPath)
	if err != nil {
		return err
	}
	if hasFiles {
		names, err := f.children(filesPath)
		if err != nil {
			return err
		}
		ref.Files = make(map[string]string, len(names))
		for _, name := range names {
			child := filesPath + "/" + name
			kind, dtype, _, data, err := f.object(child)
			if err != nil {
				return fmt.Errorf("lattice file %q: %w", name, err)
			}
			if kind != kindDataset || dtype != dtypeString {
				return record.NewTypeError(record.ErrContainerData, child,
					"lattice file must be a %s dataset, got %s %s", dtypeString, kind, dtype)
			}
			ref.Files[name] = string(data)
		}
	}
	return rec.SetLattice(ref)
}

func (f *File) readOutputs(rec *record.Record, prefix string) error {
	path := prefix + "outputs"
	ok, err := f.hasObject(path)
	if err != nil {
		return err
	}
	if !ok {
		return record.NewValueError(record.ErrContainerLayout, path, "outputs group missing")
	}

	names, err := f.children(path)
	if err != nil {
		return err
	}
	for _, name := range names {
		out, err := f.readOutput(path+"/"+name, name)
		if err != nil {
			return fmt.Errorf("output %q: %w", name, err)
		}
		if err := rec.AddOutput(out); err != nil {
			return err
		}
	}
	return nil
}

func (f *File) readOutput(path, name string) (record.SingleOutput, error) {
	attrs, err := f.attrsAt(path)
	if err != nil {
		return record.SingleOutput{}, err
	}

	typeAttr, ok := attrs["datum_type"].(string)
	if !ok {
		return record.SingleOutput{}, record.NewValueError(record.ErrContainerLayout, path,
			"datum_type attribute missing")
	}
	locAttr, ok := attrs["location"]
	if !ok {
		return record.SingleOutput{}, record.NewValueError(record.ErrContainerLayout, path,
			"location attribute missing")
	}
	locs, err := decodeLocations(locAttr)
	if err != nil {
		return record.SingleOutput{}, record.NewTypeError(record.ErrContainerData, path, "%v", err)
	}

	out := record.SingleOutput{
		Name:      name,
		Type:      record.DatumType(typeAttr),
		Locations: locs,
		Units:     attrString(attrs, "units"),
		Attrs:     userAttrs(attrs),
	}

	kind, dtype, _, data, err := f.object(path)
	if err != nil {
		return record.SingleOutput{}, err
	}

	switch out.Type {
	case record.DatumScalar:
		switch {
		case kind == kindDataset && dtype == dtypeFloat:
			v, err := decodeFloat(data)
			if err != nil {
				return record.SingleOutput{}, record.NewTypeError(record.ErrContainerData, path, "%v", err)
			}
			out.Scalars = []float64{v}
		case kind == kindDataset && dtype == dtypeFloatArray:
			vs, err := decodeFloats(data)
			if err != nil {
				return record.SingleOutput{}, record.NewTypeError(record.ErrContainerData, path, "%v", err)
			}
			out.Scalars = vs
		default:
			return record.SingleOutput{}, record.NewTypeError(record.ErrContainerData, path,
				"scalar output must be a numeric dataset, got %s %s", kind, dtype)
		}

	case record.DatumImage:
		if kind == kindDataset && dtype == dtypeImage {
			img, err := decodeImage(data)
			if err != nil {
				return record.SingleOutput{}, record.NewTypeError(record.ErrContainerData, path, "%v", err)
			}
			out.Images = []record.Image{img}
			break
		}
		if kind != kindGroup {
			return record.SingleOutput{}, record.NewTypeError(record.ErrContainerData, path,
				"image output must be an image dataset or an index group, got %s %s", kind, dtype)
		}
		n, err := f.indexedChildren(path)
		if err != nil {
			return record.SingleOutput{}, err
		}
		for i := 0; i < n; i++ {
			child := path + "/" + strconv.Itoa(i)
			ckind, cdtype, _, cdata, err := f.object(child)
			if err != nil {
				return record.SingleOutput{}, err
			}
			if ckind != kindDataset || cdtype != dtypeImage {
				return record.SingleOutput{}, record.NewTypeError(record.ErrContainerData, child,
					"image entry must be an %s dataset, got %s %s", dtypeImage, ckind, cdtype)
			}
			img, err := decodeImage(cdata)
			if err != nil {
				return record.SingleOutput{}, record.NewTypeError(record.ErrContainerData, child, "%v", err)
			}
			out.Images = append(out.Images, img)
		}

	case record.DatumDistribution:
		if kind != kindGroup {
			return record.SingleOutput{}, record.NewTypeError(record.ErrContainerData, path,
				"distribution output must be a group, got %s %s", kind, dtype)
		}
		multi, err := f.isIndexGroup(path)
		if err != nil {
			return record.SingleOutput{}, err
		}
		if !multi {
			e, err := f.readEnsemble(path)
			if err != nil {
				return record.SingleOutput{}, err
			}
			out.Ensembles = []record.Ensemble{e}
			break
		}
		n, err := f.indexedChildren(path)
		if err != nil {
			return record.SingleOutput{}, err
		}
		for i := 0; i < n; i++ {
			e, err := f.readEnsemble(path + "/" + strconv.Itoa(i))
			if err != nil {
				return record.SingleOutput{}, err
			}
			out.Ensembles = append(out.Ensembles, e)
		}
	}
	return out, nil
}

// indexedChildren verifies the children of path are a dense 0..n-1 index
// and returns n.
func (f *File) indexedChildren(path string) (int, error) {
	names, err := f.children(path)
	if err != nil {
		return 0, err
	}
	for i := range names {
		want := strconv.Itoa(i)
		found := false
		for _, name := range names {
			if name == want {
				found = true
				break
			}
		}
		if !found {
			return 0, record.NewValueError(record.ErrContainerLayout, path,
				"index entry %q missing", want)
		}
	}
	return len(names), nil
}

// isIndexGroup reports whether a group holds per-location subgroups
// (indexed by position) rather than a single ensemble of datasets.
func (f *File) isIndexGroup(path string) (bool, error) {
	names, err := f.children(path)
	if err != nil {
		return false, err
	}
	if len(names) == 0 {
		return false, nil
	}
	kind, _, _, _, err := f.object(path + "/" + names[0])
	if err != nil {
		return false, err
	}
	return kind == kindGroup, nil
}

func (f *File) readSimulationMeta(rec *record.Record, prefix string) error {
	path := prefix + "simulation_metadata"
	ok, err := f.hasObject(path)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	attrs, err := f.attrsAt(path)
	if err != nil {
		return err
	}
	return rec.SetSimulationMeta(record.SimulationMeta{
		Start:     attrString(attrs, "simulation_start"),
		End:       attrString(attrs, "simulation_end"),
		Code:      attrString(attrs, "simulation_code"),
		InputFile: attrString(attrs, "simulation_input_file"),
	})
}

func (f *File) readFileAttrs(rec *record.Record, attrPath string) (*record.Record, error) {
	attrs, err := f.attrsAt(attrPath)
	if err != nil {
		return nil, err
	}

	if err := rec.SetRunInfo(record.RunInfo{
		Source: attrString(attrs, "source"),
		Date:   attrString(attrs, "date"),
		Notes:  attrString(attrs, "notes"),
	}); err != nil {
		return nil, err
	}

	spec := record.Summary{}
	if v, ok := attrs["summary_location"]; ok {
		loc, err := decodePosition(v)
		if err != nil {
			return nil, record.NewTypeError(record.ErrContainerData, attrPath, "summary_location: %v", err)
		}
		spec.Location = loc
	}
	if v, ok := attrs["summary_keys"]; ok {
		arr, ok := v.([]any)
		if !ok {
			return nil, record.NewTypeError(record.ErrContainerData, attrPath,
				"summary_keys must be a string array, got %T", v)
		}
		for _, elem := range arr {
			key, ok := elem.(string)
			if !ok {
				return nil, record.NewTypeError(record.ErrContainerData, attrPath,
					"summary key must be a string, got %T", elem)
			}
			spec.Keys = append(spec.Keys, key)
		}
	}
	if err := rec.SetSummary(spec); err != nil {
		return nil, err
	}

	id, ok := attrs["ID"].(string)
	if !ok || id == "" {
		return nil, record.NewValueError(record.ErrContainerLayout, attrPath, "ID attribute missing")
	}
	if err := rec.RestoreFinalized(id); err != nil {
		return nil, err
	}
	return rec, nil
}

func attrString(attrs map[string]any, name string) string {
	s, _ := attrs[name].(string)
	return s
}

// userAttrs strips the layout-owned attribute names, leaving caller
// attributes (pixel_calibration and friends).
func userAttrs(attrs map[string]any) map[string]any {
	out := make(map[string]any)
	for name, v := range attrs {
		switch name {
		case "datum_type", "location", "units":
		default:
			out[name] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func decodeFloat(data []byte) (float64, error) {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, fmt.Errorf("dataset payload: %w", err)
	}
	return v, nil
}

func decodeFloats(data []byte) ([]float64, error) {
	var v []float64
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("dataset payload: %w", err)
	}
	return v, nil
}

func decodeImage(data []byte) (record.Image, error) {
	var v [][]float64
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("dataset payload: %w", err)
	}
	return record.Image(v), nil
}
