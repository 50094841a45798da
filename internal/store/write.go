package store

import (
	"database/sql"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/roach88/beamstd/internal/record"
)

// Write persists a finalized record to a fresh container file at dest.
// The layout is the durable interchange contract: group and attribute
// names must stay stable across implementations.
//
// A failed write removes the destination so no partial file can be
// mistaken for a valid record.
func Write(rec *record.Record, dest string) (err error) {
	if rec.State() != record.StateFinalized {
		return record.NewValueError(record.ErrNotFinalized, "",
			"record must be finalized before writing (state %s)", rec.State())
	}

	f, err := Create(dest)
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	defer func() {
		f.Close()
		if err != nil {
			os.Remove(dest)
		}
	}()

	tx, err := f.db.Begin()
	if err != nil {
		return fmt.Errorf("write record: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err = f.writeRun(tx, "", "/", rec); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("write record: commit: %w", err)
	}
	return nil
}

// BatchEntry pairs a record with the single-run file it came from.
type BatchEntry struct {
	Record     *record.Record
	SourceFile string
}

// WriteBatch persists several runs into one container, one top-level
// group per run (named by run ID, de-duplicated with numeric suffixes).
// File-scope attributes of each run land on its group, plus a
// source_file provenance attribute.
func WriteBatch(dest string, entries []BatchEntry) (err error) {
	for _, e := range entries {
		if e.Record.State() != record.StateFinalized {
			return record.NewValueError(record.ErrNotFinalized, "",
				"record must be finalized before writing (state %s)", e.Record.State())
		}
	}

	f, err := Create(dest)
	if err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	defer func() {
		f.Close()
		if err != nil {
			os.Remove(dest)
		}
	}()

	tx, err := f.db.Begin()
	if err != nil {
		return fmt.Errorf("write batch: begin tx: %w", err)
	}
	defer tx.Rollback()

	used := make(map[string]bool, len(entries))
	for _, e := range entries {
		group := e.Record.ID()
		for i := 2; used[group]; i++ {
			group = fmt.Sprintf("%s_%d", e.Record.ID(), i)
		}
		used[group] = true

		if err = f.putGroup(tx, group); err != nil {
			return err
		}
		if err = f.writeRun(tx, group+"/", group, e.Record); err != nil {
			return err
		}
		if e.SourceFile != "" {
			if err = f.setAttr(tx, group, "source_file", e.SourceFile); err != nil {
				return err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("write batch: commit: %w", err)
	}
	return nil
}

// writeRun lays out one record under a path prefix. attrPath receives
// the file-scope attributes ("/" for a single-run container, the run
// group for batches).
func (f *File) writeRun(tx *sql.Tx, prefix, attrPath string, rec *record.Record) error {
	if err := f.writeInputs(tx, prefix, rec); err != nil {
		return err
	}
	if err := f.writeLattice(tx, prefix, rec.Lattice()); err != nil {
		return err
	}
	if err := f.writeOutputs(tx, prefix, rec); err != nil {
		return err
	}
	if meta := rec.SimulationMeta(); meta != nil {
		if err := f.writeSimulationMeta(tx, prefix, meta); err != nil {
			return err
		}
	}
	return f.writeFileAttrs(tx, attrPath, rec)
}

func (f *File) writeInputs(tx *sql.Tx, prefix string, rec *record.Record) error {
	if err := f.putGroup(tx, prefix+"inputs"); err != nil {
		return err
	}

	for _, in := range rec.ScalarInputs() {
		path := prefix + "inputs/" + in.Name
		data, err := encodeFloat(in.Value)
		if err != nil {
			return fmt.Errorf("input %q: %w", in.Name, err)
		}
		if err := f.putDataset(tx, path, dtypeFloat, "", data); err != nil {
			return err
		}
		if err := f.setAttr(tx, path, "units", in.Units); err != nil {
			return err
		}
		if err := f.setAttr(tx, path, "location", in.Location); err != nil {
			return err
		}
		if err := f.setAttr(tx, path, "description", in.Description); err != nil {
			return err
		}
	}

	dist := rec.Distribution()
	if dist.Empty() {
		return nil
	}
	path := prefix + "inputs/input_distribution"
	if dist.IsImage() {
		data, err := encodeImage(dist.Image)
		if err != nil {
			return fmt.Errorf("input_distribution: %w", err)
		}
		shape := encodeShape(len(dist.Image), len(dist.Image[0]))
		if err := f.putDataset(tx, path, dtypeImage, shape, data); err != nil {
			return err
		}
	} else {
		if err := f.writeEnsemble(tx, path, dist.Ensemble); err != nil {
			return err
		}
	}
	return f.setAttrs(tx, path, dist.Attrs)
}

func (f *File) writeEnsemble(tx *sql.Tx, path string, e record.Ensemble) error {
	if err := f.putGroup(tx, path); err != nil {
		return err
	}
	comps := make([]string, 0, len(e))
	for name := range e {
		comps = append(comps, name)
	}
	sort.Strings(comps)
	for _, name := range comps {
		data, err := encodeFloats(e[name])
		if err != nil {
			return fmt.Errorf("ensemble component %q: %w", name, err)
		}
		shape := encodeShape(len(e[name]))
		if err := f.putDataset(tx, path+"/"+name, dtypeFloatArray, shape, data); err != nil {
			return err
		}
	}
	return nil
}

func (f *File) writeLattice(tx *sql.Tx, prefix string, lat record.LatticeRef) error {
	path := prefix + "lattice"
	if err := f.putGroup(tx, path); err != nil {
		return err
	}
	if err := f.setAttr(tx, path, "location", lat.Location); err != nil {
		return err
	}
	if len(lat.Files) == 0 {
		return nil
	}

	if err := f.putGroup(tx, path+"/files"); err != nil {
		return err
	}
	names := make([]string, 0, len(lat.Files))
	for name := range lat.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := f.putDataset(tx, path+"/files/"+name, dtypeString, "", []byte(lat.Files[name])); err != nil {
			return err
		}
	}
	return nil
}

func (f *File) writeOutputs(tx *sql.Tx, prefix string, rec *record.Record) error {
	if err := f.putGroup(tx, prefix+"outputs"); err != nil {
		return err
	}

	for _, out := range rec.Outputs() {
		path := prefix + "outputs/" + out.Name
		if err := f.writeOutputDatum(tx, path, out); err != nil {
			return fmt.Errorf("output %q: %w", out.Name, err)
		}
		if err := f.setAttr(tx, path, "datum_type", string(out.Type)); err != nil {
			return err
		}
		if err := f.setAttr(tx, path, "location", encodeLocations(out.Locations)); err != nil {
			return err
		}
		if out.Units != "" {
			if err := f.setAttr(tx, path, "units", out.Units); err != nil {
				return err
			}
		}
		if err := f.setAttrs(tx, path, out.Attrs); err != nil {
			return err
		}
	}
	return nil
}

func (f *File) writeOutputDatum(tx *sql.Tx, path string, out record.SingleOutput) error {
	switch out.Type {
	case record.DatumScalar:
		if len(out.Scalars) == 1 {
			data, err := encodeFloat(out.Scalars[0])
			if err != nil {
				return err
			}
			return f.putDataset(tx, path, dtypeFloat, "", data)
		}
		data, err := encodeFloats(out.Scalars)
		if err != nil {
			return err
		}
		return f.putDataset(tx, path, dtypeFloatArray, encodeShape(len(out.Scalars)), data)

	case record.DatumImage:
		if len(out.Images) == 1 {
			data, err := encodeImage(out.Images[0])
			if err != nil {
				return err
			}
			shape := encodeShape(len(out.Images[0]), len(out.Images[0][0]))
			return f.putDataset(tx, path, dtypeImage, shape, data)
		}
		if err := f.putGroup(tx, path); err != nil {
			return err
		}
		for i, img := range out.Images {
			data, err := encodeImage(img)
			if err != nil {
				return err
			}
			shape := encodeShape(len(img), len(img[0]))
			if err := f.putDataset(tx, path+"/"+strconv.Itoa(i), dtypeImage, shape, data); err != nil {
				return err
			}
		}
		return nil

	case record.DatumDistribution:
		if len(out.Ensembles) == 1 {
			return f.writeEnsemble(tx, path, out.Ensembles[0])
		}
		if err := f.putGroup(tx, path); err != nil {
			return err
		}
		for i, e := range out.Ensembles {
			if err := f.writeEnsemble(tx, path+"/"+strconv.Itoa(i), e); err != nil {
				return err
			}
		}
		return nil

	default:
		return record.NewValueError(record.ErrOutputType, path, "unknown datum_type %q", out.Type)
	}
}

func (f *File) writeSimulationMeta(tx *sql.Tx, prefix string, meta *record.SimulationMeta) error {
	path := prefix + "simulation_metadata"
	if err := f.putGroup(tx, path); err != nil {
		return err
	}
	attrs := map[string]any{
		"simulation_start":      meta.Start,
		"simulation_end":        meta.End,
		"simulation_code":       meta.Code,
		"simulation_input_file": meta.InputFile,
	}
	return f.setAttrs(tx, path, attrs)
}

func (f *File) writeFileAttrs(tx *sql.Tx, attrPath string, rec *record.Record) error {
	// Extracted values go first so the structural attributes below win
	// any name collision: a scalar input named "source" listed as a
	// summary key must not shadow the run information, which Read needs
	// intact. Shadowed summary values are recovered on read by
	// re-running extraction.
	for _, key := range rec.SummaryKeys() {
		v, _ := rec.SummaryValue(key)
		if err := f.setAttr(tx, attrPath, key, v); err != nil {
			return err
		}
	}

	if err := f.setAttr(tx, attrPath, "ID", rec.ID()); err != nil {
		return err
	}
	info := rec.RunInfo()
	if err := f.setAttr(tx, attrPath, "source", info.Source); err != nil {
		return err
	}
	if err := f.setAttr(tx, attrPath, "date", info.Date); err != nil {
		return err
	}
	if err := f.setAttr(tx, attrPath, "notes", info.Notes); err != nil {
		return err
	}

	spec := rec.SummarySpec()
	if err := f.setAttr(tx, attrPath, "summary_location", encodePosition(spec.Location)); err != nil {
		return err
	}
	return f.setAttr(tx, attrPath, "summary_keys", spec.Keys)
}

// setAttrs writes a user attribute map with deterministic ordering.
func (f *File) setAttrs(tx *sql.Tx, path string, attrs map[string]any) error {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := f.setAttr(tx, path, name, attrs[name]); err != nil {
			return err
		}
	}
	return nil
}
