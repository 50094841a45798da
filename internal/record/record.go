package record

// State tracks the record lifecycle: population operations move
// Empty -> Populated and may repeat; Finalize is the only transition
// into Finalized; any mutation after that drops back to Populated.
type State int

const (
	StateEmpty State = iota
	StatePopulated
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePopulated:
		return "populated"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Option configures a Record at construction.
type Option func(*Record)

// WithAllowBlank tolerates blank fields during population and
// finalization. The serializer uses it on read, where structural shape
// is trusted but blank checks are skipped.
func WithAllowBlank() Option {
	return func(r *Record) { r.allowBlank = true }
}

// WithReadFile injects the file-read capability used when lattice files
// are given as paths.
func WithReadFile(fn ReadFileFunc) Option {
	return func(r *Record) { r.readFile = fn }
}

// Record is one run of the accelerator or a simulation: validated scalar
// inputs, an optional input distribution, a lattice reference, named
// outputs, a summary specification and run metadata, plus the derived
// content-addressed ID after Finalize.
type Record struct {
	inputOrder []string
	inputs     map[string]ScalarField

	dist    *Distribution
	lattice LatticeRef

	outputOrder []string
	outputs     map[string]SingleOutput

	summarySpec Summary
	runInfo     RunInfo
	simMeta     *SimulationMeta

	id           string
	summary      map[string]any
	summaryOrder []string

	state      State
	allowBlank bool
	readFile   ReadFileFunc
}

// New returns an empty experimental record.
func New(opts ...Option) *Record {
	r := &Record{
		inputs:      make(map[string]ScalarField),
		outputs:     make(map[string]SingleOutput),
		summarySpec: Summary{Location: FinalLocation},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewSimulated returns an empty record of the simulation variant.
func NewSimulated(opts ...Option) *Record {
	r := New(opts...)
	r.simMeta = &SimulationMeta{}
	return r
}

// Simulated reports whether this record carries simulation metadata.
func (r *Record) Simulated() bool { return r.simMeta != nil }

// State returns the lifecycle state.
func (r *Record) State() State { return r.state }

// AddScalarInput validates and inserts one scalar input. Names are
// unique within the record; a duplicate fails at insertion, not at
// finalize. Under allow-blank a fully blank field is accepted and
// dropped.
func (r *Record) AddScalarInput(f ScalarField) error {
	norm, err := ValidateScalar(f, r.allowBlank)
	if err != nil {
		return err
	}
	if norm.Blank {
		r.touch()
		return nil
	}
	if _, dup := r.inputs[norm.Name]; dup {
		return valueErr(ErrDuplicateField, "scalar_inputs", "duplicate input name %q", norm.Name)
	}
	r.inputs[norm.Name] = norm
	r.inputOrder = append(r.inputOrder, norm.Name)
	r.touch()
	return nil
}

// SetDistribution validates and attaches the input distribution.
// Passing nil (or an empty distribution with no attrs) clears it.
func (r *Record) SetDistribution(d *Distribution) error {
	norm, err := ValidateDistribution(d)
	if err != nil {
		return err
	}
	r.dist = norm
	r.touch()
	return nil
}

// SetLattice validates and attaches the lattice reference.
func (r *Record) SetLattice(ref LatticeRef) error {
	norm, err := ValidateLattice(ref, true)
	if err != nil {
		return err
	}
	r.lattice = norm
	r.touch()
	return nil
}

// SetLatticePaths loads lattice files from paths (using the injected
// read capability) and attaches the resulting inline reference.
func (r *Record) SetLatticePaths(location string, paths []string) error {
	files, err := LoadLatticeFiles(paths, r.readFile)
	if err != nil {
		return err
	}
	return r.SetLattice(LatticeRef{Location: location, Files: files})
}

// AddOutput validates and inserts one named output. Output names are
// unique within the record.
func (r *Record) AddOutput(out SingleOutput) error {
	norm, err := ValidateOutput(out)
	if err != nil {
		return err
	}
	if _, dup := r.outputs[norm.Name]; dup {
		return valueErr(ErrDuplicateField, "outputs", "duplicate output name %q", norm.Name)
	}
	r.outputs[norm.Name] = norm
	r.outputOrder = append(r.outputOrder, norm.Name)
	r.touch()
	return nil
}

// SetSummary validates and attaches the summary specification. An unset
// location defaults to "final"; At(0) is a real coordinate and survives.
func (r *Record) SetSummary(s Summary) error {
	if s.Location.Unset() {
		s.Location = FinalLocation
	}
	norm, err := ValidateSummary(s, true)
	if err != nil {
		return err
	}
	r.summarySpec = norm
	r.touch()
	return nil
}

// SetRunInfo validates and attaches the run metadata.
func (r *Record) SetRunInfo(info RunInfo) error {
	norm, err := ValidateRunInfo(info, true)
	if err != nil {
		return err
	}
	r.runInfo = norm
	r.touch()
	return nil
}

// SetSimulationMeta validates and attaches simulation metadata, making
// the record the simulation variant if it was not already.
func (r *Record) SetSimulationMeta(meta SimulationMeta) error {
	norm, err := ValidateSimulationMeta(meta, true)
	if err != nil {
		return err
	}
	r.simMeta = &norm
	r.touch()
	return nil
}

func (r *Record) touch() {
	r.state = StatePopulated
}

// Finalize re-runs every validator over the current field set
// (fail-fast: the first violation propagates unchanged, no partial
// finalize), computes the content-addressed ID, and extracts the
// summary. Persistence is permitted only after Finalize. Calling it
// again with unchanged fields is idempotent.
func (r *Record) Finalize() error {
	for _, name := range r.inputOrder {
		norm, err := ValidateScalar(r.inputs[name], r.allowBlank)
		if err != nil {
			return err
		}
		r.inputs[name] = norm
	}
	if _, err := ValidateDistribution(r.dist); err != nil {
		return err
	}
	if _, err := ValidateLattice(r.lattice, r.allowBlank); err != nil {
		return err
	}
	for _, name := range r.outputOrder {
		norm, err := ValidateOutput(r.outputs[name])
		if err != nil {
			return err
		}
		r.outputs[name] = norm
	}
	if _, err := ValidateSummary(r.summarySpec, r.allowBlank); err != nil {
		return err
	}
	if _, err := ValidateRunInfo(r.runInfo, r.allowBlank); err != nil {
		return err
	}
	if r.simMeta != nil {
		if _, err := ValidateSimulationMeta(*r.simMeta, r.allowBlank); err != nil {
			return err
		}
	}

	id, err := ComputeID(r.inputs, r.lattice.Location)
	if err != nil {
		return err
	}
	if id == "" {
		return internalErr(ErrFinalize, "", "fingerprint computed empty")
	}
	r.id = id
	r.extractSummary()
	r.state = StateFinalized
	return nil
}

// RestoreFinalized marks a deserialized record as Finalized with its
// stored ID, re-running summary extraction but not structural
// validation. The serializer is the only intended caller.
func (r *Record) RestoreFinalized(id string) error {
	if id == "" {
		return valueErr(ErrFinalize, "ID", "stored ID missing")
	}
	r.id = id
	r.extractSummary()
	r.state = StateFinalized
	return nil
}

// extractSummary resolves each summary key against scalar inputs, run
// info, the ID, and scalar outputs, in that order. Keys that resolve
// nowhere are skipped. For multi-location scalar outputs the value is
// sampled at the summary location ("final" selects the last position).
// The ID and, for the simulation variant, the start/end/code metadata
// always join the summary.
func (r *Record) extractSummary() {
	sum := make(map[string]any)
	var order []string
	add := func(k string, v any) {
		if _, ok := sum[k]; !ok {
			order = append(order, k)
		}
		sum[k] = v
	}

	for _, key := range r.summarySpec.Keys {
		if f, ok := r.inputs[key]; ok {
			add(key, f.Value)
			continue
		}
		switch key {
		case "source":
			add(key, r.runInfo.Source)
			continue
		case "date":
			add(key, r.runInfo.Date)
			continue
		case "notes":
			add(key, r.runInfo.Notes)
			continue
		case "ID":
			add(key, r.id)
			continue
		}
		if v, ok := r.extractScalarOutput(key); ok {
			add(key, v)
		}
	}

	add("ID", r.id)
	if r.simMeta != nil {
		add("simulation_start", r.simMeta.Start)
		add("simulation_end", r.simMeta.End)
		add("simulation_code", r.simMeta.Code)
	}

	r.summary = sum
	r.summaryOrder = order
}

// extractScalarOutput resolves a summary key against scalar outputs.
// Keys may carry a namespace prefix ("screen3:xrms" matches the output
// named "xrms").
func (r *Record) extractScalarOutput(key string) (float64, bool) {
	name := key
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == ':' {
			name = key[i+1:]
			break
		}
	}
	out, ok := r.outputs[name]
	if !ok || out.Type != DatumScalar {
		return 0, false
	}
	if len(out.Locations) == 1 {
		return out.Scalars[0], true
	}

	loc := r.summarySpec.Location
	if loc.Unset() || loc == FinalLocation {
		return out.Scalars[len(out.Scalars)-1], true
	}
	for i, p := range out.Locations {
		if p.matches(loc) {
			return out.Scalars[i], true
		}
	}
	return 0, false
}

// ID returns the content-addressed fingerprint; empty before Finalize.
func (r *Record) ID() string { return r.id }

// RecomputeID derives the fingerprint from the current fields without
// touching lifecycle state. Comparing it with the stored ID detects
// containers whose identifying inputs were edited after the fact.
func (r *Record) RecomputeID() (string, error) {
	return ComputeID(r.inputs, r.lattice.Location)
}

// ScalarInputs returns the scalar inputs in insertion order.
func (r *Record) ScalarInputs() []ScalarField {
	out := make([]ScalarField, 0, len(r.inputOrder))
	for _, name := range r.inputOrder {
		out = append(out, r.inputs[name])
	}
	return out
}

// ScalarInput returns one scalar input by name.
func (r *Record) ScalarInput(name string) (ScalarField, bool) {
	f, ok := r.inputs[name]
	return f, ok
}

// Distribution returns the input distribution, or nil.
func (r *Record) Distribution() *Distribution { return r.dist }

// Lattice returns the lattice reference.
func (r *Record) Lattice() LatticeRef { return r.lattice }

// Outputs returns the outputs in insertion order.
func (r *Record) Outputs() []SingleOutput {
	out := make([]SingleOutput, 0, len(r.outputOrder))
	for _, name := range r.outputOrder {
		out = append(out, r.outputs[name])
	}
	return out
}

// Output returns one output by name.
func (r *Record) Output(name string) (SingleOutput, bool) {
	o, ok := r.outputs[name]
	return o, ok
}

// SummarySpec returns the summary specification.
func (r *Record) SummarySpec() Summary { return r.summarySpec }

// RunInfo returns the run metadata.
func (r *Record) RunInfo() RunInfo { return r.runInfo }

// SimulationMeta returns the simulation metadata, or nil for the
// experimental variant.
func (r *Record) SimulationMeta() *SimulationMeta {
	if r.simMeta == nil {
		return nil
	}
	meta := *r.simMeta
	return &meta
}

// SummaryKeys returns the extracted summary keys in extraction order;
// empty before Finalize.
func (r *Record) SummaryKeys() []string {
	out := make([]string, len(r.summaryOrder))
	copy(out, r.summaryOrder)
	return out
}

// SummaryValue returns one extracted summary value (float64 or string).
func (r *Record) SummaryValue(key string) (any, bool) {
	v, ok := r.summary[key]
	return v, ok
}
