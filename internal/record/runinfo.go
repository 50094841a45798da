package record

// RunInfo is the per-run metadata block stored as file-scope attributes.
type RunInfo struct {
	Source string
	Date   string
	Notes  string
}

// ValidateRunInfo checks run metadata. A fully blank block is accepted
// under allowBlank; otherwise every field must be non-blank.
func ValidateRunInfo(info RunInfo, allowBlank bool) (RunInfo, error) {
	if info.Source == "" && info.Date == "" && info.Notes == "" && allowBlank {
		return info, nil
	}
	if info.Source == "" {
		return RunInfo{}, valueErr(ErrRunInfoBlank, "run_information", "source must not be blank")
	}
	if info.Date == "" {
		return RunInfo{}, valueErr(ErrRunInfoBlank, "run_information", "date must not be blank")
	}
	if info.Notes == "" {
		return RunInfo{}, valueErr(ErrRunInfoBlank, "run_information", "notes must not be blank")
	}
	return info, nil
}

// SimulationMeta is the extra metadata block of the simulated record
// variant.
type SimulationMeta struct {
	Start     string
	End       string
	Code      string
	InputFile string
}

// ValidateSimulationMeta checks simulation metadata with the same
// blank-allowance rule as RunInfo.
func ValidateSimulationMeta(meta SimulationMeta, allowBlank bool) (SimulationMeta, error) {
	blank := meta.Start == "" && meta.End == "" && meta.Code == "" && meta.InputFile == ""
	if blank && allowBlank {
		return meta, nil
	}
	if meta.Start == "" {
		return SimulationMeta{}, valueErr(ErrSimMetaBlank, "simulation_metadata", "simulation_start must not be blank")
	}
	if meta.End == "" {
		return SimulationMeta{}, valueErr(ErrSimMetaBlank, "simulation_metadata", "simulation_end must not be blank")
	}
	if meta.Code == "" {
		return SimulationMeta{}, valueErr(ErrSimMetaBlank, "simulation_metadata", "simulation_code must not be blank")
	}
	if meta.InputFile == "" {
		return SimulationMeta{}, valueErr(ErrSimMetaBlank, "simulation_metadata", "simulation_input_file must not be blank")
	}
	return meta, nil
}
