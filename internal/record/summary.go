package record

// FinalLocation selects the last position of multi-location outputs
// during summary extraction.
var FinalLocation = AtLabel("final")

// Summary names the fields to extract into the flat per-run summary and
// the position at which multi-location scalar outputs are sampled.
type Summary struct {
	Keys     []string
	Location Position
}

// reservedSummaryKeys are file-scope attribute names the summary must
// not shadow with unrelated values. "ID", "source", "date" and "notes"
// are allowed as summary keys; the serializer writes the structural
// attributes last so they win any collision.
var reservedSummaryKeys = map[string]bool{
	"summary_location": true,
	"summary_keys":     true,
}

// ValidateSummary checks a summary specification. An empty key list
// means no extraction was requested and is valid regardless of
// allowBlank; non-empty keys must be non-blank, unique, and must not
// collide with structural file-scope attribute names.
func ValidateSummary(s Summary, allowBlank bool) (Summary, error) {
	if len(s.Keys) == 0 {
		return s, nil
	}

	seen := make(map[string]bool, len(s.Keys))
	for _, k := range s.Keys {
		if k == "" {
			return Summary{}, valueErr(ErrSummaryKeyBlank, "summary", "summary keys must not be blank")
		}
		if seen[k] {
			return Summary{}, valueErr(ErrSummaryKeyDup, "summary", "duplicate summary key %q", k)
		}
		if reservedSummaryKeys[k] {
			return Summary{}, valueErr(ErrSummaryReserved, "summary",
				"summary key %q collides with a file-scope attribute", k)
		}
		seen[k] = true
	}
	return s, nil
}
