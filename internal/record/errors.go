package record

import (
	"errors"
	"fmt"
)

// Kind categorizes a validation failure.
type Kind int

const (
	// KindValue marks a well-typed but invalid value, shape, or
	// relationship (blank required field, length mismatch, missing
	// calibration, unresolved units).
	KindValue Kind = iota

	// KindType marks a wrong runtime type (non-numeric scalar value,
	// wrong array rank, non-text lattice file).
	KindType

	// KindInternal marks an invariant violation detected during
	// finalization. Seeing one is a bug in this package, not bad input.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindType:
		return "type"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Validation error codes (E200-E299).
const (
	// Scalar input errors (E200-E209)
	ErrScalarBlank = "E200" // name/location/units blank without allow-blank
	ErrScalarValue = "E201" // value not a finite number
	ErrScalarUnits = "E202" // units unresolvable

	// Distribution errors (E210-E219)
	ErrDistPairing     = "E210" // data and attrs not both-present/both-absent
	ErrDistRank        = "E211" // image grid not rank 2
	ErrDistRagged      = "E212" // image rows of unequal length
	ErrDistCalibration = "E213" // pixel_calibration missing

	// Lattice errors (E220-E229)
	ErrLatticeBlank      = "E220" // location blank
	ErrLatticeFilesEmpty = "E221" // location "included" with no files
	ErrLatticeFileRead   = "E222" // listed path missing or unreadable
	ErrLatticeFileBinary = "E223" // file contents not text
	ErrLatticeFileName   = "E224" // invalid file name
	ErrLatticeMismatch   = "E225" // batch runs disagree on lattice location

	// Output errors (E230-E239)
	ErrOutputName     = "E230" // blank datum name
	ErrOutputType     = "E231" // unknown datum_type
	ErrOutputPayload  = "E232" // payload does not match datum_type
	ErrOutputLength   = "E233" // location/datum length mismatch
	ErrOutputUnits    = "E234" // units missing for scalar output
	ErrOutputLocation = "E235" // no location given

	// Summary errors (E240-E249)
	ErrSummaryKeyBlank = "E240" // blank summary key
	ErrSummaryKeyDup   = "E242" // duplicate summary key
	ErrSummaryReserved = "E243" // key collides with a file-scope attribute

	// Run info / simulation metadata errors (E250-E259)
	ErrRunInfoBlank = "E250" // source/date/notes blank
	ErrSimMetaBlank = "E251" // simulation metadata field blank

	// Record errors (E260-E269)
	ErrDuplicateField = "E260" // duplicate scalar input or output name
	ErrNotFinalized   = "E261" // persistence attempted before finalize
	ErrFinalize       = "E262" // finalize invariant violated

	// Canonical serialization errors (E270-E279)
	ErrNonFinite     = "E270" // NaN or Inf in canonical serialization
	ErrCanonicalType = "E271" // unsupported type in canonical serialization

	// Container errors (E280-E289), raised by the serializer, which
	// shares this taxonomy
	ErrContainerLayout = "E280" // required group/dataset/attribute missing
	ErrContainerData   = "E281" // stored data mistyped
)

// NewValueError builds a value-kind error for collaborators outside this
// package (the serializer) that enforce the same taxonomy.
func NewValueError(code, field, format string, args ...any) *ValidationError {
	return valueErr(code, field, format, args...)
}

// NewTypeError builds a type-kind error for collaborators outside this
// package.
func NewTypeError(code, field, format string, args ...any) *ValidationError {
	return typeErr(code, field, format, args...)
}

// ValidationError is the single error type surfaced by all validators.
type ValidationError struct {
	Kind    Kind   `json:"kind"`
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// IsTypeError reports whether err is (or wraps) a type-kind validation error.
func IsTypeError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Kind == KindType
}

// IsValueError reports whether err is (or wraps) a value-kind validation error.
func IsValueError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Kind == KindValue
}

// IsInternalError reports whether err is (or wraps) an internal invariant error.
func IsInternalError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Kind == KindInternal
}

func valueErr(code, field, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: KindValue, Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

func typeErr(code, field, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: KindType, Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

func internalErr(code, field, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: KindInternal, Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}
