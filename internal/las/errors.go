package las

import "errors"

// Sentinel errors for the LAS engine. Callers match them with errors.Is;
// every error returned by this package wraps exactly one of these (or is a
// wrapped I/O error from the underlying file).
var (
	// ErrFormat reports a bad signature, an unsupported version, or an
	// unknown point data record format id.
	ErrFormat = errors.New("las: invalid or unsupported format")

	// ErrCorruptFile reports a structural length or offset inconsistency
	// in the header, VLR stream, or extra-bytes schema.
	ErrCorruptFile = errors.New("las: corrupt file structure")

	// ErrMode reports an operation not permitted in the current open mode,
	// including schema changes after the first point record was written.
	ErrMode = errors.New("las: operation not permitted in this mode")

	// ErrUnknownDimension reports a dimension name that is neither part of
	// the point format layout nor a registered extra dimension.
	ErrUnknownDimension = errors.New("las: unknown dimension")

	// ErrValueOutOfRange reports a value that does not fit the target
	// field's bit width or numeric kind.
	ErrValueOutOfRange = errors.New("las: value out of range")

	// ErrIndex reports a point index at or beyond the point record count.
	ErrIndex = errors.New("las: point index out of range")
)
