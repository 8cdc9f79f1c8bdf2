// Package errs defines the sentinel error values returned by the forma codec.
//
// Errors are plain sentinels (wrapped with fmt.Errorf("%w: ...") at the
// call site when extra context is needed) rather than a typed hierarchy, so
// callers can use errors.Is against a small, stable set of values.
package errs

import "errors"

var (
	// ErrUnrecognizedHeader is returned when the 4-byte header's signature
	// matches but the flags byte does not correspond to a recognized
	// (version, compressed?, encrypted?) tuple.
	ErrUnrecognizedHeader = errors.New("forma: unrecognized header flags")

	// ErrCorruptStream is returned when a count field is out of range, a
	// body is truncated, a reserved tag (0) is encountered mid-stream, or
	// an unknown positive tag is read. Fatal for the whole decode.
	ErrCorruptStream = errors.New("forma: corrupt stream")

	// ErrMissingCustomReader is returned when a negative (user-extension)
	// tag has no registered decoder.
	ErrMissingCustomReader = errors.New("forma: missing custom reader for tag")

	// ErrCompressorMismatch is returned when decompression fails, most
	// likely because the wrong compressor (or none) was supplied.
	ErrCompressorMismatch = errors.New("forma: compressor mismatch or corrupt compressed payload")

	// ErrWrongPassword is returned when authenticated decryption fails.
	ErrWrongPassword = errors.New("forma: wrong password or corrupt ciphertext")

	// ErrNotAllowed names the outcome of an opaque object's class being
	// denied by the active allow-list. No code path returns it: on thaw a
	// denied class is quarantined rather than failing the whole decode,
	// and on freeze a denied class is reported as ErrUnfreezableType.
	ErrNotAllowed = errors.New("forma: class not allowed")

	// ErrUnfreezableType is returned when no encoder path applies to a
	// value: it is not a native kind, its class is denied by the
	// freeze-side allow-list, it has no text representation, and no final
	// fallback hook is set.
	ErrUnfreezableType = errors.New("forma: unfreezable type")

	// ErrUnthawable marks a sub-tree that could not be decoded (a
	// text-fallback parse failure, or a custom decoder error). The outer
	// decode continues; this value wraps whatever caused the failure.
	ErrUnthawable = errors.New("forma: unthawable value")

	// ErrInvalidConfig is returned by option application when an option
	// combination is invalid (e.g. encryption requested without a password).
	ErrInvalidConfig = errors.New("forma: invalid configuration")

	// ErrDuplicateMapKey is returned when a decoded Map or Record contains
	// the same Name key twice.
	ErrDuplicateMapKey = errors.New("forma: duplicate map key")
)
