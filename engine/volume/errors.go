package volume

import "fmt"

// FormatError reports a malformed or truncated volume buffer.
// A load that fails with a FormatError leaves the previously displayed volume untouched.
type FormatError struct {
	// Reason describes which part of the buffer is invalid.
	Reason string
	// Size is the length in bytes of the rejected buffer.
	Size int
	// Err is the underlying cause, when there is one (for example a decompression failure).
	Err error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("volume format: %s (%d bytes): %v", e.Reason, e.Size, e.Err)
	}
	return fmt.Sprintf("volume format: %s (%d bytes)", e.Reason, e.Size)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// TransportError reports a failure fetching or reading a volume source.
type TransportError struct {
	// Source is the byte-source reference that failed.
	Source string
	// Err is the underlying I/O or network error.
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("volume transport %s: %v", e.Source, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
