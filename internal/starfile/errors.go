// errors.go defines the typed failures surfaced while handling star documents.
package starfile

import "fmt"

// FormatError reports a structural problem in a star document.
type FormatError struct {
	Line int // 1-based line number in the source document, 0 when unknown
	Msg  string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("star format: line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("star format: %s", e.Msg)
}

// ReferenceError reports an image reference that does not match the
// index@filename grammar. Row is the 1-based data row when known.
type ReferenceError struct {
	Row    int
	Value  string
	Reason string
}

func (e *ReferenceError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: invalid image reference %q: %s", e.Row, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid image reference %q: %s", e.Value, e.Reason)
}
