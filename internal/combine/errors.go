// errors.go defines the typed failures of the stacking pipeline, each tagged
// with the 1-based star row that triggered it.
package combine

import "fmt"

// MissingStackError reports a referenced stack file that cannot be opened.
type MissingStackError struct {
	Row      int
	Filename string
	Err      error
}

func (e *MissingStackError) Error() string {
	return fmt.Sprintf("row %d: source stack %s: %v", e.Row, e.Filename, e.Err)
}

func (e *MissingStackError) Unwrap() error { return e.Err }

// IndexError reports a reference whose frame index lies outside its source
// stack.
type IndexError struct {
	Row      int
	Filename string
	Index    int
	Frames   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("row %d: frame index %d out of range for %s (%d frames)",
		e.Row, e.Index, e.Filename, e.Frames)
}

// ShapeError reports the first frame whose geometry differs from the frames
// before it.
type ShapeError struct {
	Row    int
	Width  int
	Height int
	WantW  int
	WantH  int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("row %d: frame is %dx%d but earlier frames are %dx%d",
		e.Row, e.Width, e.Height, e.WantW, e.WantH)
}
