// combine.go implements the stacking pipeline: resolve the image references
// of every star row, load their frames opening each source file once, and
// concatenate them in row order.

// Package combine turns the MRC stacks referenced by a star document into a
// single combined stack and renumbers the document's image references to
// match.
package combine

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/example/mrcstack/internal/mrc"
	"github.com/example/mrcstack/internal/starfile"
	"go.uber.org/zap"
)

// Opener loads an MRC stack from disk. It exists so tests can substitute a
// counting fake for the real codec.
type Opener interface {
	Open(path string) (*mrc.Stack, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(path string) (*mrc.Stack, error)

func (f OpenerFunc) Open(path string) (*mrc.Stack, error) { return f(path) }

// ResolveAll parses the named column of every row, in row order. The first
// malformed value aborts the whole resolution: renumbering a partially
// resolved table would corrupt the output, so nothing is ever skipped.
func ResolveAll(doc *starfile.Document, column string) ([]starfile.ImageReference, error) {
	ci, ok := doc.ColumnIndex(column)
	if !ok {
		return nil, &starfile.FormatError{Msg: fmt.Sprintf("column %q not found in star file", column)}
	}
	refs := make([]starfile.ImageReference, 0, len(doc.Rows))
	for i, row := range doc.Rows {
		ref, err := starfile.ParseImageReference(row[ci])
		if err != nil {
			var refErr *starfile.ReferenceError
			if errors.As(err, &refErr) {
				refErr.Row = i + 1
			}
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Loader fetches frames from source stacks under InputDir, opening each
// distinct filename at most once no matter how many rows reference it.
type Loader struct {
	InputDir string
	Open     Opener
	Log      *zap.Logger
}

// Load returns one frame per reference, in reference (row) order. Source
// indices are 1-based, so frame ref.Index-1 of the stack is returned.
func (l *Loader) Load(refs []starfile.ImageReference) ([]mrc.Frame, error) {
	open := l.Open
	if open == nil {
		open = OpenerFunc(mrc.ReadStack)
	}
	log := l.Log
	if log == nil {
		log = zap.NewNop()
	}

	stacks := make(map[string]*mrc.Stack)
	frames := make([]mrc.Frame, 0, len(refs))
	for i, ref := range refs {
		// Memoize on the cleaned path so spellings like "a.mrcs" and
		// "./a.mrcs" of one file still open it once.
		key := filepath.Clean(ref.Filename)
		stack, ok := stacks[key]
		if !ok {
			var err error
			stack, err = open.Open(filepath.Join(l.InputDir, ref.Filename))
			if err != nil {
				return nil, &MissingStackError{Row: i + 1, Filename: ref.Filename, Err: err}
			}
			stacks[key] = stack
			log.Debug("opened source stack",
				zap.String("file", ref.Filename),
				zap.Int("frames", len(stack.Frames)))
		}
		if ref.Index < 1 || ref.Index > len(stack.Frames) {
			return nil, &IndexError{Row: i + 1, Filename: ref.Filename, Index: ref.Index, Frames: len(stack.Frames)}
		}
		frames = append(frames, stack.Frames[ref.Index-1])
	}
	return frames, nil
}

// Combine checks that every frame shares the first frame's geometry and
// returns them as one stack. The input order is preserved exactly; it is
// what the rewritten references encode.
func Combine(frames []mrc.Frame) (*mrc.Stack, error) {
	if len(frames) == 0 {
		return nil, errors.New("no frames to combine")
	}
	first := frames[0]
	for i, fr := range frames[1:] {
		if fr.Width != first.Width || fr.Height != first.Height {
			return nil, &ShapeError{Row: i + 2, Width: fr.Width, Height: fr.Height, WantW: first.Width, WantH: first.Height}
		}
	}
	return &mrc.Stack{Frames: frames}, nil
}

// Rewrite points every row's image reference at the combined stack: row i
// (0-based) becomes frame i+1 of stackName. Width 0 pads indices to the
// digit count of the row total so all rewritten references share one width.
// All other columns are left untouched.
func Rewrite(doc *starfile.Document, column, stackName string, width int) error {
	ci, ok := doc.ColumnIndex(column)
	if !ok {
		return &starfile.FormatError{Msg: fmt.Sprintf("column %q not found in star file", column)}
	}
	if width <= 0 {
		width = len(strconv.Itoa(len(doc.Rows)))
	}
	for i := range doc.Rows {
		doc.Rows[i][ci] = starfile.FormatImageReference(i+1, stackName, width)
	}
	return nil
}
