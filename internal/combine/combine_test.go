// combine_test.go verifies reference resolution, memoized loading, and
// shape-checked concatenation.
package combine

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/mrcstack/internal/mrc"
	"github.com/example/mrcstack/internal/starfile"
)

// fakeOpener serves canned stacks keyed by filename and counts opens.
type fakeOpener struct {
	stacks map[string]*mrc.Stack
	opens  map[string]int
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{stacks: make(map[string]*mrc.Stack), opens: make(map[string]int)}
}

func (f *fakeOpener) add(name string, frames ...mrc.Frame) {
	f.stacks[name] = &mrc.Stack{Frames: frames}
}

func (f *fakeOpener) Open(path string) (*mrc.Stack, error) {
	name := filepath.Base(path)
	f.opens[name]++
	stack, ok := f.stacks[name]
	if !ok {
		return nil, errors.New("no such file")
	}
	return stack, nil
}

func frame(fill float32) mrc.Frame {
	return mrc.Frame{Width: 2, Height: 2, Pixels: []float32{fill, fill, fill, fill}}
}

func refs(values ...string) []starfile.ImageReference {
	out := make([]starfile.ImageReference, 0, len(values))
	for _, v := range values {
		ref, err := starfile.ParseImageReference(v)
		if err != nil {
			panic(err)
		}
		out = append(out, ref)
	}
	return out
}

func particleDoc(imageNames ...string) *starfile.Document {
	doc := &starfile.Document{
		Preamble: []string{"data_particles", "", "loop_"},
		Headers:  []string{"_rlnImageName #1", "_rlnMicrographName #2"},
		Columns:  []string{"rlnImageName", "rlnMicrographName"},
	}
	for i, name := range imageNames {
		doc.Rows = append(doc.Rows, []string{name, fmt.Sprintf("mic_%03d.mrc", i+1)})
	}
	return doc
}

func TestLoadOpensEachFileOnce(t *testing.T) {
	opener := newFakeOpener()
	opener.add("a.mrc", frame(1), frame(2))
	opener.add("b.mrc", frame(3))

	loader := &Loader{InputDir: "in", Open: opener}
	frames, err := loader.Load(refs("1@a.mrc", "2@a.mrc", "1@b.mrc"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}
	for i, want := range []float32{1, 2, 3} {
		if frames[i].Pixels[0] != want {
			t.Fatalf("frame %d starts with %v, want %v", i+1, frames[i].Pixels[0], want)
		}
	}
	if opener.opens["a.mrc"] != 1 || opener.opens["b.mrc"] != 1 {
		t.Fatalf("opens = %v, want one per distinct file", opener.opens)
	}
}

func TestLoadOrderIndependentOfFileGrouping(t *testing.T) {
	opener := newFakeOpener()
	opener.add("a.mrc", frame(1), frame(2))
	opener.add("b.mrc", frame(3), frame(4))

	// References interleave files and are not sorted by index.
	loader := &Loader{Open: opener}
	frames, err := loader.Load(refs("2@a.mrc", "2@b.mrc", "1@a.mrc", "1@b.mrc"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for i, want := range []float32{2, 4, 1, 3} {
		if frames[i].Pixels[0] != want {
			t.Fatalf("frame %d starts with %v, want %v", i+1, frames[i].Pixels[0], want)
		}
	}
	if opener.opens["a.mrc"] != 1 || opener.opens["b.mrc"] != 1 {
		t.Fatalf("opens = %v, want one per distinct file", opener.opens)
	}
}

func TestLoadMemoizesEquivalentSpellings(t *testing.T) {
	opener := newFakeOpener()
	opener.add("a.mrc", frame(1), frame(2))

	loader := &Loader{InputDir: "in", Open: opener}
	frames, err := loader.Load(refs("1@a.mrc", "2@./a.mrc", "1@x/../a.mrc"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for i, want := range []float32{1, 2, 1} {
		if frames[i].Pixels[0] != want {
			t.Fatalf("frame %d starts with %v, want %v", i+1, frames[i].Pixels[0], want)
		}
	}
	if opener.opens["a.mrc"] != 1 {
		t.Fatalf("opens = %v, want a single open for all spellings", opener.opens)
	}
}

func TestLoadIndexOutOfRange(t *testing.T) {
	opener := newFakeOpener()
	opener.add("a.mrc", frame(1), frame(2), frame(3))

	loader := &Loader{Open: opener}
	_, err := loader.Load(refs("1@a.mrc", "5@a.mrc"))
	if err == nil {
		t.Fatal("expected error for out-of-range index")
	}
	var idxErr *IndexError
	if !errors.As(err, &idxErr) {
		t.Fatalf("error %v is not an IndexError", err)
	}
	if idxErr.Filename != "a.mrc" || idxErr.Index != 5 || idxErr.Frames != 3 || idxErr.Row != 2 {
		t.Fatalf("IndexError = %+v", idxErr)
	}
}

func TestLoadRejectsIndexZero(t *testing.T) {
	opener := newFakeOpener()
	opener.add("a.mrc", frame(1))

	loader := &Loader{Open: opener}
	_, err := loader.Load(refs("0@a.mrc"))
	var idxErr *IndexError
	if !errors.As(err, &idxErr) {
		t.Fatalf("error %v is not an IndexError", err)
	}
}

func TestLoadMissingStack(t *testing.T) {
	loader := &Loader{Open: newFakeOpener()}
	_, err := loader.Load(refs("1@gone.mrc"))
	if err == nil {
		t.Fatal("expected error for missing stack")
	}
	var missErr *MissingStackError
	if !errors.As(err, &missErr) {
		t.Fatalf("error %v is not a MissingStackError", err)
	}
	if missErr.Filename != "gone.mrc" || missErr.Row != 1 {
		t.Fatalf("MissingStackError = %+v", missErr)
	}
}

func TestResolveAllTagsRow(t *testing.T) {
	doc := particleDoc("000001@a.mrc", "abc@x.mrc", "000002@a.mrc")
	_, err := ResolveAll(doc, "rlnImageName")
	if err == nil {
		t.Fatal("expected error for malformed reference")
	}
	var refErr *starfile.ReferenceError
	if !errors.As(err, &refErr) {
		t.Fatalf("error %v is not a ReferenceError", err)
	}
	if refErr.Row != 2 {
		t.Fatalf("error row = %d, want 2", refErr.Row)
	}
}

func TestResolveAllMissingColumn(t *testing.T) {
	doc := particleDoc("000001@a.mrc")
	_, err := ResolveAll(doc, "rlnImageOriginalName")
	var fmtErr *starfile.FormatError
	if !errors.As(err, &fmtErr) {
		t.Fatalf("error %v is not a FormatError", err)
	}
}

func TestCombinePreservesOrder(t *testing.T) {
	stack, err := Combine([]mrc.Frame{frame(9), frame(8), frame(7)})
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	for i, want := range []float32{9, 8, 7} {
		if stack.Frames[i].Pixels[0] != want {
			t.Fatalf("frame %d starts with %v, want %v", i+1, stack.Frames[i].Pixels[0], want)
		}
	}
}

func TestCombineShapeMismatch(t *testing.T) {
	big := mrc.Frame{Width: 4, Height: 4, Pixels: make([]float32, 16)}
	_, err := Combine([]mrc.Frame{frame(1), big, frame(2)})
	if err == nil {
		t.Fatal("expected error for mixed shapes")
	}
	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("error %v is not a ShapeError", err)
	}
	if shapeErr.Row != 2 {
		t.Fatalf("error row = %d, want 2", shapeErr.Row)
	}
	if !strings.Contains(err.Error(), "4x4") {
		t.Fatalf("error %v does not name the offending shape", err)
	}
}

func TestCombineEmpty(t *testing.T) {
	if _, err := Combine(nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestRewrite(t *testing.T) {
	doc := particleDoc("000001@a.mrc", "000002@a.mrc", "000001@b.mrc")
	if err := Rewrite(doc, "rlnImageName", "combined.mrcs", 0); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	want := []string{"1@combined.mrcs", "2@combined.mrcs", "3@combined.mrcs"}
	for i, row := range doc.Rows {
		if row[0] != want[i] {
			t.Fatalf("row %d reference = %q, want %q", i+1, row[0], want[i])
		}
		if !strings.HasPrefix(row[1], "mic_00") {
			t.Fatalf("row %d micrograph column changed: %q", i+1, row[1])
		}
	}
}

func TestRewriteExplicitWidth(t *testing.T) {
	doc := particleDoc("000001@a.mrc", "000002@a.mrc")
	if err := Rewrite(doc, "rlnImageName", "combined.mrcs", 6); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if doc.Rows[0][0] != "000001@combined.mrcs" {
		t.Fatalf("row 1 reference = %q", doc.Rows[0][0])
	}
}

func TestRewriteAutoWidthScales(t *testing.T) {
	names := make([]string, 12)
	for i := range names {
		names[i] = "000001@a.mrc"
	}
	doc := particleDoc(names...)
	if err := Rewrite(doc, "rlnImageName", "c.mrcs", 0); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	// 12 rows pad to two digits.
	if doc.Rows[0][0] != "01@c.mrcs" || doc.Rows[11][0] != "12@c.mrcs" {
		t.Fatalf("references = %q ... %q", doc.Rows[0][0], doc.Rows[11][0])
	}
}
