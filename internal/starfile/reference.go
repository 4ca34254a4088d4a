// reference.go implements the index@filename codec used by image name values.
package starfile

import (
	"fmt"
	"strconv"
	"strings"
)

// ImageReference identifies one frame inside an MRC stack. Index is 1-based,
// matching how Relion writes rlnImageName values.
type ImageReference struct {
	Index    int
	Filename string
}

// ParseImageReference splits a value of the form "000042@stack.mrcs". The
// value must contain exactly one '@', the prefix must be a decimal integer,
// and the filename must be non-empty. No filename extension is assumed.
func ParseImageReference(raw string) (ImageReference, error) {
	if strings.Count(raw, "@") != 1 {
		return ImageReference{}, &ReferenceError{Value: raw, Reason: "expected exactly one '@' separator"}
	}
	at := strings.IndexByte(raw, '@')
	prefix, filename := raw[:at], raw[at+1:]
	if prefix == "" {
		return ImageReference{}, &ReferenceError{Value: raw, Reason: "missing frame index before '@'"}
	}
	if filename == "" {
		return ImageReference{}, &ReferenceError{Value: raw, Reason: "missing filename after '@'"}
	}
	for i := 0; i < len(prefix); i++ {
		if prefix[i] < '0' || prefix[i] > '9' {
			return ImageReference{}, &ReferenceError{Value: raw, Reason: "frame index is not a non-negative integer"}
		}
	}
	index, err := strconv.Atoi(prefix)
	if err != nil {
		return ImageReference{}, &ReferenceError{Value: raw, Reason: "frame index does not fit in an int"}
	}
	return ImageReference{Index: index, Filename: filename}, nil
}

// FormatImageReference renders index@filename with the index zero-padded to
// width digits. Width 0 disables padding. Indices wider than width are
// rendered in full rather than truncated.
func FormatImageReference(index int, filename string, width int) string {
	if width > 0 {
		return fmt.Sprintf("%0*d@%s", width, index, filename)
	}
	return fmt.Sprintf("%d@%s", index, filename)
}
