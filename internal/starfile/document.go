// document.go parses and serializes the block-structured star metadata format.

// Package starfile reads and writes Relion star documents while preserving
// everything that is not the column being rewritten: preamble lines, the
// loop_ header block, column order, and every other column's values survive a
// parse/serialize round trip untouched.
package starfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Document is an in-memory star file: verbatim preamble up to and including
// the loop_ line, the declared column header lines, one token slice per data
// row, and any verbatim trailer after the data block.
type Document struct {
	Preamble []string
	Headers  []string
	Columns  []string
	Rows     [][]string
	Trailer  []string
}

// ColumnIndex returns the position of the named column.
func (d *Document) ColumnIndex(name string) (int, bool) {
	for i, col := range d.Columns {
		if col == name {
			return i, true
		}
	}
	return 0, false
}

// ReadFile parses the star document at path.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open star file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a star document. The data block is located the way Relion
// tools do: the first data_ section followed by a loop_ header. Lines before
// the column headers are kept verbatim; blank and comment lines inside the
// data block are skipped; rows are collected until the next data_ marker or
// EOF, and anything from that marker on is kept verbatim as trailer.
func Parse(r io.Reader) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read star document: %w", err)
	}

	// Relion 3.1 files carry a data_optics block ahead of the particle table,
	// so a data_particles block wins over the first data_ block.
	loopLine := findLoop(lines, "data_particles")
	if loopLine < 0 {
		loopLine = findLoop(lines, "data_")
	}
	if loopLine < 0 {
		return nil, &FormatError{Msg: "no data_ block with a loop_ header found"}
	}

	doc := &Document{Preamble: lines[:loopLine+1]}

	i := loopLine + 1
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, "_") {
			break
		}
		doc.Headers = append(doc.Headers, lines[i])
		// Header lines look like "_rlnImageName #3"; only the name matters.
		name := strings.TrimPrefix(strings.Fields(trimmed)[0], "_")
		doc.Columns = append(doc.Columns, name)
	}
	if len(doc.Columns) == 0 {
		return nil, &FormatError{Line: loopLine + 1, Msg: "loop_ header declares no columns"}
	}

	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "data_") {
			break
		}
		// Blank and comment lines appear anywhere inside a data block; only a
		// new data_ marker or EOF ends it. Ending at a blank line would strand
		// the rows after it with their old references.
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		tokens := strings.Fields(trimmed)
		if len(tokens) != len(doc.Columns) {
			return nil, &FormatError{
				Line: i + 1,
				Msg:  fmt.Sprintf("row has %d values but %d columns are declared", len(tokens), len(doc.Columns)),
			}
		}
		doc.Rows = append(doc.Rows, tokens)
	}
	doc.Trailer = lines[i:]

	return doc, nil
}

// findLoop returns the index of the loop_ line belonging to the first block
// whose data_ marker starts with prefix, or -1.
func findLoop(lines []string, prefix string) int {
	sawData := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, prefix):
			sawData = true
		case sawData && trimmed == "loop_":
			return i
		case sawData && strings.HasPrefix(trimmed, "data_"):
			sawData = false
		}
	}
	return -1
}

// WriteFile serializes the document to path.
func (d *Document) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create star file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := d.Write(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush star file: %w", err)
	}
	return f.Close()
}

// Write serializes the document. Preamble, header, and trailer lines are
// emitted verbatim; data rows are re-tokenized with single-space separation,
// so source column alignment is not preserved (values and order are).
func (d *Document) Write(w io.Writer) error {
	for _, line := range d.Preamble {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("write star preamble: %w", err)
		}
	}
	for _, line := range d.Headers {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("write star header: %w", err)
		}
	}
	for _, row := range d.Rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, " ")); err != nil {
			return fmt.Errorf("write star row: %w", err)
		}
	}
	for _, line := range d.Trailer {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("write star trailer: %w", err)
		}
	}
	return nil
}
