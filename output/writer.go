package output

import (
	"errors"
	"fmt"
	"os"
)

const (
	// DefaultTransformedPath is the transformed-lines file used when none is
	// configured.
	DefaultTransformedPath = "transformed_words.txt"
	// DefaultLinkedPath is the linked-lines file used when none is
	// configured.
	DefaultLinkedPath = "linked_words.txt"
	// LinkSeparator joins the original and transformed halves of a linked
	// line.
	LinkSeparator = "||"
)

// Writer appends one line per processed input line to both files. Each line
// goes out in a single unbuffered write, so the files always hold a prefix of
// complete lines even if the process dies mid-run.
type Writer struct {
	transformed *os.File
	linked      *os.File
	lines       int
}

// Create truncates or creates both files. Nothing from an earlier run
// survives.
func Create(transformedPath, linkedPath string) (*Writer, error) {
	if transformedPath == "" {
		transformedPath = DefaultTransformedPath
	}
	if linkedPath == "" {
		linkedPath = DefaultLinkedPath
	}
	t, err := os.Create(transformedPath)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	l, err := os.Create(linkedPath)
	if err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("output: %w", err)
	}
	return &Writer{transformed: t, linked: l}, nil
}

// WriteLine appends transformed to the transformed file and
// "original||transformed" to the linked file.
func (w *Writer) WriteLine(original, transformed string) error {
	if _, err := w.transformed.WriteString(transformed + "\n"); err != nil {
		return fmt.Errorf("output: line %d: %w", w.lines+1, err)
	}
	if _, err := w.linked.WriteString(original + LinkSeparator + transformed + "\n"); err != nil {
		return fmt.Errorf("output: line %d: %w", w.lines+1, err)
	}
	w.lines++
	return nil
}

// Lines returns the number of lines written.
func (w *Writer) Lines() int { return w.lines }

// Close closes both files, reporting the first error.
func (w *Writer) Close() error {
	return errors.Join(w.transformed.Close(), w.linked.Close())
}
