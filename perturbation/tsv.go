package perturbation

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// TSVSink writes one "original<TAB>substitute" line per record. The file is
// written to a temporary sibling and renamed into place, so readers see
// either the previous content or the complete new batch.
type TSVSink struct {
	Path string
}

// Write implements Sink.
func (t *TSVSink) Write(ctx context.Context, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(t.Path)
	tmp, err := os.CreateTemp(dir, ".perturbations-*")
	if err != nil {
		return fmt.Errorf("perturbation: %w", err)
	}
	tmpPath := tmp.Name()
	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("perturbation: write %s: %w", t.Path, err)
	}
	bw := bufio.NewWriter(tmp)
	for _, r := range records {
		if _, err := fmt.Fprintf(bw, "%s\t%s\n", r.Original, r.Substitute); err != nil {
			return fail(err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("perturbation: write %s: %w", t.Path, err)
	}
	if err := os.Rename(tmpPath, t.Path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("perturbation: write %s: %w", t.Path, err)
	}
	return nil
}
