package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/san-kum/episim/internal/epidemic"
)

// ErrClosed is returned when a step is recorded after Close.
var ErrClosed = errors.New("storage: run already closed")

// Run is an open run directory. It records one counts row per step and is the
// only persistent record of a run, so every write error is returned.
type Run struct {
	dir    string
	meta   RunMetadata
	file   *os.File
	w      *csv.Writer
	closed bool
}

func (r *Run) ID() string  { return r.meta.ID }
func (r *Run) Dir() string { return r.dir }

// Path joins name onto the run directory, for artifacts written next to the
// counts file.
func (r *Run) Path(name string) string {
	return filepath.Join(r.dir, name)
}

// AddArtifact lists a file of the run directory in the metadata.
func (r *Run) AddArtifact(name string) {
	r.meta.Artifacts = append(r.meta.Artifacts, name)
}

// OnStep appends the counts of one step.
func (r *Run) OnStep(step int, c epidemic.Counts, _ *epidemic.Grid) error {
	if r.closed {
		return ErrClosed
	}
	if err := r.w.Write(countsRow(step, c)); err != nil {
		return err
	}
	// csv.Writer buffers; surface write failures at the step that caused them.
	r.w.Flush()
	return r.w.Error()
}

// Finish writes metadata.json with the outcome of the run.
func (r *Run) Finish(result *epidemic.Result) error {
	if result != nil {
		r.meta.StepsTaken = result.StepsTaken
		r.meta.Metrics = result.Metrics
	}

	f, err := os.Create(filepath.Join(r.dir, metadataFile))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.meta); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Close flushes and closes the counts file. Later calls do nothing.
func (r *Run) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	r.w.Flush()
	return errors.Join(r.w.Error(), r.file.Close())
}
