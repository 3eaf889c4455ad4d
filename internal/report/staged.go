package report

import (
	"fmt"
	"os"
	"path/filepath"
)

// Staged is an output fully written to a temp file in the destination directory, waiting to
// be renamed over its final path.
type Staged struct {
	tmp  string
	path string
}

// stage creates a temp file next to path and fills it with write. On any failure the temp
// file is removed and path is untouched.
func stage(path, suffix string, write func(tmp *os.File) error) (*Staged, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	st := &Staged{tmp: tmp.Name(), path: path}

	if err := write(tmp); err != nil {
		tmp.Close()
		st.Discard()
		return nil, fmt.Errorf("write %s: %w", st.tmp, err)
	}
	if err := tmp.Close(); err != nil {
		st.Discard()
		return nil, fmt.Errorf("close %s: %w", st.tmp, err)
	}
	if err := os.Chmod(st.tmp, 0o644); err != nil {
		st.Discard()
		return nil, fmt.Errorf("chmod %s: %w", st.tmp, err)
	}
	return st, nil
}

// Commit renames the temp file over the destination.
func (s *Staged) Commit() error {
	if err := os.Rename(s.tmp, s.path); err != nil {
		s.Discard()
		return fmt.Errorf("rename to %s: %w", s.path, err)
	}
	return nil
}

// Discard removes the temp file. Safe to call after Commit.
func (s *Staged) Discard() {
	if s == nil {
		return
	}
	_ = os.Remove(s.tmp)
}

// CommitAll commits every staged output in order. After the first failed rename the remaining
// temp files are removed and the error is returned.
func CommitAll(staged ...*Staged) error {
	for i, s := range staged {
		if err := s.Commit(); err != nil {
			for _, rest := range staged[i+1:] {
				rest.Discard()
			}
			return err
		}
	}
	return nil
}
