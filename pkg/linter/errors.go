package linter

import (
	"errors"
	"fmt"
)

// ErrUnknownRule is returned when the configuration enables a rule that was
// never defined.
var ErrUnknownRule = errors.New("unknown rule")

// AnalysisError aborts the analysis of one file. It wraps failures raised
// while walking the tree, including internal code path errors.
type AnalysisError struct {
	Path string
	Err  error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analyzing %s: %v", e.Path, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

func recovered(path string, r any) *AnalysisError {
	err, ok := r.(error)
	if !ok {
		err = fmt.Errorf("%v", r)
	}
	return &AnalysisError{Path: path, Err: err}
}
