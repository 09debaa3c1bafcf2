package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingFile      = errors.New("source file not found")
	ErrUnreadableFormat = errors.New("unreadable source format")
	ErrMissingColumns   = errors.New("required columns missing")
	ErrGeometryKind     = errors.New("unexpected geometry kind")
	ErrUnsupportedCRS   = errors.New("unsupported coordinate reference system")
)

// LoadError describes a failed layer or workbook load. Kind is one of the
// sentinel errors above so callers can branch with errors.Is.
type LoadError struct {
	Path string
	Kind error
	Err  error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("load %s: %v", e.Path, e.Kind)
	}
	return fmt.Sprintf("load %s: %v: %v", e.Path, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewLoadError builds a LoadError for path.
func NewLoadError(path string, kind, err error) *LoadError {
	return &LoadError{Path: path, Kind: kind, Err: err}
}
