package model

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingID is returned when the sheet has no id column.
	ErrMissingID = errors.New("required column \"id\" is missing")
	// ErrDuplicateHeader is returned when two headers canonicalize to the same name.
	ErrDuplicateHeader = errors.New("duplicate header after canonicalization")
	// ErrUnsupportedFormat is returned for sources that are neither CSV nor XLSX.
	ErrUnsupportedFormat = errors.New("unsupported source format")
	// ErrUnknownDataset is returned when a dataset name is not configured.
	ErrUnknownDataset = errors.New("unknown dataset")
	// ErrUnknownDimension is returned for filter keys outside the known dimensions.
	ErrUnknownDimension = errors.New("unknown filter dimension")
	// ErrEmptySheet is returned when the source has no header row.
	ErrEmptySheet = errors.New("source has no header row")
)

// ConfigError reports a schema problem that must be fixed before the
// pipeline can run.
type ConfigError struct {
	Source string
	Column string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: column %q: %v", e.Source, e.Column, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
