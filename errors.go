package xlparse

import (
	"errors"
	"fmt"
)

// Configuration errors. They are detected while a sheet is being set up
// and always abort that sheet.
var (
	ErrUnknownColumnReference   = errors.New("unknown column reference")
	ErrInvalidAddress           = errors.New("invalid address")
	ErrIndexOutOfRange          = errors.New("index out of range")
	ErrUnsupportedInOrientation = errors.New("unsupported in orientation")
	ErrUnknownAttribute         = errors.New("unknown attribute")
	ErrInvalidOption            = errors.New("invalid option")
	ErrSheetNotFound            = errors.New("sheet not found")
)

// ConfigError reports a configuration failure together with the sheet and
// column it was found on.
type ConfigError struct {
	Sheet  string
	Column string
	Err    error
}

func (e *ConfigError) Error() string {
	switch {
	case e.Sheet != "" && e.Column != "":
		return fmt.Sprintf("sheet=%s column=%s: %v", e.Sheet, e.Column, e.Err)
	case e.Sheet != "":
		return fmt.Sprintf("sheet=%s: %v", e.Sheet, e.Err)
	case e.Column != "":
		return fmt.Sprintf("column=%s: %v", e.Column, e.Err)
	}
	return e.Err.Error()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// CellError reports a failure while producing the value of one column for
// one record.
type CellError struct {
	Column string
	Ref    CellRef
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("error at %s cell=%s. %v", e.Column, e.Ref, e.Err)
}

func (e *CellError) Unwrap() error { return e.Err }

// configErrorf wraps a sentinel with a formatted detail message.
func configErrorf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
