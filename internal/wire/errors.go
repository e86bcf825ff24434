package wire

import (
	"errors"
	"fmt"
)

var (
	ErrLayoutTooShort = errors.New("layout too short")
	ErrEncodeRange    = errors.New("value out of range")
)

// LayoutError reports a buffer that does not cover a section of a fixed layout.
type LayoutError struct {
	Section string
	Need    int
	Have    int
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("%s: %s: need %d bytes, have %d", e.Section, ErrLayoutTooShort, e.Need, e.Have)
}

func (e *LayoutError) Unwrap() error {
	return ErrLayoutTooShort
}

// RangeError reports an integer that does not fit its wire type.
type RangeError struct {
	Type  string
	Value string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("encode %s: %s: %s", e.Type, ErrEncodeRange, e.Value)
}

func (e *RangeError) Unwrap() error {
	return ErrEncodeRange
}

// CheckLen returns a *LayoutError when buf is shorter than need.
func CheckLen(section string, buf []byte, need int) error {
	if len(buf) < need {
		return &LayoutError{Section: section, Need: need, Have: len(buf)}
	}
	return nil
}
