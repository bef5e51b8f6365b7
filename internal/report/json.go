package report

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteJSON emits a value as indented JSON with a trailing newline.
// Field order follows struct declaration order and all slices are
// sorted upstream, so output is byte-identical across runs over the
// same repository state.
func WriteJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// MarshalJSON renders a value the same way WriteJSON does, for callers
// that need the bytes (report files, history rows).
func MarshalJSON(v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return append(data, '\n'), nil
}
