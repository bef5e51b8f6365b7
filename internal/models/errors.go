package models

import "fmt"

// ParseReason classifies fatal marker parse failures.
type ParseReason string

const (
	// ReasonUnbalancedMarkers means an open marker has no matching close
	// marker before EOF, or a close marker interleaves across nesting.
	ReasonUnbalancedMarkers ParseReason = "UNBALANCED_MARKERS"
	// ReasonUnknownBlockType means a marker used a type token outside the
	// closed block-type set.
	ReasonUnknownBlockType ParseReason = "UNKNOWN_BLOCK_TYPE"
	// ReasonMalformedAttribute means a marker attribute failed the
	// key="value" grammar or used an unknown key.
	ReasonMalformedAttribute ParseReason = "MALFORMED_ATTRIBUTE"
)

// ParseError is a fatal template or artifact parse failure. The caller
// must not attempt partial validation against a file that failed to
// parse; structural validation has no meaning without a complete tree.
type ParseError struct {
	Path   string      `json:"path"`
	Line   int         `json:"line"`
	Reason ParseReason `json:"reason"`
	Detail string      `json:"detail,omitempty"`
}

func (e *ParseError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s:%d: %s: %s", e.Path, e.Line, e.Reason, e.Detail)
	}
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Reason)
}

// ConfigError is a fatal configuration failure: a template, registry or
// config file is missing or unreadable. No degraded validation is
// attempted.
type ConfigError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}
