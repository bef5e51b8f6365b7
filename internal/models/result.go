package models

import "fmt"

// Issue severities
const (
	SeverityError   = "ERROR"
	SeverityWarning = "WARNING"
)

// Validation result statuses
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
)

// Scoring categories. Each rule deducts from the score using its
// category's configured weight.
const (
	CategoryStructural     = "structural"
	CategoryIDFormat       = "id_format"
	CategoryCrossReference = "cross_reference"
	CategoryPlaceholder    = "placeholder"
)

// Stable rule identifiers so tooling can filter or suppress by rule.
const (
	RuleMissingRequiredBlock = "MISSING_REQUIRED_BLOCK"
	RuleOutOfOrderBlock      = "OUT_OF_ORDER_BLOCK"
	RuleUnexpectedBlock      = "UNEXPECTED_BLOCK"
	RuleContentKindMismatch  = "CONTENT_KIND_MISMATCH"
	RuleInvalidIDFormat      = "INVALID_ID_FORMAT"
	RulePlaceholderContent   = "PLACEHOLDER_CONTENT"
	RuleUnresolvedReference  = "UNRESOLVED_REFERENCE"
	RuleStaleIDReference     = "STALE_ID_REFERENCE"
	RuleCheckboxMismatch     = "CHECKBOX_MISMATCH"
	RuleDuplicateDefinition  = "DUPLICATE_DEFINITION"
	RuleMissingCoverage      = "MISSING_COVERAGE"
)

// RuleCategory maps every rule to its scoring category.
var RuleCategory = map[string]string{
	RuleMissingRequiredBlock: CategoryStructural,
	RuleOutOfOrderBlock:      CategoryStructural,
	RuleUnexpectedBlock:      CategoryStructural,
	RuleContentKindMismatch:  CategoryStructural,
	RuleInvalidIDFormat:      CategoryIDFormat,
	RulePlaceholderContent:   CategoryPlaceholder,
	RuleUnresolvedReference:  CategoryCrossReference,
	RuleStaleIDReference:     CategoryCrossReference,
	RuleCheckboxMismatch:     CategoryCrossReference,
	RuleDuplicateDefinition:  CategoryCrossReference,
	RuleMissingCoverage:      CategoryCrossReference,
}

// Issue is one recoverable finding. Issues never abort a run; they are
// accumulated fully so a single run reports every detectable problem.
type Issue struct {
	Severity string `json:"severity"`
	Path     string `json:"path,omitempty"` // set for cross-artifact findings
	Line     int    `json:"line"`
	RuleID   string `json:"ruleId"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Error constructs an ERROR issue for the given rule.
func Error(rule string, line int, format string, args ...interface{}) Issue {
	return newIssue(SeverityError, rule, line, format, args...)
}

// Warning constructs a WARNING issue for the given rule.
func Warning(rule string, line int, format string, args ...interface{}) Issue {
	return newIssue(SeverityWarning, rule, line, format, args...)
}

func newIssue(severity, rule string, line int, format string, args ...interface{}) Issue {
	return Issue{
		Severity: severity,
		Line:     line,
		RuleID:   rule,
		Category: RuleCategory[rule],
		Message:  fmt.Sprintf(format, args...),
	}
}

// ValidationResult is the scored outcome of validating one artifact.
type ValidationResult struct {
	ArtifactPath string  `json:"artifactPath"`
	Status       string  `json:"status"`
	Score        int     `json:"score"`
	Errors       int     `json:"errors"`
	Warnings     int     `json:"warnings"`
	Issues       []Issue `json:"issues"`
}
