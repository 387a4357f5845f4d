package result

// Severity levels used by issues.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issue codes reported by pattern validation.
const (
	CodeRequiredField         = "REQUIRED_FIELD"
	CodeDuplicateInstance     = "DUPLICATE_INSTANCE"
	CodeInvalidComponent      = "INVALID_COMPONENT"
	CodeInvalidRelationship   = "INVALID_RELATIONSHIP"
	CodeMissingDependency     = "MISSING_DEPENDENCY"
	CodeCircularDependency    = "CIRCULAR_DEPENDENCY"
	CodeProviderCompatibility = "PROVIDER_COMPATIBILITY"
	CodeIsolatedComponent     = "ISOLATED_COMPONENT"
	CodeMissingConfiguration  = "MISSING_CONFIGURATION"
)

// Error represents a structural validation failure.
type Error struct {
	Code       string `json:"code"`
	Severity   string `json:"severity"`
	InstanceID string `json:"instanceId,omitempty"`
	Field      string `json:"field,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Warning represents a best-practice or non-fatal finding.
type Warning struct {
	Code       string `json:"code"`
	Severity   string `json:"severity"`
	InstanceID string `json:"instanceId,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Codes returns the codes of errs in order.
func Codes(errs []Error) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

// Messages returns the messages of errs in order.
func Messages(errs []Error) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Message
	}
	return out
}
