package models

// Severity classifies a user-facing notice.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notice is one transient user-facing message. The domain layer emits these
// through the session's notice feed; the transport renders them. This core
// never renders.
type Notice struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}
