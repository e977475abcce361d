package logging

// LogEntry represents a structured log record emitted during a search run.
type LogEntry struct {
	// Standard fields
	Time     int64
	Severity Severity
	Message  string
	File     string
	Line     int
	Function string

	// Search-specific fields
	Generation int    // Evolution generation the entry belongs to, -1 when not applicable
	Pipeline   string // Canonical rendering of the pipeline being processed

	// General structured data
	Fields map[string]interface{}
}
