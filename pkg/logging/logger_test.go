package logging

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// captureOutput records entries for assertions.
type captureOutput struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (c *captureOutput) Write(e LogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
	return nil
}

func (c *captureOutput) Sync() error  { return nil }
func (c *captureOutput) Close() error { return nil }

func TestSeverityFiltering(t *testing.T) {
	out := &captureOutput{}
	logger := NewLogger(Config{Severity: WARN, Outputs: []Output{out}})

	ctx := context.Background()
	logger.Debug(ctx, "dropped")
	logger.Info(ctx, "dropped")
	logger.Warn(ctx, "kept")
	logger.Error(ctx, "kept too")

	assert.Len(t, out.entries, 2)
	assert.Equal(t, "kept", out.entries[0].Message)
	assert.Equal(t, ERROR, out.entries[1].Severity)
}

func TestContextAnnotations(t *testing.T) {
	out := &captureOutput{}
	logger := NewLogger(Config{Severity: DEBUG, Outputs: []Output{out}})

	ctx := WithPipeline(WithGeneration(context.Background(), 4), "A(input_matrix)")
	logger.Info(ctx, "evaluating")

	assert.Len(t, out.entries, 1)
	assert.Equal(t, 4, out.entries[0].Generation)
	assert.Equal(t, "A(input_matrix)", out.entries[0].Pipeline)
}

func TestDefaultFields(t *testing.T) {
	out := &captureOutput{}
	logger := NewLogger(Config{
		Severity:      DEBUG,
		Outputs:       []Output{out},
		DefaultFields: map[string]interface{}{"run": "abc"},
	})

	logger.Info(context.Background(), "hello")
	assert.Equal(t, "abc", out.entries[0].Fields["run"])
}

func TestParseSeverity(t *testing.T) {
	assert.Equal(t, DEBUG, ParseSeverity("DEBUG"))
	assert.Equal(t, FATAL, ParseSeverity("FATAL"))
	assert.Equal(t, INFO, ParseSeverity("bogus"))
}

func TestGlobalLogger(t *testing.T) {
	custom := NewLogger(Config{Severity: ERROR})
	SetLogger(custom)
	assert.Same(t, custom, GetLogger())
	SetLogger(nil)
	assert.NotNil(t, GetLogger())
}
