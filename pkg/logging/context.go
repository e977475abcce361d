package logging

import "context"

type contextKey string

const (
	generationKey contextKey = "evopipe_generation"
	pipelineKey   contextKey = "evopipe_pipeline"
)

// WithGeneration annotates a context with the current evolution generation.
func WithGeneration(ctx context.Context, generation int) context.Context {
	return context.WithValue(ctx, generationKey, generation)
}

// GetGeneration extracts the evolution generation from a context.
func GetGeneration(ctx context.Context) (int, bool) {
	gen, ok := ctx.Value(generationKey).(int)
	return gen, ok
}

// WithPipeline annotates a context with the canonical key of the pipeline
// currently being compiled or evaluated.
func WithPipeline(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, pipelineKey, key)
}

// GetPipeline extracts the pipeline key from a context.
func GetPipeline(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(pipelineKey).(string)
	return key, ok
}
