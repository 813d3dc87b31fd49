package stage

import "context"

// Processor is the contract the pipeline runner needs from each stage.
//
// Run processes every eligible item once. Per-item failures are reported in
// the returned Report, never as the error; the error is reserved for
// stage-level problems such as the work store being unreachable.
type Processor interface {
	Name() string
	Run(ctx context.Context) (Report, error)
	HealthCheck(ctx context.Context) Health
}

// Generator is the generative-text collaborator. Implementations return a
// non-empty completion or an error; rate limits must be distinguishable via
// services.ErrRateLimit and empty output via services.ErrEmptyResult.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f GeneratorFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Delivery is the publish collaborator.
type Delivery interface {
	Send(ctx context.Context, destination, text string) error
}
