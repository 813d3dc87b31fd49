package testsupport

import (
	"context"
	"sync"
)

// Reply is one canned generator response.
type Reply struct {
	Text string
	Err  error
}

// ScriptedGenerator is a fake generative-text collaborator. It returns the
// scripted replies in order and repeats the last one once they run out.
// Respond, when set, takes precedence over the script.
type ScriptedGenerator struct {
	Respond func(prompt string) (string, error)

	mu      sync.Mutex
	replies []Reply
	prompts []string
}

// NewScriptedGenerator returns a generator that plays back replies.
func NewScriptedGenerator(replies ...Reply) *ScriptedGenerator {
	return &ScriptedGenerator{replies: replies}
}

// Complete records the prompt and returns the next scripted reply.
func (g *ScriptedGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	call := len(g.prompts)
	g.prompts = append(g.prompts, prompt)
	respond := g.Respond
	var reply Reply
	if len(g.replies) > 0 {
		idx := call
		if idx >= len(g.replies) {
			idx = len(g.replies) - 1
		}
		reply = g.replies[idx]
	}
	g.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if respond != nil {
		return respond(prompt)
	}
	return reply.Text, reply.Err
}

// Prompts returns every prompt received so far.
func (g *ScriptedGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.prompts))
	copy(out, g.prompts)
	return out
}

// Calls returns the number of Complete calls.
func (g *ScriptedGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}
