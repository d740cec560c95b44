package llm

import (
	"context"
	"fmt"
	"sync"

	"erpverify/internal/port"
)

// Reply is one scripted model answer.
type Reply struct {
	Text string
	Err  error
}

// ScriptedModel is a deterministic LanguageModel that answers from per-purpose
// scripts. Replies are consumed in order; the last one repeats once the script
// runs out. It is safe for concurrent use.
type ScriptedModel struct {
	Name string

	mu      sync.Mutex
	scripts map[string][]Reply
	calls   []port.Prompt
}

// NewScriptedModel creates an empty ScriptedModel.
func NewScriptedModel(name string) *ScriptedModel {
	if name == "" {
		name = "scripted"
	}
	return &ScriptedModel{Name: name, scripts: make(map[string][]Reply)}
}

// Script appends replies for prompts with the given purpose.
func (s *ScriptedModel) Script(purpose string, replies ...Reply) *ScriptedModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[purpose] = append(s.scripts[purpose], replies...)
	return s
}

// Respond scripts plain text replies.
func (s *ScriptedModel) Respond(purpose string, texts ...string) *ScriptedModel {
	replies := make([]Reply, len(texts))
	for i, t := range texts {
		replies[i] = Reply{Text: t}
	}
	return s.Script(purpose, replies...)
}

// Fail scripts error replies.
func (s *ScriptedModel) Fail(purpose string, errs ...error) *ScriptedModel {
	replies := make([]Reply, len(errs))
	for i, err := range errs {
		replies[i] = Reply{Err: err}
	}
	return s.Script(purpose, replies...)
}

func (s *ScriptedModel) Complete(ctx context.Context, prompt port.Prompt) (*port.Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.calls = append(s.calls, prompt)
	script := s.scripts[prompt.Purpose]
	if len(script) == 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("scripted model: no reply for purpose %q", prompt.Purpose)
	}
	reply := script[0]
	if len(script) > 1 {
		s.scripts[prompt.Purpose] = script[1:]
	}
	s.mu.Unlock()

	if reply.Err != nil {
		return nil, reply.Err
	}
	return &port.Completion{Text: reply.Text, Model: s.Name}, nil
}

// Calls returns the prompts received so far.
func (s *ScriptedModel) Calls() []port.Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]port.Prompt, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns how many prompts with the purpose were received.
func (s *ScriptedModel) CallCount(purpose string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Purpose == purpose {
			n++
		}
	}
	return n
}
