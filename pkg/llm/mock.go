package llm

import (
	"context"
	"sync"
)

// MockCall records one GenerateResponse invocation.
type MockCall struct {
	Prompt        string
	SystemMessage string
	Temperature   float64
}

// MockReply is one scripted outcome.
type MockReply struct {
	Content string
	Err     error
}

// MockClient replays scripted replies in order. Once the script runs out the
// last reply repeats; an empty script answers with an empty completion.
type MockClient struct {
	Model   string
	Replies []MockReply

	mu    sync.Mutex
	calls []MockCall
}

// NewMockClient creates a MockClient that answers with replies.
func NewMockClient(replies ...MockReply) *MockClient {
	return &MockClient{Model: "mock-model", Replies: replies}
}

func (m *MockClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error) {
	m.mu.Lock()
	n := len(m.calls)
	m.calls = append(m.calls, MockCall{Prompt: prompt, SystemMessage: systemMessage, Temperature: temperature})
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(m.Replies) == 0 {
		return &GenerateResponseResult{}, nil
	}
	reply := m.Replies[min(n, len(m.Replies)-1)]
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &GenerateResponseResult{Content: reply.Content}, nil
}

// Calls returns a copy of the recorded invocations.
func (m *MockClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

func (m *MockClient) GetModel() string { return m.Model }

func (m *MockClient) GetEndpoint() string { return "mock://" + m.Model }

var _ LLMClient = (*MockClient)(nil)
