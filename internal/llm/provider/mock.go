package provider

import "context"

// MockProvider is a mock LLM provider for testing. Responses and errors
// are consumed in queue order; when both queues are exhausted a default
// response is returned.
type MockProvider struct {
	name string

	// Responses to return for each request
	CompletionResponses []*CompletionResponse
	Errors              []error

	// Track calls
	CompletionCalls []CompletionRequest

	currentIndex int
}

// NewMockProvider creates a new mock provider
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{name: name}
}

// CreateCompletion implements Provider
func (m *MockProvider) CreateCompletion(ctx context.Context, request CompletionRequest) (*CompletionResponse, error) {
	m.CompletionCalls = append(m.CompletionCalls, request)

	if m.currentIndex < len(m.Errors) && m.Errors[m.currentIndex] != nil {
		err := m.Errors[m.currentIndex]
		m.currentIndex++
		return nil, err
	}

	if m.currentIndex < len(m.CompletionResponses) {
		response := m.CompletionResponses[m.currentIndex]
		m.currentIndex++
		return response, nil
	}

	return MockCompletionResponse("Mock response"), nil
}

// Name implements Provider
func (m *MockProvider) Name() string {
	return m.name
}

// AddCompletionResponse adds a completion response to return
func (m *MockProvider) AddCompletionResponse(response *CompletionResponse) *MockProvider {
	m.CompletionResponses = append(m.CompletionResponses, response)
	m.Errors = append(m.Errors, nil)
	return m
}

// AddContent queues a plain text completion.
func (m *MockProvider) AddContent(content string) *MockProvider {
	return m.AddCompletionResponse(MockCompletionResponse(content))
}

// AddError adds an error to return
func (m *MockProvider) AddError(err error) *MockProvider {
	m.Errors = append(m.Errors, err)
	m.CompletionResponses = append(m.CompletionResponses, nil)
	return m
}

// Reset resets the mock provider
func (m *MockProvider) Reset() {
	m.CompletionResponses = nil
	m.Errors = nil
	m.CompletionCalls = nil
	m.currentIndex = 0
}

// MockCompletionResponse creates a mock completion response
func MockCompletionResponse(content string) *CompletionResponse {
	return &CompletionResponse{
		Content:      content,
		FinishReason: "stop",
		Usage: Usage{
			PromptTokens:     10,
			CompletionTokens: len(content) / 4, // Rough token estimate
			TotalTokens:      10 + len(content)/4,
		},
	}
}
