package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/rfm-segmenter/internal/model"
)

// MockWriter records what a Writer would publish without calling the API.
// Each successful Write renders both tabs exactly as Writer sends them.
type MockWriter struct {
	WriteFunc      func(ctx context.Context, result *model.Result) error
	LastResult     *model.Result
	Tabs           map[string][][]any
	WriteCalls     []WriteCall
	WriteCallCount int
	mu             sync.Mutex
}

// WriteCall is one recorded call to Write.
type WriteCall struct {
	Error  error
	Result *model.Result
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{
		Tabs: make(map[string][][]any),
	}
}

// Write implements service.ReportWriter.
func (m *MockWriter) Write(ctx context.Context, result *model.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount++
	m.LastResult = result

	var err error
	if m.WriteFunc != nil {
		err = m.WriteFunc(ctx, result)
	}
	m.WriteCalls = append(m.WriteCalls, WriteCall{Result: result, Error: err})
	if err != nil {
		return err
	}

	m.Tabs[CustomersTab] = prepareCustomerValues(result)
	m.Tabs[SummaryTab] = prepareSummaryValues(result)
	return nil
}

// Tab returns the rows last published to tab.
func (m *MockWriter) Tab(tab string) [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Tabs[tab]
}

// Reset clears all recorded calls and tabs.
func (m *MockWriter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount = 0
	m.WriteCalls = nil
	m.LastResult = nil
	m.Tabs = make(map[string][][]any)
}

// GetWriteCalls returns a copy of all write calls.
func (m *MockWriter) GetWriteCalls() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]WriteCall, len(m.WriteCalls))
	copy(calls, m.WriteCalls)
	return calls
}

// SetWriteError makes every later Write fail with err.
func (m *MockWriter) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteFunc = func(context.Context, *model.Result) error {
		return err
	}
}
