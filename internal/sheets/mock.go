package sheets

import (
	"context"
	"sync"

	"google.golang.org/api/sheets/v4"
)

// MockService is an in-memory Service for testing.
type MockService struct {
	FindSheetErr    error
	AddSheetErr     error
	ClearValuesErr  error
	UpdateValuesErr error
	BatchUpdateErr  error
	Sheets          map[string]int64
	Cleared         []string
	Written         [][]*sheets.ValueRange
	Requests        [][]*sheets.Request
	Calls           []string
	nextID          int64
	mu              sync.Mutex
}

// NewMockService creates a mock holding the given existing tabs.
func NewMockService(existing map[string]int64) *MockService {
	if existing == nil {
		existing = make(map[string]int64)
	}
	return &MockService{
		Sheets: existing,
		nextID: 1000,
	}
}

// FindSheet implements Service.
func (m *MockService) FindSheet(_ context.Context, _ string, title string) (*SheetInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, "FindSheet")
	if m.FindSheetErr != nil {
		return nil, m.FindSheetErr
	}
	if id, ok := m.Sheets[title]; ok {
		return &SheetInfo{ID: id, Title: title}, nil
	}
	return nil, nil //nolint:nilnil // absent tab is not an error
}

// AddSheet implements Service.
func (m *MockService) AddSheet(_ context.Context, _ string, title string) (*SheetInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, "AddSheet")
	if m.AddSheetErr != nil {
		return nil, m.AddSheetErr
	}
	m.nextID++
	m.Sheets[title] = m.nextID
	return &SheetInfo{ID: m.nextID, Title: title}, nil
}

// ClearValues implements Service.
func (m *MockService) ClearValues(_ context.Context, _ string, a1Range string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, "ClearValues")
	if m.ClearValuesErr != nil {
		return m.ClearValuesErr
	}
	m.Cleared = append(m.Cleared, a1Range)
	return nil
}

// UpdateValues implements Service.
func (m *MockService) UpdateValues(_ context.Context, _ string, data []*sheets.ValueRange) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, "UpdateValues")
	if m.UpdateValuesErr != nil {
		return m.UpdateValuesErr
	}
	m.Written = append(m.Written, data)
	return nil
}

// BatchUpdate implements Service.
func (m *MockService) BatchUpdate(_ context.Context, _ string, requests []*sheets.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, "BatchUpdate")
	if m.BatchUpdateErr != nil {
		return m.BatchUpdateErr
	}
	m.Requests = append(m.Requests, requests)
	return nil
}

// GetCalls returns a copy of the recorded method names.
func (m *MockService) GetCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]string, len(m.Calls))
	copy(calls, m.Calls)
	return calls
}
