package registrar

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ruteri/registrar-controller/interfaces"
)

// MockGateway mocks the interfaces.Gateway interface
type MockGateway struct {
	mock.Mock
}

// Read mocks the Read method
func (m *MockGateway) Read(ctx context.Context, method string, params []interface{}, opts interfaces.CallOptions) (interfaces.ResultMap, error) {
	args := m.Called(ctx, method, params, opts)
	result, _ := args.Get(0).(interfaces.ResultMap)
	return result, args.Error(1)
}

// Write mocks the Write method
func (m *MockGateway) Write(ctx context.Context, method string, params []interface{}, opts interfaces.CallOptions) (*interfaces.TransactionDescriptor, error) {
	args := m.Called(ctx, method, params, opts)
	tx, _ := args.Get(0).(*interfaces.TransactionDescriptor)
	return tx, args.Error(1)
}
