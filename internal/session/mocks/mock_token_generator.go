package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockTokenGenerator is a mock implementation of session.TokenGenerator
type MockTokenGenerator struct {
	mock.Mock
}

func (m *MockTokenGenerator) NewID() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockTokenGenerator) NewToken() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}
