package metrics

import "github.com/stretchr/testify/mock"

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) ConnOpened() {
	m.Called()
}

func (m *MockProvider) ConnClosed() {
	m.Called()
}

func (m *MockProvider) RoomCount(n int) {
	m.Called(n)
}

func (m *MockProvider) EventReceived(event string) {
	m.Called(event)
}

func (m *MockProvider) MessageSent(kind string) {
	m.Called(kind)
}

func (m *MockProvider) EventBroadcast(event string) {
	m.Called(event)
}

// NopProvider is a Provider that records nothing. Tests that don't assert
// on metrics use it to avoid wiring mock expectations for every call.
type NopProvider struct{}

func (NopProvider) ConnOpened()           {}
func (NopProvider) ConnClosed()           {}
func (NopProvider) RoomCount(int)         {}
func (NopProvider) EventReceived(string)  {}
func (NopProvider) MessageSent(string)    {}
func (NopProvider) EventBroadcast(string) {}
