package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// MockChannel is a mock implementation of protocol.ChannelAdapter.
type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Send(ctx context.Context, sessionID, contactID string, payload protocol.SendPayload) (*protocol.DeliveryResult, error) {
	args := m.Called(ctx, sessionID, contactID, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*protocol.DeliveryResult), args.Error(1)
}

// MockLabels is a mock implementation of protocol.LabelService.
type MockLabels struct {
	mock.Mock
}

func (m *MockLabels) Mutate(ctx context.Context, tenantID, contactID, action string, values []string) error {
	args := m.Called(ctx, tenantID, contactID, action, values)

	return args.Error(0)
}

func (m *MockLabels) List(ctx context.Context, contactID string) ([]string, error) {
	args := m.Called(ctx, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]string), args.Error(1)
}

// MockMediaResolver is a mock implementation of protocol.MediaResolver.
type MockMediaResolver struct {
	mock.Mock
}

func (m *MockMediaResolver) Resolve(ctx context.Context, ref string) ([]byte, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]byte), args.Error(1)
}

// MockBrowser is a mock implementation of protocol.BrowserDriver.
type MockBrowser struct {
	mock.Mock
}

func (m *MockBrowser) Navigate(ctx context.Context, url string, wait protocol.WaitSpec) (protocol.Page, error) {
	args := m.Called(ctx, url, wait)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(protocol.Page), args.Error(1)
}

func (m *MockBrowser) RunScript(ctx context.Context, page protocol.Page, script string) (any, error) {
	args := m.Called(ctx, page, script)

	return args.Get(0), args.Error(1)
}

func (m *MockBrowser) Extract(ctx context.Context, page protocol.Page, selector, extractType, attribute string) (any, error) {
	args := m.Called(ctx, page, selector, extractType, attribute)

	return args.Get(0), args.Error(1)
}

func (m *MockBrowser) Screenshot(ctx context.Context, page protocol.Page) ([]byte, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]byte), args.Error(1)
}

// MockPage is a mock implementation of protocol.Page.
type MockPage struct {
	mock.Mock
}

func (m *MockPage) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
