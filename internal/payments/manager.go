package payments

import (
	"context"
	"fmt"
)

type Manager struct {
	gateways map[string]Gateway
}

func NewManager() *Manager {
	return &Manager{gateways: make(map[string]Gateway)}
}

func (m *Manager) Register(name string, gateway Gateway) {
	m.gateways[name] = gateway
}

func (m *Manager) Initiate(ctx context.Context, provider string, req PaymentRequest) (PaymentResponse, error) {
	gateway, ok := m.gateways[provider]
	if !ok {
		return PaymentResponse{}, fmt.Errorf("gateway not registered: %s", provider)
	}
	return gateway.Initiate(ctx, req)
}

func (m *Manager) Verify(ctx context.Context, provider, txRef string) (VerifyResponse, error) {
	gateway, ok := m.gateways[provider]
	if !ok {
		return VerifyResponse{}, fmt.Errorf("gateway not registered: %s", provider)
	}
	return gateway.Verify(ctx, txRef)
}
