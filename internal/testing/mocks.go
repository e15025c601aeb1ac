package testing

import (
	"context"
	"sync"

	"github.com/hartfield/compass/internal/domain"
)

// MockEconomicProvider is a mock implementation of domain.EconomicProvider for testing
type MockEconomicProvider struct {
	mu         sync.RWMutex
	indicators *domain.EconomicIndicators
	err        error
}

// NewMockEconomicProvider creates a new mock economic provider
func NewMockEconomicProvider() *MockEconomicProvider {
	return &MockEconomicProvider{}
}

// SetIndicators sets the indicator bundle to return
func (m *MockEconomicProvider) SetIndicators(indicators *domain.EconomicIndicators) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indicators = indicators
}

// SetError sets the error to return
func (m *MockEconomicProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// GetEconomicIndicators returns the configured bundle or error
func (m *MockEconomicProvider) GetEconomicIndicators(ctx context.Context) (*domain.EconomicIndicators, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.indicators, nil
}

// MockLiveMarketProvider is a mock implementation of domain.LiveMarketProvider for testing
type MockLiveMarketProvider struct {
	mu     sync.RWMutex
	bundle *domain.LiveMarketData
	err    error
}

// NewMockLiveMarketProvider creates a new mock live market provider
func NewMockLiveMarketProvider() *MockLiveMarketProvider {
	return &MockLiveMarketProvider{}
}

// SetBundle sets the rate boards to return
func (m *MockLiveMarketProvider) SetBundle(bundle *domain.LiveMarketData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bundle = bundle
}

// SetError sets the error to return
func (m *MockLiveMarketProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// GetLiveMarketData returns the configured boards or error.
// Tiers without live data access get nothing, matching the contract of
// the real provider.
func (m *MockLiveMarketProvider) GetLiveMarketData(ctx context.Context, tier domain.Tier) (*domain.LiveMarketData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !domain.AccessForTier(tier).LiveData {
		return nil, nil
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.bundle, nil
}
