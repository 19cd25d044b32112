package providersvc

import (
	"context"
	"fmt"
	"sync"

	"github.com/trezcool/soundsteps/core"
)

type ActionKind string

const (
	ActionText    ActionKind = "sms"
	ActionCall    ActionKind = "call"
	ActionAirtime ActionKind = "airtime"
)

// Action is one recorded outbound request in mock mode.
type Action struct {
	Kind     ActionKind
	To       string
	From     string
	Body     string
	Amount   string
	Currency string
}

// MockService is the deterministic adapter used when provider credentials are
// absent: it logs each action, records it for inspection and returns a
// synthetic success.
type MockService struct {
	logger core.Logger

	mu      sync.Mutex
	actions []Action
	seq     int
}

var _ core.Provider = (*MockService)(nil)

func NewMockService(logger core.Logger) *MockService {
	return &MockService{logger: logger}
}

func (svc *MockService) SendText(_ context.Context, to, body string) (core.ProviderResult, error) {
	svc.logger.Info(fmt.Sprintf("mock sms to %s: %.50s", to, body))
	return svc.record(Action{Kind: ActionText, To: to, Body: body}), nil
}

func (svc *MockService) PlaceCall(_ context.Context, to, from string) (core.ProviderResult, error) {
	svc.logger.Info(fmt.Sprintf("mock call to %s from %s", to, from))
	return svc.record(Action{Kind: ActionCall, To: to, From: from}), nil
}

func (svc *MockService) SendAirtime(_ context.Context, to, amount, currency string) (core.ProviderResult, error) {
	svc.logger.Info(fmt.Sprintf("mock airtime to %s: %s %s", to, currency, amount))
	return svc.record(Action{Kind: ActionAirtime, To: to, Amount: amount, Currency: currency}), nil
}

func (svc *MockService) record(a Action) core.ProviderResult {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.seq++
	svc.actions = append(svc.actions, a)
	return core.ProviderResult{
		ID:     fmt.Sprintf("mock-%s-%d", a.Kind, svc.seq),
		Status: "Success",
		Mock:   true,
	}
}

// Actions returns a copy of everything recorded so far.
func (svc *MockService) Actions() []Action {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	out := make([]Action, len(svc.actions))
	copy(out, svc.actions)
	return out
}

// Reset clears the recorded actions.
func (svc *MockService) Reset() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.actions = svc.actions[:0]
}
