package core

import "context"

type (
	// ProviderResult is the outcome of a single outbound provider action.
	ProviderResult struct {
		ID     string // provider-side message/call/transaction id
		Status string
		Mock   bool
	}

	// Provider abstracts the telephony/SMS/airtime transport.
	// The flow engines and the reward pipeline are written against this
	// interface only; the live Africa's Talking client and the deterministic
	// mock are selected once at startup based on credential presence.
	Provider interface {
		SendText(ctx context.Context, to, body string) (ProviderResult, error)
		PlaceCall(ctx context.Context, to, from string) (ProviderResult, error)
		SendAirtime(ctx context.Context, to, amount, currency string) (ProviderResult, error)
	}
)
