package http

import (
	"context"

	"cotpulse/internal/cot"
	"cotpulse/internal/percentile"
	"cotpulse/internal/services"
	v1 "cotpulse/pkg/contracts/api/v1"
)

// COTServiceInterface defines the service contract the COT handler depends
// on. Defined at the consumer so handler tests can substitute a stub.
type COTServiceInterface interface {
	QuerySingle(ctx context.Context, symbol string, class cot.TraderClass, window percentile.Window) v1.Envelope
	QueryBatch(ctx context.Context, class cot.TraderClass, window percentile.Window) v1.Envelope
	Refresh() v1.RefreshResult
	Status() services.ServiceStatus
}
