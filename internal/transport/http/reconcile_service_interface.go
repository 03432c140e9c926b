package http

import (
	"context"

	"recon945/internal/services"
)

// ReconcileServiceInterface defines the reconciliation operations the
// handler depends on
type ReconcileServiceInterface interface {
	Reconcile(ctx context.Context, shipmentHistory, edib2bi, edi940 []byte) (*services.ReconcileResult, error)
}
