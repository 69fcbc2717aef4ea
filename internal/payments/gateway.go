package payments

import "context"

// Gateway defines a common interface for all payment providers
type Gateway interface {
	Initiate(ctx context.Context, req PaymentRequest) (PaymentResponse, error)
	Verify(ctx context.Context, txRef string) (VerifyResponse, error)
}
