package payments

type PaymentRequest struct {
	TxRef         string
	Amount        float64
	Currency      string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

type PaymentResponse struct {
	// PaymentLink is the hosted checkout page the customer is redirected to.
	PaymentLink string
	ProviderRef string
}

type VerifyResponse struct {
	Success  bool
	Status   string // successful | pending | failed | cancelled
	Amount   float64
	Currency string
	TxRef    string
}
