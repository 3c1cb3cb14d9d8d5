package entities

// GatewayOrder is the gateway's handle for a checkout.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type GatewayRefund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
