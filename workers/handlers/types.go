package handlers

type APIError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type APIMessage struct {
	Message string `json:"message"`
}

type BidRequest struct {
	TransferID string `json:"transferId"`
	Router     string `json:"router"`
	Fee        string `json:"fee"`
	Round      uint64 `json:"round"`
	Signature  string `json:"signature"`
}

type QueuedResponse struct {
	Queued []string `json:"queued"`
}

type TransferRow struct {
	TransferID string `json:"transferId"`
	Status     string `json:"status"`
}

type TransfersResponse struct {
	Transfers []TransferRow `json:"transfers"`
}

type ClearCacheRequest struct {
	AdminToken string `json:"adminToken"`
}
