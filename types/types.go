package types

import "time"

// TransferStatus tracks the destination-side lifecycle of a transfer as
// observed by the indexers. Order matters: a transfer never moves backwards.
type TransferStatus string

const (
	TransferNone       TransferStatus = "none"
	TransferExecuted   TransferStatus = "executed"
	TransferReconciled TransferStatus = "reconciled"
	TransferCompleted  TransferStatus = "completed"
)

var transferStatusRank = map[TransferStatus]int{
	TransferNone:       0,
	TransferExecuted:   1,
	TransferReconciled: 2,
	TransferCompleted:  3,
}

// Rank returns the lifecycle position of the status, -1 for unknown values.
func (s TransferStatus) Rank() int {
	r, ok := transferStatusRank[s]
	if !ok {
		return -1
	}
	return r
}

// Terminal reports whether the transfer can still change.
func (s TransferStatus) Terminal() bool {
	return s == TransferCompleted
}

// AuctionStatus is the off-chain auction state machine per transfer.
type AuctionStatus string

const (
	AuctionNone      AuctionStatus = "none"
	AuctionQueued    AuctionStatus = "queued"
	AuctionSent      AuctionStatus = "sent"
	AuctionExecuted  AuctionStatus = "executed"
	AuctionCompleted AuctionStatus = "completed"
	AuctionCancelled AuctionStatus = "cancelled"
)

// Terminal reports whether the auction accepts no further bids.
func (s AuctionStatus) Terminal() bool {
	switch s {
	case AuctionExecuted, AuctionCompleted, AuctionCancelled:
		return true
	}
	return false
}

// XParams carries the user-supplied routing parameters of a cross-chain call.
// They are identical on both sides of a transfer.
type XParams struct {
	To                string `json:"to"`
	CallData          string `json:"callData"`
	Callback          string `json:"callback"`
	CallbackFee       string `json:"callbackFee"`
	RelayerFee        string `json:"relayerFee"`
	ForceSlow         bool   `json:"forceSlow"`
	ReceiveLocal      bool   `json:"receiveLocal"`
	OriginDomain      string `json:"originDomain"`
	DestinationDomain string `json:"destinationDomain"`
	Recovery          string `json:"recovery"`
	Agent             string `json:"agent"`
	SlippageTol       string `json:"slippageTol"`
}

// XCall is the origin-chain call that created the transfer.
type XCall struct {
	Caller          string `json:"caller"`
	TransactionHash string `json:"transactionHash"`
	Timestamp       uint64 `json:"timestamp"`
	GasPrice        string `json:"gasPrice"`
	GasLimit        string `json:"gasLimit"`
	BlockNumber     uint64 `json:"blockNumber"`
}

// OriginAssets are the asset amounts observed at origin.
type OriginAssets struct {
	TransactingAsset  string `json:"transactingAsset"`
	TransactingAmount string `json:"transactingAmount"`
	BridgedAsset      string `json:"bridgedAsset"`
	BridgedAmount     string `json:"bridgedAmount"`
}

// OriginFacet is the origin-chain view of a transfer.
type OriginFacet struct {
	Chain  string       `json:"chain"`
	Assets OriginAssets `json:"assets"`
	XCall  XCall        `json:"xcall"`
}

// DestinationAssets are the asset amounts observed at destination. The
// transacting pair is only known after execution.
type DestinationAssets struct {
	TransactingAsset  string `json:"transactingAsset,omitempty"`
	TransactingAmount string `json:"transactingAmount,omitempty"`
	LocalAsset        string `json:"localAsset"`
	LocalAmount       string `json:"localAmount"`
}

// ChainTx is a destination-chain transaction attributed to the transfer,
// either the router execution or the reconciliation.
type ChainTx struct {
	Caller          string `json:"caller"`
	TransactionHash string `json:"transactionHash"`
	Timestamp       uint64 `json:"timestamp"`
	GasPrice        string `json:"gasPrice"`
	GasLimit        string `json:"gasLimit"`
	BlockNumber     uint64 `json:"blockNumber"`
}

// DestinationFacet is the destination-chain view of a transfer.
type DestinationFacet struct {
	Chain     string            `json:"chain"`
	Status    TransferStatus    `json:"status"`
	Routers   []string          `json:"routers"`
	Assets    DestinationAssets `json:"assets"`
	Execute   *ChainTx          `json:"execute,omitempty"`
	Reconcile *ChainTx          `json:"reconcile,omitempty"`
}

// OriginTransfer is a transfer as indexed on its origin chain only.
type OriginTransfer struct {
	TransferID string      `json:"transferId"`
	Nonce      uint64      `json:"nonce"`
	XParams    XParams     `json:"xparams"`
	Origin     OriginFacet `json:"origin"`
}

// DestinationTransfer is a transfer as indexed on its destination chain only.
type DestinationTransfer struct {
	TransferID  string           `json:"transferId"`
	Nonce       uint64           `json:"nonce"`
	XParams     XParams          `json:"xparams"`
	Destination DestinationFacet `json:"destination"`
}

// Transfer is the registry record merging both facets. Origin and Destination
// are written by disjoint pollers and never collide.
type Transfer struct {
	TransferID  string            `json:"transferId"`
	Nonce       uint64            `json:"nonce"`
	XParams     XParams           `json:"xparams"`
	Status      TransferStatus    `json:"status"`
	Origin      *OriginFacet      `json:"origin,omitempty"`
	Destination *DestinationFacet `json:"destination,omitempty"`
	TsUpdated   int64             `json:"tsUpdated"`
}

// Bid is a router's signed offer to fulfil a transfer in a given round.
type Bid struct {
	ID         string    `json:"id"`
	TransferID string    `json:"transferId"`
	Router     string    `json:"router"`
	Fee        string    `json:"fee"`
	Round      uint64    `json:"round"`
	Signature  string    `json:"signature"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// Auction is the per-transfer auction snapshot. Bids are kept in admission
// order within rounds.
type Auction struct {
	TransferID string        `json:"transferId"`
	Status     AuctionStatus `json:"status"`
	Bids       []Bid         `json:"bids"`
	Round      uint64        `json:"round"`
	Expiry     int64         `json:"expiry"`
}

// Expired reports lazy expiry relative to now. Auctions past Queued already
// left the bidding window and are not subject to it.
func (a *Auction) Expired(now time.Time) bool {
	return a.Status == AuctionQueued && a.Expiry > 0 && now.Unix() > a.Expiry
}
