// Package registry defines the transfer and auction stores shared by the
// workers. Two implementations exist: the in-process store below and the
// Redis-backed one in the redis package for multi-process deployments.
package registry

import (
	"context"

	"goxbridge/types"
)

// TransferStore is the keyed transfer registry. Per-transfer write
// serialization is the caller's responsibility (the auction engine and the
// pollers hold a per-key lock around read-modify-write sequences).
type TransferStore interface {
	// Upsert merges the transfer into the registry. Origin and destination
	// facets merge independently; status never regresses.
	Upsert(ctx context.Context, transfer *types.Transfer) error
	Get(ctx context.Context, transferID string) (*types.Transfer, error)
	// SetStatus is a compare-and-set: it fails silently into a no-op when the
	// new status ranks below the stored one.
	SetStatus(ctx context.Context, transferID string, status types.TransferStatus) error
	ListByDomain(ctx context.Context, domain string) ([]*types.Transfer, error)
}

// AuctionStore persists per-transfer auction state. Owned exclusively by the
// auction engine.
type AuctionStore interface {
	SaveAuction(ctx context.Context, auction *types.Auction) error
	GetAuction(ctx context.Context, transferID string) (*types.Auction, error)
	ListAuctionsByStatus(ctx context.Context, status types.AuctionStatus) ([]*types.Auction, error)
	DeleteAuction(ctx context.Context, transferID string) error
}
