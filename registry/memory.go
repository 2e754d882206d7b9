package registry

import (
	"context"
	"sync"
	"time"

	"goxbridge/types"
	"goxbridge/xerr"
)

// Memory is the in-process store. Safe for concurrent use.
type Memory struct {
	mu        sync.RWMutex
	transfers map[string]*types.Transfer
	auctions  map[string]*types.Auction
}

func NewMemory() *Memory {
	return &Memory{
		transfers: map[string]*types.Transfer{},
		auctions:  map[string]*types.Auction{},
	}
}

var _ TransferStore = (*Memory)(nil)
var _ AuctionStore = (*Memory)(nil)

func (m *Memory) Upsert(_ context.Context, transfer *types.Transfer) error {
	if transfer == nil || transfer.TransferID == "" {
		return xerr.New(xerr.KindParamsInvalid, "transfer has no id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.transfers[transfer.TransferID]
	if !ok {
		cp := *transfer
		if cp.Status == "" {
			cp.Status = types.TransferNone
		}
		cp.TsUpdated = time.Now().Unix()
		m.transfers[transfer.TransferID] = &cp
		return nil
	}

	Merge(existing, transfer)
	return nil
}

func (m *Memory) Get(_ context.Context, transferID string) (*types.Transfer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	transfer, ok := m.transfers[transferID]
	if !ok {
		return nil, xerr.New(xerr.KindNotFound, "transfer not found",
			xerr.WithContext(map[string]any{"transferId": transferID}), xerr.WithSeverity(xerr.SeverityDebug))
	}
	cp := *transfer
	return &cp, nil
}

func (m *Memory) SetStatus(_ context.Context, transferID string, status types.TransferStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	transfer, ok := m.transfers[transferID]
	if !ok {
		return xerr.New(xerr.KindNotFound, "transfer not found",
			xerr.WithContext(map[string]any{"transferId": transferID}))
	}
	if status.Rank() < 0 {
		return xerr.New(xerr.KindParamsInvalid, "unknown transfer status",
			xerr.WithContext(map[string]any{"status": status}))
	}
	if status.Rank() <= transfer.Status.Rank() {
		return nil
	}
	transfer.Status = status
	transfer.TsUpdated = time.Now().Unix()
	return nil
}

func (m *Memory) ListByDomain(_ context.Context, domain string) ([]*types.Transfer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*types.Transfer
	for _, transfer := range m.transfers {
		if transfer.XParams.OriginDomain == domain {
			cp := *transfer
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *Memory) SaveAuction(_ context.Context, auction *types.Auction) error {
	if auction == nil || auction.TransferID == "" {
		return xerr.New(xerr.KindParamsInvalid, "auction has no transfer id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *auction
	cp.Bids = append([]types.Bid(nil), auction.Bids...)
	m.auctions[auction.TransferID] = &cp
	return nil
}

func (m *Memory) GetAuction(_ context.Context, transferID string) (*types.Auction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	auction, ok := m.auctions[transferID]
	if !ok {
		return nil, xerr.New(xerr.KindNotFound, "auction not found",
			xerr.WithContext(map[string]any{"transferId": transferID}), xerr.WithSeverity(xerr.SeverityDebug))
	}
	cp := *auction
	cp.Bids = append([]types.Bid(nil), auction.Bids...)
	return &cp, nil
}

func (m *Memory) ListAuctionsByStatus(_ context.Context, status types.AuctionStatus) ([]*types.Auction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*types.Auction
	for _, auction := range m.auctions {
		if auction.Status == status {
			cp := *auction
			cp.Bids = append([]types.Bid(nil), auction.Bids...)
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *Memory) DeleteAuction(_ context.Context, transferID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.auctions, transferID)
	return nil
}

// Merge applies the incoming facets onto the stored record. The two facets
// are written by disjoint pollers so last-writer-wins per facet is safe;
// status only moves forward.
func Merge(dst, src *types.Transfer) {
	if src.Origin != nil {
		cp := *src.Origin
		dst.Origin = &cp
	}
	if src.Destination != nil {
		cp := *src.Destination
		dst.Destination = &cp
	}
	if src.Nonce != 0 {
		dst.Nonce = src.Nonce
	}
	if src.XParams.OriginDomain != "" {
		dst.XParams = src.XParams
	}
	if src.Status.Rank() > dst.Status.Rank() {
		dst.Status = src.Status
	}
	dst.TsUpdated = time.Now().Unix()
}
