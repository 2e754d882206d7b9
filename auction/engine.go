// Package auction implements bid admission and auction bookkeeping. The
// engine owns all auction state: routers submit through it, workers read
// through it, nothing mutates the store directly. It deliberately does not
// pick winners; scoring belongs to the execute worker.
package auction

import (
	"context"
	"hash/fnv"
	"math/big"
	"strings"
	"sync"
	"time"

	"goxbridge/registry"
	"goxbridge/types"
	"goxbridge/xerr"

	ethav "github.com/KOREAN139/ethereum-address-validator"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const lockStripes = 64

type Engine struct {
	logger     *zap.SugaredLogger
	transfers  registry.TransferStore
	auctions   registry.AuctionStore
	adminToken string
	waitTime   time.Duration
	now        func() time.Time

	// per-transfer admission serialization; cross-transfer ops run in parallel
	locks [lockStripes]sync.Mutex
}

func NewEngine(
	logger *zap.SugaredLogger,
	transfers registry.TransferStore,
	auctions registry.AuctionStore,
	adminToken string,
	waitTime time.Duration,
) *Engine {
	return &Engine{
		logger:     logger,
		transfers:  transfers,
		auctions:   auctions,
		adminToken: adminToken,
		waitTime:   waitTime,
		now:        time.Now,
	}
}

func (e *Engine) lockFor(transferID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(transferID)))
	return &e.locks[h.Sum32()%lockStripes]
}

// StoreBid validates and admits a router bid. First valid bid for a transfer
// opens the auction (None -> Queued) and starts the bidding window.
func (e *Engine) StoreBid(ctx context.Context, bid *types.Bid) error {
	if bid == nil || bid.TransferID == "" {
		return xerr.New(xerr.KindParamsInvalid, "bid has no transfer id")
	}
	if bid.Round == 0 {
		return xerr.New(xerr.KindInvalidAuctionRound, "bid round must be positive",
			xerr.WithContext(map[string]any{"transferId": bid.TransferID}))
	}
	if err := ethav.Validate(common.HexToAddress(bid.Router).Hex()); err != nil {
		return xerr.New(xerr.KindParamsInvalid, "invalid router address",
			xerr.WithContext(map[string]any{"router": bid.Router}), xerr.WithCause(err))
	}
	fee, ok := new(big.Int).SetString(bid.Fee, 10)
	if !ok || fee.Sign() < 0 {
		return xerr.New(xerr.KindAmountInvalid, "bid fee is not a valid amount",
			xerr.WithContext(map[string]any{"transferId": bid.TransferID, "fee": bid.Fee}))
	}

	signer, err := recoverBidSigner(bid.TransferID, bid.Round, bid.Signature)
	if err != nil || signer == nil {
		return xerr.New(xerr.KindParamsInvalid, "malformed bid signature",
			xerr.WithContext(map[string]any{"transferId": bid.TransferID, "router": bid.Router}), xerr.WithCause(err))
	}
	if !strings.EqualFold(signer.Hex(), bid.Router) {
		return xerr.New(xerr.KindParamsInvalid, "bid signature does not match router",
			xerr.WithContext(map[string]any{"transferId": bid.TransferID, "router": bid.Router, "signer": signer.Hex()}))
	}

	lock := e.lockFor(bid.TransferID)
	lock.Lock()
	defer lock.Unlock()

	transfer, err := e.transfers.Get(ctx, bid.TransferID)
	if err != nil {
		if xerr.KindOf(err) == xerr.KindNotFound {
			return xerr.New(xerr.KindMissingTransferContext, "no transfer known for bid",
				xerr.WithContext(map[string]any{"transferId": bid.TransferID}))
		}
		return err
	}
	if transfer.Status != types.TransferNone {
		return xerr.New(xerr.KindAuctionExpired, "transfer already progressed on destination",
			xerr.WithContext(map[string]any{"transferId": bid.TransferID, "status": transfer.Status}))
	}

	now := e.now()

	auction, err := e.auctions.GetAuction(ctx, bid.TransferID)
	if xerr.KindOf(err) == xerr.KindNotFound {
		auction = &types.Auction{
			TransferID: bid.TransferID,
			Status:     types.AuctionQueued,
			Round:      1,
			Expiry:     now.Add(e.waitTime).Unix(),
		}
		err = nil
	}
	if err != nil {
		return err
	}

	if auction.Status.Terminal() || auction.Status == types.AuctionSent {
		return xerr.New(xerr.KindAuctionExpired, "auction no longer accepts bids",
			xerr.WithContext(map[string]any{"transferId": bid.TransferID, "status": auction.Status}))
	}
	if auction.Expired(now) {
		// lazy expiry: persist the abandonment on the way out
		auction.Status = types.AuctionCancelled
		if saveErr := e.auctions.SaveAuction(ctx, auction); saveErr != nil {
			e.logger.Warnw("cannot persist expired auction", "transferId", bid.TransferID, "err", saveErr)
		}
		return xerr.New(xerr.KindAuctionExpired, "auction bidding window closed",
			xerr.WithContext(map[string]any{"transferId": bid.TransferID, "expiry": auction.Expiry}))
	}

	switch {
	case bid.Round == auction.Round:
	case bid.Round == auction.Round+1:
		auction.Round = bid.Round
	default:
		return xerr.New(xerr.KindInvalidAuctionRound, "bid round is stale or too far ahead",
			xerr.WithContext(map[string]any{"transferId": bid.TransferID, "bidRound": bid.Round, "round": auction.Round}))
	}

	for _, existing := range auction.Bids {
		if existing.Round == bid.Round && strings.EqualFold(existing.Router, bid.Router) {
			return xerr.New(xerr.KindParamsInvalid, "duplicate bid from router in round",
				xerr.WithContext(map[string]any{"transferId": bid.TransferID, "router": bid.Router, "round": bid.Round}))
		}
	}

	stored := *bid
	stored.ID = uuid.New().String()
	stored.Router = common.HexToAddress(bid.Router).Hex()
	stored.ReceivedAt = now
	auction.Bids = append(auction.Bids, stored)

	if err := e.auctions.SaveAuction(ctx, auction); err != nil {
		return err
	}

	e.logger.Infow("bid stored",
		"transferId", bid.TransferID, "router", stored.Router, "round", bid.Round, "fee", bid.Fee)
	return nil
}

// GetQueuedTransfers lists transfers with an open auction, expiring stale
// ones on the way. Callers still re-check expiry before acting.
func (e *Engine) GetQueuedTransfers(ctx context.Context) ([]string, error) {
	queued, err := e.auctions.ListAuctionsByStatus(ctx, types.AuctionQueued)
	if err != nil {
		return nil, err
	}

	now := e.now()
	out := make([]string, 0, len(queued))
	for _, auction := range queued {
		if auction.Expired(now) {
			auction.Status = types.AuctionCancelled
			if err := e.auctions.SaveAuction(ctx, auction); err != nil {
				e.logger.Warnw("cannot persist expired auction", "transferId", auction.TransferID, "err", err)
			}
			continue
		}
		out = append(out, auction.TransferID)
	}
	return out, nil
}

func (e *Engine) GetAuction(ctx context.Context, transferID string) (*types.Auction, error) {
	return e.auctions.GetAuction(ctx, transferID)
}

func (e *Engine) GetAuctionStatus(ctx context.Context, transferID string) (types.AuctionStatus, error) {
	auction, err := e.auctions.GetAuction(ctx, transferID)
	if err != nil {
		if xerr.KindOf(err) == xerr.KindNotFound {
			return types.AuctionNone, nil
		}
		return types.AuctionNone, err
	}
	if auction.Expired(e.now()) {
		return types.AuctionCancelled, nil
	}
	return auction.Status, nil
}

// MarkSent transitions Queued -> Sent once the execute request is accepted by
// the relayer. Any other starting state is a conflict.
func (e *Engine) MarkSent(ctx context.Context, transferID string) error {
	lock := e.lockFor(transferID)
	lock.Lock()
	defer lock.Unlock()

	auction, err := e.auctions.GetAuction(ctx, transferID)
	if err != nil {
		return err
	}
	if auction.Status != types.AuctionQueued {
		return xerr.New(xerr.KindSanityCheckFailed, "auction is not queued",
			xerr.WithContext(map[string]any{"transferId": transferID, "status": auction.Status}))
	}
	auction.Status = types.AuctionSent
	return e.auctions.SaveAuction(ctx, auction)
}

// SyncTransferStatus reconciles auction state against the destination-chain
// lifecycle observed by the pollers. Terminal transfer statuses close any
// open auction.
func (e *Engine) SyncTransferStatus(ctx context.Context, transferID string, status types.TransferStatus) error {
	lock := e.lockFor(transferID)
	lock.Lock()
	defer lock.Unlock()

	auction, err := e.auctions.GetAuction(ctx, transferID)
	if err != nil {
		if xerr.KindOf(err) == xerr.KindNotFound {
			return nil
		}
		return err
	}
	if auction.Status.Terminal() {
		return nil
	}

	var next types.AuctionStatus
	switch status {
	case types.TransferExecuted, types.TransferReconciled:
		next = types.AuctionExecuted
	case types.TransferCompleted:
		next = types.AuctionCompleted
	default:
		return nil
	}

	auction.Status = next
	if err := e.auctions.SaveAuction(ctx, auction); err != nil {
		return err
	}
	e.logger.Infow("auction closed by chain event", "transferId", transferID, "status", next)
	return nil
}

// ClearCache purges queued and expired auctions. Operator recovery hatch, not
// part of the normal flow.
func (e *Engine) ClearCache(ctx context.Context, adminToken string) error {
	if adminToken == "" || adminToken != e.adminToken {
		return xerr.New(xerr.KindUnauthorized, "bad admin token", xerr.WithSeverity(xerr.SeverityWarn))
	}

	for _, status := range []types.AuctionStatus{types.AuctionQueued, types.AuctionCancelled} {
		auctions, err := e.auctions.ListAuctionsByStatus(ctx, status)
		if err != nil {
			return err
		}
		for _, auction := range auctions {
			if err := e.auctions.DeleteAuction(ctx, auction.TransferID); err != nil {
				return err
			}
		}
	}

	e.logger.Warnw("auction cache cleared by operator")
	return nil
}
