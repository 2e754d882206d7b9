package workers

import (
	"context"
	"math/big"
	"sort"
	"time"

	"goxbridge/auction"
	"goxbridge/chainrpc"
	"goxbridge/config"
	"goxbridge/registry"
	"goxbridge/relayer"
	"goxbridge/types"
	"goxbridge/xerr"

	"go.uber.org/zap"
)

// RelayClient submits execute requests to the external transaction relay.
type RelayClient interface {
	SendExecute(ctx context.Context, req *relayer.ExecuteRequest) (string, error)
}

// FeeQuoter is the external fee oracle.
type FeeQuoter interface {
	GetFee(ctx context.Context, originDomain, destinationDomain string) (*big.Int, error)
}

// RouterChecker verifies router approval on the destination chain.
type RouterChecker func(ctx context.Context, providers []string, registryAddr, router string) (bool, error)

// HeadChecker reads the destination chain head as a reachability probe.
type HeadChecker func(ctx context.Context, providers []string) (uint64, error)

// Executor drains queued auctions: it scores bids, quotes the relayer fee and
// submits the winning execution through the relay. Every failure leaves the
// transfer queued for the next tick.
type Executor struct {
	logger      *zap.SugaredLogger
	cfg         *config.Configuration
	transfers   registry.TransferStore
	engine      *auction.Engine
	relay       RelayClient
	feeOracle   FeeQuoter
	checkRouter RouterChecker
	checkHead   HeadChecker
	interval    time.Duration
}

func NewExecutor(
	logger *zap.SugaredLogger,
	cfg *config.Configuration,
	transfers registry.TransferStore,
	engine *auction.Engine,
	relay RelayClient,
	feeOracle FeeQuoter,
) *Executor {
	return &Executor{
		logger:      logger,
		cfg:         cfg,
		transfers:   transfers,
		engine:      engine,
		relay:       relay,
		feeOracle:   feeOracle,
		checkRouter: chainrpc.IsRouterApproved,
		checkHead:   chainrpc.HeadTimestamp,
		interval:    time.Duration(cfg.ExecutorInterval) * time.Second,
	}
}

func (e *Executor) Run(ctx context.Context) {
	e.logger.Infow("starting execute worker", "interval", e.interval)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("execute worker stopped")
			return
		case <-time.After(e.interval):
		}

		queued, err := e.engine.GetQueuedTransfers(ctx)
		if err != nil {
			e.logger.Errorw("cannot list queued transfers", "err", err)
			continue
		}

		for _, transferID := range queued {
			if err := e.executeTransfer(ctx, transferID); err != nil {
				e.logger.Errorw("execute attempt failed, transfer stays queued",
					"transferId", transferID, "kind", xerr.KindOf(err), "err", err)
			}
		}
	}
}

func (e *Executor) executeTransfer(ctx context.Context, transferID string) error {
	transfer, err := e.transfers.Get(ctx, transferID)
	if err != nil {
		return err
	}

	// idempotency guard: a transfer already progressed on chain must never be
	// relayed again
	if transfer.Status != types.TransferNone {
		e.logger.Infow("transfer already progressed, closing auction",
			"transferId", transferID, "status", transfer.Status)
		return e.engine.SyncTransferStatus(ctx, transferID, transfer.Status)
	}

	snapshot, err := e.engine.GetAuction(ctx, transferID)
	if err != nil {
		return err
	}
	if snapshot.Expired(time.Now()) {
		return nil
	}

	candidates := rankBids(snapshot)
	if len(candidates) == 0 {
		return nil
	}

	winner, err := e.selectApproved(ctx, transfer, candidates)
	if err != nil {
		return err
	}

	fee, err := e.feeOracle.GetFee(ctx, transfer.XParams.OriginDomain, transfer.XParams.DestinationDomain)
	if err != nil {
		return err
	}

	req := relayer.BuildExecuteRequest(transfer, winner, fee.String())
	if _, err := e.relay.SendExecute(ctx, req); err != nil {
		return err
	}

	if err := e.engine.MarkSent(ctx, transferID); err != nil {
		return err
	}

	e.logger.Infow("transfer sent to relay",
		"transferId", transferID, "router", winner.Router, "bidFee", winner.Fee, "relayerFee", fee.String())
	return nil
}

// selectApproved walks the ranked bids and returns the best one whose router
// passes the on-chain approval check of the destination domain. Domains
// without a router registry only get a chain-head reachability probe before
// the top bid goes through.
func (e *Executor) selectApproved(ctx context.Context, transfer *types.Transfer, candidates []types.Bid) (*types.Bid, error) {
	destination := transfer.XParams.DestinationDomain
	mapping, inTable := config.Chains[destination]
	dc, configured := e.cfg.Domains[destination]
	if !inTable || !configured {
		return nil, xerr.New(xerr.KindInvalidChainData, "destination domain is not configured",
			xerr.WithContext(map[string]any{"transferId": transfer.TransferID, "domain": destination}))
	}

	if mapping.RouterRegistry == "" {
		if _, err := e.checkHead(ctx, dc.Providers); err != nil {
			return nil, xerr.New(xerr.KindSanityCheckFailed, "destination chain unreachable",
				xerr.WithContext(map[string]any{"transferId": transfer.TransferID, "domain": destination}),
				xerr.WithCause(err), xerr.Retryable())
		}
		return &candidates[0], nil
	}

	for i := range candidates {
		approved, err := e.checkRouter(ctx, dc.Providers, mapping.RouterRegistry, candidates[i].Router)
		if err != nil {
			return nil, xerr.New(xerr.KindSanityCheckFailed, "cannot verify router approval",
				xerr.WithContext(map[string]any{"transferId": transfer.TransferID, "router": candidates[i].Router}),
				xerr.WithCause(err), xerr.Retryable())
		}
		if approved {
			return &candidates[i], nil
		}
		e.logger.Warnw("skipping unapproved router bid",
			"transferId", transfer.TransferID, "router", candidates[i].Router)
	}

	return nil, xerr.New(xerr.KindNotApprovedRouter, "no approved router among bids",
		xerr.WithContext(map[string]any{"transferId": transfer.TransferID, "domain": destination}))
}

// rankBids orders the current round's bids by lowest fee, then earliest
// arrival. Winner scoring is the executor's call; the engine only stores.
func rankBids(snapshot *types.Auction) []types.Bid {
	var bids []types.Bid
	for _, bid := range snapshot.Bids {
		if bid.Round == snapshot.Round {
			bids = append(bids, bid)
		}
	}

	sort.SliceStable(bids, func(i, j int) bool {
		fi, iOK := new(big.Int).SetString(bids[i].Fee, 10)
		fj, jOK := new(big.Int).SetString(bids[j].Fee, 10)
		if iOK && jOK && fi.Cmp(fj) != 0 {
			return fi.Cmp(fj) < 0
		}
		return bids[i].ReceivedAt.Before(bids[j].ReceivedAt)
	})
	return bids
}
