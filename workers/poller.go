package workers

import (
	"context"
	"time"

	"goxbridge/auction"
	"goxbridge/config"
	"goxbridge/parser"
	"goxbridge/registry"
	"goxbridge/subgraph"
	"goxbridge/types"

	"go.uber.org/zap"
)

const pollBatchSize = 100

// SubgraphClient is what the poller needs from a domain's indexer.
type SubgraphClient interface {
	GetTransfers(ctx context.Context, prefix string, limit int) ([]byte, error)
}

// Poller pulls fresh transfer data from every configured domain's subgraph on
// a fixed interval and reconciles auctions against destination-chain state.
// A failed tick is logged and retried on the next one; ticks never overlap.
type Poller struct {
	logger    *zap.SugaredLogger
	cfg       *config.Configuration
	transfers registry.TransferStore
	engine    *auction.Engine
	clients   map[string]SubgraphClient
	interval  time.Duration
}

func NewPoller(
	logger *zap.SugaredLogger,
	cfg *config.Configuration,
	transfers registry.TransferStore,
	engine *auction.Engine,
) *Poller {
	clients := make(map[string]SubgraphClient, len(cfg.Domains))
	for domain, dc := range cfg.Domains {
		clients[domain] = subgraph.NewClient(dc.Subgraph)
	}

	return &Poller{
		logger:    logger,
		cfg:       cfg,
		transfers: transfers,
		engine:    engine,
		clients:   clients,
		interval:  time.Duration(cfg.PollInterval) * time.Second,
	}
}

// Run blocks until ctx is cancelled, polling every configured domain each
// tick. The next tick is only scheduled after the previous one finished.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Infow("starting subgraph poller", "domains", len(p.clients), "interval", p.interval)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("subgraph poller stopped")
			return
		case <-time.After(p.interval):
		}

		for domain := range p.clients {
			if err := p.pollDomain(ctx, domain); err != nil {
				p.logger.Errorw("poll iteration failed", "domain", domain, "err", err)
			}
		}
	}
}

func (p *Poller) pollDomain(ctx context.Context, domain string) error {
	mapping := config.Chains[domain]
	client := p.clients[domain]

	tickCtx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	body, err := client.GetTransfers(tickCtx, mapping.SubgraphPrefix, pollBatchSize)
	if err != nil {
		return err
	}

	grouped, err := parser.GroupByDomain(body)
	if err != nil {
		return err
	}

	for rowDomain, rows := range grouped {
		for _, row := range rows {
			if err := p.applyRow(tickCtx, row); err != nil {
				// a bad entity is skipped, never silently carried forward
				p.logger.Warnw("skipping unparseable entity", "domain", rowDomain, "err", err)
			}
		}
	}
	return nil
}

// applyRow routes a raw row to the right parser and applies it to the
// registry. Destination rows additionally reconcile the auction state.
func (p *Poller) applyRow(ctx context.Context, row map[string]any) error {
	if _, isDestination := row["status"]; isDestination {
		dt, err := parser.ParseDestination(row)
		if err != nil {
			return err
		}

		transfer := &types.Transfer{
			TransferID:  dt.TransferID,
			Nonce:       dt.Nonce,
			XParams:     dt.XParams,
			Status:      dt.Destination.Status,
			Destination: &dt.Destination,
		}
		if err := p.transfers.Upsert(ctx, transfer); err != nil {
			return err
		}
		if err := p.engine.SyncTransferStatus(ctx, dt.TransferID, dt.Destination.Status); err != nil {
			return err
		}
		return nil
	}

	ot, err := parser.ParseOrigin(row)
	if err != nil {
		return err
	}

	transfer := &types.Transfer{
		TransferID: ot.TransferID,
		Nonce:      ot.Nonce,
		XParams:    ot.XParams,
		Status:     types.TransferNone,
		Origin:     &ot.Origin,
	}
	if err := p.transfers.Upsert(ctx, transfer); err != nil {
		return err
	}
	return nil
}
