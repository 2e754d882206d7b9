// Package redis is the shared-cache implementation of the transfer registry
// and auction store, used when sequencer processes do not share memory.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"goxbridge/registry"
	"goxbridge/types"
	"goxbridge/xerr"

	"github.com/gomodule/redigo/redis"
)

// Record keys:
//
//	transfer:<transferId>           JSON transfer record
//	transfers:domain:<domain>       SET of transfer keys per origin domain
//	auction:<transferId>            JSON auction record
//	auctions:<status>               SET of auction keys per status
type Store struct {
	pool *redis.Pool
}

var _ registry.TransferStore = (*Store)(nil)
var _ registry.AuctionStore = (*Store)(nil)

func timeoutDialOptions() []redis.DialOption {
	return []redis.DialOption{
		redis.DialConnectTimeout(5 * time.Second),
		redis.DialReadTimeout(5 * time.Second),
		redis.DialWriteTimeout(5 * time.Second),
	}
}

func New(host string, port int) *Store {
	redisAddr := fmt.Sprintf("%s:%d", host, port)
	return &Store{
		pool: &redis.Pool{
			MaxIdle: 5,
			Dial:    func() (redis.Conn, error) { return redis.Dial("tcp", redisAddr, timeoutDialOptions()...) },
		},
	}
}

func transferKey(transferID string) string {
	return fmt.Sprintf("transfer:%s", transferID)
}

func domainSetKey(domain string) string {
	return fmt.Sprintf("transfers:domain:%s", domain)
}

func auctionKey(transferID string) string {
	return fmt.Sprintf("auction:%s", transferID)
}

func auctionSetKey(status types.AuctionStatus) string {
	return fmt.Sprintf("auctions:%s", status)
}

func (s *Store) Upsert(ctx context.Context, transfer *types.Transfer) error {
	if transfer == nil || transfer.TransferID == "" {
		return xerr.New(xerr.KindParamsInvalid, "transfer has no id")
	}

	conn := s.pool.Get()
	defer conn.Close()

	existing, err := s.getTransfer(conn, transfer.TransferID)
	if err != nil && xerr.KindOf(err) != xerr.KindNotFound {
		return err
	}

	// never write through the caller's record
	var record *types.Transfer
	if existing != nil {
		registry.Merge(existing, transfer)
		record = existing
	} else {
		cp := *transfer
		if cp.Status == "" {
			cp.Status = types.TransferNone
		}
		record = &cp
	}
	record.TsUpdated = time.Now().Unix()

	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("cannot marshal transfer to JSON: %w", err)
	}

	if _, err := conn.Do("SET", transferKey(record.TransferID), raw); err != nil {
		return fmt.Errorf("redis SET: %w", err)
	}
	if record.XParams.OriginDomain != "" {
		if _, err := conn.Do("SADD", domainSetKey(record.XParams.OriginDomain), record.TransferID); err != nil {
			return fmt.Errorf("redis SADD: %w", err)
		}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, transferID string) (*types.Transfer, error) {
	conn := s.pool.Get()
	defer conn.Close()

	return s.getTransfer(conn, transferID)
}

func (s *Store) getTransfer(conn redis.Conn, transferID string) (*types.Transfer, error) {
	raw, err := redis.Bytes(conn.Do("GET", transferKey(transferID)))
	if errors.Is(err, redis.ErrNil) {
		return nil, xerr.New(xerr.KindNotFound, "transfer not found",
			xerr.WithContext(map[string]any{"transferId": transferID}), xerr.WithSeverity(xerr.SeverityDebug))
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET: %w", err)
	}

	var transfer types.Transfer
	if err := json.Unmarshal(raw, &transfer); err != nil {
		return nil, fmt.Errorf("cannot unmarshal transfer record: %w", err)
	}
	return &transfer, nil
}

// SetStatus advances the lifecycle status under a WATCH guard so the
// forward-only invariant holds even when another process writes the record
// between the read and the write.
func (s *Store) SetStatus(ctx context.Context, transferID string, status types.TransferStatus) error {
	if status.Rank() < 0 {
		return xerr.New(xerr.KindParamsInvalid, "unknown transfer status",
			xerr.WithContext(map[string]any{"status": status}))
	}

	conn := s.pool.Get()
	defer conn.Close()

	for attempt := 0; attempt < 3; attempt++ {
		if _, err := conn.Do("WATCH", transferKey(transferID)); err != nil {
			return fmt.Errorf("redis WATCH: %w", err)
		}

		transfer, err := s.getTransfer(conn, transferID)
		if err != nil {
			conn.Do("UNWATCH")
			return err
		}
		if status.Rank() <= transfer.Status.Rank() {
			conn.Do("UNWATCH")
			return nil
		}
		transfer.Status = status
		transfer.TsUpdated = time.Now().Unix()

		raw, err := json.Marshal(transfer)
		if err != nil {
			conn.Do("UNWATCH")
			return fmt.Errorf("cannot marshal transfer to JSON: %w", err)
		}

		conn.Send("MULTI")
		conn.Send("SET", transferKey(transferID), raw)
		reply, err := conn.Do("EXEC")
		if err != nil {
			return fmt.Errorf("redis EXEC: %w", err)
		}
		if reply != nil {
			return nil
		}
		// the record changed under the WATCH, re-read and try again
	}

	return xerr.New(xerr.KindSanityCheckFailed, "transfer status write contended",
		xerr.WithContext(map[string]any{"transferId": transferID, "status": status}), xerr.Retryable())
}

func (s *Store) ListByDomain(ctx context.Context, domain string) ([]*types.Transfer, error) {
	conn := s.pool.Get()
	defer conn.Close()

	var out []*types.Transfer
	var cursor int64

	for {
		values, err := redis.Values(conn.Do("SSCAN", domainSetKey(domain), cursor))
		if err != nil {
			return nil, fmt.Errorf("redis SSCAN: %w", err)
		}

		var ids []string
		if _, err := redis.Scan(values, &cursor, &ids); err != nil {
			return nil, fmt.Errorf("redis scan reply: %w", err)
		}

		for _, id := range ids {
			transfer, err := s.getTransfer(conn, id)
			if xerr.KindOf(err) == xerr.KindNotFound {
				// record expired out from under the set
				continue
			}
			if err != nil {
				return nil, err
			}
			out = append(out, transfer)
		}

		if cursor == 0 {
			break
		}
	}
	return out, nil
}

func (s *Store) SaveAuction(ctx context.Context, auction *types.Auction) error {
	if auction == nil || auction.TransferID == "" {
		return xerr.New(xerr.KindParamsInvalid, "auction has no transfer id")
	}

	conn := s.pool.Get()
	defer conn.Close()

	prev, err := s.getAuction(conn, auction.TransferID)
	if err != nil && xerr.KindOf(err) != xerr.KindNotFound {
		return err
	}

	raw, err := json.Marshal(auction)
	if err != nil {
		return fmt.Errorf("cannot marshal auction to JSON: %w", err)
	}

	// status set membership moves with the record
	if prev != nil && prev.Status != auction.Status {
		if _, err := conn.Do("SREM", auctionSetKey(prev.Status), auction.TransferID); err != nil {
			return fmt.Errorf("redis SREM: %w", err)
		}
	}
	if _, err := conn.Do("SET", auctionKey(auction.TransferID), raw); err != nil {
		return fmt.Errorf("redis SET: %w", err)
	}
	if _, err := conn.Do("SADD", auctionSetKey(auction.Status), auction.TransferID); err != nil {
		return fmt.Errorf("redis SADD: %w", err)
	}
	return nil
}

func (s *Store) GetAuction(ctx context.Context, transferID string) (*types.Auction, error) {
	conn := s.pool.Get()
	defer conn.Close()

	return s.getAuction(conn, transferID)
}

func (s *Store) getAuction(conn redis.Conn, transferID string) (*types.Auction, error) {
	raw, err := redis.Bytes(conn.Do("GET", auctionKey(transferID)))
	if errors.Is(err, redis.ErrNil) {
		return nil, xerr.New(xerr.KindNotFound, "auction not found",
			xerr.WithContext(map[string]any{"transferId": transferID}), xerr.WithSeverity(xerr.SeverityDebug))
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET: %w", err)
	}

	var auction types.Auction
	if err := json.Unmarshal(raw, &auction); err != nil {
		return nil, fmt.Errorf("cannot unmarshal auction record: %w", err)
	}
	return &auction, nil
}

func (s *Store) ListAuctionsByStatus(ctx context.Context, status types.AuctionStatus) ([]*types.Auction, error) {
	conn := s.pool.Get()
	defer conn.Close()

	var out []*types.Auction
	var cursor int64

	for {
		values, err := redis.Values(conn.Do("SSCAN", auctionSetKey(status), cursor))
		if err != nil {
			return nil, fmt.Errorf("redis SSCAN: %w", err)
		}

		var ids []string
		if _, err := redis.Scan(values, &cursor, &ids); err != nil {
			return nil, fmt.Errorf("redis scan reply: %w", err)
		}

		for _, id := range ids {
			auction, err := s.getAuction(conn, id)
			if xerr.KindOf(err) == xerr.KindNotFound {
				continue
			}
			if err != nil {
				return nil, err
			}
			if auction.Status != status {
				// stale set membership, clean it up
				if _, err := conn.Do("SREM", auctionSetKey(status), id); err != nil {
					return nil, fmt.Errorf("redis SREM: %w", err)
				}
				continue
			}
			out = append(out, auction)
		}

		if cursor == 0 {
			break
		}
	}
	return out, nil
}

func (s *Store) DeleteAuction(ctx context.Context, transferID string) error {
	conn := s.pool.Get()
	defer conn.Close()

	auction, err := s.getAuction(conn, transferID)
	if xerr.KindOf(err) == xerr.KindNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := conn.Do("SREM", auctionSetKey(auction.Status), transferID); err != nil {
		return fmt.Errorf("redis SREM: %w", err)
	}
	if _, err := conn.Do("DEL", auctionKey(transferID)); err != nil {
		return fmt.Errorf("redis DEL: %w", err)
	}
	return nil
}

// Ping verifies the connection on startup. Without a reachable shared cache
// the sequencer cannot run.
func (s *Store) Ping(ctx context.Context) error {
	conn := s.pool.Get()
	defer conn.Close()

	if _, err := conn.Do("PING"); err != nil {
		return fmt.Errorf("redis PING: %w", err)
	}
	return nil
}
