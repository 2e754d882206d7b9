package auction

import (
	"context"
	"crypto/ecdsa"
	"testing"
	"time"

	"goxbridge/registry"
	"goxbridge/types"
	"goxbridge/xerr"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testTransferID = "0xabc0000000000000000000000000000000000000000000000000000000000001"

func newTestEngine(t *testing.T) (*Engine, *registry.Memory) {
	t.Helper()
	store := registry.NewMemory()
	engine := NewEngine(zap.NewNop().Sugar(), store, store, "letmein", 30*time.Second)
	return engine, store
}

func newRouterKey(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key, crypto.PubkeyToAddress(key.PublicKey).Hex()
}

func signedBid(t *testing.T, key *ecdsa.PrivateKey, router, transferID string, round uint64, fee string) *types.Bid {
	t.Helper()
	digest := bidDigest(transferID, round)
	sig, err := crypto.Sign(digest.Bytes(), key)
	require.NoError(t, err)

	return &types.Bid{
		TransferID: transferID,
		Router:     router,
		Fee:        fee,
		Round:      round,
		Signature:  hexutil.Encode(sig),
	}
}

func seedTransfer(t *testing.T, store *registry.Memory, transferID string, status types.TransferStatus) {
	t.Helper()
	err := store.Upsert(context.Background(), &types.Transfer{
		TransferID: transferID,
		Status:     status,
		XParams: types.XParams{
			OriginDomain:      "6648936",
			DestinationDomain: "1869640809",
		},
	})
	require.NoError(t, err)
}

func TestStoreBid_OpensAuction(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	seedTransfer(t, store, testTransferID, types.TransferNone)

	key, router := newRouterKey(t)
	require.NoError(t, engine.StoreBid(ctx, signedBid(t, key, router, testTransferID, 1, "100")))

	auction, err := engine.GetAuction(ctx, testTransferID)
	require.NoError(t, err)
	assert.Equal(t, types.AuctionQueued, auction.Status)
	assert.Equal(t, uint64(1), auction.Round)
	require.Len(t, auction.Bids, 1)
	assert.Equal(t, router, auction.Bids[0].Router)
	assert.NotEmpty(t, auction.Bids[0].ID)
	assert.Greater(t, auction.Expiry, time.Now().Unix())
}

func TestStoreBid_UnknownTransfer(t *testing.T) {
	engine, _ := newTestEngine(t)

	key, router := newRouterKey(t)
	err := engine.StoreBid(context.Background(), signedBid(t, key, router, testTransferID, 1, "100"))
	require.Error(t, err)
	assert.Equal(t, xerr.KindMissingTransferContext, xerr.KindOf(err))
}

func TestStoreBid_TerminalTransferRejected(t *testing.T) {
	engine, store := newTestEngine(t)
	seedTransfer(t, store, testTransferID, types.TransferCompleted)

	key, router := newRouterKey(t)
	err := engine.StoreBid(context.Background(), signedBid(t, key, router, testTransferID, 1, "100"))
	require.Error(t, err)
	assert.Equal(t, xerr.KindAuctionExpired, xerr.KindOf(err))
}

func TestStoreBid_ExecutedTransferRejected(t *testing.T) {
	engine, store := newTestEngine(t)
	seedTransfer(t, store, testTransferID, types.TransferExecuted)

	key, router := newRouterKey(t)
	err := engine.StoreBid(context.Background(), signedBid(t, key, router, testTransferID, 1, "100"))
	require.Error(t, err)
	assert.Equal(t, xerr.KindAuctionExpired, xerr.KindOf(err))
}

func TestStoreBid_SignatureMismatch(t *testing.T) {
	engine, store := newTestEngine(t)
	seedTransfer(t, store, testTransferID, types.TransferNone)

	key, _ := newRouterKey(t)
	_, otherRouter := newRouterKey(t)

	// signed by one key, claiming another router address
	err := engine.StoreBid(context.Background(), signedBid(t, key, otherRouter, testTransferID, 1, "100"))
	require.Error(t, err)
	assert.Equal(t, xerr.KindParamsInvalid, xerr.KindOf(err))
	assert.Contains(t, err.Error(), "does not match")
}

func TestStoreBid_InvalidFee(t *testing.T) {
	engine, store := newTestEngine(t)
	seedTransfer(t, store, testTransferID, types.TransferNone)

	key, router := newRouterKey(t)
	err := engine.StoreBid(context.Background(), signedBid(t, key, router, testTransferID, 1, "not-a-number"))
	require.Error(t, err)
	assert.Equal(t, xerr.KindAmountInvalid, xerr.KindOf(err))
}

func TestStoreBid_StaleRoundRejectedWithoutMutation(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	seedTransfer(t, store, testTransferID, types.TransferNone)

	key, router := newRouterKey(t)
	require.NoError(t, engine.StoreBid(ctx, signedBid(t, key, router, testTransferID, 1, "100")))

	// advance to round 2
	key2, router2 := newRouterKey(t)
	require.NoError(t, engine.StoreBid(ctx, signedBid(t, key2, router2, testTransferID, 2, "90")))

	// round 1 is now stale
	key3, router3 := newRouterKey(t)
	err := engine.StoreBid(ctx, signedBid(t, key3, router3, testTransferID, 1, "80"))
	require.Error(t, err)
	assert.Equal(t, xerr.KindInvalidAuctionRound, xerr.KindOf(err))

	// far-future round is rejected too
	err = engine.StoreBid(ctx, signedBid(t, key3, router3, testTransferID, 5, "80"))
	require.Error(t, err)
	assert.Equal(t, xerr.KindInvalidAuctionRound, xerr.KindOf(err))

	auction, err := engine.GetAuction(ctx, testTransferID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), auction.Round)
	assert.Len(t, auction.Bids, 2)
}

func TestStoreBid_DuplicateRouterInRound(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	seedTransfer(t, store, testTransferID, types.TransferNone)

	key, router := newRouterKey(t)
	require.NoError(t, engine.StoreBid(ctx, signedBid(t, key, router, testTransferID, 1, "100")))

	err := engine.StoreBid(ctx, signedBid(t, key, router, testTransferID, 1, "100"))
	require.Error(t, err)
	assert.Equal(t, xerr.KindParamsInvalid, xerr.KindOf(err))
	assert.Contains(t, err.Error(), "duplicate")

	auction, err := engine.GetAuction(ctx, testTransferID)
	require.NoError(t, err)
	assert.Len(t, auction.Bids, 1)
}

func TestStoreBid_ExpiredAuction(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	seedTransfer(t, store, testTransferID, types.TransferNone)

	key, router := newRouterKey(t)
	require.NoError(t, engine.StoreBid(ctx, signedBid(t, key, router, testTransferID, 1, "100")))

	// move the clock past the bidding window
	engine.now = func() time.Time { return time.Now().Add(time.Minute) }

	key2, router2 := newRouterKey(t)
	err := engine.StoreBid(ctx, signedBid(t, key2, router2, testTransferID, 1, "90"))
	require.Error(t, err)
	assert.Equal(t, xerr.KindAuctionExpired, xerr.KindOf(err))

	status, err := engine.GetAuctionStatus(ctx, testTransferID)
	require.NoError(t, err)
	assert.Equal(t, types.AuctionCancelled, status)
}

func TestGetQueuedTransfers_ExcludesExpired(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	liveID := testTransferID
	expiredID := "0xabc0000000000000000000000000000000000000000000000000000000000002"
	seedTransfer(t, store, liveID, types.TransferNone)
	seedTransfer(t, store, expiredID, types.TransferNone)

	key, router := newRouterKey(t)
	require.NoError(t, engine.StoreBid(ctx, signedBid(t, key, router, liveID, 1, "100")))

	// expired auction persisted directly through the store
	require.NoError(t, store.SaveAuction(ctx, &types.Auction{
		TransferID: expiredID,
		Status:     types.AuctionQueued,
		Round:      1,
		Expiry:     time.Now().Add(-time.Minute).Unix(),
	}))

	queued, err := engine.GetQueuedTransfers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{liveID}, queued)
}

func TestMarkSent(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	seedTransfer(t, store, testTransferID, types.TransferNone)

	key, router := newRouterKey(t)
	require.NoError(t, engine.StoreBid(ctx, signedBid(t, key, router, testTransferID, 1, "100")))
	require.NoError(t, engine.MarkSent(ctx, testTransferID))

	status, err := engine.GetAuctionStatus(ctx, testTransferID)
	require.NoError(t, err)
	assert.Equal(t, types.AuctionSent, status)

	// second attempt is a conflict
	err = engine.MarkSent(ctx, testTransferID)
	require.Error(t, err)
	assert.Equal(t, xerr.KindSanityCheckFailed, xerr.KindOf(err))
}

func TestSyncTransferStatus_ClosesAuction(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	seedTransfer(t, store, testTransferID, types.TransferNone)

	key, router := newRouterKey(t)
	require.NoError(t, engine.StoreBid(ctx, signedBid(t, key, router, testTransferID, 1, "100")))

	require.NoError(t, engine.SyncTransferStatus(ctx, testTransferID, types.TransferExecuted))
	status, err := engine.GetAuctionStatus(ctx, testTransferID)
	require.NoError(t, err)
	assert.Equal(t, types.AuctionExecuted, status)

	require.NoError(t, engine.SyncTransferStatus(ctx, testTransferID, types.TransferCompleted))
	status, err = engine.GetAuctionStatus(ctx, testTransferID)
	require.NoError(t, err)
	// terminal auctions stay put
	assert.Equal(t, types.AuctionExecuted, status)
}

func TestClearCache(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	seedTransfer(t, store, testTransferID, types.TransferNone)

	key, router := newRouterKey(t)
	require.NoError(t, engine.StoreBid(ctx, signedBid(t, key, router, testTransferID, 1, "100")))

	err := engine.ClearCache(ctx, "wrong-token")
	require.Error(t, err)
	assert.Equal(t, xerr.KindUnauthorized, xerr.KindOf(err))

	// state untouched after the rejected call
	auction, err := engine.GetAuction(ctx, testTransferID)
	require.NoError(t, err)
	assert.Len(t, auction.Bids, 1)

	require.NoError(t, engine.ClearCache(ctx, "letmein"))
	_, err = engine.GetAuction(ctx, testTransferID)
	assert.Equal(t, xerr.KindNotFound, xerr.KindOf(err))
}
