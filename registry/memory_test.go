package registry

import (
	"context"
	"testing"

	"goxbridge/types"
	"goxbridge/xerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_UpsertMergesFacets(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, &types.Transfer{
		TransferID: "0xabc",
		Nonce:      3,
		XParams:    types.XParams{OriginDomain: "6648936", DestinationDomain: "6450786"},
		Origin:     &types.OriginFacet{Chain: "6648936"},
	}))

	// destination poller writes its facet independently
	require.NoError(t, store.Upsert(ctx, &types.Transfer{
		TransferID:  "0xabc",
		Status:      types.TransferExecuted,
		Destination: &types.DestinationFacet{Chain: "6450786", Status: types.TransferExecuted},
	}))

	transfer, err := store.Get(ctx, "0xabc")
	require.NoError(t, err)
	assert.NotNil(t, transfer.Origin)
	assert.NotNil(t, transfer.Destination)
	assert.Equal(t, uint64(3), transfer.Nonce)
	assert.Equal(t, "6648936", transfer.XParams.OriginDomain)
	assert.Equal(t, types.TransferExecuted, transfer.Status)
}

func TestMemory_GetNotFound(t *testing.T) {
	store := NewMemory()

	_, err := store.Get(context.Background(), "0xmissing")
	require.Error(t, err)
	assert.Equal(t, xerr.KindNotFound, xerr.KindOf(err))
}

func TestMemory_SetStatusNeverRegresses(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, &types.Transfer{TransferID: "0xabc"}))
	require.NoError(t, store.SetStatus(ctx, "0xabc", types.TransferReconciled))

	// an earlier lifecycle stage arriving late is a no-op
	require.NoError(t, store.SetStatus(ctx, "0xabc", types.TransferExecuted))

	transfer, err := store.Get(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, types.TransferReconciled, transfer.Status)

	require.NoError(t, store.SetStatus(ctx, "0xabc", types.TransferCompleted))
	transfer, err = store.Get(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, types.TransferCompleted, transfer.Status)
}

func TestMemory_SetStatusUnknown(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, &types.Transfer{TransferID: "0xabc"}))
	err := store.SetStatus(ctx, "0xabc", types.TransferStatus("sideways"))
	require.Error(t, err)
	assert.Equal(t, xerr.KindParamsInvalid, xerr.KindOf(err))
}

func TestMemory_ListByDomain(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, &types.Transfer{
		TransferID: "0xaaa",
		XParams:    types.XParams{OriginDomain: "6648936"},
	}))
	require.NoError(t, store.Upsert(ctx, &types.Transfer{
		TransferID: "0xbbb",
		XParams:    types.XParams{OriginDomain: "1869640809"},
	}))

	transfers, err := store.ListByDomain(ctx, "6648936")
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, "0xaaa", transfers[0].TransferID)
}

func TestMemory_AuctionLifecycle(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	auction := &types.Auction{
		TransferID: "0xabc",
		Status:     types.AuctionQueued,
		Round:      1,
		Bids:       []types.Bid{{TransferID: "0xabc", Router: "0x1", Fee: "100", Round: 1}},
	}
	require.NoError(t, store.SaveAuction(ctx, auction))

	// mutating the caller's copy must not leak into the store
	auction.Bids[0].Fee = "999"

	got, err := store.GetAuction(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "100", got.Bids[0].Fee)

	queued, err := store.ListAuctionsByStatus(ctx, types.AuctionQueued)
	require.NoError(t, err)
	assert.Len(t, queued, 1)

	require.NoError(t, store.DeleteAuction(ctx, "0xabc"))
	_, err = store.GetAuction(ctx, "0xabc")
	assert.Equal(t, xerr.KindNotFound, xerr.KindOf(err))
}
