// Package relayer talks to the external transaction-relay service and the
// relayer-fee oracle. Both are treated as unreliable: every call carries a
// timeout and failures are recoverable by the next executor tick.
package relayer

import (
	"context"
	"net/http"
	"time"

	"goxbridge/types"
	"goxbridge/xerr"

	"github.com/google/uuid"
	"github.com/ybbus/jsonrpc"
	"go.uber.org/zap"
)

type Client struct {
	logger *zap.SugaredLogger
	rpc    jsonrpc.RPCClient
}

func New(logger *zap.SugaredLogger, url string) *Client {
	return &Client{
		logger: logger,
		rpc: jsonrpc.NewClientWithOpts(url, &jsonrpc.RPCClientOpts{
			HTTPClient: &http.Client{Timeout: 30 * time.Second},
		}),
	}
}

// ExecuteRequest is the payload handed to the relay for destination-chain
// execution of a transfer by the winning router.
type ExecuteRequest struct {
	RequestID         string `json:"requestId"`
	TransferID        string `json:"transferId"`
	Router            string `json:"router"`
	OriginDomain      string `json:"originDomain"`
	DestinationDomain string `json:"destinationDomain"`
	To                string `json:"to"`
	CallData          string `json:"callData"`
	LocalAsset        string `json:"localAsset"`
	LocalAmount       string `json:"localAmount"`
	BidFee            string `json:"bidFee"`
	RelayerFee        string `json:"relayerFee"`
}

type executeResult struct {
	TaskID string `json:"taskId"`
}

// BuildExecuteRequest assembles the relay payload from a transfer and its
// winning bid plus the oracle fee quote.
func BuildExecuteRequest(transfer *types.Transfer, winner *types.Bid, relayerFee string) *ExecuteRequest {
	req := &ExecuteRequest{
		RequestID:         uuid.New().String(),
		TransferID:        transfer.TransferID,
		Router:            winner.Router,
		OriginDomain:      transfer.XParams.OriginDomain,
		DestinationDomain: transfer.XParams.DestinationDomain,
		To:                transfer.XParams.To,
		CallData:          transfer.XParams.CallData,
		BidFee:            winner.Fee,
		RelayerFee:        relayerFee,
	}
	if transfer.Destination != nil {
		req.LocalAsset = transfer.Destination.Assets.LocalAsset
		req.LocalAmount = transfer.Destination.Assets.LocalAmount
	}
	return req
}

// SendExecute submits the execute request and returns the relay task id. An
// error reply or an empty task id both count as an invalid upstream response.
func (c *Client) SendExecute(ctx context.Context, req *ExecuteRequest) (string, error) {
	resp, err := c.rpc.Call("relay_sendExecute", req)
	if err != nil {
		return "", xerr.New(xerr.KindUpstreamResponseInvalid, "relay call failed",
			xerr.WithContext(map[string]any{"transferId": req.TransferID}), xerr.WithCause(err), xerr.Retryable())
	}
	if resp.Error != nil {
		return "", xerr.New(xerr.KindUpstreamResponseInvalid, "relay rejected execute request",
			xerr.WithContext(map[string]any{"transferId": req.TransferID, "code": resp.Error.Code, "message": resp.Error.Message}))
	}

	var result executeResult
	if err := resp.GetObject(&result); err != nil {
		return "", xerr.New(xerr.KindUpstreamResponseInvalid, "cannot decode relay response",
			xerr.WithContext(map[string]any{"transferId": req.TransferID}), xerr.WithCause(err))
	}
	if result.TaskID == "" {
		return "", xerr.New(xerr.KindUpstreamResponseInvalid, "relay returned empty task id",
			xerr.WithContext(map[string]any{"transferId": req.TransferID}))
	}

	c.logger.Infow("execute request relayed", "transferId", req.TransferID, "taskId", result.TaskID)
	return result.TaskID, nil
}
