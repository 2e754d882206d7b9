// Package subgraph queries a chain's indexer. Responses come back as the raw
// GraphQL envelope; parsing and validation happen in the parser package.
package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	endpoint   string
	httpClient *http.Client
}

func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

const transfersQueryTemplate = `
	query SequencerTransfers($limit: Int!) {
		%[1]s_originTransfers(first: $limit, orderBy: nonce, orderDirection: desc) {
			transferId
			nonce
			to
			callData
			callback
			callbackFee
			relayerFee
			forceSlow
			receiveLocal
			originDomain
			destinationDomain
			recovery
			agent
			slippageTol
			caller
			transactionHash
			timestamp
			gasPrice
			gasLimit
			blockNumber
			transactingAsset
			transactingAmount
			bridgedAsset
			bridgedAmount
		}
		%[1]s_destinationTransfers(first: $limit, orderBy: nonce, orderDirection: desc) {
			transferId
			nonce
			to
			callData
			originDomain
			destinationDomain
			status
			routers {
				id
			}
			localAsset
			localAmount
			transactingAsset
			transactingAmount
			executedCaller
			executedTransactionHash
			executedTimestamp
			executedGasPrice
			executedGasLimit
			executedBlockNumber
			reconciledCaller
			reconciledTransactionHash
			reconciledTimestamp
			reconciledGasPrice
			reconciledGasLimit
			reconciledBlockNumber
		}
	}
`

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Query posts a raw GraphQL query and returns the undecoded response body.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
	payload, err := json.Marshal(request{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("cannot marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("cannot build graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graphql request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cannot read graphql response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("graphql endpoint returned %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// GetTransfers pulls the latest origin and destination transfer rows for the
// domain identified by its subgraph prefix.
func (c *Client) GetTransfers(ctx context.Context, prefix string, limit int) ([]byte, error) {
	query := fmt.Sprintf(transfersQueryTemplate, prefix)
	return c.Query(ctx, query, map[string]any{"limit": limit})
}
