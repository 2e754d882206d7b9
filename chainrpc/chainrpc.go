// Package chainrpc gives workers direct chain access with provider failover.
// Used for pre-submit sanity checks only; all indexed data comes from the
// subgraphs.
package chainrpc

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// WithClient runs f against the first reachable provider, failing over down
// the list on any error.
func WithClient[T any](providers []string, f func(client *ethclient.Client) (T, error)) (res T, err error) {
	var client *ethclient.Client
	for _, url := range providers {
		client, err = ethclient.Dial(url)
		if err != nil {
			continue
		}

		res, err = f(client)
		client.Close()
		if err == nil {
			return
		}
	}
	if err == nil {
		err = fmt.Errorf("no providers configured")
	}
	return
}

// HeadTimestamp returns the latest block timestamp of the chain.
func HeadTimestamp(ctx context.Context, providers []string) (uint64, error) {
	return WithClient(providers, func(client *ethclient.Client) (uint64, error) {
		header, err := client.HeaderByNumber(ctx, nil)
		if err != nil {
			return 0, err
		}
		return header.Time, nil
	})
}

// IsRouterApproved checks the on-chain router registry. The registry exposes
// approvedRouters(address) returning a bool word.
func IsRouterApproved(ctx context.Context, providers []string, registryAddr, router string) (bool, error) {
	selector := crypto.Keccak256([]byte("approvedRouters(address)"))[:4]
	callData := append(selector, common.LeftPadBytes(common.HexToAddress(router).Bytes(), 32)...)
	contract := common.HexToAddress(registryAddr)

	out, err := WithClient(providers, func(client *ethclient.Client) ([]byte, error) {
		return client.CallContract(ctx, ethereum.CallMsg{
			To:   &contract,
			Data: callData,
		}, nil)
	})
	if err != nil {
		return false, err
	}
	if len(out) < 32 {
		return false, fmt.Errorf("short return data from router registry")
	}
	return out[31] != 0, nil
}
