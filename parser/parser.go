// Package parser normalizes raw subgraph rows into the typed transfer model.
// All externally sourced entities pass through here before anything else is
// allowed to touch them.
package parser

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"goxbridge/config"
	"goxbridge/types"
	"goxbridge/xerr"
)

var originRequired = []string{"transferId", "originDomain", "destinationDomain", "nonce", "to", "callData"}

var destinationRequired = []string{"transferId", "originDomain", "localAmount", "localAsset", "status", "routers"}

// ParseOrigin converts a raw origin-chain subgraph row into an OriginTransfer.
// Rows carrying destination-side markers were fed to the wrong parser and are
// rejected outright.
func ParseOrigin(raw map[string]any) (*types.OriginTransfer, error) {
	if raw == nil {
		return nil, xerr.New(xerr.KindParamsInvalid, "nil origin entity")
	}

	for _, marker := range []string{"executedTransactionHash", "reconciledTransactionHash"} {
		if _, ok := raw[marker]; ok {
			return nil, xerr.New(xerr.KindParamsInvalid, "entity is not an origin transfer",
				xerr.WithContext(map[string]any{"field": marker, "entity": raw}))
		}
	}

	if err := requireFields(raw, originRequired); err != nil {
		return nil, err
	}

	transfer := &types.OriginTransfer{
		TransferID: getString(raw, "transferId"),
		Nonce:      getUint(raw, "nonce"),
		XParams:    parseXParams(raw),
		Origin: types.OriginFacet{
			Chain: getString(raw, "originDomain"),
			Assets: types.OriginAssets{
				TransactingAsset:  getString(raw, "transactingAsset"),
				TransactingAmount: getString(raw, "transactingAmount"),
				BridgedAsset:      getString(raw, "bridgedAsset"),
				BridgedAmount:     getString(raw, "bridgedAmount"),
			},
			XCall: types.XCall{
				Caller:          getString(raw, "caller"),
				TransactionHash: getString(raw, "transactionHash"),
				Timestamp:       getUint(raw, "timestamp"),
				GasPrice:        getStringDefault(raw, "gasPrice", "0"),
				GasLimit:        getStringDefault(raw, "gasLimit", "0"),
				BlockNumber:     getUint(raw, "blockNumber"),
			},
		},
	}
	return transfer, nil
}

// ParseDestination converts a raw destination-chain subgraph row into a
// DestinationTransfer.
func ParseDestination(raw map[string]any) (*types.DestinationTransfer, error) {
	if raw == nil {
		return nil, xerr.New(xerr.KindParamsInvalid, "nil destination entity")
	}

	// an origin xcall hash on a destination row signals a mixed entity
	if _, ok := raw["transactionHash"]; ok {
		return nil, xerr.New(xerr.KindParamsInvalid, "entity is not a destination transfer",
			xerr.WithContext(map[string]any{"field": "transactionHash", "entity": raw}))
	}

	if err := requireFields(raw, destinationRequired); err != nil {
		return nil, err
	}

	status := types.TransferStatus(strings.ToLower(getString(raw, "status")))
	if status.Rank() < 0 {
		return nil, xerr.New(xerr.KindInvalidChainData, "unknown transfer status",
			xerr.WithContext(map[string]any{"field": "status", "value": getString(raw, "status"), "entity": raw}))
	}

	routers, err := parseRouters(raw["routers"])
	if err != nil {
		return nil, err
	}

	transfer := &types.DestinationTransfer{
		TransferID: getString(raw, "transferId"),
		Nonce:      getUint(raw, "nonce"),
		XParams:    parseXParams(raw),
		Destination: types.DestinationFacet{
			Chain:   getStringDefault(raw, "destinationDomain", ""),
			Status:  status,
			Routers: routers,
			Assets: types.DestinationAssets{
				TransactingAsset:  getString(raw, "transactingAsset"),
				TransactingAmount: getString(raw, "transactingAmount"),
				LocalAsset:        getString(raw, "localAsset"),
				LocalAmount:       getString(raw, "localAmount"),
			},
			Execute:   parseChainTx(raw, "executed"),
			Reconcile: parseChainTx(raw, "reconciled"),
		},
	}
	return transfer, nil
}

type queryEnvelope struct {
	Data map[string]json.RawMessage `json:"data"`
}

// GroupByDomain splits a GraphQL query response into per-domain row sets. The
// entity keys are prefixed with a chain token ("mainnet_originTransfers")
// resolved through the static prefix table; unknown prefixes are skipped.
func GroupByDomain(resp []byte) (map[string][]map[string]any, error) {
	var envelope queryEnvelope
	if err := json.Unmarshal(resp, &envelope); err != nil {
		return nil, xerr.New(xerr.KindUpstreamResponseInvalid, "cannot decode subgraph response", xerr.WithCause(err))
	}
	if envelope.Data == nil {
		return nil, xerr.New(xerr.KindUpstreamResponseInvalid, "subgraph response has no data field")
	}

	grouped := map[string][]map[string]any{}
	for key, rawRows := range envelope.Data {
		prefix := strings.Split(key, "_")[0]
		domain, ok := config.DomainForPrefix(prefix)
		if !ok {
			continue
		}

		var rows []map[string]any
		if err := json.Unmarshal(rawRows, &rows); err != nil {
			return nil, xerr.New(xerr.KindUpstreamResponseInvalid,
				fmt.Sprintf("entity %s is not a row list", key), xerr.WithCause(err))
		}
		grouped[domain] = append(grouped[domain], rows...)
	}
	return grouped, nil
}

func requireFields(raw map[string]any, fields []string) error {
	for _, field := range fields {
		v, ok := raw[field]
		if !ok || v == nil {
			return xerr.New(xerr.KindParamsInvalid, fmt.Sprintf("missing required field %s", field),
				xerr.WithContext(map[string]any{"field": field, "entity": raw}))
		}
		if s, isStr := v.(string); isStr && s == "" {
			return xerr.New(xerr.KindParamsInvalid, fmt.Sprintf("empty required field %s", field),
				xerr.WithContext(map[string]any{"field": field, "entity": raw}))
		}
	}
	return nil
}

func parseXParams(raw map[string]any) types.XParams {
	return types.XParams{
		To:                getString(raw, "to"),
		CallData:          getString(raw, "callData"),
		Callback:          getString(raw, "callback"),
		CallbackFee:       getStringDefault(raw, "callbackFee", "0"),
		RelayerFee:        getStringDefault(raw, "relayerFee", "0"),
		ForceSlow:         getBool(raw, "forceSlow"),
		ReceiveLocal:      getBool(raw, "receiveLocal"),
		OriginDomain:      getString(raw, "originDomain"),
		DestinationDomain: getString(raw, "destinationDomain"),
		Recovery:          getString(raw, "recovery"),
		Agent:             getString(raw, "agent"),
		SlippageTol:       getStringDefault(raw, "slippageTol", "0"),
	}
}

// parseChainTx reads the executed*/reconciled* field group; absent hash means
// the event has not been indexed yet.
func parseChainTx(raw map[string]any, prefix string) *types.ChainTx {
	hash := getString(raw, prefix+"TransactionHash")
	if hash == "" {
		return nil
	}
	return &types.ChainTx{
		Caller:          getString(raw, prefix+"Caller"),
		TransactionHash: hash,
		Timestamp:       getUint(raw, prefix+"Timestamp"),
		GasPrice:        getStringDefault(raw, prefix+"GasPrice", "0"),
		GasLimit:        getStringDefault(raw, prefix+"GasLimit", "0"),
		BlockNumber:     getUint(raw, prefix+"BlockNumber"),
	}
}

// routers arrive either as plain addresses or as {id: address} objects
// depending on the subgraph version.
func parseRouters(v any) ([]string, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, xerr.New(xerr.KindParamsInvalid, "routers field is not a list",
			xerr.WithContext(map[string]any{"field": "routers", "value": v}))
	}

	routers := make([]string, 0, len(list))
	for _, item := range list {
		switch r := item.(type) {
		case string:
			routers = append(routers, r)
		case map[string]any:
			id, _ := r["id"].(string)
			if id == "" {
				return nil, xerr.New(xerr.KindParamsInvalid, "router entry has no id",
					xerr.WithContext(map[string]any{"field": "routers", "value": item}))
			}
			routers = append(routers, id)
		default:
			return nil, xerr.New(xerr.KindParamsInvalid, "router entry has unexpected shape",
				xerr.WithContext(map[string]any{"field": "routers", "value": item}))
		}
	}
	return routers, nil
}

func getString(raw map[string]any, field string) string {
	switch v := raw[field].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

func getStringDefault(raw map[string]any, field, def string) string {
	if s := getString(raw, field); s != "" {
		return s
	}
	return def
}

// getUint coerces numeric-looking chain fields defensively: absent or
// malformed values become 0 rather than poisoning later arithmetic.
func getUint(raw map[string]any, field string) uint64 {
	switch v := raw[field].(type) {
	case float64:
		if v < 0 {
			return 0
		}
		return uint64(v)
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

func getBool(raw map[string]any, field string) bool {
	switch v := raw[field].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}
