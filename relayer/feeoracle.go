package relayer

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"goxbridge/xerr"
)

// FeeOracle is the external fee-estimation service: given a domain pair it
// quotes the relayer fee in destination-chain wei.
type FeeOracle struct {
	baseURL    string
	httpClient *http.Client
}

func NewFeeOracle(baseURL string) *FeeOracle {
	return &FeeOracle{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type feeResponse struct {
	Fee string `json:"fee"`
}

func (f *FeeOracle) GetFee(ctx context.Context, originDomain, destinationDomain string) (*big.Int, error) {
	endpoint := fmt.Sprintf("%s/fee?originDomain=%s&destinationDomain=%s",
		f.baseURL, url.QueryEscape(originDomain), url.QueryEscape(destinationDomain))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot build fee oracle request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, xerr.New(xerr.KindUpstreamResponseInvalid, "fee oracle unreachable",
			xerr.WithContext(map[string]any{"originDomain": originDomain, "destinationDomain": destinationDomain}),
			xerr.WithCause(err), xerr.Retryable())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, xerr.New(xerr.KindUpstreamResponseInvalid,
			fmt.Sprintf("fee oracle returned %d", resp.StatusCode),
			xerr.WithContext(map[string]any{"originDomain": originDomain, "destinationDomain": destinationDomain}),
			xerr.Retryable())
	}

	var body feeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, xerr.New(xerr.KindUpstreamResponseInvalid, "cannot decode fee oracle response", xerr.WithCause(err))
	}

	fee, ok := new(big.Int).SetString(body.Fee, 10)
	if !ok || fee.Sign() < 0 {
		return nil, xerr.New(xerr.KindUpstreamResponseInvalid, "fee oracle returned invalid amount",
			xerr.WithContext(map[string]any{"fee": body.Fee}))
	}
	return fee, nil
}
