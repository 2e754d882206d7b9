package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"goxbridge/types"
	"goxbridge/xerr"
)

// SubmitBid accepts a router bid for an open auction.
func (h *Handler) SubmitBid(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Warnw("cannot read bid request body", "err", err)
		responseError(w, xerr.New(xerr.KindParamsInvalid, "cannot read request body"))
		return
	}

	var req BidRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Warnw("cannot unmarshal bid request", "err", err)
		responseError(w, xerr.New(xerr.KindParamsInvalid, "cannot unmarshal input JSON"))
		return
	}

	bid := &types.Bid{
		TransferID: req.TransferID,
		Router:     req.Router,
		Fee:        req.Fee,
		Round:      req.Round,
		Signature:  req.Signature,
	}

	if err := h.engine.StoreBid(r.Context(), bid); err != nil {
		h.logger.Infow("bid rejected",
			"transferId", req.TransferID, "router", req.Router, "round", req.Round, "kind", xerr.KindOf(err), "err", err)
		responseError(w, err)
		return
	}

	responseJSON(w, &APIMessage{Message: "Bid received"}, http.StatusOK)
}
