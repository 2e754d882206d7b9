package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"goxbridge/xerr"
)

// ClearCache purges queued and expired auctions. Gated by the admin token.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		responseError(w, xerr.New(xerr.KindParamsInvalid, "cannot read request body"))
		return
	}

	var req ClearCacheRequest
	if err := json.Unmarshal(body, &req); err != nil {
		responseError(w, xerr.New(xerr.KindParamsInvalid, "cannot unmarshal input JSON"))
		return
	}

	if err := h.engine.ClearCache(r.Context(), req.AdminToken); err != nil {
		h.logger.Warnw("clear-cache rejected", "kind", xerr.KindOf(err))
		responseError(w, err)
		return
	}

	responseJSON(w, &APIMessage{Message: "Cache cleared"}, http.StatusOK)
}
