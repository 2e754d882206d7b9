package handlers

import "net/http"

// GetQueued lists transfers whose auctions are open, for relayers discovering
// work.
func (h *Handler) GetQueued(w http.ResponseWriter, r *http.Request) {
	queued, err := h.engine.GetQueuedTransfers(r.Context())
	if err != nil {
		h.logger.Errorw("cannot list queued transfers", "err", err)
		responseError(w, err)
		return
	}
	if queued == nil {
		queued = []string{}
	}

	responseJSON(w, &QueuedResponse{Queued: queued}, http.StatusOK)
}
