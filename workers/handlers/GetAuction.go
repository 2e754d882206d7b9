package handlers

import (
	"net/http"

	"github.com/go-chi/chi"
)

// GetAuction returns the auction snapshot for a transfer. An unknown transfer
// is a 404, distinct from store failures.
func (h *Handler) GetAuction(w http.ResponseWriter, r *http.Request) {
	transferID := chi.URLParam(r, "transferId")

	auction, err := h.engine.GetAuction(r.Context(), transferID)
	if err != nil {
		responseError(w, err)
		return
	}

	responseJSON(w, auction, http.StatusOK)
}
