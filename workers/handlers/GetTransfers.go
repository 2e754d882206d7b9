package handlers

import (
	"net/http"

	"github.com/go-chi/chi"
)

// GetTransfers lists the transfers tracked for a domain with their current
// lifecycle status. Operator endpoint, not part of the router API.
func (h *Handler) GetTransfers(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")

	transfers, err := h.transfers.ListByDomain(r.Context(), domain)
	if err != nil {
		responseError(w, err)
		return
	}

	rows := make([]TransferRow, 0, len(transfers))
	for _, t := range transfers {
		rows = append(rows, TransferRow{
			TransferID: t.TransferID,
			Status:     string(t.Status),
		})
	}

	responseJSON(w, TransfersResponse{Transfers: rows}, http.StatusOK)
}
