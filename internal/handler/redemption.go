package handler

import (
	"net/http"

	"github.com/kce-spotlight/console/internal/apiclient"
	"github.com/kce-spotlight/console/internal/model"
	"github.com/kce-spotlight/console/internal/session"
)

// Fulfil marks a pending redemption fulfilled and updates the row in place.
func (h *Handler) Fulfil(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c := h.redemptions.container(h, r)

	if row, ok := c.Find(id); ok && row.Fulfilled() {
		toast(w, session.ToastInfo, "Redemption is already fulfilled")
		h.renderPartial(w, h.redemptions.PanelTmpl, listView[model.Redemption]{Screen: h.redemptions, State: c.Snapshot()})
		return
	}

	if err := h.api.FulfilRedemption(r.Context(), id); err != nil {
		if h.expired(w, r, err) {
			return
		}
		h.logger.Error("fulfil redemption", "id", id, "error", err)
		toast(w, session.ToastError, apiclient.Message(err))
	} else {
		c.Patch(id, func(rd *model.Redemption) { rd.Status = model.RedemptionFulfilled })
		h.changed(r, h.redemptions.Entity, "fulfilled", id, "")
		toast(w, session.ToastSuccess, "Redemption marked as fulfilled")
	}
	h.renderPartial(w, h.redemptions.PanelTmpl, listView[model.Redemption]{Screen: h.redemptions, State: c.Snapshot()})
}
