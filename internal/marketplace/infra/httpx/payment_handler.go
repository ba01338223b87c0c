package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// PaymentSecret opens a PIX payment intent. The amount is in cents.
func (h *Handler) PaymentSecret(w http.ResponseWriter, r *http.Request) {
	var req PaymentSecretRequest
	if err := h.decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	intent, err := h.payments.CreateSecret(r.Context(), decimal.New(req.Amount, -2), req.Currency)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapIntent(intent))
}

func (h *Handler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	intent, err := h.payments.Status(r.Context(), chi.URLParam(r, "intentId"))
	if err != nil {
		fail(w, r, err)
		return
	}
	resp := mapIntent(intent)
	resp.ClientSecret = ""
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) PurchaseSample(w http.ResponseWriter, r *http.Request) {
	var req SamplePurchaseRequest
	if err := h.decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	sess, _ := sessionFrom(r.Context())
	purchase, order, err := h.samples.Purchase(r.Context(), sess.UserID, req.ProductID, req.PaymentIntentID)
	if err != nil {
		fail(w, r, err)
		return
	}
	resp := mapSample(purchase)
	o := mapOrder(order)
	resp.Order = &o
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) SamplePurchases(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFrom(r.Context())
	list, err := h.samples.List(r.Context(), sess.UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	out := make([]SamplePurchaseResponse, len(list))
	for i := range list {
		out[i] = mapSample(&list[i])
	}
	writeJSON(w, http.StatusOK, out)
}
