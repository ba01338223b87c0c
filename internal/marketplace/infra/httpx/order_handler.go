package httpx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
	"github.com/brail/marketplace/internal/marketplace/core/services"
	"github.com/brail/marketplace/internal/pkg/interceptors"
)

// CreateOrder stores a submitted order form as Pending.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := h.decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	sess, _ := sessionFrom(r.Context())
	userID, err := ownUserID(sess, req.UserID)
	if err != nil {
		fail(w, r, err)
		return
	}

	items := make([]entity.OrderItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = entity.OrderItem{
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			ProductImage: it.ProductImage,
			Quantity:     it.Quantity,
			Price:        it.Price,
		}
	}
	in := entity.NewOrderInput{
		UserID:       userID,
		CustomerName: req.CustomerName,
		Shipping: entity.ShippingAddress{
			Street:  req.ShippingStreet,
			City:    req.ShippingCity,
			Zipcode: req.ShippingZipcode,
		},
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		Items:         items,
	}

	idempKey := interceptors.IdempotencyKeyFromContext(r.Context())
	slog.InfoContext(r.Context(), "creating order",
		"request_id", interceptors.RequestIDFromContext(r.Context()), "user_id", userID)

	o, err := h.orders.Create(r.Context(), in, idempKey)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapOrder(o))
}

// Checkout turns cart lines into an order through the checkout saga.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := h.decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	sess, _ := sessionFrom(r.Context())

	in := services.CheckoutInput{
		UserID:        sess.UserID,
		CartID:        req.CartID,
		ItemIDs:       req.ItemIDs,
		CustomerName:  req.CustomerName,
		Shipping:      entity.ShippingAddress{Street: req.Shipping.Street, City: req.Shipping.City, Zipcode: req.Shipping.Zipcode},
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}

	// The saga outlives a dropped connection.
	sagaCtx := context.WithoutCancel(r.Context())
	o, err := h.checkout.Checkout(sagaCtx, in, interceptors.IdempotencyKeyFromContext(r.Context()))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapOrder(o))
}

// ListOrders serves POST /order/list {user_id}; user_id defaults to the caller.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var req ListOrdersRequest
	if err := h.decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	sess, _ := sessionFrom(r.Context())
	userID, err := ownUserID(sess, req.UserID)
	if err != nil {
		fail(w, r, err)
		return
	}

	orders, err := h.orders.List(r.Context(), userID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrders(orders))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFrom(r.Context())
	o, err := h.orders.Visible(r.Context(), sess, chi.URLParam(r, "orderId"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(o))
}

// OrderSaga returns the checkout saga log of an order.
func (h *Handler) OrderSaga(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFrom(r.Context())
	o, err := h.orders.Visible(r.Context(), sess, chi.URLParam(r, "orderId"))
	if err != nil {
		fail(w, r, err)
		return
	}
	history, err := h.orders.SagaHistory(r.Context(), o.ID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSagaHistory(history))
}

// UploadReceipt accepts a multipart form with the file in "receipt".
func (h *Handler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, entity.MaxReceiptSize+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			fail(w, r, entity.ErrReceiptTooLarge)
			return
		}
		v := entity.NewValidationError()
		v.Add("receipt", "multipart form with a receipt file is required")
		fail(w, r, v)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("receipt")
	if err != nil {
		v := entity.NewValidationError()
		v.Add("receipt", "required")
		fail(w, r, v)
		return
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, entity.MaxReceiptSize+1))
	if err != nil {
		fail(w, r, err)
		return
	}

	sess, _ := sessionFrom(r.Context())
	o, err := h.orders.AttachReceipt(r.Context(), sess.UserID, chi.URLParam(r, "orderId"), header.Filename, body)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(o))
}

// AdminOrders serves ?tab=pending|processed.
func (h *Handler) AdminOrders(w http.ResponseWriter, r *http.Request) {
	h.queue(w, r, r.URL.Query().Get("tab"), entity.QueuePending)
}

// LogisticsOrders serves ?stage=processing|shipped|samples|customs|cleared|delivered.
func (h *Handler) LogisticsOrders(w http.ResponseWriter, r *http.Request) {
	h.queue(w, r, r.URL.Query().Get("stage"), entity.QueueProcessing)
}

func (h *Handler) queue(w http.ResponseWriter, r *http.Request, name string, fallback entity.OrderQueue) {
	q := entity.OrderQueue(name)
	if name == "" {
		q = fallback
	}
	sess, _ := sessionFrom(r.Context())
	orders, err := h.orders.Queue(r.Context(), sess.Role, q)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrders(orders))
}

func (h *Handler) ReviewOrder(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if err := h.decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	sess, _ := sessionFrom(r.Context())
	o, err := h.orders.Review(r.Context(), sess, chi.URLParam(r, "orderId"), req.Decision == "approve", req.Reason)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(o))
}

// AdvanceOrder applies a logistics action {action, reason}.
func (h *Handler) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	var req StatusActionRequest
	if err := h.decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	action, ok := entity.ParseAction(req.Action)
	if !ok {
		v := entity.NewValidationError()
		v.Add("action", "unknown action "+req.Action)
		fail(w, r, v)
		return
	}
	sess, _ := sessionFrom(r.Context())
	o, err := h.orders.Advance(r.Context(), sess, chi.URLParam(r, "orderId"), action, req.Reason)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(o))
}
