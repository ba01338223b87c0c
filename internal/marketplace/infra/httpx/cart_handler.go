package httpx

import "net/http"

// ownedCart fails unless the cart belongs to the caller.
func (h *Handler) ownedCart(r *http.Request, cartID int64) error {
	sess, _ := sessionFrom(r.Context())
	_, err := h.carts.Owned(r.Context(), cartID, sess.UserID)
	return err
}

func (h *Handler) cartID(w http.ResponseWriter, r *http.Request, requested int64) {
	sess, _ := sessionFrom(r.Context())
	userID, err := ownUserID(sess, requested)
	if err != nil {
		fail(w, r, err)
		return
	}
	id, err := h.carts.GetCartID(r.Context(), userID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CartIDResponse{CartID: id})
}

// GetCartID serves POST /cart/getCartId {user_id}.
func (h *Handler) GetCartID(w http.ResponseWriter, r *http.Request) {
	var req CartIDRequest
	if err := h.decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	h.cartID(w, r, req.UserID)
}

// GetCartIDByUser serves GET /cart/getCartId/{userId}.
func (h *Handler) GetCartIDByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt(r, "userId")
	if err != nil {
		fail(w, r, err)
		return
	}
	h.cartID(w, r, userID)
}

func (h *Handler) CartData(w http.ResponseWriter, r *http.Request) {
	cartID, err := pathInt(r, "cartId")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.ownedCart(r, cartID); err != nil {
		fail(w, r, err)
		return
	}
	view, err := h.carts.CartData(r.Context(), cartID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCart(view))
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := h.decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.ownedCart(r, req.CartID); err != nil {
		fail(w, r, err)
		return
	}
	item, err := h.carts.AddItem(r.Context(), req.CartID, req.ProductID, req.Quantity)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapCartItem(item))
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	cartID, err := pathInt(r, "cartId")
	if err != nil {
		fail(w, r, err)
		return
	}
	itemID, err := pathInt(r, "itemId")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req UpdateItemRequest
	if err := h.decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.ownedCart(r, cartID); err != nil {
		fail(w, r, err)
		return
	}

	item, err := h.carts.UpdateItem(r.Context(), cartID, itemID, req.Quantity)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCartItem(item))
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	var req RemoveItemRequest
	if err := h.decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.ownedCart(r, req.CartID); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.carts.RemoveItem(r.Context(), req.CartID, req.ItemID); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveItems serves DELETE /cart/{cartId}: listed lines, or all of them.
func (h *Handler) RemoveItems(w http.ResponseWriter, r *http.Request) {
	cartID, err := pathInt(r, "cartId")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req RemoveItemsRequest
	if err := h.decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.ownedCart(r, cartID); err != nil {
		fail(w, r, err)
		return
	}

	if len(req.ItemIDs) == 0 {
		err = h.carts.Clear(r.Context(), cartID)
	} else {
		err = h.carts.RemoveItems(r.Context(), cartID, req.ItemIDs)
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
