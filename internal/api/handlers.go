package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"billbuddy/pos/internal/auth"
	"billbuddy/pos/internal/billing"
	"billbuddy/pos/internal/catalog"
	"billbuddy/pos/internal/config"
	"billbuddy/pos/internal/events"
	"billbuddy/pos/internal/sessions"
	"billbuddy/pos/internal/types"
)

// SessionCloser tears down the live assistant runner for a session.
type SessionCloser interface {
	CloseSession(sessionID string)
}

type Handlers struct {
	cfg      config.Config
	sessions *sessions.Store
	events   *events.Store
	catalog  *catalog.Store
	billing  *billing.Service
	closer   SessionCloser
}

func NewHandlers(cfg config.Config, st *sessions.Store, ev *events.Store, cat *catalog.Store, bs *billing.Service, closer SessionCloser) *Handlers {
	return &Handlers{cfg: cfg, sessions: st, events: ev, catalog: cat, billing: bs, closer: closer}
}

func (h *Handlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Session.TokenSecret == "" {
		http.Error(w, "assistant auth not configured", http.StatusBadRequest)
		return
	}
	id := uuid.New().String()
	sess := &sessions.Session{ID: id, CreatedAt: time.Now().UTC(), Status: "created"}
	_ = h.sessions.Create(sess)
	h.events.Append(id, "session_created", nil)

	exp := time.Now().Add(time.Duration(h.cfg.Session.TokenExpMin) * time.Minute).Unix()
	token := auth.GenerateSessionToken(h.cfg.Session.TokenSecret, id, exp)

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"ws_token":   token,
		"ws_url":     "/ws/assistant?session_id=" + id,
	})
}

func (h *Handlers) HandleCloseSession(w http.ResponseWriter, r *http.Request, id string) {
	if h.sessions.Get(id) == nil {
		http.NotFound(w, r)
		return
	}
	if h.closer != nil {
		h.closer.CloseSession(id)
	}
	h.events.Append(id, "session_close_requested", nil)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handlers) HandleMintWSToken(w http.ResponseWriter, r *http.Request, id string) {
	if h.sessions.Get(id) == nil {
		http.NotFound(w, r)
		return
	}
	if h.cfg.Session.TokenSecret == "" {
		http.Error(w, "assistant auth not configured", http.StatusBadRequest)
		return
	}
	exp := time.Now().Add(time.Duration(h.cfg.Session.TokenExpMin) * time.Minute).Unix()
	token := auth.GenerateSessionToken(h.cfg.Session.TokenSecret, id, exp)
	writeJSON(w, http.StatusOK, map[string]any{"ws_token": token})
}

func (h *Handlers) HandleListEvents(w http.ResponseWriter, r *http.Request, id string) {
	if h.sessions.Get(id) == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"events":     h.events.List(id),
	})
}

func (h *Handlers) HandleSearchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	products, err := h.catalog.Search(r.Context(), q, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handlers) HandlePutProduct(w http.ResponseWriter, r *http.Request) {
	var p types.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid product", http.StatusBadRequest)
		return
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if err := h.catalog.Put(r.Context(), p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type billItemRequest struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price,omitempty"`
}

type billRequest struct {
	CustomerName string            `json:"customer_name"`
	VehicleInfo  string            `json:"vehicle_info,omitempty"`
	Items        []billItemRequest `json:"items"`
}

// HandleCreateBill is the ordinary, non-voice checkout path. It runs the
// same billing transaction the voice flow uses.
func (h *Handlers) HandleCreateBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid bill", http.StatusBadRequest)
		return
	}
	cart := &billing.Cart{CustomerName: req.CustomerName, VehicleInfo: req.VehicleInfo}
	for _, it := range req.Items {
		p, err := h.catalog.Get(r.Context(), it.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				http.Error(w, "unknown product "+it.ProductID, http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		for i := 0; i < qty; i++ {
			cart.AddProduct(p)
		}
		if it.UnitPrice > 0 {
			cart.SetUnitPrice(p.ID, it.UnitPrice)
		}
	}

	bill, err := h.billing.Generate(r.Context(), cart)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrEmptyCart):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, billing.ErrInsufficientStock):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusBadGateway)
		}
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (h *Handlers) HandleListBills(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	bills, err := h.billing.List(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bills": bills})
}

func (h *Handlers) HandleGetBill(w http.ResponseWriter, r *http.Request, id string) {
	bill, err := h.billing.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, billing.ErrBillNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
