package wallets

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ridesharing/internal/apperrors"
	"ridesharing/pkg/httpx"
	"ridesharing/pkg/jwt"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(jwt.RequireAuth)

	r.Get("/{riderId}", h.Get)
	r.Post("/{riderId}/adjust", h.Adjust)
	r.Get("/{riderId}/sufficient", h.Sufficient)

	return r
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	riderID, err := httpx.IDParam(r, "riderId")
	if err != nil {
		httpx.Error(w, err)
		return
	}
	wallet, err := h.svc.Get(r.Context(), riderID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"wallet": wallet})
}

func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	riderID, err := httpx.IDParam(r, "riderId")
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var req AdjustRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	wallet, err := h.svc.Adjust(r.Context(), riderID, *req.Amount)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"wallet": wallet})
}

func (h *Handler) Sufficient(w http.ResponseWriter, r *http.Request) {
	riderID, err := httpx.IDParam(r, "riderId")
	if err != nil {
		httpx.Error(w, err)
		return
	}
	amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
	if err != nil {
		httpx.Error(w, apperrors.Validation("invalid amount"))
		return
	}
	ok, err := h.svc.HasSufficientBalance(r.Context(), riderID, amount)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"sufficient": ok})
}
