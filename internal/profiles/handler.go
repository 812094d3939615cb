package profiles

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ridesharing/internal/apperrors"
	"ridesharing/pkg/httpx"
	"ridesharing/pkg/jwt"
)

// Handler exposes profile HTTP endpoints.
type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(jwt.RequireAuth)

	r.Get("/vehicle-types", h.VehicleTypes)
	r.Get("/me", h.GetMe)
	r.Patch("/me", h.UpdateMe)
	r.Get("/{role}/email/{email}", h.GetByEmail)
	r.Get("/{role}/{id}", h.Get)
	r.Patch("/{role}/{id}", h.Update)
	r.Get("/{role}/{id}/exists", h.Exists)

	return r
}

func roleParam(r *http.Request) (Role, error) {
	role, ok := ParseRole(chi.URLParam(r, "role"))
	if !ok {
		return 0, apperrors.Validation("invalid role")
	}
	return role, nil
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	role, err := roleParam(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, err)
		return
	}
	p, err := h.svc.Get(r.Context(), role, id)
	writeProfile(w, p, err)
}

func (h *Handler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	role, err := roleParam(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	p, err := h.svc.GetByEmail(r.Context(), role, chi.URLParam(r, "email"))
	writeProfile(w, p, err)
}

func (h *Handler) Exists(w http.ResponseWriter, r *http.Request) {
	role, err := roleParam(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, err)
		return
	}
	ok, err := h.svc.Exists(r.Context(), role, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"exists": ok})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	role, err := roleParam(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, err)
		return
	}
	h.update(w, r, role, id)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	role, id, err := Me(jwt.GetClaims(r.Context()))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	p, err := h.svc.Get(r.Context(), role, id)
	writeProfile(w, p, err)
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	role, id, err := Me(jwt.GetClaims(r.Context()))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	h.update(w, r, role, id)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, role Role, id int64) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil || len(body) == 0 {
		httpx.Error(w, apperrors.Validation("invalid request body"))
		return
	}
	p, err := h.svc.Update(r.Context(), role, id, body)
	writeProfile(w, p, err)
}

func (h *Handler) VehicleTypes(w http.ResponseWriter, r *http.Request) {
	onlyAvailable, _ := strconv.ParseBool(r.URL.Query().Get("available"))
	types, err := h.svc.VehicleTypes(r.Context(), onlyAvailable)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"vehicleTypes": types})
}

func writeProfile(w http.ResponseWriter, p *Profile, err error) {
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"profile": p})
}
