package rides

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ridesharing/pkg/httpx"
	"ridesharing/pkg/jwt"
)

// Handler exposes ride HTTP endpoints.
type Handler struct {
	svc      *Service
	createMW []func(http.Handler) http.Handler
}

// NewHandler wires a handler to the ride service. createMW wraps only the
// create endpoint (idempotency).
func NewHandler(svc *Service, createMW ...func(http.Handler) http.Handler) *Handler {
	return &Handler{svc: svc, createMW: createMW}
}

// Routes returns a chi.Router with all ride routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(jwt.RequireAuth)

	r.With(h.createMW...).Post("/", h.Create)

	r.Get("/rider/{riderId}", h.listByRider(ScopeAll))
	r.Get("/rider/{riderId}/active", h.listByRider(ScopeActive))
	r.Get("/rider/{riderId}/recent", h.listByRider(ScopeRecent))
	r.Get("/driver/{driverId}", h.listByDriver(ScopeAll))
	r.Get("/driver/{driverId}/active", h.listByDriver(ScopeActive))
	r.Get("/driver/{driverId}/recent", h.listByDriver(ScopeRecent))
	r.Get("/status/{status}", h.ListByStatus)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Get("/tracking", h.Tracking)
		r.Post("/accept", h.Accept)
		r.Post("/location", h.UpdateLocation)
		r.Post("/cancel", h.Cancel)
		r.Post("/reject", h.Reject)
		r.Post("/start", h.Start)
		r.Post("/verify-otp", h.VerifyOTP)
		r.Post("/complete", h.Complete)
		r.Put("/status", h.SetStatus)
	})

	return r
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	ride, err := h.svc.Create(r.Context(), req)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, map[string]any{"ride": ride})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, err)
		return
	}
	ride, card, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	body := map[string]any{"ride": ride}
	if card != nil {
		body["driver"] = card
	}
	httpx.OK(w, http.StatusOK, body)
}

func (h *Handler) listByRider(scope Scope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		riderID, err := httpx.IDParam(r, "riderId")
		if err != nil {
			httpx.Error(w, err)
			return
		}
		list, err := h.svc.ListByRider(r.Context(), riderID, scope)
		writeList(w, list, err)
	}
}

func (h *Handler) listByDriver(scope Scope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driverID, err := httpx.IDParam(r, "driverId")
		if err != nil {
			httpx.Error(w, err)
			return
		}
		list, err := h.svc.ListByDriver(r.Context(), driverID, scope)
		writeList(w, list, err)
	}
}

func (h *Handler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListByStatus(r.Context(), chi.URLParam(r, "status"), r.URL.Query().Get("vehicleType"))
	writeList(w, list, err)
}

func writeList(w http.ResponseWriter, list []*Ride, err error) {
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"rides": list, "count": len(list)})
}

func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var req AcceptRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	ride, err := h.svc.Accept(r.Context(), id, req.DriverID)
	writeRide(w, ride, err)
}

func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var req LocationRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	loc, err := h.svc.UpdateDriverLocation(r.Context(), id, *req.Latitude, *req.Longitude)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"location": loc})
}

func (h *Handler) Tracking(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, err)
		return
	}
	loc, err := h.svc.Tracking(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"location": loc})
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var req CancelRequest
	if err := httpx.DecodeOptional(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}

	ride, err := h.svc.Cancel(r.Context(), id, req.Reason)
	writeRide(w, ride, err)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, err)
		return
	}
	ride, err := h.svc.Reject(r.Context(), id)
	writeRide(w, ride, err)
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, err)
		return
	}
	ride, err := h.svc.Start(r.Context(), id)
	writeRide(w, ride, err)
}

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var req VerifyOTPRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	ride, err := h.svc.VerifyOtpAndStart(r.Context(), id, req.OTP)
	writeRide(w, ride, err)
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var req CompleteRequest
	if err := httpx.DecodeOptional(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}

	ride, err := h.svc.Complete(r.Context(), id, req)
	writeRide(w, ride, err)
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var req StatusRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	ride, err := h.svc.SetStatus(r.Context(), id, req.Status)
	writeRide(w, ride, err)
}

func writeRide(w http.ResponseWriter, ride *Ride, err error) {
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"ride": ride})
}
