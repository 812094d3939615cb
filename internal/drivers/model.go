package drivers

import (
	"strings"
	"time"
)

// Status is the driver availability state. It moves independently of any
// ride the driver is attached to.
type Status string

const (
	StatusOffline   Status = "OFFLINE"
	StatusAvailable Status = "AVAILABLE"
	StatusOnline    Status = "ONLINE"
	StatusOnTrip    Status = "ON_TRIP"
	StatusBusy      Status = "BUSY"
)

// DefaultRole is stored when registration supplies none.
const DefaultRole = "Driver"

// ParseStatus matches token against the status set, ignoring case.
func ParseStatus(token string) (Status, bool) {
	switch s := Status(strings.ToUpper(strings.TrimSpace(token))); s {
	case StatusOffline, StatusAvailable, StatusOnline, StatusOnTrip, StatusBusy:
		return s, true
	}
	return "", false
}

// Driver represents a driver account.
type Driver struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Name          string    `json:"name"`
	LicenseNumber string    `json:"licenseNumber"`
	VehicleNumber string    `json:"vehicleNumber"`
	VehicleType   string    `json:"vehicleType"`
	VehicleModel  string    `json:"vehicleModel,omitempty"`
	VehicleColor  string    `json:"vehicleColor,omitempty"`
	PhoneNumber   string    `json:"phoneNumber,omitempty"`
	Gender        string    `json:"gender,omitempty"`
	Status        Status    `json:"status"`
	Role          string    `json:"role"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Patch is a merge-patch over the editable driver fields. Nil or blank
// strings are skipped, and a status that does not parse keeps the current one.
type Patch struct {
	Name          *string `json:"name"`
	VehicleNumber *string `json:"vehicleNumber"`
	VehicleType   *string `json:"vehicleType"`
	VehicleModel  *string `json:"vehicleModel"`
	VehicleColor  *string `json:"vehicleColor"`
	PhoneNumber   *string `json:"phoneNumber"`
	Gender        *string `json:"gender"`
	Status        *string `json:"status"`
}

// Apply merges p into d and reports whether anything changed.
func (d *Driver) Apply(p Patch) bool {
	changed := false
	set := func(dst *string, v *string) {
		if v == nil {
			return
		}
		if s := strings.TrimSpace(*v); s != "" && s != *dst {
			*dst = s
			changed = true
		}
	}
	set(&d.Name, p.Name)
	set(&d.VehicleNumber, p.VehicleNumber)
	set(&d.VehicleType, p.VehicleType)
	set(&d.VehicleModel, p.VehicleModel)
	set(&d.VehicleColor, p.VehicleColor)
	set(&d.PhoneNumber, p.PhoneNumber)
	set(&d.Gender, p.Gender)
	if p.Status != nil {
		if st, ok := ParseStatus(*p.Status); ok && st != d.Status {
			d.Status = st
			changed = true
		}
	}
	return changed
}

// RegisterRequest is the body for POST /api/drivers/register.
type RegisterRequest struct {
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=6"`
	Name          string `json:"name" validate:"required"`
	LicenseNumber string `json:"licenseNumber" validate:"required"`
	VehicleNumber string `json:"vehicleNumber" validate:"required"`
	VehicleType   string `json:"vehicleType" validate:"required"`
	VehicleModel  string `json:"vehicleModel"`
	VehicleColor  string `json:"vehicleColor"`
	PhoneNumber   string `json:"phoneNumber"`
	Gender        string `json:"gender"`
	Role          string `json:"role"`
}

// LoginRequest is the body for POST /api/drivers/login. Role is optional.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"`
}

// StatusRequest is the body for PUT /api/drivers/{id}/status.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AuthResponse is returned on register / login.
type AuthResponse struct {
	Token  string  `json:"token"`
	Driver *Driver `json:"driver,omitempty"`
}
