package profiles

import (
	"context"
	"encoding/json"
	"strings"

	"ridesharing/internal/apperrors"
	"ridesharing/internal/drivers"
	"ridesharing/internal/riders"
)

// Role selects which kind of account a profile request addresses. It is
// resolved once, at the edge, and everything below dispatches on the
// Account it produces.
type Role int

const (
	RoleRider Role = iota + 1
	RoleDriver
)

// ParseRole accepts RIDER or USER for riders and DRIVER for drivers,
// ignoring case.
func ParseRole(token string) (Role, bool) {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "RIDER", "USER":
		return RoleRider, true
	case "DRIVER":
		return RoleDriver, true
	}
	return 0, false
}

func (r Role) String() string {
	switch r {
	case RoleRider:
		return "RIDER"
	case RoleDriver:
		return "DRIVER"
	}
	return "UNKNOWN"
}

// Profile is the snapshot returned for either role. Exactly one of Rider
// and Driver is set.
type Profile struct {
	Type   string          `json:"type"`
	Rider  *riders.Rider   `json:"rider,omitempty"`
	Driver *drivers.Driver `json:"driver,omitempty"`
}

// Account is the capability both roles share.
type Account interface {
	Role() Role
	Snapshot() Profile
	// Apply merges a JSON patch and reports whether anything changed.
	Apply(patch []byte) (bool, error)
	Save(ctx context.Context) error
}

type riderAccount struct {
	r   *riders.Rider
	dir RiderDirectory
}

func (a *riderAccount) Role() Role { return RoleRider }

func (a *riderAccount) Snapshot() Profile {
	return Profile{Type: RoleRider.String(), Rider: a.r}
}

func (a *riderAccount) Apply(patch []byte) (bool, error) {
	var p riders.Patch
	if err := json.Unmarshal(patch, &p); err != nil {
		return false, apperrors.Validation("invalid rider patch")
	}
	return a.r.Apply(p), nil
}

func (a *riderAccount) Save(ctx context.Context) error { return a.dir.Save(ctx, a.r) }

type driverAccount struct {
	d   *drivers.Driver
	dir DriverDirectory
}

func (a *driverAccount) Role() Role { return RoleDriver }

func (a *driverAccount) Snapshot() Profile {
	return Profile{Type: RoleDriver.String(), Driver: a.d}
}

func (a *driverAccount) Apply(patch []byte) (bool, error) {
	var p drivers.Patch
	if err := json.Unmarshal(patch, &p); err != nil {
		return false, apperrors.Validation("invalid driver patch")
	}
	return a.d.Apply(p), nil
}

func (a *driverAccount) Save(ctx context.Context) error { return a.dir.Save(ctx, a.d) }
