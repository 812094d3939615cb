package riders

import (
	"strings"
	"time"
)

// DefaultRole is stored when signup supplies none.
const DefaultRole = "User"

// Rider represents a rider account.
type Rider struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	Age          int       `json:"age,omitempty"`
	Location     string    `json:"location,omitempty"`
	Avatar       string    `json:"avatar,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Patch is a merge-patch over the editable rider fields. Nil or blank
// strings are skipped; Age only applies when positive.
type Patch struct {
	Username *string `json:"username"`
	Phone    *string `json:"phone"`
	Age      *int    `json:"age"`
	Location *string `json:"location"`
	Avatar   *string `json:"avatar"`
}

// Apply merges p into r and reports whether anything changed.
func (r *Rider) Apply(p Patch) bool {
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
	set(&r.Username, p.Username)
	set(&r.Phone, p.Phone)
	set(&r.Location, p.Location)
	set(&r.Avatar, p.Avatar)
	if p.Age != nil && *p.Age > 0 && *p.Age != r.Age {
		r.Age = *p.Age
		changed = true
	}
	return changed
}

// SignupRequest is the body for POST /api/riders/signup.
type SignupRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
	Age      int    `json:"age" validate:"gte=0"`
	Location string `json:"location"`
	Avatar   string `json:"avatar"`
}

// LoginRequest is the body for POST /api/riders/login. Role is optional.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"`
}

// ChangePasswordRequest is the body for POST /api/riders/{id}/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// AuthResponse is returned on signup / login.
type AuthResponse struct {
	Token string `json:"token"`
	Rider *Rider `json:"rider,omitempty"`
}
