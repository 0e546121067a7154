package directory

import "time"

const (
	RoleAdmin      = "Admin"
	RoleSupervisor = "Supervisor"
	RoleUser       = "User"
)

// User is an operator account in the plant directory. The core reads it only
// to resolve push-notification recipients; account management lives elsewhere.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Active       bool      `json:"is_active"`
	PushEnabled  bool      `json:"push_notifications_enabled"`
	DeviceTokens []string  `json:"device_tokens,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
