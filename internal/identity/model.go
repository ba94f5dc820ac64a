package identity

import "time"

const RoleAdmin = "admin"

type Profile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	City         string    `json:"city,omitempty"`
	State        string    `json:"state,omitempty"`
	Pincode      string    `json:"pincode,omitempty"`
	Country      string    `json:"country,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Contact is the denormalized contact block copied onto a profile when a
// shopper checks out with a new address.
type Contact struct {
	Phone   string
	Address string
	City    string
	State   string
	Pincode string
}

type SignupInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// User is the authenticated identity returned by signup and login.
type User struct {
	Profile Profile `json:"profile"`
	IsAdmin bool    `json:"isAdmin"`
}
