package address

import (
	"strings"
	"time"
)

// SelectionNew asks checkout to save the entered billing info as a new address.
const SelectionNew = "new"

type BillingAddress struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	Pincode   string    `json:"pincode,omitempty"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Info is the billing block a shopper types in at checkout.
type Info struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address" validate:"required"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Pincode string `json:"pincode,omitempty"`
}

func (i Info) Trimmed() Info {
	return Info{
		Name:    strings.TrimSpace(i.Name),
		Phone:   strings.TrimSpace(i.Phone),
		Address: strings.TrimSpace(i.Address),
		City:    strings.TrimSpace(i.City),
		State:   strings.TrimSpace(i.State),
		Pincode: strings.TrimSpace(i.Pincode),
	}
}

// Flatten renders the single-line address stored on an order:
// "{address}, {city}, {state} - {pincode}". Empty parts are kept so the
// format stays stable for downstream parsers.
func (i Info) Flatten() string {
	return i.Address + ", " + i.City + ", " + i.State + " - " + i.Pincode
}

func (a BillingAddress) Info() Info {
	return Info{
		Name:    a.Name,
		Phone:   a.Phone,
		Address: a.Address,
		City:    a.City,
		State:   a.State,
		Pincode: a.Pincode,
	}
}
