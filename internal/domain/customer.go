package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type Customer struct {
	ID             int64           `json:"id"`
	Username       string          `json:"username"`
	Email          string          `json:"email"`
	PasswordHash   string          `json:"-"`
	Status         string          `json:"status"`
	Address        string          `json:"address"`
	Phone          string          `json:"phone"`
	OrderHistory   []OrderRef      `json:"order_history"`
	PaymentMethods []PaymentMethod `json:"payment_methods"`
	CartItems      []CartItem      `json:"cart_items"`
	Deleted        bool            `json:"deleted"`
	DeletedAt      *time.Time      `json:"deleted_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// OrderRef is a lightweight pointer into the order subsystem, stored as part
// of the customer record rather than resolved here.
type OrderRef struct {
	OrderID    int64     `json:"order_id"`
	PlacedAt   time.Time `json:"placed_at"`
	TotalCents int64     `json:"total_cents"`
}

type PaymentMethod struct {
	Kind  string `json:"kind"` // card, paypal, ...
	Label string `json:"label"`
	Last4 string `json:"last4,omitempty"`
}

// CartItem is a (product, quantity) pairing belonging to exactly one customer.
type CartItem struct {
	ProductID  int64     `json:"product_id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	Quantity   int64     `json:"quantity"`
	AddedAt    time.Time `json:"added_at"`
}

// Valid account statuses
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Status          string `json:"status,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string     `json:"token"`
	Cart  []CartItem `json:"cart"`
}

// UpdateCustomerRequest carries the whitelist of mutable profile fields.
// Nil means "leave unchanged".
type UpdateCustomerRequest struct {
	Username       *string          `json:"username,omitempty"`
	Email          *string          `json:"email,omitempty"`
	Address        *string          `json:"address,omitempty"`
	Phone          *string          `json:"phone,omitempty"`
	OrderHistory   *[]OrderRef      `json:"order_history,omitempty"`
	PaymentMethods *[]PaymentMethod `json:"payment_methods,omitempty"`
	Status         *string          `json:"status,omitempty"`
	Deleted        *bool            `json:"deleted,omitempty"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type AddCartItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// Validation methods

func (r *RegisterRequest) Validate() error {
	if r.Username == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if r.Email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !isValidEmail(r.Email) {
		return fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	if r.Password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	if r.Password != r.ConfirmPassword {
		return fmt.Errorf("%w: passwords do not match", ErrValidation)
	}
	return nil
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return fmt.Errorf("%w: please fill all required fields", ErrValidation)
	}
	return nil
}

// Validate checks only that both passwords are present. The same-password
// rule lives in the service, after the old password has been verified.
func (r *ChangePasswordRequest) Validate() error {
	if r.OldPassword == "" || r.NewPassword == "" {
		return fmt.Errorf("%w: please add old and new password", ErrValidation)
	}
	return nil
}

func (r *UpdateCustomerRequest) Validate() error {
	if r.Email != nil && !isValidEmail(*r.Email) {
		return fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	return nil
}

// Normalize methods

// NormalizeEmail is the canonical form every email takes before it is stored
// or looked up. Lookups must apply the same form as writes.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = NormalizeEmail(r.Email)
	if r.Status == "" {
		r.Status = StatusActive
	}
}

func (r *LoginRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}
