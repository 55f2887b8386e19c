package domain

import "time"

// ResetToken stores only the sha256 digest of the raw secret that was
// emailed to the customer. At most one live token exists per customer.
type ResetToken struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	TokenHash  string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password"`
}
