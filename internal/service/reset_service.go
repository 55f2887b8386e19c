package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/mercato/customer-accounts/internal/domain"
	"github.com/mercato/customer-accounts/internal/mailer"
	"github.com/mercato/customer-accounts/internal/repository"
	"github.com/mercato/customer-accounts/pkg/config"
	"github.com/mercato/customer-accounts/pkg/events"
	"github.com/mercato/customer-accounts/pkg/logger"
)

type ResetService interface {
	RequestReset(ctx context.Context, email string) error
	CompleteReset(ctx context.Context, rawToken, newPassword string) error
}

type resetService struct {
	customerRepo repository.CustomerRepository
	resetRepo    repository.ResetTokenRepository
	mailer       mailer.Service
	eventBus     events.Publisher
	config       *config.Config
}

func NewResetService(
	customerRepo repository.CustomerRepository,
	resetRepo repository.ResetTokenRepository,
	mailer mailer.Service,
	eventBus events.Publisher,
	config *config.Config,
) ResetService {
	return &resetService{
		customerRepo: customerRepo,
		resetRepo:    resetRepo,
		mailer:       mailer,
		eventBus:     eventBus,
		config:       config,
	}
}

// SweepExpiredResetTokens periodically purges expired reset tokens until the
// context is cancelled.
func SweepExpiredResetTokens(ctx context.Context, resetRepo repository.ResetTokenRepository, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := resetRepo.DeleteExpired(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to delete expired reset tokens", "error", err)
				continue
			}
			if n > 0 {
				logger.InfoContext(ctx, "Deleted expired reset tokens", "count", n)
			}
		}
	}
}

// hashResetToken is the one-way digest applied before a token touches the
// database. The raw secret only ever travels in the reset email.
func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (s *resetService) RequestReset(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrValidation)
	}

	customer, err := s.customerRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find customer: %w", err)
	}
	if customer == nil {
		return fmt.Errorf("user does not exist: %w", domain.ErrNotFound)
	}

	// Raw secret: 32 random bytes hex-encoded, with the customer id appended
	// so a token can never validate against another account's digest.
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	rawToken := hex.EncodeToString(buf) + strconv.FormatInt(customer.ID, 10)

	expiresAt := time.Now().Add(s.config.Auth.ResetTokenTTL)
	if err := s.resetRepo.Replace(ctx, customer.ID, hashResetToken(rawToken), expiresAt); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset/%s", s.config.Frontend.BaseURL, rawToken)
	if err := s.mailer.SendPasswordResetEmail(customer.Email, customer.Username, resetURL); err != nil {
		// Email delivery is fire-and-forget; the token stays valid.
		logger.ErrorContext(ctx, "Failed to send reset email", "error", err, "customer_id", customer.ID)
	}

	return nil
}

func (s *resetService) CompleteReset(ctx context.Context, rawToken, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: password is required", domain.ErrValidation)
	}

	token, err := s.resetRepo.FindValid(ctx, hashResetToken(rawToken))
	if err != nil {
		return fmt.Errorf("failed to look up reset token: %w", err)
	}
	if token == nil {
		return domain.ErrResetTokenInvalid
	}

	customer, err := s.customerRepo.FindByID(ctx, token.CustomerID)
	if err != nil {
		return fmt.Errorf("failed to find customer: %w", err)
	}
	if customer == nil {
		// The owning account vanished; the token is worthless.
		return domain.ErrResetTokenInvalid
	}

	if err := s.customerRepo.UpdatePassword(ctx, customer.ID, newPassword); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	// Consume the token so it cannot replay within its validity window.
	if err := s.resetRepo.DeleteByCustomer(ctx, customer.ID); err != nil {
		logger.ErrorContext(ctx, "Failed to delete consumed reset token", "error", err, "customer_id", customer.ID)
	}

	if err := s.eventBus.Publish(ctx, events.CustomerPasswordReset, events.CustomerPasswordResetEvent{
		CustomerID: customer.ID,
		ResetAt:    time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish customer.password_reset", "error", err, "customer_id", customer.ID)
	}

	return nil
}
