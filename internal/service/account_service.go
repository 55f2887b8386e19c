package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/mercato/customer-accounts/internal/domain"
	"github.com/mercato/customer-accounts/internal/repository"
	"github.com/mercato/customer-accounts/pkg/auth"
	"github.com/mercato/customer-accounts/pkg/config"
	"github.com/mercato/customer-accounts/pkg/events"
	"github.com/mercato/customer-accounts/pkg/logger"
)

type AccountService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.Customer, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	List(ctx context.Context, limit, offset int) ([]domain.Customer, error)
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	Update(ctx context.Context, id int64, req *domain.UpdateCustomerRequest) (*domain.Customer, error)
	ChangePassword(ctx context.Context, id int64, req *domain.ChangePasswordRequest) error
	SoftDelete(ctx context.Context, id int64) (bool, error)
}

type accountService struct {
	customerRepo repository.CustomerRepository
	cartRepo     repository.CartRepository
	eventBus     events.Publisher
	config       *config.Config
}

func NewAccountService(
	customerRepo repository.CustomerRepository,
	cartRepo repository.CartRepository,
	eventBus events.Publisher,
	config *config.Config,
) AccountService {
	return &accountService{
		customerRepo: customerRepo,
		cartRepo:     cartRepo,
		eventBus:     eventBus,
		config:       config,
	}
}

func (s *accountService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.Customer, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Uniqueness is enforced by the customers.email constraint; a duplicate
	// surfaces as ErrEmailTaken from the repository.
	customer, err := s.customerRepo.Create(ctx, req, req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	if err := s.eventBus.Publish(ctx, events.CustomerRegistered, events.CustomerRegisteredEvent{
		CustomerID: customer.ID,
		Email:      customer.Email,
		Username:   customer.Username,
		CreatedAt:  customer.CreatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish customer.registered", "error", err, "customer_id", customer.ID)
	}

	return customer, nil
}

func (s *accountService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	customer, err := s.customerRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	if customer == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, customer.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := auth.NewSessionToken(customer.ID, s.config.Auth.JWTSecret, s.config.Auth.SessionTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create session token: %w", err)
	}

	cart, err := s.cartRepo.ListByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	return &domain.LoginResponse{
		Token: token,
		Cart:  cart,
	}, nil
}

func (s *accountService) List(ctx context.Context, limit, offset int) ([]domain.Customer, error) {
	customers, err := s.customerRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

func (s *accountService) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	if customer == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return customer, nil
}

func (s *accountService) Update(ctx context.Context, id int64, req *domain.UpdateCustomerRequest) (*domain.Customer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	customer, err := s.customerRepo.Update(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	if customer == nil {
		return nil, fmt.Errorf("id not found: %w", domain.ErrNotFound)
	}

	if err := s.eventBus.Publish(ctx, events.CustomerUpdated, events.CustomerUpdatedEvent{
		CustomerID: customer.ID,
		UpdatedAt:  customer.UpdatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish customer.updated", "error", err, "customer_id", customer.ID)
	}

	return customer, nil
}

func (s *accountService) ChangePassword(ctx context.Context, id int64, req *domain.ChangePasswordRequest) error {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find customer: %w", err)
	}
	if customer == nil {
		return fmt.Errorf("user not found, please signup: %w", domain.ErrNotFound)
	}

	if err := req.Validate(); err != nil {
		return err
	}

	matches, err := argon2id.ComparePasswordAndHash(req.OldPassword, customer.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !matches {
		return fmt.Errorf("old password is incorrect: %w", domain.ErrInvalidCredentials)
	}

	if req.OldPassword == req.NewPassword {
		return fmt.Errorf("%w: new password cannot be same as old password", domain.ErrValidation)
	}

	if err := s.customerRepo.UpdatePassword(ctx, id, req.NewPassword); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// SoftDelete marks the customer deleted. It succeeds whether or not the id
// exists; the returned bool lets the caller phrase the acknowledgement.
func (s *accountService) SoftDelete(ctx context.Context, id int64) (bool, error) {
	found, err := s.customerRepo.SoftDelete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete customer: %w", err)
	}

	if found {
		if err := s.eventBus.Publish(ctx, events.CustomerDeleted, events.CustomerDeletedEvent{
			CustomerID: id,
			DeletedAt:  time.Now(),
		}); err != nil {
			logger.WarnContext(ctx, "Failed to publish customer.deleted", "error", err, "customer_id", id)
		}
	}

	return found, nil
}
