package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mercato/customer-accounts/internal/domain"
	"github.com/mercato/customer-accounts/internal/repository"
	"github.com/mercato/customer-accounts/pkg/events"
	"github.com/mercato/customer-accounts/pkg/logger"
)

type CartService interface {
	AddItem(ctx context.Context, customerID int64, req *domain.AddCartItemRequest) (*domain.Customer, error)
	RemoveItem(ctx context.Context, customerID, productID int64) (*domain.Customer, error)
}

type cartService struct {
	customerRepo repository.CustomerRepository
	productRepo  repository.ProductRepository
	cartRepo     repository.CartRepository
	eventBus     events.Publisher
}

func NewCartService(
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
	eventBus events.Publisher,
) CartService {
	return &cartService{
		customerRepo: customerRepo,
		productRepo:  productRepo,
		cartRepo:     cartRepo,
		eventBus:     eventBus,
	}
}

// AddItem merges by product: an existing cart row has its quantity
// incremented, otherwise a new row is appended. The product's existence is
// only checked for first-time adds; an item already in the cart vouches for
// itself.
func (s *cartService) AddItem(ctx context.Context, customerID int64, req *domain.AddCartItemRequest) (*domain.Customer, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	if customer == nil {
		return nil, fmt.Errorf("customer not found: %w", domain.ErrNotFound)
	}

	inCart, err := s.cartRepo.Exists(ctx, customerID, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to check cart: %w", err)
	}

	if !inCart {
		product, err := s.productRepo.FindByID(ctx, req.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to find product: %w", err)
		}
		if product == nil {
			return nil, fmt.Errorf("product not found: %w", domain.ErrNotFound)
		}
	}

	if err := s.cartRepo.AddOrIncrement(ctx, customerID, req.ProductID, req.Quantity); err != nil {
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}

	s.publishCartUpdated(ctx, customerID, req.ProductID, "add")

	return s.withCart(ctx, customer)
}

func (s *cartService) RemoveItem(ctx context.Context, customerID, productID int64) (*domain.Customer, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	if customer == nil {
		return nil, fmt.Errorf("customer not found: %w", domain.ErrNotFound)
	}

	removed, err := s.cartRepo.Remove(ctx, customerID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}
	if !removed {
		return nil, domain.ErrProductNotInCart
	}

	s.publishCartUpdated(ctx, customerID, productID, "remove")

	return s.withCart(ctx, customer)
}

func (s *cartService) withCart(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	cart, err := s.cartRepo.ListByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	customer.CartItems = cart
	return customer, nil
}

func (s *cartService) publishCartUpdated(ctx context.Context, customerID, productID int64, action string) {
	if err := s.eventBus.Publish(ctx, events.CartUpdated, events.CartUpdatedEvent{
		CustomerID: customerID,
		ProductID:  productID,
		Action:     action,
		UpdatedAt:  time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish cart.updated", "error", err, "customer_id", customerID)
	}
}
