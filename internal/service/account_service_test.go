package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/mercato/customer-accounts/internal/domain"
	"github.com/mercato/customer-accounts/internal/service"
	"github.com/mercato/customer-accounts/pkg/auth"
	"github.com/mercato/customer-accounts/pkg/config"
)

func setupAccountService() (service.AccountService, *mockCustomerRepo, *mockCartRepo, *config.Config) {
	customerRepo := newMockCustomerRepo()
	productRepo := newMockProductRepo()
	cartRepo := newMockCartRepo(productRepo)
	cfg := config.Load()

	svc := service.NewAccountService(customerRepo, cartRepo, &mockEventBus{}, cfg)
	return svc, customerRepo, cartRepo, cfg
}

func registerCustomer(t *testing.T, svc service.AccountService, username, email, password string) *domain.Customer {
	t.Helper()

	customer, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Username:        username,
		Email:           email,
		Password:        password,
		ConfirmPassword: password,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return customer
}

func TestRegister_PasswordMismatch_NoRecordCreated(t *testing.T) {
	svc, customerRepo, _, _ := setupAccountService()

	_, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Username:        "alice",
		Email:           "a@x.com",
		Password:        "p1",
		ConfirmPassword: "p2",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Expected validation error, got %v", err)
	}

	if len(customerRepo.customers) != 0 {
		t.Fatalf("Expected no record persisted, got %d", len(customerRepo.customers))
	}
}

func TestRegister_HashesPassword(t *testing.T) {
	svc, customerRepo, _, _ := setupAccountService()

	customer := registerCustomer(t, svc, "alice", "a@x.com", "p1")

	stored := customerRepo.customers[customer.ID]
	if stored.PasswordHash == "p1" {
		t.Fatal("Password stored in plaintext")
	}

	match, err := argon2id.ComparePasswordAndHash("p1", stored.PasswordHash)
	if err != nil || !match {
		t.Fatalf("Stored hash does not verify against raw password: match=%v err=%v", match, err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _, _ := setupAccountService()

	registerCustomer(t, svc, "alice", "a@x.com", "p1")

	_, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Username:        "alice2",
		Email:           "a@x.com",
		Password:        "p1",
		ConfirmPassword: "p1",
	})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("Expected ErrEmailTaken, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _, cartRepo, cfg := setupAccountService()
	customer := registerCustomer(t, svc, "alice", "a@x.com", "p1")

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), &domain.LoginRequest{Email: "nobody@x.com", Password: "p1"})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), &domain.LoginRequest{Email: "a@x.com", Password: "wrong"})
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("Expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.Login(context.Background(), &domain.LoginRequest{Email: "a@x.com"})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("Expected ErrValidation, got %v", err)
		}
	})

	t.Run("success returns token and cart", func(t *testing.T) {
		cartRepo.carts[customer.ID] = []cartRow{{productID: 7, quantity: 2}}

		result, err := svc.Login(context.Background(), &domain.LoginRequest{Email: "a@x.com", Password: "p1"})
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}

		claims, err := auth.Parse(result.Token, cfg.Auth.JWTSecret)
		if err != nil {
			t.Fatalf("Token does not parse: %v", err)
		}
		if claims.Sub != customer.ID {
			t.Fatalf("Expected sub %d, got %d", customer.ID, claims.Sub)
		}

		if len(result.Cart) != 1 || result.Cart[0].ProductID != 7 {
			t.Fatalf("Expected cart with product 7, got %+v", result.Cart)
		}
	})
}

func TestChangePassword(t *testing.T) {
	svc, _, _, _ := setupAccountService()
	customer := registerCustomer(t, svc, "alice", "a@x.com", "p1")

	tests := []struct {
		name    string
		id      int64
		req     domain.ChangePasswordRequest
		wantErr error
	}{
		{"unknown customer", 999, domain.ChangePasswordRequest{OldPassword: "p1", NewPassword: "p2"}, domain.ErrNotFound},
		{"missing old password", customer.ID, domain.ChangePasswordRequest{NewPassword: "p2"}, domain.ErrValidation},
		{"missing new password", customer.ID, domain.ChangePasswordRequest{OldPassword: "p1"}, domain.ErrValidation},
		{"same old and new", customer.ID, domain.ChangePasswordRequest{OldPassword: "p1", NewPassword: "p1"}, domain.ErrValidation},
		{"wrong old password", customer.ID, domain.ChangePasswordRequest{OldPassword: "nope", NewPassword: "p2"}, domain.ErrInvalidCredentials},
		// Credentials are checked before the same-password rule
		{"wrong old password equal to new", customer.ID, domain.ChangePasswordRequest{OldPassword: "nope", NewPassword: "nope"}, domain.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ChangePassword(context.Background(), tt.id, &tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	t.Run("success", func(t *testing.T) {
		err := svc.ChangePassword(context.Background(), customer.ID, &domain.ChangePasswordRequest{
			OldPassword: "p1",
			NewPassword: "p2",
		})
		if err != nil {
			t.Fatalf("ChangePassword failed: %v", err)
		}

		if _, err := svc.Login(context.Background(), &domain.LoginRequest{Email: "a@x.com", Password: "p2"}); err != nil {
			t.Fatalf("Login with new password failed: %v", err)
		}
		if _, err := svc.Login(context.Background(), &domain.LoginRequest{Email: "a@x.com", Password: "p1"}); err == nil {
			t.Fatal("Login with old password should fail")
		}
	})
}

func TestSoftDelete_Idempotent(t *testing.T) {
	svc, customerRepo, _, _ := setupAccountService()
	customer := registerCustomer(t, svc, "alice", "a@x.com", "p1")

	found, err := svc.SoftDelete(context.Background(), customer.ID)
	if err != nil || !found {
		t.Fatalf("First delete: found=%v err=%v", found, err)
	}

	stored := customerRepo.customers[customer.ID]
	if !stored.Deleted || stored.DeletedAt == nil {
		t.Fatal("Record not marked deleted")
	}

	// Repeated calls still succeed
	if found, err := svc.SoftDelete(context.Background(), customer.ID); err != nil || !found {
		t.Fatalf("Second delete: found=%v err=%v", found, err)
	}

	// Unknown ids succeed too, reported as not found
	if found, err := svc.SoftDelete(context.Background(), 999); err != nil || found {
		t.Fatalf("Unknown id: found=%v err=%v", found, err)
	}
}

func TestList_ExcludesSoftDeleted(t *testing.T) {
	svc, _, _, _ := setupAccountService()
	alice := registerCustomer(t, svc, "alice", "a@x.com", "p1")
	registerCustomer(t, svc, "bob", "b@x.com", "p1")

	if _, err := svc.SoftDelete(context.Background(), alice.ID); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}

	customers, err := svc.List(context.Background(), 20, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(customers) != 1 || customers[0].Email != "b@x.com" {
		t.Fatalf("Expected only bob, got %+v", customers)
	}
}

func TestUpdate(t *testing.T) {
	svc, _, _, _ := setupAccountService()
	customer := registerCustomer(t, svc, "alice", "a@x.com", "p1")

	t.Run("unknown id", func(t *testing.T) {
		username := "zoe"
		_, err := svc.Update(context.Background(), 999, &domain.UpdateCustomerRequest{Username: &username})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("applies whitelisted fields and bumps updated_at", func(t *testing.T) {
		before := customer.UpdatedAt

		username := "alice2"
		address := "1 Main St"
		updated, err := svc.Update(context.Background(), customer.ID, &domain.UpdateCustomerRequest{
			Username: &username,
			Address:  &address,
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		if updated.Username != "alice2" || updated.Address != "1 Main St" {
			t.Fatalf("Fields not applied: %+v", updated)
		}
		if updated.Email != "a@x.com" {
			t.Fatalf("Untouched field changed: %s", updated.Email)
		}
		if !updated.UpdatedAt.After(before) {
			t.Fatal("updated_at not bumped")
		}
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		bad := "not-an-email"
		_, err := svc.Update(context.Background(), customer.ID, &domain.UpdateCustomerRequest{Email: &bad})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("Expected ErrValidation, got %v", err)
		}
	})
}
