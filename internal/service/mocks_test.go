package service_test

import (
	"context"
	"sort"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/mercato/customer-accounts/internal/domain"
)

// ---------- Mocks ----------

type mockCustomerRepo struct {
	nextID    int64
	customers map[int64]*domain.Customer
}

func newMockCustomerRepo() *mockCustomerRepo {
	return &mockCustomerRepo{
		nextID:    1,
		customers: make(map[int64]*domain.Customer),
	}
}

func (m *mockCustomerRepo) Create(_ context.Context, req *domain.RegisterRequest, password string) (*domain.Customer, error) {
	for _, c := range m.customers {
		if c.Email == req.Email {
			return nil, domain.ErrEmailTaken
		}
	}

	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	c := &domain.Customer{
		ID:           m.nextID,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Status:       req.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.customers[c.ID] = c
	m.nextID++
	return c, nil
}

func (m *mockCustomerRepo) FindByEmail(_ context.Context, email string) (*domain.Customer, error) {
	for _, c := range m.customers {
		if c.Email == email {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockCustomerRepo) FindByID(_ context.Context, id int64) (*domain.Customer, error) {
	if c, ok := m.customers[id]; ok {
		return c, nil
	}
	return nil, nil
}

func (m *mockCustomerRepo) List(_ context.Context, limit, offset int) ([]domain.Customer, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var ids []int64
	for id, c := range m.customers {
		if !c.Deleted {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var result []domain.Customer
	for _, id := range ids {
		result = append(result, *m.customers[id])
	}

	if offset >= len(result) {
		return nil, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func (m *mockCustomerRepo) Update(_ context.Context, id int64, req *domain.UpdateCustomerRequest) (*domain.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, nil
	}

	if req.Email != nil {
		for _, other := range m.customers {
			if other.ID != id && other.Email == *req.Email {
				return nil, domain.ErrEmailTaken
			}
		}
		c.Email = *req.Email
	}
	if req.Username != nil {
		c.Username = *req.Username
	}
	if req.Address != nil {
		c.Address = *req.Address
	}
	if req.Phone != nil {
		c.Phone = *req.Phone
	}
	if req.OrderHistory != nil {
		c.OrderHistory = *req.OrderHistory
	}
	if req.PaymentMethods != nil {
		c.PaymentMethods = *req.PaymentMethods
	}
	if req.Status != nil {
		c.Status = *req.Status
	}
	if req.Deleted != nil {
		c.Deleted = *req.Deleted
	}
	c.UpdatedAt = time.Now()

	return c, nil
}

func (m *mockCustomerRepo) UpdatePassword(_ context.Context, id int64, password string) error {
	c, ok := m.customers[id]
	if !ok {
		return domain.ErrNotFound
	}

	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return err
	}
	c.PasswordHash = hash
	c.UpdatedAt = time.Now()
	return nil
}

func (m *mockCustomerRepo) SoftDelete(_ context.Context, id int64) (bool, error) {
	c, ok := m.customers[id]
	if !ok {
		return false, nil
	}
	now := time.Now()
	c.Deleted = true
	c.DeletedAt = &now
	c.UpdatedAt = now
	return true, nil
}

type mockProductRepo struct {
	products map[int64]*domain.Product
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[int64]*domain.Product)}
}

func (m *mockProductRepo) FindByID(_ context.Context, id int64) (*domain.Product, error) {
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, nil
}

func (m *mockProductRepo) add(id int64, name string, priceCents int64) {
	m.products[id] = &domain.Product{ID: id, Name: name, PriceCents: priceCents, CreatedAt: time.Now()}
}

type cartRow struct {
	productID int64
	quantity  int64
	addedAt   time.Time
}

type mockCartRepo struct {
	products *mockProductRepo
	carts    map[int64][]cartRow // customerID -> rows in insertion order
}

func newMockCartRepo(products *mockProductRepo) *mockCartRepo {
	return &mockCartRepo{
		products: products,
		carts:    make(map[int64][]cartRow),
	}
}

func (m *mockCartRepo) AddOrIncrement(_ context.Context, customerID, productID, quantity int64) error {
	rows := m.carts[customerID]
	for i := range rows {
		if rows[i].productID == productID {
			rows[i].quantity += quantity
			return nil
		}
	}
	m.carts[customerID] = append(rows, cartRow{productID: productID, quantity: quantity, addedAt: time.Now()})
	return nil
}

func (m *mockCartRepo) Remove(_ context.Context, customerID, productID int64) (bool, error) {
	rows := m.carts[customerID]
	for i := range rows {
		if rows[i].productID == productID {
			m.carts[customerID] = append(rows[:i], rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCartRepo) Exists(_ context.Context, customerID, productID int64) (bool, error) {
	for _, row := range m.carts[customerID] {
		if row.productID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCartRepo) ListByCustomer(_ context.Context, customerID int64) ([]domain.CartItem, error) {
	var items []domain.CartItem
	for _, row := range m.carts[customerID] {
		item := domain.CartItem{
			ProductID: row.productID,
			Quantity:  row.quantity,
			AddedAt:   row.addedAt,
		}
		if p, ok := m.products.products[row.productID]; ok {
			item.Name = p.Name
			item.PriceCents = p.PriceCents
		}
		items = append(items, item)
	}
	return items, nil
}

type mockResetRepo struct {
	nextID int64
	tokens map[int64]*domain.ResetToken // customerID -> token
}

func newMockResetRepo() *mockResetRepo {
	return &mockResetRepo{nextID: 1, tokens: make(map[int64]*domain.ResetToken)}
}

func (m *mockResetRepo) Replace(_ context.Context, customerID int64, tokenHash string, expiresAt time.Time) error {
	m.tokens[customerID] = &domain.ResetToken{
		ID:         m.nextID,
		CustomerID: customerID,
		TokenHash:  tokenHash,
		CreatedAt:  time.Now(),
		ExpiresAt:  expiresAt,
	}
	m.nextID++
	return nil
}

func (m *mockResetRepo) FindValid(_ context.Context, tokenHash string) (*domain.ResetToken, error) {
	for _, t := range m.tokens {
		if t.TokenHash == tokenHash && time.Now().Before(t.ExpiresAt) {
			return t, nil
		}
	}
	return nil, nil
}

func (m *mockResetRepo) DeleteByCustomer(_ context.Context, customerID int64) error {
	delete(m.tokens, customerID)
	return nil
}

func (m *mockResetRepo) DeleteExpired(_ context.Context) (int64, error) {
	var n int64
	for id, t := range m.tokens {
		if time.Now().After(t.ExpiresAt) {
			delete(m.tokens, id)
			n++
		}
	}
	return n, nil
}

type mockMailer struct {
	lastTo   string
	lastName string
	lastURL  string
	sendErr  error
}

func (m *mockMailer) SendPasswordResetEmail(toEmail, toName, resetURL string) error {
	m.lastTo = toEmail
	m.lastName = toName
	m.lastURL = resetURL
	return m.sendErr
}

type mockEventBus struct {
	published []string
}

func (m *mockEventBus) Publish(_ context.Context, subject string, _ interface{}) error {
	m.published = append(m.published, subject)
	return nil
}

func (m *mockEventBus) Close() error { return nil }
