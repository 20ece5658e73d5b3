package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/models"

	"github.com/gocql/gocql"
)

// Memory est un Store en mémoire, utilisé par les tests et quand aucun
// cluster Scylla n'est configuré.
type Memory struct {
	mu         sync.RWMutex
	users      map[gocql.UUID]models.User
	products   map[gocql.UUID]models.Product
	categories map[gocql.UUID]models.Category
	orders     map[gocql.UUID]models.Order
	payments   map[gocql.UUID]models.Payment
	reviews    map[gocql.UUID]models.Review
	addresses  map[gocql.UUID]models.Address
	audit      []models.AuditLog
}

func NewMemory() *Memory {
	return &Memory{
		users:      make(map[gocql.UUID]models.User),
		products:   make(map[gocql.UUID]models.Product),
		categories: make(map[gocql.UUID]models.Category),
		orders:     make(map[gocql.UUID]models.Order),
		payments:   make(map[gocql.UUID]models.Payment),
		reviews:    make(map[gocql.UUID]models.Review),
		addresses:  make(map[gocql.UUID]models.Address),
	}
}

func (m *Memory) Users() UserRepository { return memUsers{m} }
func (m *Memory) Products() ProductRepository { return memProducts{m} }
func (m *Memory) Categories() CategoryRepository { return memCategories{m} }
func (m *Memory) Orders() OrderRepository { return memOrders{m} }
func (m *Memory) Payments() PaymentRepository { return memPayments{m} }
func (m *Memory) Reviews() ReviewRepository { return memReviews{m} }
func (m *Memory) Addresses() AddressRepository { return memAddresses{m} }
func (m *Memory) Audit() AuditRepository { return memAudit{m} }

// AuditEntries retourne une copie des logs d'audit enregistrés.
func (m *Memory) AuditEntries() []models.AuditLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.AuditLog(nil), m.audit...)
}

func collect[T any](src map[gocql.UUID]T, keep func(T) bool, createdAt func(T) time.Time) []T {
	out := make([]T, 0, len(src))
	for _, v := range src {
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return createdAt(out[i]).Before(createdAt(out[j]))
	})
	return out
}

// --- users ---

type memUsers struct{ m *Memory }

func (r memUsers) Create(_ context.Context, u *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.users {
		if existing.Email == u.Email {
			return apperr.ErrConflict
		}
	}
	r.m.users[u.ID] = *u
	return nil
}

func (r memUsers) GetByID(_ context.Context, id gocql.UUID) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) find(match func(models.User) bool) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, u := range r.m.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r memUsers) GetByProvider(_ context.Context, provider, providerID string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Provider == provider && u.ProviderID == providerID })
}

func (r memUsers) GetByResetToken(_ context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.ErrNotFound
	}
	return r.find(func(u models.User) bool { return u.ResetToken == token })
}

func (r memUsers) Update(_ context.Context, u *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[u.ID]; !ok {
		return apperr.ErrNotFound
	}
	r.m.users[u.ID] = *u
	return nil
}

// --- products ---

type memProducts struct{ m *Memory }

func (r memProducts) Create(_ context.Context, p *models.Product) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.products[p.ID] = *p
	return nil
}

func (r memProducts) Get(_ context.Context, id gocql.UUID) (*models.Product, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	p, ok := r.m.products[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &p, nil
}

func (r memProducts) List(_ context.Context) ([]models.Product, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return collect(r.m.products, nil, func(p models.Product) time.Time { return p.CreatedAt }), nil
}

func (r memProducts) Update(_ context.Context, p *models.Product) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.products[p.ID]; !ok {
		return apperr.ErrNotFound
	}
	r.m.products[p.ID] = *p
	return nil
}

func (r memProducts) Delete(_ context.Context, id gocql.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.products[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(r.m.products, id)
	return nil
}

func (r memProducts) CountByCategory(_ context.Context, categoryID gocql.UUID) (int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	n := 0
	for _, p := range r.m.products {
		if p.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

// --- categories ---

type memCategories struct{ m *Memory }

func (r memCategories) Create(_ context.Context, c *models.Category) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.categories[c.ID] = *c
	return nil
}

func (r memCategories) Get(_ context.Context, id gocql.UUID) (*models.Category, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	c, ok := r.m.categories[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &c, nil
}

func (r memCategories) GetByName(_ context.Context, name string) (*models.Category, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, c := range r.m.categories {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r memCategories) List(_ context.Context) ([]models.Category, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return collect(r.m.categories, nil, func(c models.Category) time.Time { return c.CreatedAt }), nil
}

func (r memCategories) Update(_ context.Context, c *models.Category) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.categories[c.ID]; !ok {
		return apperr.ErrNotFound
	}
	r.m.categories[c.ID] = *c
	return nil
}

func (r memCategories) Delete(_ context.Context, id gocql.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.categories[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(r.m.categories, id)
	return nil
}

// --- orders ---

type memOrders struct{ m *Memory }

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	if o.PaymentID != nil {
		id := *o.PaymentID
		o.PaymentID = &id
	}
	return o
}

func (r memOrders) Create(_ context.Context, o *models.Order) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (r memOrders) Get(_ context.Context, id gocql.UUID) (*models.Order, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	o, ok := r.m.orders[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

func (r memOrders) list(keep func(models.Order) bool) []models.Order {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := collect(r.m.orders, keep, func(o models.Order) time.Time { return o.CreatedAt })
	for i := range out {
		out[i] = cloneOrder(out[i])
	}
	return out
}

func (r memOrders) List(_ context.Context) ([]models.Order, error) {
	return r.list(nil), nil
}

func (r memOrders) ListByUser(_ context.Context, userID gocql.UUID) ([]models.Order, error) {
	return r.list(func(o models.Order) bool { return o.UserID == userID }), nil
}

func (r memOrders) Update(_ context.Context, o *models.Order) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.orders[o.ID]; !ok {
		return apperr.ErrNotFound
	}
	r.m.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (r memOrders) Delete(_ context.Context, id gocql.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.orders[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(r.m.orders, id)
	return nil
}

func (r memOrders) MarkPaid(_ context.Context, orderID, paymentID gocql.UUID, expectedStatus string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	o, ok := r.m.orders[orderID]
	if !ok {
		return false, apperr.ErrNotFound
	}
	if o.Status != expectedStatus {
		return false, nil
	}
	o.Status = models.OrderStatusPaid
	o.PaymentID = &paymentID
	o.UpdatedAt = time.Now()
	r.m.orders[orderID] = o
	return true, nil
}

func (r memOrders) ClearPayment(_ context.Context, orderID, paymentID gocql.UUID) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	o, ok := r.m.orders[orderID]
	if !ok {
		return false, apperr.ErrNotFound
	}
	if o.PaymentID == nil || *o.PaymentID != paymentID {
		return false, nil
	}
	o.PaymentID = nil
	o.UpdatedAt = time.Now()
	r.m.orders[orderID] = o
	return true, nil
}

// --- payments ---

type memPayments struct{ m *Memory }

func (r memPayments) Create(_ context.Context, p *models.Payment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.payments[p.ID] = *p
	return nil
}

func (r memPayments) Get(_ context.Context, id gocql.UUID) (*models.Payment, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	p, ok := r.m.payments[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &p, nil
}

func (r memPayments) GetByProviderRef(_ context.Context, ref string) (*models.Payment, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, p := range r.m.payments {
		if ref != "" && p.ProviderRef == ref {
			return &p, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r memPayments) list(keep func(models.Payment) bool) []models.Payment {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return collect(r.m.payments, keep, func(p models.Payment) time.Time { return p.CreatedAt })
}

func (r memPayments) List(_ context.Context) ([]models.Payment, error) {
	return r.list(nil), nil
}

func (r memPayments) ListByUser(_ context.Context, userID gocql.UUID) ([]models.Payment, error) {
	return r.list(func(p models.Payment) bool { return p.UserID == userID }), nil
}

func (r memPayments) ListByOrder(_ context.Context, orderID gocql.UUID) ([]models.Payment, error) {
	return r.list(func(p models.Payment) bool { return p.OrderID == orderID }), nil
}

func (r memPayments) ListByStatus(_ context.Context, status string) ([]models.Payment, error) {
	return r.list(func(p models.Payment) bool { return p.Status == status }), nil
}

func (r memPayments) UpdateStatus(_ context.Context, id gocql.UUID, status string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.payments[id]
	if !ok {
		return apperr.ErrNotFound
	}
	p.Status = status
	r.m.payments[id] = p
	return nil
}

func (r memPayments) Delete(_ context.Context, id gocql.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.payments[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(r.m.payments, id)
	return nil
}

// --- reviews ---

type memReviews struct{ m *Memory }

func (r memReviews) Create(_ context.Context, rv *models.Review) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.reviews[rv.ID] = *rv
	return nil
}

func (r memReviews) Get(_ context.Context, id gocql.UUID) (*models.Review, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	rv, ok := r.m.reviews[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &rv, nil
}

func (r memReviews) list(keep func(models.Review) bool) []models.Review {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return collect(r.m.reviews, keep, func(rv models.Review) time.Time { return rv.CreatedAt })
}

func (r memReviews) List(_ context.Context) ([]models.Review, error) {
	return r.list(nil), nil
}

func (r memReviews) ListByProduct(_ context.Context, productID gocql.UUID) ([]models.Review, error) {
	return r.list(func(rv models.Review) bool { return rv.ProductID == productID }), nil
}

func (r memReviews) ListByUser(_ context.Context, userID gocql.UUID) ([]models.Review, error) {
	return r.list(func(rv models.Review) bool { return rv.UserID == userID }), nil
}

func (r memReviews) Update(_ context.Context, rv *models.Review) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.reviews[rv.ID]; !ok {
		return apperr.ErrNotFound
	}
	r.m.reviews[rv.ID] = *rv
	return nil
}

func (r memReviews) Delete(_ context.Context, id gocql.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.reviews[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(r.m.reviews, id)
	return nil
}

// --- addresses ---

type memAddresses struct{ m *Memory }

func (r memAddresses) Create(_ context.Context, a *models.Address) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.addresses[a.ID] = *a
	return nil
}

func (r memAddresses) Get(_ context.Context, id gocql.UUID) (*models.Address, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	a, ok := r.m.addresses[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &a, nil
}

func (r memAddresses) ListByUser(_ context.Context, userID gocql.UUID) ([]models.Address, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return collect(r.m.addresses, func(a models.Address) bool { return a.UserID == userID },
		func(a models.Address) time.Time { return a.CreatedAt }), nil
}

func (r memAddresses) Update(_ context.Context, a *models.Address) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.addresses[a.ID]; !ok {
		return apperr.ErrNotFound
	}
	r.m.addresses[a.ID] = *a
	return nil
}

func (r memAddresses) Delete(_ context.Context, id gocql.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.addresses[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(r.m.addresses, id)
	return nil
}

// --- audit ---

type memAudit struct{ m *Memory }

func (r memAudit) Insert(_ context.Context, entry models.AuditLog) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.audit = append(r.m.audit, entry)
	return nil
}
