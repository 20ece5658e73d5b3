package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ecom_back_end/internal/auth"
	"ecom_back_end/internal/cache"
	"ecom_back_end/internal/models"
	"ecom_back_end/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/gocql/gocql"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	mr       *miniredis.Miniredis
	rdb      *redis.Client
	store    *repository.Memory
	notifier *recordingNotifier
	carts    *CartService
	products *ProductService
	cats     *CategoryService
	orders   *OrderService
	payments *PaymentService
	users    *UserService
	tokens   *auth.TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := repository.NewMemory()
	notifier := &recordingNotifier{}
	listCache := cache.NewListCache(rdb)
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	carts := NewCartService(cache.NewCartStore(rdb), store.Products())
	env := &testEnv{
		mr:       mr,
		rdb:      rdb,
		store:    store,
		notifier: notifier,
		carts:    carts,
		products: NewProductService(store.Products(), store.Categories(), listCache, nil, nil),
		cats:     NewCategoryService(store.Categories(), store.Products(), listCache),
		orders:   NewOrderService(store.Orders(), store.Products(), store.Users(), notifier),
		payments: NewPaymentService(store.Payments(), store.Orders(), store.Users(), nil, notifier),
		tokens:   tokens,
	}
	env.users = NewUserService(store.Users(), tokens,
		auth.NewStrategies(auth.NewLocalStrategy(store.Users())),
		cache.NewTokenBlacklist(rdb), carts, notifier, "http://front.test")
	return env
}

func ptr[T any](v T) *T { return &v }

func (e *testEnv) category(t *testing.T, name string) *models.Category {
	t.Helper()
	c, err := e.cats.Create(context.Background(), CreateCategoryInput{Name: name})
	require.NoError(t, err)
	return c
}

func (e *testEnv) product(t *testing.T, name string, price float64) *models.Product {
	t.Helper()
	cat := e.category(t, "cat-"+name)
	p, err := e.products.Create(context.Background(), CreateProductInput{
		Name:        name,
		Description: "description " + name,
		Price:       ptr(price),
		Quantity:    ptr(10),
		Category:    cat.ID.String(),
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) user(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := e.users.Signup(context.Background(), SignupInput{
		FirstName: "Ada", LastName: "Lovelace", Email: email,
		Password: "s3cret", ConfirmPassword: "s3cret",
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) order(t *testing.T, userID gocql.UUID, total float64) *models.Order {
	t.Helper()
	p := e.product(t, "item-"+gocql.TimeUUID().String()[:8], total)
	o, err := e.orders.Create(context.Background(), userID, CreateOrderInput{
		Items:       []OrderItemInput{{Product: p.ID.String(), Quantity: ptr(1)}},
		TotalAmount: ptr(total),
	})
	require.NoError(t, err)
	return o
}

type recordingNotifier struct {
	mu       sync.Mutex
	resets   []string
	statuses []string
	paid     []gocql.UUID
}

func (n *recordingNotifier) PasswordReset(_ models.User, link string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resets = append(n.resets, link)
}

func (n *recordingNotifier) OrderStatusChanged(_ models.User, o models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, o.Status)
}

func (n *recordingNotifier) PaymentSucceeded(_ models.User, _ models.Order, p models.Payment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paid = append(n.paid, p.ID)
}

var errBadSignature = errors.New("signature invalide")

type fakeGateway struct {
	intents int
	events  map[string]*WebhookEvent
}

func (g *fakeGateway) CreateIntent(_ context.Context, req IntentRequest) (*Intent, error) {
	g.intents++
	return &Intent{ID: "pi_" + req.OrderID, ClientSecret: "secret_" + req.OrderID}, nil
}

func (g *fakeGateway) ParseEvent(payload []byte, signature string) (*WebhookEvent, error) {
	ev, ok := g.events[signature]
	if !ok {
		return nil, errBadSignature
	}
	return ev, nil
}
