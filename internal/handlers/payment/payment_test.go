package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/auth"
	"ecom_back_end/internal/middleware"
	"ecom_back_end/internal/models"
	"ecom_back_end/internal/repository"
	"ecom_back_end/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type tokenUsers map[string]*models.User

func (t tokenUsers) Authenticate(_ context.Context, token string) (*models.User, *auth.Claims, error) {
	u, ok := t[token]
	if !ok {
		return nil, nil, apperr.Unauthenticated("Token invalide")
	}
	return u, &auth.Claims{UserID: u.ID.String()}, nil
}

// signedGateway accepte uniquement les signatures connues.
type signedGateway struct {
	events map[string]*services.WebhookEvent
}

func (g *signedGateway) CreateIntent(_ context.Context, req services.IntentRequest) (*services.Intent, error) {
	return &services.Intent{ID: "pi_" + req.OrderID, ClientSecret: "secret_" + req.OrderID}, nil
}

func (g *signedGateway) ParseEvent(_ []byte, signature string) (*services.WebhookEvent, error) {
	ev, ok := g.events[signature]
	if !ok {
		return nil, errors.New("signature invalide")
	}
	return ev, nil
}

type paymentServer struct {
	router  *gin.Engine
	store   *repository.Memory
	gateway *signedGateway
	ada     *models.User
	bob     *models.User
}

func newPaymentServer(t *testing.T) *paymentServer {
	t.Helper()
	store := repository.NewMemory()
	ctx := context.Background()
	ada := &models.User{ID: gocql.TimeUUID(), FirstName: "Ada", Email: "ada@example.com"}
	bob := &models.User{ID: gocql.TimeUUID(), FirstName: "Bob", Email: "bob@example.com"}
	require.NoError(t, store.Users().Create(ctx, ada))
	require.NoError(t, store.Users().Create(ctx, bob))

	gateway := &signedGateway{events: map[string]*services.WebhookEvent{}}
	h := NewHandler(services.NewPaymentService(store.Payments(), store.Orders(), store.Users(), gateway, nil))

	authRequired := middleware.AuthRequired(tokenUsers{"ada": ada, "bob": bob})
	r := gin.New()
	r.POST("/payment/webhook", h.Webhook)
	r.POST("/payment/:orderId", authRequired, h.MakePayment)
	r.POST("/payment/:orderId/intent", authRequired, h.CreateIntent)
	r.GET("/payment_list", authRequired, h.List)
	r.GET("/payment/:paymentId", authRequired, h.Get)
	r.GET("/payment/user/:userId", authRequired, h.ListByUser)
	r.DELETE("/payment/:paymentId", authRequired, h.Delete)

	return &paymentServer{router: r, store: store, gateway: gateway, ada: ada, bob: bob}
}

func (s *paymentServer) order(t *testing.T, owner *models.User, total float64) *models.Order {
	t.Helper()
	o := &models.Order{
		ID:          gocql.TimeUUID(),
		UserID:      owner.ID,
		Items:       []models.OrderItem{{ProductID: gocql.TimeUUID(), Quantity: 1}},
		TotalAmount: total,
		Status:      models.OrderStatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, s.store.Orders().Create(context.Background(), o))
	return o
}

func (s *paymentServer) do(t *testing.T, method, path string, body any, token string, headers ...string) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func TestMakePayment(t *testing.T) {
	s := newPaymentServer(t)
	o := s.order(t, s.ada, 42)

	code, _ := s.do(t, http.MethodPost, "/payment/"+o.ID.String(), gin.H{"paymentMethod": "paypal"}, "bob")
	assert.Equal(t, http.StatusForbidden, code)

	code, body := s.do(t, http.MethodPost, "/payment/"+o.ID.String(), gin.H{}, "ada")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, body["errors"])

	code, body = s.do(t, http.MethodPost, "/payment/"+o.ID.String(), gin.H{"paymentMethod": "paypal"}, "ada")
	require.Equal(t, http.StatusCreated, code, body)
	p := body["payment"].(map[string]any)
	assert.Equal(t, models.PaymentStatusPaid, p["status"])
	assert.EqualValues(t, 42, p["amount"])

	code, _ = s.do(t, http.MethodPost, "/payment/"+o.ID.String(), gin.H{"paymentMethod": "paypal"}, "ada")
	assert.Equal(t, http.StatusBadRequest, code, "order already paid")

	payments, err := s.store.Payments().ListByOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	code, _ = s.do(t, http.MethodPost, "/payment/"+gocql.TimeUUID().String(), gin.H{"paymentMethod": "paypal"}, "ada")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPaymentReadsAreOwnerOnly(t *testing.T) {
	s := newPaymentServer(t)
	o := s.order(t, s.ada, 10)
	_, body := s.do(t, http.MethodPost, "/payment/"+o.ID.String(), gin.H{"paymentMethod": "paypal"}, "ada")
	id := body["payment"].(map[string]any)["id"].(string)

	code, _ := s.do(t, http.MethodGet, "/payment/"+id, nil, "bob")
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(t, http.MethodGet, "/payment/"+id, nil, "ada")
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodGet, "/payment/user/"+s.ada.ID.String(), nil, "bob")
	assert.Equal(t, http.StatusForbidden, code)
	code, body = s.do(t, http.MethodGet, "/payment/user/"+s.ada.ID.String(), nil, "ada")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["payments"], 1)

	code, body = s.do(t, http.MethodGet, "/payment_list", nil, "bob")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["payments"], 1)

	code, _ = s.do(t, http.MethodDelete, "/payment/"+id, nil, "bob")
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(t, http.MethodDelete, "/payment/"+id, nil, "ada")
	assert.Equal(t, http.StatusOK, code)

	stored, err := s.store.Orders().Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PaymentID)
}

func TestCardPaymentViaWebhook(t *testing.T) {
	s := newPaymentServer(t)
	o := s.order(t, s.ada, 99.5)

	code, body := s.do(t, http.MethodPost, "/payment/"+o.ID.String()+"/intent", nil, "ada")
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "secret_"+o.ID.String(), body["clientSecret"])
	assert.Equal(t, models.PaymentStatusPending, body["payment"].(map[string]any)["status"])

	s.gateway.events["sig-ok"] = &services.WebhookEvent{Type: services.EventIntentSucceeded, IntentID: "pi_" + o.ID.String()}

	code, _ = s.do(t, http.MethodPost, "/payment/webhook", gin.H{"id": "evt_1"}, "", "Stripe-Signature", "forged")
	assert.Equal(t, http.StatusBadRequest, code)

	for i := 0; i < 2; i++ {
		code, _ = s.do(t, http.MethodPost, "/payment/webhook", gin.H{"id": "evt_1"}, "", "Stripe-Signature", "sig-ok")
		assert.Equal(t, http.StatusOK, code)
	}

	stored, err := s.store.Orders().Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, stored.Status)
}
