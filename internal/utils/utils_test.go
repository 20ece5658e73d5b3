package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/config"
	"ecom_back_end/internal/models"
	"ecom_back_end/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRespondError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", apperr.Validation("bad"), http.StatusBadRequest},
		{"conflict", apperr.Conflict("dup"), http.StatusBadRequest},
		{"unauthenticated", apperr.Unauthenticated("no"), http.StatusUnauthorized},
		{"forbidden", apperr.Forbidden("no"), http.StatusForbidden},
		{"not found", apperr.NotFound("absent"), http.StatusNotFound},
		{"sentinel", apperr.ErrNotFound, http.StatusNotFound},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			RespondError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, decodeBody(t, w)["message"])
		})
	}
}

func TestRespondError_DetailOnlyOutsideProduction(t *testing.T) {
	defer SetErrorDetail(true)

	run := func() map[string]any {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		RespondError(c, apperr.Internal("Erreur serveur", errors.New("connexion perdue")))
		return decodeBody(t, w)
	}

	SetErrorDetail(true)
	assert.Equal(t, "connexion perdue", run()["detail"])

	SetErrorDetail(false)
	_, ok := run()["detail"]
	assert.False(t, ok)
}

type bindTarget struct {
	Email    string `json:"email" binding:"required,email"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

func bind(t *testing.T, payload string) error {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	var dst bindTarget
	return BindJSON(c, &dst)
}

func TestBindJSON_FieldErrors(t *testing.T) {
	err := bind(t, `{"email":"nope","quantity":0}`)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)

	fields := map[string]string{}
	for _, f := range appErr.Fields {
		fields[f.Field] = f.Message
	}
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "quantity")
}

func TestBindJSON_TypeMismatch(t *testing.T) {
	err := bind(t, `{"email":"a@b.io","quantity":"two"}`)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "quantity", appErr.Fields[0].Field)
}

func TestBindJSON_EmptyBody(t *testing.T) {
	err := bind(t, ``)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestRenderEmails(t *testing.T) {
	html, err := renderEmail("reset_password", struct {
		Title, Name, Link string
	}{"Reset", "Ada <b>", "https://shop.test/reset?token=abc"})
	require.NoError(t, err)
	assert.Contains(t, html, "https://shop.test/reset?token=abc")
	assert.Contains(t, html, "Ada &lt;b&gt;")

	user := models.User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@shop.test"}
	order := models.Order{ID: gocql.TimeUUID(), Items: []models.OrderItem{{ProductID: gocql.TimeUUID(), Quantity: 2}}}
	payment := models.Payment{ID: gocql.TimeUUID(), OrderID: order.ID, Amount: 42.5, PaymentMethod: "card", CreatedAt: time.Now()}

	receipt, err := RenderReceiptHTML(user, order, payment)
	require.NoError(t, err)
	assert.Contains(t, receipt, "Ada Lovelace")
	assert.Contains(t, receipt, "42.50")
	assert.Contains(t, receipt, "data:image/png;base64,")
}

func TestPaymentQR(t *testing.T) {
	qr, err := PaymentQR(models.Payment{ID: gocql.TimeUUID(), ProviderRef: "pi_123", Amount: 10})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(qr, "data:image/png;base64,"))
}

func TestMailer_DisabledIsNoop(t *testing.T) {
	m := NewMailer(&config.Config{})
	assert.False(t, m.Enabled())
	assert.NoError(t, m.Send(context.Background(), "a@b.io", "sujet", "<p>x</p>"))
}

func TestAuditLogger_InsertsAsync(t *testing.T) {
	store := repository.NewMemory()
	logger := NewAuditLogger(store.Audit())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/delete_product/1", nil)
	c.Request.Header.Set("User-Agent", "test-agent")
	c.Set("user_id", "u-1")

	logger.LogFailedAction(c, ActionProductDelete, ResourceProduct, "1", "introuvable")

	require.Eventually(t, func() bool { return len(store.AuditEntries()) == 1 }, time.Second, 10*time.Millisecond)
	entry := store.AuditEntries()[0]
	assert.Equal(t, "u-1", entry.UserID)
	assert.Equal(t, "test-agent", entry.UserAgent)
	assert.False(t, entry.Success)
	assert.Equal(t, "introuvable", entry.ErrorMsg)
}

func TestAuditLogger_NilIsNoop(t *testing.T) {
	var logger *AuditLogger
	logger.Log(models.AuditLog{})
}
