package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ecom_back_end/internal/models"

	"github.com/gocql/gocql"
)

// --- orders ---

const orderColumns = `order_id, user_id, items, total_amount, status, payment_id, created_at, updated_at`

type scyllaOrders struct{ session *gocql.Session }

// orderRow porte la colonne items, stockée en JSON texte.
type orderRow struct {
	order models.Order
	items string
}

func (row *orderRow) dest() []interface{} {
	o := &row.order
	return []interface{}{&o.ID, &o.UserID, &row.items, &o.TotalAmount, &o.Status, &o.PaymentID, &o.CreatedAt, &o.UpdatedAt}
}

func (row *orderRow) decode() (models.Order, error) {
	o := row.order
	o.Items = nil
	if row.items != "" {
		if err := json.Unmarshal([]byte(row.items), &o.Items); err != nil {
			return o, fmt.Errorf("décodage items commande %s: %w", o.ID, err)
		}
	}
	return o, nil
}

func (r scyllaOrders) Create(ctx context.Context, o *models.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	return r.session.Query(`INSERT INTO orders (`+orderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.UserID, string(items), o.TotalAmount, o.Status, o.PaymentID, o.CreatedAt, o.UpdatedAt,
	).WithContext(ctx).Exec()
}

func (r scyllaOrders) Get(ctx context.Context, id gocql.UUID) (*models.Order, error) {
	var row orderRow
	err := r.session.Query(`SELECT `+orderColumns+` FROM orders WHERE order_id = ?`, id).
		WithContext(ctx).Scan(row.dest()...)
	if err != nil {
		return nil, notFound(err)
	}
	o, err := row.decode()
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r scyllaOrders) list(ctx context.Context, where string, args ...interface{}) ([]models.Order, error) {
	iter := r.session.Query(`SELECT `+orderColumns+` FROM orders`+where, args...).WithContext(ctx).Iter()
	var (
		out []models.Order
		row orderRow
	)
	for iter.Scan(row.dest()...) {
		o, err := row.decode()
		if err != nil {
			iter.Close()
			return nil, err
		}
		out = append(out, o)
		row = orderRow{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r scyllaOrders) List(ctx context.Context) ([]models.Order, error) {
	return r.list(ctx, "")
}

func (r scyllaOrders) ListByUser(ctx context.Context, userID gocql.UUID) ([]models.Order, error) {
	return r.list(ctx, ` WHERE user_id = ? ALLOW FILTERING`, userID)
}

func (r scyllaOrders) Update(ctx context.Context, o *models.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	return mustApply(ctx, r.session.Query(`UPDATE orders SET items = ?, total_amount = ?, status = ?, updated_at = ?
		WHERE order_id = ? IF EXISTS`, string(items), o.TotalAmount, o.Status, o.UpdatedAt, o.ID))
}

func (r scyllaOrders) Delete(ctx context.Context, id gocql.UUID) error {
	return mustApply(ctx, r.session.Query(`DELETE FROM orders WHERE order_id = ? IF EXISTS`, id))
}

// MarkPaid est une LWT : deux paiements concurrents ne peuvent pas tous deux l'emporter.
func (r scyllaOrders) MarkPaid(ctx context.Context, orderID, paymentID gocql.UUID, expectedStatus string) (bool, error) {
	return applyCAS(ctx, r.session.Query(`UPDATE orders SET status = ?, payment_id = ?, updated_at = ?
		WHERE order_id = ? IF status = ?`,
		models.OrderStatusPaid, paymentID, time.Now(), orderID, expectedStatus))
}

func (r scyllaOrders) ClearPayment(ctx context.Context, orderID, paymentID gocql.UUID) (bool, error) {
	return applyCAS(ctx, r.session.Query(`UPDATE orders SET payment_id = null, updated_at = ?
		WHERE order_id = ? IF payment_id = ?`, time.Now(), orderID, paymentID))
}

// --- payments ---

const paymentColumns = `payment_id, user_id, order_id, amount, payment_method, status, provider_ref, created_at`

type scyllaPayments struct{ session *gocql.Session }

func paymentDest(p *models.Payment) []interface{} {
	return []interface{}{&p.ID, &p.UserID, &p.OrderID, &p.Amount, &p.PaymentMethod, &p.Status, &p.ProviderRef, &p.CreatedAt}
}

func (r scyllaPayments) Create(ctx context.Context, p *models.Payment) error {
	return r.session.Query(`INSERT INTO payments (`+paymentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.OrderID, p.Amount, p.PaymentMethod, p.Status, p.ProviderRef, p.CreatedAt,
	).WithContext(ctx).Exec()
}

func (r scyllaPayments) Get(ctx context.Context, id gocql.UUID) (*models.Payment, error) {
	var p models.Payment
	err := r.session.Query(`SELECT `+paymentColumns+` FROM payments WHERE payment_id = ?`, id).
		WithContext(ctx).Scan(paymentDest(&p)...)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r scyllaPayments) GetByProviderRef(ctx context.Context, ref string) (*models.Payment, error) {
	var p models.Payment
	err := r.session.Query(`SELECT `+paymentColumns+` FROM payments WHERE provider_ref = ? LIMIT 1 ALLOW FILTERING`, ref).
		WithContext(ctx).Scan(paymentDest(&p)...)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r scyllaPayments) list(ctx context.Context, where string, args ...interface{}) ([]models.Payment, error) {
	iter := r.session.Query(`SELECT `+paymentColumns+` FROM payments`+where, args...).WithContext(ctx).Iter()
	var (
		out []models.Payment
		p   models.Payment
	)
	for iter.Scan(paymentDest(&p)...) {
		out = append(out, p)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r scyllaPayments) List(ctx context.Context) ([]models.Payment, error) {
	return r.list(ctx, "")
}

func (r scyllaPayments) ListByUser(ctx context.Context, userID gocql.UUID) ([]models.Payment, error) {
	return r.list(ctx, ` WHERE user_id = ? ALLOW FILTERING`, userID)
}

func (r scyllaPayments) ListByOrder(ctx context.Context, orderID gocql.UUID) ([]models.Payment, error) {
	return r.list(ctx, ` WHERE order_id = ? ALLOW FILTERING`, orderID)
}

func (r scyllaPayments) ListByStatus(ctx context.Context, status string) ([]models.Payment, error) {
	return r.list(ctx, ` WHERE status = ? ALLOW FILTERING`, status)
}

func (r scyllaPayments) UpdateStatus(ctx context.Context, id gocql.UUID, status string) error {
	return mustApply(ctx, r.session.Query(`UPDATE payments SET status = ? WHERE payment_id = ? IF EXISTS`, status, id))
}

func (r scyllaPayments) Delete(ctx context.Context, id gocql.UUID) error {
	return mustApply(ctx, r.session.Query(`DELETE FROM payments WHERE payment_id = ? IF EXISTS`, id))
}
