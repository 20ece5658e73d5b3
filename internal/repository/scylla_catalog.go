package repository

import (
	"context"

	"ecom_back_end/internal/models"

	"github.com/gocql/gocql"
)

// --- products ---

const productColumns = `product_id, name, description, price, quantity, category_id, image, created_at, updated_at`

type scyllaProducts struct{ session *gocql.Session }

func (r scyllaProducts) Create(ctx context.Context, p *models.Product) error {
	return r.session.Query(`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Price, p.Quantity, p.CategoryID, p.Image, p.CreatedAt, p.UpdatedAt,
	).WithContext(ctx).Exec()
}

func (r scyllaProducts) Get(ctx context.Context, id gocql.UUID) (*models.Product, error) {
	var p models.Product
	err := r.session.Query(`SELECT `+productColumns+` FROM products WHERE product_id = ?`, id).
		WithContext(ctx).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity, &p.CategoryID, &p.Image, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r scyllaProducts) List(ctx context.Context) ([]models.Product, error) {
	iter := r.session.Query(`SELECT ` + productColumns + ` FROM products`).WithContext(ctx).Iter()
	var (
		out []models.Product
		p   models.Product
	)
	for iter.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity, &p.CategoryID, &p.Image, &p.CreatedAt, &p.UpdatedAt) {
		out = append(out, p)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r scyllaProducts) Update(ctx context.Context, p *models.Product) error {
	return mustApply(ctx, r.session.Query(`UPDATE products SET name = ?, description = ?, price = ?, quantity = ?,
		category_id = ?, image = ?, updated_at = ? WHERE product_id = ? IF EXISTS`,
		p.Name, p.Description, p.Price, p.Quantity, p.CategoryID, p.Image, p.UpdatedAt, p.ID))
}

func (r scyllaProducts) Delete(ctx context.Context, id gocql.UUID) error {
	return mustApply(ctx, r.session.Query(`DELETE FROM products WHERE product_id = ? IF EXISTS`, id))
}

func (r scyllaProducts) CountByCategory(ctx context.Context, categoryID gocql.UUID) (int, error) {
	var n int
	err := r.session.Query(`SELECT COUNT(*) FROM products WHERE category_id = ? ALLOW FILTERING`, categoryID).
		WithContext(ctx).Scan(&n)
	return n, err
}

// --- categories ---

type scyllaCategories struct{ session *gocql.Session }

func (r scyllaCategories) Create(ctx context.Context, c *models.Category) error {
	return r.session.Query(`INSERT INTO categories (category_id, name, description, created_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, c.CreatedAt).WithContext(ctx).Exec()
}

func (r scyllaCategories) Get(ctx context.Context, id gocql.UUID) (*models.Category, error) {
	var c models.Category
	err := r.session.Query(`SELECT category_id, name, description, created_at FROM categories WHERE category_id = ?`, id).
		WithContext(ctx).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// GetByName parcourt la table : l'unicité des noms n'est vérifiée qu'au niveau applicatif.
func (r scyllaCategories) GetByName(ctx context.Context, name string) (*models.Category, error) {
	var c models.Category
	err := r.session.Query(`SELECT category_id, name, description, created_at FROM categories WHERE name = ? LIMIT 1 ALLOW FILTERING`, name).
		WithContext(ctx).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r scyllaCategories) List(ctx context.Context) ([]models.Category, error) {
	iter := r.session.Query(`SELECT category_id, name, description, created_at FROM categories`).WithContext(ctx).Iter()
	var (
		out []models.Category
		c   models.Category
	)
	for iter.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt) {
		out = append(out, c)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r scyllaCategories) Update(ctx context.Context, c *models.Category) error {
	return mustApply(ctx, r.session.Query(`UPDATE categories SET name = ?, description = ? WHERE category_id = ? IF EXISTS`,
		c.Name, c.Description, c.ID))
}

func (r scyllaCategories) Delete(ctx context.Context, id gocql.UUID) error {
	return mustApply(ctx, r.session.Query(`DELETE FROM categories WHERE category_id = ? IF EXISTS`, id))
}

// --- reviews ---

const reviewColumns = `review_id, user_id, product_id, rating, title, comment, created_at`

type scyllaReviews struct{ session *gocql.Session }

func (r scyllaReviews) Create(ctx context.Context, rv *models.Review) error {
	return r.session.Query(`INSERT INTO reviews (`+reviewColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rv.ID, rv.UserID, rv.ProductID, rv.Rating, rv.Title, rv.Comment, rv.CreatedAt).WithContext(ctx).Exec()
}

func (r scyllaReviews) Get(ctx context.Context, id gocql.UUID) (*models.Review, error) {
	var rv models.Review
	err := r.session.Query(`SELECT `+reviewColumns+` FROM reviews WHERE review_id = ?`, id).
		WithContext(ctx).Scan(&rv.ID, &rv.UserID, &rv.ProductID, &rv.Rating, &rv.Title, &rv.Comment, &rv.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &rv, nil
}

func (r scyllaReviews) list(ctx context.Context, where string, args ...interface{}) ([]models.Review, error) {
	iter := r.session.Query(`SELECT `+reviewColumns+` FROM reviews`+where, args...).WithContext(ctx).Iter()
	var (
		out []models.Review
		rv  models.Review
	)
	for iter.Scan(&rv.ID, &rv.UserID, &rv.ProductID, &rv.Rating, &rv.Title, &rv.Comment, &rv.CreatedAt) {
		out = append(out, rv)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r scyllaReviews) List(ctx context.Context) ([]models.Review, error) {
	return r.list(ctx, "")
}

func (r scyllaReviews) ListByProduct(ctx context.Context, productID gocql.UUID) ([]models.Review, error) {
	return r.list(ctx, ` WHERE product_id = ? ALLOW FILTERING`, productID)
}

func (r scyllaReviews) ListByUser(ctx context.Context, userID gocql.UUID) ([]models.Review, error) {
	return r.list(ctx, ` WHERE user_id = ? ALLOW FILTERING`, userID)
}

func (r scyllaReviews) Update(ctx context.Context, rv *models.Review) error {
	return mustApply(ctx, r.session.Query(`UPDATE reviews SET rating = ?, title = ?, comment = ? WHERE review_id = ? IF EXISTS`,
		rv.Rating, rv.Title, rv.Comment, rv.ID))
}

func (r scyllaReviews) Delete(ctx context.Context, id gocql.UUID) error {
	return mustApply(ctx, r.session.Query(`DELETE FROM reviews WHERE review_id = ? IF EXISTS`, id))
}

// --- addresses ---

type scyllaAddresses struct{ session *gocql.Session }

func (r scyllaAddresses) Create(ctx context.Context, a *models.Address) error {
	return r.session.Query(`INSERT INTO addresses (address_id, user_id, address_line, postal_code, phone, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.AddressLine, a.PostalCode, a.Phone, a.CreatedAt).WithContext(ctx).Exec()
}

func (r scyllaAddresses) Get(ctx context.Context, id gocql.UUID) (*models.Address, error) {
	var a models.Address
	err := r.session.Query(`SELECT address_id, user_id, address_line, postal_code, phone, created_at
		FROM addresses WHERE address_id = ?`, id).
		WithContext(ctx).Scan(&a.ID, &a.UserID, &a.AddressLine, &a.PostalCode, &a.Phone, &a.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r scyllaAddresses) ListByUser(ctx context.Context, userID gocql.UUID) ([]models.Address, error) {
	iter := r.session.Query(`SELECT address_id, user_id, address_line, postal_code, phone, created_at
		FROM addresses WHERE user_id = ? ALLOW FILTERING`, userID).WithContext(ctx).Iter()
	var (
		out []models.Address
		a   models.Address
	)
	for iter.Scan(&a.ID, &a.UserID, &a.AddressLine, &a.PostalCode, &a.Phone, &a.CreatedAt) {
		out = append(out, a)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r scyllaAddresses) Update(ctx context.Context, a *models.Address) error {
	return mustApply(ctx, r.session.Query(`UPDATE addresses SET address_line = ?, postal_code = ?, phone = ?
		WHERE address_id = ? IF EXISTS`, a.AddressLine, a.PostalCode, a.Phone, a.ID))
}

func (r scyllaAddresses) Delete(ctx context.Context, id gocql.UUID) error {
	return mustApply(ctx, r.session.Query(`DELETE FROM addresses WHERE address_id = ? IF EXISTS`, id))
}

// --- audit ---

type scyllaAudit struct{ session *gocql.Session }

func (r scyllaAudit) Insert(ctx context.Context, e models.AuditLog) error {
	return r.session.Query(`INSERT INTO audit_logs (
			id, user_id, action, resource, resource_id, ip_address, user_agent, success, error_msg, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Action, e.Resource, e.ResourceID, e.IPAddress, e.UserAgent, e.Success, e.ErrorMsg, e.Timestamp,
	).WithContext(ctx).Exec()
}
