package repository

import (
	"context"
	"fmt"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/models"

	"github.com/gocql/gocql"
)

const userColumns = `user_id, first_name, last_name, email, password, provider, provider_id,
	reset_token, reset_token_expires_at, created_at, updated_at`

type scyllaUsers struct{ session *gocql.Session }

func scanUser(scan func(dest ...interface{}) error) (*models.User, error) {
	var u models.User
	err := scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Password, &u.Provider, &u.ProviderID,
		&u.ResetToken, &u.ResetTokenExpiresAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// Create réserve l'email dans users_by_email (LWT) avant d'insérer l'utilisateur.
func (r scyllaUsers) Create(ctx context.Context, u *models.User) error {
	applied, err := applyCAS(ctx, r.session.Query(
		`INSERT INTO users_by_email (email, user_id) VALUES (?, ?) IF NOT EXISTS`, u.Email, u.ID))
	if err != nil {
		return fmt.Errorf("réservation email: %w", err)
	}
	if !applied {
		return apperr.ErrConflict
	}

	return r.session.Query(`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.FirstName, u.LastName, u.Email, u.Password, u.Provider, u.ProviderID,
		u.ResetToken, u.ResetTokenExpiresAt, u.CreatedAt, u.UpdatedAt,
	).WithContext(ctx).Exec()
}

func (r scyllaUsers) GetByID(ctx context.Context, id gocql.UUID) (*models.User, error) {
	q := r.session.Query(`SELECT `+userColumns+` FROM users WHERE user_id = ?`, id).WithContext(ctx)
	return scanUser(q.Scan)
}

func (r scyllaUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var id gocql.UUID
	err := r.session.Query(`SELECT user_id FROM users_by_email WHERE email = ?`, email).
		WithContext(ctx).Scan(&id)
	if err != nil {
		return nil, notFound(err)
	}
	return r.GetByID(ctx, id)
}

func (r scyllaUsers) GetByProvider(ctx context.Context, provider, providerID string) (*models.User, error) {
	q := r.session.Query(`SELECT `+userColumns+` FROM users WHERE provider = ? AND provider_id = ? LIMIT 1 ALLOW FILTERING`,
		provider, providerID).WithContext(ctx)
	return scanUser(q.Scan)
}

func (r scyllaUsers) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.ErrNotFound
	}
	q := r.session.Query(`SELECT `+userColumns+` FROM users WHERE reset_token = ? LIMIT 1 ALLOW FILTERING`, token).
		WithContext(ctx)
	return scanUser(q.Scan)
}

func (r scyllaUsers) Update(ctx context.Context, u *models.User) error {
	return mustApply(ctx, r.session.Query(`UPDATE users SET first_name = ?, last_name = ?, password = ?,
		provider = ?, provider_id = ?, reset_token = ?, reset_token_expires_at = ?, updated_at = ?
		WHERE user_id = ? IF EXISTS`,
		u.FirstName, u.LastName, u.Password, u.Provider, u.ProviderID,
		u.ResetToken, u.ResetTokenExpiresAt, u.UpdatedAt, u.ID))
}
