package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"strings"

	"ecom_back_end/internal/apperr"

	"github.com/gocql/gocql"
)

//go:embed schema.cql
var schemaCQL string

// Scylla est le Store adossé à une session gocql sur un seul keyspace.
type Scylla struct {
	session *gocql.Session
}

func NewScylla(session *gocql.Session) *Scylla {
	return &Scylla{session: session}
}

func (s *Scylla) Users() UserRepository { return scyllaUsers{s.session} }
func (s *Scylla) Products() ProductRepository { return scyllaProducts{s.session} }
func (s *Scylla) Categories() CategoryRepository { return scyllaCategories{s.session} }
func (s *Scylla) Orders() OrderRepository { return scyllaOrders{s.session} }
func (s *Scylla) Payments() PaymentRepository { return scyllaPayments{s.session} }
func (s *Scylla) Reviews() ReviewRepository { return scyllaReviews{s.session} }
func (s *Scylla) Addresses() AddressRepository { return scyllaAddresses{s.session} }
func (s *Scylla) Audit() AuditRepository { return scyllaAudit{s.session} }

// SchemaStatements découpe le schéma embarqué en instructions CQL.
func SchemaStatements() []string {
	var stmts []string
	for _, stmt := range strings.Split(schemaCQL, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// EnsureSchema crée les tables manquantes.
func EnsureSchema(ctx context.Context, session *gocql.Session) error {
	for _, stmt := range SchemaStatements() {
		if err := session.Query(stmt).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("échec migration: %w", err)
		}
	}
	log.Println("✅ Schéma ScyllaDB à jour")
	return nil
}

// notFound traduit l'absence de ligne gocql en sentinelle applicative.
func notFound(err error) error {
	if errors.Is(err, gocql.ErrNotFound) {
		return apperr.ErrNotFound
	}
	return err
}

// applyCAS exécute une requête conditionnelle (LWT) et indique si elle s'est appliquée.
func applyCAS(ctx context.Context, q *gocql.Query) (bool, error) {
	return q.WithContext(ctx).MapScanCAS(make(map[string]interface{}))
}

// mustApply renvoie ErrNotFound quand une écriture IF EXISTS ne s'applique pas.
func mustApply(ctx context.Context, q *gocql.Query) error {
	applied, err := applyCAS(ctx, q)
	if err != nil {
		return err
	}
	if !applied {
		return apperr.ErrNotFound
	}
	return nil
}
