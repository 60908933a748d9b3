// Package postgres is the PostgreSQL ledger store.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freelanceflow/freelanceflow/internal/ledger"
	"github.com/freelanceflow/freelanceflow/internal/platform/db"
)

//go:embed schema.sql
var schema string

// DefaultRetries bounds how often a mutation is re-run after a
// serialization failure or deadlock.
const DefaultRetries = 3

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements ledger.Store on a pgx pool. Mutations run at READ
// COMMITTED and start by locking the invoice row; snapshots run in one
// read-only REPEATABLE READ transaction.
type Store struct {
	pool    *pgxpool.Pool
	q       queries
	retries int
}

var _ ledger.Store = (*Store)(nil)

// New wraps an open pool. retries <= 0 selects DefaultRetries.
func New(pool *pgxpool.Pool, retries int) *Store {
	if retries <= 0 {
		retries = DefaultRetries
	}
	return &Store{pool: pool, q: queries{db: pool}, retries: retries}
}

// Migrate creates the ledger tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ledger/postgres: migrate: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// WithTx runs fn in a READ COMMITTED transaction, retrying serialization
// failures. Exhausted retries surface as a retryable PersistenceError.
func (s *Store) WithTx(ctx context.Context, fn func(context.Context, ledger.Tx) error) error {
	err := db.Retry(ctx, s.retries, func() error {
		return db.WithTx(ctx, s.pool, db.ReadCommitted, func(tx pgx.Tx) error {
			return fn(ctx, queries{db: tx})
		})
	})
	if db.IsSerializationFailure(err) {
		return &ledger.PersistenceError{Op: "transaction", Err: err, Retryable: true}
	}
	return err
}

// CreateClient inserts a client row. Clients are managed outside the ledger;
// this is used by seeding and tests.
func (s *Store) CreateClient(ctx context.Context, c ledger.Client) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO clients (id, tenant_id, name, email, company, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.TenantID, c.Name, c.Email, c.Company, c.CreatedAt)
	return err
}

// CreateProject inserts a project row for an existing client.
func (s *Store) CreateProject(ctx context.Context, p ledger.Project) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO projects (id, tenant_id, client_id, name, status, budget, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7)`,
		p.ID, p.TenantID, p.ClientID, p.Name, string(p.Status), p.Budget.String(), p.CreatedAt)
	return err
}

func (s *Store) GetProject(ctx context.Context, id uuid.UUID) (ledger.Project, error) {
	return s.q.GetProject(ctx, id)
}

func (s *Store) GetInvoice(ctx context.Context, id uuid.UUID) (ledger.Invoice, error) {
	return scanInvoice(s.pool.QueryRow(ctx, selectInvoice+` WHERE id = $1`, id), id)
}

func (s *Store) ListInvoicesByProject(ctx context.Context, projectID uuid.UUID) ([]ledger.Invoice, error) {
	rows, err := s.pool.Query(ctx, selectInvoice+`
		WHERE project_id = $1
		ORDER BY issue_date DESC, created_at DESC, id`, projectID)
	if err != nil {
		return nil, err
	}
	return collectInvoices(rows)
}

func (s *Store) ListInvoicesByTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.InvoiceFilter) ([]ledger.InvoiceView, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT i.id, i.project_id, i.tenant_id, i.total::text, i.issue_date, i.due_date,
		       i.status, i.notes, i.version, i.created_at, i.updated_at, p.name, c.name
		FROM invoices i
		JOIN projects p ON p.id = i.project_id
		JOIN clients c ON c.id = p.client_id
		WHERE i.tenant_id = $1 AND ($2 = '' OR i.status = $2)
		ORDER BY i.issue_date DESC, i.created_at DESC, i.id
		LIMIT NULLIF($3::int, 0)`,
		tenantID, string(filter.Status), filter.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.InvoiceView
	for rows.Next() {
		var (
			v     ledger.InvoiceView
			total string
		)
		if err := rows.Scan(&v.ID, &v.ProjectID, &v.TenantID, &total, &v.IssueDate, &v.DueDate,
			&v.Status, &v.Notes, &v.Version, &v.CreatedAt, &v.UpdatedAt, &v.ProjectName, &v.ClientName); err != nil {
			return nil, err
		}
		if v.Total, err = parseAmount(total); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) GetPayment(ctx context.Context, id uuid.UUID) (ledger.Payment, error) {
	return s.q.GetPayment(ctx, id)
}

func (s *Store) ListPaymentsByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]ledger.Payment, error) {
	rows, err := s.pool.Query(ctx, selectPayment+`
		WHERE invoice_id = $1
		ORDER BY payment_date, created_at, id`, invoiceID)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

func (s *Store) ListPaidInvoiceIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT invoice_id FROM payments ORDER BY invoice_id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

// Snapshot reads the tenant's clients, projects, invoices and payments in a
// single read-only transaction.
func (s *Store) Snapshot(ctx context.Context, tenantID uuid.UUID) (ledger.Snapshot, error) {
	snap := ledger.Snapshot{TenantID: tenantID}
	err := db.WithTx(ctx, s.pool, db.SnapshotRead, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT NOW()`).Scan(&snap.TakenAt); err != nil {
			return err
		}

		rows, err := tx.Query(ctx, `
			SELECT id, tenant_id, name, email, company, created_at
			FROM clients WHERE tenant_id = $1 ORDER BY created_at, id`, tenantID)
		if err != nil {
			return err
		}
		snap.Clients, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (ledger.Client, error) {
			var c ledger.Client
			err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Company, &c.CreatedAt)
			return c, err
		})
		if err != nil {
			return err
		}

		rows, err = tx.Query(ctx, selectProject+` WHERE p.tenant_id = $1 ORDER BY p.created_at, p.id`, tenantID)
		if err != nil {
			return err
		}
		if snap.Projects, err = collectProjects(rows); err != nil {
			return err
		}

		rows, err = tx.Query(ctx, selectInvoice+` WHERE tenant_id = $1 ORDER BY created_at, id`, tenantID)
		if err != nil {
			return err
		}
		if snap.Invoices, err = collectInvoices(rows); err != nil {
			return err
		}

		rows, err = tx.Query(ctx, selectPayment+` WHERE tenant_id = $1 ORDER BY payment_date, id`, tenantID)
		if err != nil {
			return err
		}
		snap.Payments, err = collectPayments(rows)
		return err
	})
	if err != nil {
		return ledger.Snapshot{}, err
	}
	snap.TakenAt = snap.TakenAt.UTC()
	return snap, nil
}

func notFound(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.NotFound(entity, id)
	}
	return err
}
