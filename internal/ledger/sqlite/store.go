// Package sqlite is the embedded SQLite ledger store used for local runs
// and tests.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/freelanceflow/freelanceflow/internal/ledger"
)

//go:embed schema.sql
var schema string

const (
	dateLayout = "2006-01-02"
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements ledger.Store on SQLite. Write transactions begin
// IMMEDIATE so writers queue on the database lock instead of failing on
// upgrade. Reads go through a separate handle whose transactions begin
// DEFERRED, so under WAL they never wait for a writer.
type Store struct {
	db     *sql.DB
	reader *sql.DB
	q      queries
}

var _ ledger.Store = (*Store)(nil)

// Options tunes the SQLite connections.
type Options struct {
	// BusyTimeout bounds how long a writer waits for the database lock.
	BusyTimeout time.Duration
}

// Open opens (or creates) the database at path and migrates it. Use
// ":memory:" for a private in-memory database.
func Open(path string) (*Store, error) {
	return OpenWithOptions(path, Options{BusyTimeout: 5 * time.Second})
}

// OpenWithOptions is Open with explicit connection options.
func OpenWithOptions(path string, opts Options) (*Store, error) {
	busy := opts.BusyTimeout.Milliseconds()
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=%d&_txlock=immediate", path, busy))
	if err != nil {
		return nil, fmt.Errorf("ledger/sqlite: open: %w", err)
	}

	s := &Store{db: db, reader: db, q: queries{db: db}}
	if path == ":memory:" {
		// Every connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	if path != ":memory:" {
		reader, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=%d&_txlock=deferred&_query_only=true", path, busy))
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("ledger/sqlite: open reader: %w", err)
		}
		s.reader = reader
		s.q = queries{db: reader}
	}
	return s, nil
}

// Migrate creates the ledger tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ledger/sqlite: migrate: %w", err)
	}
	return nil
}

// Close closes both handles.
func (s *Store) Close() error {
	var readerErr error
	if s.reader != s.db {
		readerErr = s.reader.Close()
	}
	return errors.Join(s.db.Close(), readerErr)
}

// WithTx runs fn inside one IMMEDIATE transaction. Lock contention that
// outlasts the busy timeout surfaces as a retryable PersistenceError.
func (s *Store) WithTx(ctx context.Context, fn func(context.Context, ledger.Tx) error) error {
	err := s.withTx(ctx, fn)
	if isBusy(err) {
		return &ledger.PersistenceError{Op: "transaction", Err: err, Retryable: true}
	}
	return err
}

func (s *Store) withTx(ctx context.Context, fn func(context.Context, ledger.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ledger/sqlite: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, queries{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ledger/sqlite: commit tx: %w", err)
	}
	return nil
}

// isBusy reports whether err is SQLite lock contention.
func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}

// CreateClient inserts a client row for seeding and tests.
func (s *Store) CreateClient(ctx context.Context, c ledger.Client) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, tenant_id, name, email, company, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.TenantID.String(), c.Name, c.Email, c.Company, formatTime(c.CreatedAt))
	return err
}

// CreateProject inserts a project row for an existing client.
func (s *Store) CreateProject(ctx context.Context, p ledger.Project) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, tenant_id, client_id, name, status, budget, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.TenantID.String(), p.ClientID.String(), p.Name, string(p.Status),
		p.Budget.String(), formatTime(p.CreatedAt))
	return err
}

func (s *Store) GetProject(ctx context.Context, id uuid.UUID) (ledger.Project, error) {
	return s.q.GetProject(ctx, id)
}

func (s *Store) GetInvoice(ctx context.Context, id uuid.UUID) (ledger.Invoice, error) {
	inv, err := scanInvoice(s.reader.QueryRowContext(ctx, selectInvoice+` WHERE id = ?`, id.String()))
	return inv, notFound(err, "invoice", id)
}

func (s *Store) ListInvoicesByProject(ctx context.Context, projectID uuid.UUID) ([]ledger.Invoice, error) {
	rows, err := s.reader.QueryContext(ctx, selectInvoice+`
		WHERE project_id = ?
		ORDER BY issue_date DESC, created_at DESC, id`, projectID.String())
	if err != nil {
		return nil, err
	}
	return collect(rows, scanInvoice)
}

func (s *Store) ListInvoicesByTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.InvoiceFilter) ([]ledger.InvoiceView, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.reader.QueryContext(ctx, `
		SELECT i.id, i.project_id, i.tenant_id, i.total, i.issue_date, i.due_date,
		       i.status, i.notes, i.version, i.created_at, i.updated_at, p.name, c.name
		FROM invoices i
		JOIN projects p ON p.id = i.project_id
		JOIN clients c ON c.id = p.client_id
		WHERE i.tenant_id = ? AND (? = '' OR i.status = ?)
		ORDER BY i.issue_date DESC, i.created_at DESC, i.id
		LIMIT ?`,
		tenantID.String(), string(filter.Status), string(filter.Status), limit)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row scanner) (ledger.InvoiceView, error) {
		var v ledger.InvoiceView
		inv, err := scanInvoiceWith(row, &v.ProjectName, &v.ClientName)
		v.Invoice = inv
		return v, err
	})
}

func (s *Store) GetPayment(ctx context.Context, id uuid.UUID) (ledger.Payment, error) {
	return s.q.GetPayment(ctx, id)
}

func (s *Store) ListPaymentsByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]ledger.Payment, error) {
	return s.q.listPayments(ctx, invoiceID)
}

func (s *Store) ListPaidInvoiceIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.reader.QueryContext(ctx, `SELECT DISTINCT invoice_id FROM payments ORDER BY invoice_id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row scanner) (uuid.UUID, error) {
		var id uuid.UUID
		err := row.Scan(&id)
		return id, err
	})
}

// Snapshot reads the tenant's data inside one deferred read transaction.
func (s *Store) Snapshot(ctx context.Context, tenantID uuid.UUID) (ledger.Snapshot, error) {
	tx, err := s.reader.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Snapshot{}, fmt.Errorf("ledger/sqlite: begin snapshot: %w", err)
	}
	defer tx.Rollback()

	tenant := tenantID.String()
	snap := ledger.Snapshot{TenantID: tenantID, TakenAt: time.Now().UTC()}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, tenant_id, name, email, company, created_at
		FROM clients WHERE tenant_id = ? ORDER BY created_at, id`, tenant)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	snap.Clients, err = collect(rows, scanClient)
	if err != nil {
		return ledger.Snapshot{}, err
	}

	rows, err = tx.QueryContext(ctx, selectProject+` WHERE p.tenant_id = ? ORDER BY p.created_at, p.id`, tenant)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	if snap.Projects, err = collect(rows, scanProject); err != nil {
		return ledger.Snapshot{}, err
	}

	rows, err = tx.QueryContext(ctx, selectInvoice+` WHERE tenant_id = ? ORDER BY created_at, id`, tenant)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	if snap.Invoices, err = collect(rows, scanInvoice); err != nil {
		return ledger.Snapshot{}, err
	}

	rows, err = tx.QueryContext(ctx, selectPayment+` WHERE tenant_id = ? ORDER BY payment_date, id`, tenant)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	if snap.Payments, err = collect(rows, scanPayment); err != nil {
		return ledger.Snapshot{}, err
	}

	return snap, tx.Commit()
}

func notFound(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.NotFound(entity, id)
	}
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
