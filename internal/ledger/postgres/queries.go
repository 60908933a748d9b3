package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/freelanceflow/freelanceflow/internal/ledger"
)

const (
	invoiceColumns = `id, project_id, tenant_id, total::text, issue_date, due_date,
		status, notes, version, created_at, updated_at`
	selectInvoice = `SELECT ` + invoiceColumns + ` FROM invoices`

	selectPayment = `SELECT id, invoice_id, tenant_id, amount::text, payment_date, method,
		notes, created_at, updated_at FROM payments`

	selectProject = `SELECT p.id, p.tenant_id, p.client_id, c.name, p.name, p.status,
		p.budget::text, p.created_at
		FROM projects p JOIN clients c ON c.id = p.client_id`
)

// queries runs ledger statements against a pool or a transaction.
type queries struct {
	db dbtx
}

var _ ledger.Tx = queries{}

func (q queries) GetProject(ctx context.Context, id uuid.UUID) (ledger.Project, error) {
	p, err := scanProject(q.db.QueryRow(ctx, selectProject+` WHERE p.id = $1`, id))
	return p, notFound(err, "project", id)
}

func (q queries) InsertInvoice(ctx context.Context, inv ledger.Invoice) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO invoices (id, project_id, tenant_id, total, issue_date, due_date,
			status, notes, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9, $10, $11)`,
		inv.ID, inv.ProjectID, inv.TenantID, inv.Total.String(), inv.IssueDate, inv.DueDate,
		string(inv.Status), inv.Notes, inv.Version, inv.CreatedAt, inv.UpdatedAt)
	return err
}

// LockInvoice bumps the version, which takes the row lock until commit.
func (q queries) LockInvoice(ctx context.Context, id uuid.UUID) (ledger.Invoice, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE invoices SET version = version + 1
		WHERE id = $1
		RETURNING `+invoiceColumns, id)
	return scanInvoice(row, id)
}

func (q queries) UpdateInvoice(ctx context.Context, inv ledger.Invoice) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE invoices
		SET total = $2::numeric, issue_date = $3, due_date = $4, notes = $5, status = $6, updated_at = $7
		WHERE id = $1`,
		inv.ID, inv.Total.String(), inv.IssueDate, inv.DueDate, inv.Notes, string(inv.Status), inv.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ledger.NotFound("invoice", inv.ID)
	}
	return nil
}

func (q queries) SetInvoiceStatus(ctx context.Context, id uuid.UUID, status ledger.InvoiceStatus, at time.Time) error {
	tag, err := q.db.Exec(ctx, `UPDATE invoices SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ledger.NotFound("invoice", id)
	}
	return nil
}

func (q queries) DeleteInvoice(ctx context.Context, id uuid.UUID) (int, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM payments WHERE invoice_id = $1`, id)
	if err != nil {
		return 0, err
	}
	removed := int(tag.RowsAffected())
	if tag, err = q.db.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id); err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, ledger.NotFound("invoice", id)
	}
	return removed, nil
}

func (q queries) GetPayment(ctx context.Context, id uuid.UUID) (ledger.Payment, error) {
	p, err := scanPayment(q.db.QueryRow(ctx, selectPayment+` WHERE id = $1`, id))
	return p, notFound(err, "payment", id)
}

func (q queries) InsertPayment(ctx context.Context, p ledger.Payment) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO payments (id, invoice_id, tenant_id, amount, payment_date, method, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9)`,
		p.ID, p.InvoiceID, p.TenantID, p.Amount.String(), p.PaymentDate, string(p.Method), p.Notes, p.CreatedAt, p.UpdatedAt)
	return err
}

func (q queries) UpdatePayment(ctx context.Context, p ledger.Payment) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE payments
		SET amount = $2::numeric, payment_date = $3, method = $4, notes = $5, updated_at = $6
		WHERE id = $1`,
		p.ID, p.Amount.String(), p.PaymentDate, string(p.Method), p.Notes, p.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ledger.NotFound("payment", p.ID)
	}
	return nil
}

func (q queries) DeletePayment(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ledger.NotFound("payment", id)
	}
	return nil
}

// SumPayments runs as its own statement, so at READ COMMITTED it sees every
// payment committed before the invoice lock was granted.
func (q queries) SumPayments(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, int, error) {
	var (
		sum   string
		count int
	)
	err := q.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::text, COUNT(*)
		FROM payments WHERE invoice_id = $1`, invoiceID).Scan(&sum, &count)
	if err != nil {
		return decimal.Zero, 0, err
	}
	paid, err := parseAmount(sum)
	return paid, count, err
}

func parseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

func scanProject(row pgx.Row) (ledger.Project, error) {
	var (
		p      ledger.Project
		budget string
	)
	if err := row.Scan(&p.ID, &p.TenantID, &p.ClientID, &p.ClientName, &p.Name, &p.Status, &budget, &p.CreatedAt); err != nil {
		return ledger.Project{}, err
	}
	var err error
	p.Budget, err = parseAmount(budget)
	return p, err
}

func collectProjects(rows pgx.Rows) ([]ledger.Project, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ledger.Project, error) {
		return scanProject(row)
	})
}

func scanInvoice(row pgx.Row, id uuid.UUID) (ledger.Invoice, error) {
	inv, err := scanInvoiceRow(row)
	return inv, notFound(err, "invoice", id)
}

func scanInvoiceRow(row pgx.Row) (ledger.Invoice, error) {
	var (
		inv   ledger.Invoice
		total string
	)
	if err := row.Scan(&inv.ID, &inv.ProjectID, &inv.TenantID, &total, &inv.IssueDate, &inv.DueDate,
		&inv.Status, &inv.Notes, &inv.Version, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return ledger.Invoice{}, err
	}
	var err error
	inv.Total, err = parseAmount(total)
	return inv, err
}

func collectInvoices(rows pgx.Rows) ([]ledger.Invoice, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ledger.Invoice, error) {
		return scanInvoiceRow(row)
	})
}

func scanPayment(row pgx.Row) (ledger.Payment, error) {
	var (
		p      ledger.Payment
		amount string
	)
	if err := row.Scan(&p.ID, &p.InvoiceID, &p.TenantID, &amount, &p.PaymentDate, &p.Method,
		&p.Notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return ledger.Payment{}, err
	}
	var err error
	p.Amount, err = parseAmount(amount)
	return p, err
}

func collectPayments(rows pgx.Rows) ([]ledger.Payment, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ledger.Payment, error) {
		return scanPayment(row)
	})
}
