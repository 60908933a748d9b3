package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freelanceflow/freelanceflow/internal/ledger"
)

const (
	invoiceColumns = `id, project_id, tenant_id, total, issue_date, due_date,
		status, notes, version, created_at, updated_at`
	selectInvoice = `SELECT ` + invoiceColumns + ` FROM invoices`

	selectPayment = `SELECT id, invoice_id, tenant_id, amount, payment_date, method,
		notes, created_at, updated_at FROM payments`

	selectProject = `SELECT p.id, p.tenant_id, p.client_id, c.name, p.name, p.status,
		p.budget, p.created_at
		FROM projects p JOIN clients c ON c.id = p.client_id`
)

type scanner interface {
	Scan(dest ...any) error
}

// queries runs ledger statements against the database or a transaction.
type queries struct {
	db dbtx
}

var _ ledger.Tx = queries{}

func (q queries) GetProject(ctx context.Context, id uuid.UUID) (ledger.Project, error) {
	p, err := scanProject(q.db.QueryRowContext(ctx, selectProject+` WHERE p.id = ?`, id.String()))
	return p, notFound(err, "project", id)
}

func (q queries) InsertInvoice(ctx context.Context, inv ledger.Invoice) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO invoices (id, project_id, tenant_id, total, issue_date, due_date,
			status, notes, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID.String(), inv.ProjectID.String(), inv.TenantID.String(), inv.Total.String(),
		formatDate(inv.IssueDate), formatDate(inv.DueDate), string(inv.Status), inv.Notes,
		inv.Version, formatTime(inv.CreatedAt), formatTime(inv.UpdatedAt))
	return err
}

// LockInvoice bumps the version. Being the transaction's first write, it
// holds the database write lock until commit.
func (q queries) LockInvoice(ctx context.Context, id uuid.UUID) (ledger.Invoice, error) {
	inv, err := scanInvoice(q.db.QueryRowContext(ctx, `
		UPDATE invoices SET version = version + 1
		WHERE id = ?
		RETURNING `+invoiceColumns, id.String()))
	return inv, notFound(err, "invoice", id)
}

func (q queries) UpdateInvoice(ctx context.Context, inv ledger.Invoice) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE invoices
		SET total = ?, issue_date = ?, due_date = ?, notes = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		inv.Total.String(), formatDate(inv.IssueDate), formatDate(inv.DueDate), inv.Notes,
		string(inv.Status), formatTime(inv.UpdatedAt), inv.ID.String())
	return affected(res, err, "invoice", inv.ID)
}

func (q queries) SetInvoiceStatus(ctx context.Context, id uuid.UUID, status ledger.InvoiceStatus, at time.Time) error {
	res, err := q.db.ExecContext(ctx, `UPDATE invoices SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(at), id.String())
	return affected(res, err, "invoice", id)
}

func (q queries) DeleteInvoice(ctx context.Context, id uuid.UUID) (int, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM payments WHERE invoice_id = ?`, id.String())
	if err != nil {
		return 0, err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	res, err = q.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id.String())
	if err := affected(res, err, "invoice", id); err != nil {
		return 0, err
	}
	return int(removed), nil
}

func (q queries) GetPayment(ctx context.Context, id uuid.UUID) (ledger.Payment, error) {
	p, err := scanPayment(q.db.QueryRowContext(ctx, selectPayment+` WHERE id = ?`, id.String()))
	return p, notFound(err, "payment", id)
}

func (q queries) InsertPayment(ctx context.Context, p ledger.Payment) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO payments (id, invoice_id, tenant_id, amount, payment_date, method, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.InvoiceID.String(), p.TenantID.String(), p.Amount.String(),
		formatDate(p.PaymentDate), string(p.Method), p.Notes, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	return err
}

func (q queries) UpdatePayment(ctx context.Context, p ledger.Payment) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE payments
		SET amount = ?, payment_date = ?, method = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		p.Amount.String(), formatDate(p.PaymentDate), string(p.Method), p.Notes,
		formatTime(p.UpdatedAt), p.ID.String())
	return affected(res, err, "payment", p.ID)
}

func (q queries) DeletePayment(ctx context.Context, id uuid.UUID) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id.String())
	return affected(res, err, "payment", id)
}

func (q queries) SumPayments(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, int, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT amount FROM payments WHERE invoice_id = ?`, invoiceID.String())
	if err != nil {
		return decimal.Zero, 0, err
	}
	amounts, err := collect(rows, func(row scanner) (decimal.Decimal, error) {
		var amount decimal.Decimal
		err := row.Scan(&amount)
		return amount, err
	})
	if err != nil {
		return decimal.Zero, 0, err
	}
	return decimal.Sum(decimal.Zero, amounts...), len(amounts), nil
}

func (q queries) listPayments(ctx context.Context, invoiceID uuid.UUID) ([]ledger.Payment, error) {
	rows, err := q.db.QueryContext(ctx, selectPayment+`
		WHERE invoice_id = ?
		ORDER BY payment_date, created_at, id`, invoiceID.String())
	if err != nil {
		return nil, err
	}
	return collect(rows, scanPayment)
}

func affected(res sql.Result, err error, entity string, id uuid.UUID) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.NotFound(entity, id)
	}
	return nil
}

func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func scanClient(row scanner) (ledger.Client, error) {
	var (
		c         ledger.Client
		createdAt string
	)
	if err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Company, &createdAt); err != nil {
		return ledger.Client{}, err
	}
	var err error
	c.CreatedAt, err = time.Parse(timeLayout, createdAt)
	return c, err
}

func scanProject(row scanner) (ledger.Project, error) {
	var (
		p         ledger.Project
		createdAt string
	)
	if err := row.Scan(&p.ID, &p.TenantID, &p.ClientID, &p.ClientName, &p.Name, &p.Status, &p.Budget, &createdAt); err != nil {
		return ledger.Project{}, err
	}
	var err error
	p.CreatedAt, err = time.Parse(timeLayout, createdAt)
	return p, err
}

func scanInvoice(row scanner) (ledger.Invoice, error) {
	return scanInvoiceWith(row)
}

// scanInvoiceWith scans the invoice columns followed by extra destinations.
func scanInvoiceWith(row scanner, extra ...any) (ledger.Invoice, error) {
	var (
		inv                  ledger.Invoice
		issue, due           string
		createdAt, updatedAt string
	)
	dest := []any{&inv.ID, &inv.ProjectID, &inv.TenantID, &inv.Total, &issue, &due,
		&inv.Status, &inv.Notes, &inv.Version, &createdAt, &updatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return ledger.Invoice{}, err
	}
	var err error
	if inv.IssueDate, err = time.Parse(dateLayout, issue); err != nil {
		return ledger.Invoice{}, err
	}
	if inv.DueDate, err = time.Parse(dateLayout, due); err != nil {
		return ledger.Invoice{}, err
	}
	if inv.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return ledger.Invoice{}, err
	}
	inv.UpdatedAt, err = time.Parse(timeLayout, updatedAt)
	return inv, err
}

func scanPayment(row scanner) (ledger.Payment, error) {
	var (
		p                    ledger.Payment
		paidOn               string
		createdAt, updatedAt string
	)
	if err := row.Scan(&p.ID, &p.InvoiceID, &p.TenantID, &p.Amount, &paidOn, &p.Method,
		&p.Notes, &createdAt, &updatedAt); err != nil {
		return ledger.Payment{}, err
	}
	var err error
	if p.PaymentDate, err = time.Parse(dateLayout, paidOn); err != nil {
		return ledger.Payment{}, err
	}
	if p.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return ledger.Payment{}, err
	}
	p.UpdatedAt, err = time.Parse(timeLayout, updatedAt)
	return p, err
}
