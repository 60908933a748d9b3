package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus enumerates the derived invoice statuses.
type InvoiceStatus string

const (
	StatusUnpaid        InvoiceStatus = "Unpaid"
	StatusPartiallyPaid InvoiceStatus = "Partially Paid"
	StatusPaid          InvoiceStatus = "Paid"
)

// Valid reports whether s is one of the known statuses.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case StatusUnpaid, StatusPartiallyPaid, StatusPaid:
		return true
	}
	return false
}

// PaymentMethod enumerates accepted payment methods.
type PaymentMethod string

const (
	MethodCreditCard   PaymentMethod = "Credit Card"
	MethodBankTransfer PaymentMethod = "Bank Transfer"
	MethodCash         PaymentMethod = "Cash"
	MethodCheck        PaymentMethod = "Check"
	MethodPayPal       PaymentMethod = "PayPal"
	MethodOther        PaymentMethod = "Other"
)

// PaymentMethods lists methods in display order.
var PaymentMethods = []PaymentMethod{
	MethodCreditCard, MethodBankTransfer, MethodCash, MethodCheck, MethodPayPal, MethodOther,
}

// Valid reports whether m is one of the known methods.
func (m PaymentMethod) Valid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// ProjectStatus is the lifecycle status of a project.
type ProjectStatus string

const (
	ProjectNotStarted ProjectStatus = "Not Started"
	ProjectInProgress ProjectStatus = "In Progress"
	ProjectOnHold     ProjectStatus = "On Hold"
	ProjectCompleted  ProjectStatus = "Completed"
	ProjectCancelled  ProjectStatus = "Cancelled"
)

// ProjectStatuses lists project statuses in lifecycle order.
var ProjectStatuses = []ProjectStatus{
	ProjectNotStarted, ProjectInProgress, ProjectOnHold, ProjectCompleted, ProjectCancelled,
}

// Valid reports whether s is one of the known project statuses.
func (s ProjectStatus) Valid() bool {
	for _, known := range ProjectStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Client is a tenant's customer. Read-only for the ledger.
type Client struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Name      string
	Email     string
	Company   string
	CreatedAt time.Time
}

// Project groups invoices for one client. Read-only for the ledger.
type Project struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	ClientID   uuid.UUID
	ClientName string
	Name       string
	Status     ProjectStatus
	Budget     decimal.Decimal
	CreatedAt  time.Time
}

// Invoice model. Status is derived from payments; TenantID is resolved
// through the owning project.
type Invoice struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	TenantID  uuid.UUID
	Total     decimal.Decimal
	IssueDate time.Time
	DueDate   time.Time
	Status    InvoiceStatus
	Notes     string
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InvoiceView is an invoice joined with its project and client names.
type InvoiceView struct {
	Invoice
	ProjectName string
	ClientName  string
}

// Payment model. TenantID is resolved through invoice and project.
type Payment struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	TenantID    uuid.UUID
	Amount      decimal.Decimal
	PaymentDate time.Time
	Method      PaymentMethod
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InvoiceBalance summarises what has been paid against an invoice.
type InvoiceBalance struct {
	InvoiceID    uuid.UUID
	Total        decimal.Decimal
	Paid         decimal.Decimal
	Remaining    decimal.Decimal
	PaymentCount int
	Status       InvoiceStatus
}

// CreateInvoiceInput for creating invoices.
type CreateInvoiceInput struct {
	ProjectID uuid.UUID
	Total     decimal.Decimal
	IssueDate time.Time
	DueDate   time.Time
	Notes     string
}

// UpdateInvoiceInput carries editable invoice fields. Status is an override
// only honoured while the invoice has no payments.
type UpdateInvoiceInput struct {
	Total     decimal.Decimal
	IssueDate time.Time
	DueDate   time.Time
	Notes     string
	Status    *InvoiceStatus
}

// PaymentInput for creating and updating payments.
type PaymentInput struct {
	Amount      decimal.Decimal
	PaymentDate time.Time
	Method      PaymentMethod
	Notes       string
}

// InvoiceFilter narrows tenant-wide invoice listings.
type InvoiceFilter struct {
	Status InvoiceStatus
	Limit  int
}

// Snapshot is a point-in-time read of everything a tenant owns.
type Snapshot struct {
	TenantID uuid.UUID
	TakenAt  time.Time
	Clients  []Client
	Projects []Project
	Invoices []Invoice
	Payments []Payment
}
