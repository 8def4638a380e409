package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User - the seeded administrative identity plus any registered staff
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50" json:"username"`
	PasswordHash string    `json:"-"`    // Never return this in JSON
	Role         string    `json:"role"` // 'admin', 'cashier'
	CreatedAt    time.Time `json:"created_at"`
}

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// Item - the catalog; Quantity is a cache of the stock ledger
type Item struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:200;not null;index:idx_items_category_name,priority:2" json:"name"`
	Description string          `gorm:"size:1000" json:"description"`
	Category    string          `gorm:"size:100;not null;index:idx_items_category_name,priority:1" json:"category"`
	Quantity    int             `gorm:"not null;default:0" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:varchar(32);not null" json:"unit_price"`
	Supplier    string          `gorm:"size:200" json:"supplier"`
	LastUpdated time.Time       `gorm:"column:last_updated" json:"last_updated"`
	UpdatedBy   string          `gorm:"size:100" json:"updated_by"`
}

// Customer - the party an invoice is billed to
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:200;not null;index" json:"name"`
	Email     string    `gorm:"size:200" json:"email"`
	Phone     string    `gorm:"size:50" json:"phone"`
	Address   string    `gorm:"size:500" json:"address"`
	TaxID     string    `gorm:"size:50" json:"tax_id"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `gorm:"size:100" json:"created_by"`
}

// InvoiceStatus is the lifecycle position of an invoice.
type InvoiceStatus string

const (
	StatusDraft   InvoiceStatus = "Draft"
	StatusUnpaid  InvoiceStatus = "Unpaid"
	StatusPartial InvoiceStatus = "Partial"
	StatusPaid    InvoiceStatus = "Paid"
	StatusOverdue InvoiceStatus = "Overdue"
	StatusVoid    InvoiceStatus = "Void"
)

// Invoice - the committed transaction header
type Invoice struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Number         string          `gorm:"column:invoice_number;size:64;not null;uniqueIndex" json:"invoice_number"`
	CustomerID     uint            `gorm:"not null;index" json:"customer_id"`
	IssueDate      time.Time       `gorm:"not null;index" json:"issue_date"`
	DueDate        time.Time       `gorm:"not null" json:"due_date"`
	Subtotal       decimal.Decimal `gorm:"type:varchar(32);not null" json:"subtotal"`
	TaxRate        decimal.Decimal `gorm:"type:varchar(16);not null" json:"tax_rate"`
	TaxAmount      decimal.Decimal `gorm:"type:varchar(32);not null" json:"tax_amount"`
	DiscountRate   decimal.Decimal `gorm:"type:varchar(16);not null" json:"discount_rate"`
	DiscountAmount decimal.Decimal `gorm:"type:varchar(32);not null" json:"discount_amount"`
	Total          decimal.Decimal `gorm:"type:varchar(32);not null" json:"total_amount"`
	Status         InvoiceStatus   `gorm:"size:16;not null;index" json:"status"`
	Notes          string          `gorm:"size:2000" json:"notes"`
	VoidReason     string          `gorm:"size:500" json:"void_reason,omitempty"`
	VoidedAt       *time.Time      `json:"voided_at,omitempty"`
	VoidedBy       string          `gorm:"size:100" json:"voided_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	CreatedBy      string          `gorm:"size:100" json:"created_by"`
	Lines          []InvoiceLine   `gorm:"foreignKey:InvoiceID" json:"lines"`
}

// InvoiceLine - one row of an invoice, with price and description snapshots
type InvoiceLine struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	InvoiceID   uint            `gorm:"not null;index" json:"invoice_id"`
	Position    int             `gorm:"not null" json:"position"`
	ItemID      uint            `gorm:"not null;index" json:"item_id"`
	Description string          `gorm:"size:1000" json:"description"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:varchar(32);not null" json:"unit_price"` // Snapshot of price at commit
	LineTotal   decimal.Decimal `gorm:"type:varchar(32);not null" json:"line_total"`
}

func (l InvoiceLine) Qty() int { return l.Quantity }
func (l InvoiceLine) Price() decimal.Decimal { return l.UnitPrice }

// Payment - money received against an invoice
type Payment struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	InvoiceID  uint            `gorm:"not null;index" json:"invoice_id"`
	PaidAt     time.Time       `gorm:"not null;index" json:"paid_at"`
	Amount     decimal.Decimal `gorm:"type:varchar(32);not null" json:"amount"`
	Method     string          `gorm:"size:50;not null" json:"method"`
	Reference  string          `gorm:"size:200" json:"reference"`
	Notes      string          `gorm:"size:1000" json:"notes"`
	RecordedBy string          `gorm:"size:100" json:"recorded_by"`
}

// StockKind is the movement type of a ledger entry.
type StockKind string

const (
	StockIn     StockKind = "in"
	StockOut    StockKind = "out"
	StockAdjust StockKind = "adjust"
)

// StockEntry - one immutable inventory movement
type StockEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ItemID    uint      `gorm:"not null;index:idx_stock_item_time,priority:1" json:"item_id"`
	Kind      StockKind `gorm:"size:8;not null" json:"kind"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Decrease  bool      `gorm:"not null;default:false" json:"decrease"` // sign of an adjust
	Reason    string    `gorm:"size:500" json:"reason"`
	Reference string    `gorm:"size:64;index" json:"reference"`
	Note      string    `gorm:"size:500" json:"note"`
	CreatedAt time.Time `gorm:"not null;index:idx_stock_item_time,priority:2" json:"created_at"`
	Actor     string    `gorm:"size:100" json:"actor"`
}

// Signed returns the quantity with the sign of its effect on stock.
func (e StockEntry) Signed() int {
	switch {
	case e.Kind == StockOut:
		return -e.Quantity
	case e.Kind == StockAdjust && e.Decrease:
		return -e.Quantity
	default:
		return e.Quantity
	}
}

// Setting - one configuration key/value pair
type Setting struct {
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Value     string    `gorm:"size:1000;not null" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
	UpdatedBy string    `gorm:"size:100" json:"updated_by"`
}

// All lists every model for schema bootstrap.
func All() []any {
	return []any{
		&User{},
		&Setting{},
		&Item{},
		&Customer{},
		&Invoice{},
		&InvoiceLine{},
		&Payment{},
		&StockEntry{},
	}
}
