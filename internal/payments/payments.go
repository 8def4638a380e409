// Package payments is the per-invoice payment ledger. Every insert or delete
// recomputes the invoice status in the same unit of work.
package payments

import (
	"context"
	"strings"
	"time"

	"go-pos-billing/internal/apperr"
	"go-pos-billing/internal/billing"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/models"
	"go-pos-billing/internal/money"
	"go-pos-billing/internal/settings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Ledger struct {
	store    *database.Store
	settings *settings.Service
	log      *logrus.Entry
}

func New(store *database.Store, cfg *settings.Service, logg *logrus.Logger) *Ledger {
	return &Ledger{store: store, settings: cfg, log: logg.WithField("module", "payments")}
}

// Input is one payment to record. AllowOverpayment accepts an amount that
// takes the invoice past total + tolerance.
type Input struct {
	InvoiceID        uint            `json:"invoice_id"`
	Amount           decimal.Decimal `json:"amount"`
	Method           string          `json:"method"`
	Reference        string          `json:"reference"`
	Notes            string          `json:"notes"`
	PaidAt           time.Time       `json:"paid_at"`
	AllowOverpayment bool            `json:"allow_overpayment"`
}

// Result is the stored payment and the invoice status it produced.
type Result struct {
	Payment models.Payment       `json:"payment"`
	Status  models.InvoiceStatus `json:"status"`
	Paid    decimal.Decimal      `json:"paid"`
	Balance decimal.Decimal      `json:"balance"`
}

// Record stores a payment and recomputes the invoice status.
func (l *Ledger) Record(ctx context.Context, in Input, actor string) (*Result, error) {
	const op = "payments.Record"
	in.Method = strings.TrimSpace(in.Method)
	if !in.Amount.IsPositive() {
		return nil, apperr.Validation(op, "amount must be positive")
	}
	if !money.ValidAmount(in.Amount) {
		return nil, apperr.Validation(op, "amount must have at most two decimals")
	}
	snap, err := l.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !snap.MethodEnabled(in.Method) {
		return nil, apperr.Validation(op, "payment method "+in.Method+" is not enabled")
	}

	now := l.store.Now()
	paidAt := now
	if !in.PaidAt.IsZero() {
		paidAt = models.Instant(in.PaidAt)
	}

	var res Result
	err = l.store.Run(ctx, func(tx *gorm.DB) error {
		var inv models.Invoice
		if err := tx.First(&inv, in.InvoiceID).Error; err != nil {
			return database.Lookup(err, op, "invoice", in.InvoiceID)
		}
		if inv.Status == models.StatusVoid {
			return apperr.Validation(op, "invoice "+inv.Number+" is void")
		}
		paid, err := billing.PaidAmount(tx, inv.ID)
		if err != nil {
			return err
		}
		after := paid.Add(in.Amount)
		if after.GreaterThan(inv.Total.Add(snap.OverpaymentTolerance)) && !in.AllowOverpayment {
			return &apperr.Error{
				Kind:    apperr.KindOverpayment,
				Op:      op,
				Message: apperr.MsgOverpayment + ": balance is " + inv.Total.Sub(paid).StringFixed(2),
			}
		}

		res.Payment = models.Payment{
			InvoiceID:  inv.ID,
			PaidAt:     paidAt,
			Amount:     in.Amount,
			Method:     in.Method,
			Reference:  strings.TrimSpace(in.Reference),
			Notes:      strings.TrimSpace(in.Notes),
			RecordedBy: actor,
		}
		if err := tx.Create(&res.Payment).Error; err != nil {
			return err
		}
		res.Status, err = billing.RecomputeStatus(tx, inv.ID, models.CivilDate(now))
		res.Paid = after
		res.Balance = inv.Total.Sub(after)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.log.WithFields(logrus.Fields{
		"invoice_id": in.InvoiceID,
		"amount":     in.Amount.String(),
		"method":     in.Method,
		"status":     res.Status,
		"actor":      actor,
	}).Info("payment recorded")
	return &res, nil
}

// Delete removes a payment and recomputes the invoice status from what is
// left and the due date.
func (l *Ledger) Delete(ctx context.Context, paymentID uint, actor string) (models.InvoiceStatus, error) {
	const op = "payments.Delete"
	var status models.InvoiceStatus
	var p models.Payment
	err := l.store.Run(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&p, paymentID).Error; err != nil {
			return database.Lookup(err, op, "payment", paymentID)
		}
		if err := tx.Delete(&p).Error; err != nil {
			return err
		}
		var err error
		status, err = billing.RecomputeStatus(tx, p.InvoiceID, models.CivilDate(l.store.Now()))
		return err
	})
	if err != nil {
		return "", err
	}
	l.log.WithFields(logrus.Fields{
		"payment_id": paymentID,
		"invoice_id": p.InvoiceID,
		"status":     status,
		"actor":      actor,
	}).Info("payment deleted")
	return status, nil
}

// List returns an invoice's payments in the order they were made.
func (l *Ledger) List(ctx context.Context, invoiceID uint) ([]models.Payment, error) {
	db := l.store.DB().WithContext(ctx)
	var inv models.Invoice
	if err := db.Select("id").First(&inv, invoiceID).Error; err != nil {
		return nil, database.Lookup(err, "payments.List", "invoice", invoiceID)
	}
	var out []models.Payment
	if err := db.Where("invoice_id = ?", invoiceID).Order("paid_at").Order("id").Find(&out).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "payments.List", err)
	}
	return out, nil
}
