package billing

import (
	"context"
	"time"

	"go-pos-billing/internal/database"
	"go-pos-billing/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DeriveStatus is the invoice state machine. Draft and Void are kept as
// stored; otherwise full payment wins, then a due date in the past, then any
// payment at all.
func DeriveStatus(stored models.InvoiceStatus, paid, total decimal.Decimal, due, today time.Time) models.InvoiceStatus {
	switch stored {
	case models.StatusVoid, models.StatusDraft:
		return stored
	}
	switch {
	case paid.GreaterThanOrEqual(total):
		return models.StatusPaid
	case models.CivilDate(today).After(models.CivilDate(due)):
		return models.StatusOverdue
	case paid.IsPositive():
		return models.StatusPartial
	default:
		return models.StatusUnpaid
	}
}

// PaidAmount sums the payments recorded against an invoice. Amounts are
// summed as decimals, never in SQL.
func PaidAmount(db *gorm.DB, invoiceID uint) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	if err := db.Model(&models.Payment{}).Where("invoice_id = ?", invoiceID).Pluck("amount", &amounts).Error; err != nil {
		return decimal.Zero, err
	}
	return decimal.Sum(decimal.Zero, amounts...), nil
}

// RecomputeStatus derives the status from the invoice's payments and due date
// and stores it when it changed.
func RecomputeStatus(tx *gorm.DB, invoiceID uint, today time.Time) (models.InvoiceStatus, error) {
	var inv models.Invoice
	if err := tx.First(&inv, invoiceID).Error; err != nil {
		return "", database.Lookup(err, "billing.RecomputeStatus", "invoice", invoiceID)
	}
	paid, err := PaidAmount(tx, inv.ID)
	if err != nil {
		return "", err
	}
	next := DeriveStatus(inv.Status, paid, inv.Total, inv.DueDate, today)
	if next != inv.Status {
		if err := tx.Model(&inv).Update("status", next).Error; err != nil {
			return "", err
		}
	}
	return next, nil
}

// MaterializeOverdue stores the derived status of every open invoice, so
// overdue rows can be filtered on the column. It returns how many changed.
func (e *Engine) MaterializeOverdue(ctx context.Context) (int, error) {
	today := e.Today()
	changed := 0
	err := e.store.Run(ctx, func(tx *gorm.DB) error {
		changed = 0
		var open []models.Invoice
		if err := tx.Where("status IN ?", []models.InvoiceStatus{
			models.StatusUnpaid, models.StatusPartial, models.StatusOverdue,
		}).Order("id").Find(&open).Error; err != nil {
			return err
		}
		for _, inv := range open {
			next, err := RecomputeStatus(tx, inv.ID, today)
			if err != nil {
				return err
			}
			if next != inv.Status {
				changed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	e.log.WithFields(logrus.Fields{"changed": changed, "today": today.Format(models.DateLayout)}).Info("overdue statuses materialized")
	return changed, nil
}
