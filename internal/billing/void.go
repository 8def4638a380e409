package billing

import (
	"context"
	"fmt"
	"strings"

	"go-pos-billing/internal/apperr"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/models"
	"go-pos-billing/internal/stockledger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// VoidReasonPrefix starts the reason of every compensating ledger entry.
const VoidReasonPrefix = "void: "

// Void cancels an invoice. Each line's quantity goes back to stock through a
// compensating `in` entry and the row is kept with status Void. Payments stay
// where they are. Voiding a Void invoice changes nothing.
func (e *Engine) Void(ctx context.Context, invoiceID uint, actor, reason string) (*models.Invoice, error) {
	const op = "billing.Void"
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.Validation(op, "void reason is required")
	}

	var inv models.Invoice
	already := false
	err := e.store.Run(ctx, func(tx *gorm.DB) error {
		if err := tx.Preload("Lines", orderLines).First(&inv, invoiceID).Error; err != nil {
			return database.Lookup(err, op, "invoice", invoiceID)
		}
		if inv.Status == models.StatusVoid {
			already = true
			return nil
		}

		now := e.store.Now()
		for _, line := range inv.Lines {
			if err := stockledger.Append(tx, &models.StockEntry{
				ItemID:    line.ItemID,
				Kind:      models.StockIn,
				Quantity:  line.Quantity,
				Reason:    VoidReasonPrefix + reason,
				Reference: inv.Number,
				Note:      fmt.Sprintf("void of invoice %s line %d", inv.Number, line.Position+1),
				Actor:     actor,
			}); err != nil {
				return err
			}
			if err := tx.Model(&models.Item{}).Where("id = ?", line.ItemID).Updates(map[string]any{
				"quantity":     gorm.Expr("quantity + ?", line.Quantity),
				"last_updated": now,
				"updated_by":   actor,
			}).Error; err != nil {
				return err
			}
		}

		inv.Status = models.StatusVoid
		inv.VoidReason = reason
		inv.VoidedAt = &now
		inv.VoidedBy = actor
		return tx.Model(&inv).Select("status", "void_reason", "voided_at", "voided_by").Updates(&inv).Error
	})
	if err != nil {
		return nil, err
	}
	if !already {
		e.log.WithFields(logrus.Fields{"invoice": inv.Number, "reason": reason, "actor": actor}).Info("invoice voided")
	}
	return &inv, nil
}
