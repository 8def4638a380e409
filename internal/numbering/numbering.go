// Package numbering allocates invoice numbers from the persistent counter in
// the settings table. Allocation happens inside the caller's transaction, so a
// rolled-back commit never consumes a number.
package numbering

import (
	"fmt"
	"strconv"

	"go-pos-billing/internal/apperr"
	"go-pos-billing/internal/models"

	"gorm.io/gorm"
)

// Allocation is the number handed to one invoice.
type Allocation struct {
	Prefix string
	Value  int64
}

// String renders "<prefix><integer>".
func (a Allocation) String() string {
	return Format(a.Prefix, a.Value)
}

func Format(prefix string, value int64) string {
	return prefix + strconv.FormatInt(value, 10)
}

// Next reads the prefix and counter, skips any number already present on an
// invoice, and stores counter+1. The counter is shared by all prefixes, so
// changing the prefix never resets it.
func Next(tx *gorm.DB) (Allocation, error) {
	const op = "numbering.Next"

	prefix, err := read(tx, models.SettingInvoicePrefix)
	if err != nil {
		return Allocation{}, err
	}
	raw, err := read(tx, models.SettingInvoiceNextNumber)
	if err != nil {
		return Allocation{}, err
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 1 {
		return Allocation{}, &apperr.Error{Kind: apperr.KindInvariant, Op: op, Message: fmt.Sprintf("invalid counter %q", raw)}
	}

	for {
		var taken int64
		if err := tx.Model(&models.Invoice{}).Where("invoice_number = ?", Format(prefix, value)).Count(&taken).Error; err != nil {
			return Allocation{}, err
		}
		if taken == 0 {
			break
		}
		value++
	}

	if err := tx.Model(&models.Setting{}).
		Where(&models.Setting{Key: models.SettingInvoiceNextNumber}).
		Update("value", strconv.FormatInt(value+1, 10)).Error; err != nil {
		return Allocation{}, err
	}
	return Allocation{Prefix: prefix, Value: value}, nil
}

// Peek returns the number the next commit would try first.
func Peek(db *gorm.DB) (string, error) {
	prefix, err := read(db, models.SettingInvoicePrefix)
	if err != nil {
		return "", err
	}
	raw, err := read(db, models.SettingInvoiceNextNumber)
	if err != nil {
		return "", err
	}
	return prefix + raw, nil
}

func read(db *gorm.DB, key string) (string, error) {
	var s models.Setting
	if err := db.Where(&models.Setting{Key: key}).First(&s).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", &apperr.Error{Kind: apperr.KindInvariant, Op: "numbering.read", Message: "missing setting " + key}
		}
		return "", err
	}
	return s.Value, nil
}
