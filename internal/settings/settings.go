// Package settings is the read-through cache over the configuration table.
package settings

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"go-pos-billing/internal/apperr"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/models"
	"go-pos-billing/internal/money"
	"go-pos-billing/internal/numbering"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Company holds the facts printed on document headers.
type Company struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

// Snapshot is a typed, immutable view of the configuration table.
type Snapshot struct {
	CurrencySymbol         string          `json:"currency_symbol"`
	DefaultTaxRate         decimal.Decimal `json:"default_tax_rate"`
	InvoicePrefix          string          `json:"invoice_prefix"`
	InvoiceNextNumber      int64           `json:"invoice_next_number"`
	DefaultDueDays         int             `json:"default_due_days"`
	LowStockThreshold      int             `json:"low_stock_threshold"`
	CriticalStockThreshold int             `json:"critical_stock_threshold"`
	OverpaymentTolerance   decimal.Decimal `json:"overpayment_tolerance"`
	NumberingRetryLimit    int             `json:"numbering_retry_limit"`
	PaymentMethods         []string        `json:"payment_methods"`
	Company                Company         `json:"company"`
}

// MethodEnabled reports whether new payments may use method.
func (s *Snapshot) MethodEnabled(method string) bool {
	return slices.Contains(s.PaymentMethods, method)
}

// Service caches the snapshot until the next configuration write.
type Service struct {
	store *database.Store
	log   *logrus.Entry

	mu     sync.RWMutex
	cached *Snapshot
	gen    uint64 // bumped by every Invalidate
}

func New(store *database.Store, logg *logrus.Logger) *Service {
	return &Service{store: store, log: logg.WithField("module", "settings")}
}

// Get returns the cached snapshot, loading it on a miss.
func (s *Service) Get(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	cached, gen := s.cached, s.gen
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	snap, err := Load(s.store.DB().WithContext(ctx))
	if err != nil {
		return nil, err
	}
	s.keep(snap, gen)
	return snap, nil
}

// keep caches snap unless the table was written since the load began.
func (s *Service) keep(snap *Snapshot, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.cached = snap
	}
}

// Invalidate drops the cached snapshot. Writers that touch the settings table
// inside their own unit of work (numbering) call it after commit.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.gen++
	s.mu.Unlock()
}

// NextInvoiceNumber is the number the next commit will try first.
func (s *Service) NextInvoiceNumber(ctx context.Context) (string, error) {
	return numbering.Peek(s.store.DB().WithContext(ctx))
}

// All lists the raw key/value rows.
func (s *Service) All(ctx context.Context) ([]models.Setting, error) {
	var rows []models.Setting
	if err := s.store.DB().WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&rows).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "settings.All", err)
	}
	return rows, nil
}

// Set validates and writes one key, then invalidates the cache.
func (s *Service) Set(ctx context.Context, key, value, actor string) error {
	value = strings.TrimSpace(value)
	if err := Validate(key, value); err != nil {
		return err
	}

	err := s.store.Run(ctx, func(tx *gorm.DB) error {
		var current models.Setting
		if err := tx.Where(&models.Setting{Key: key}).First(&current).Error; err != nil {
			return database.Lookup(err, "settings.Set", "setting", key)
		}
		if key == models.SettingInvoiceNextNumber {
			prev, _ := strconv.ParseInt(current.Value, 10, 64)
			next, _ := strconv.ParseInt(value, 10, 64)
			if next < prev {
				return apperr.Validation("settings.Set", "invoice_next_number cannot decrease")
			}
		}
		return tx.Model(&models.Setting{}).Where(&models.Setting{Key: key}).Updates(map[string]any{
			"value":      value,
			"updated_at": s.store.Now(),
			"updated_by": actor,
		}).Error
	})
	s.Invalidate()
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"key": key, "actor": actor}).Info("setting updated")
	return nil
}

// Load reads every setting through db (a tx or a plain handle).
func Load(db *gorm.DB) (*Snapshot, error) {
	var rows []models.Setting
	if err := db.Find(&rows).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "settings.Load", err)
	}
	return Parse(rows)
}

// Parse builds a snapshot, falling back to defaults for absent keys.
func Parse(rows []models.Setting) (*Snapshot, error) {
	values := make(map[string]string, len(models.DefaultSettings))
	for _, def := range models.DefaultSettings {
		values[def.Key] = def.Value
	}
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	for key, value := range values {
		if err := Validate(key, value); err != nil {
			return nil, &apperr.Error{Kind: apperr.KindInvariant, Op: "settings.Parse", Message: "stored setting is invalid", Err: err}
		}
	}

	snap := &Snapshot{
		CurrencySymbol: values[models.SettingCurrencySymbol],
		InvoicePrefix:  values[models.SettingInvoicePrefix],
		PaymentMethods: splitMethods(values[models.SettingPaymentMethods]),
		Company: Company{
			Name:    values[models.SettingCompanyName],
			Address: values[models.SettingCompanyAddress],
			Phone:   values[models.SettingCompanyPhone],
			Email:   values[models.SettingCompanyEmail],
		},
	}
	snap.DefaultTaxRate = decimal.RequireFromString(values[models.SettingDefaultTaxRate])
	snap.OverpaymentTolerance = decimal.RequireFromString(values[models.SettingOverpaymentTolerance])
	snap.InvoiceNextNumber, _ = strconv.ParseInt(values[models.SettingInvoiceNextNumber], 10, 64)
	snap.DefaultDueDays, _ = strconv.Atoi(values[models.SettingDefaultDueDays])
	snap.LowStockThreshold, _ = strconv.Atoi(values[models.SettingLowStockThreshold])
	snap.CriticalStockThreshold, _ = strconv.Atoi(values[models.SettingCriticalStockThreshold])
	snap.NumberingRetryLimit, _ = strconv.Atoi(values[models.SettingNumberingRetryLimit])
	return snap, nil
}

// Validate checks a value against its key's type.
func Validate(key, value string) error {
	const op = "settings.Validate"
	switch key {
	case models.SettingDefaultTaxRate:
		r, err := decimal.NewFromString(value)
		if err != nil || !money.ValidRate(r) {
			return apperr.Validation(op, apperr.MsgRateOutOfRange)
		}
	case models.SettingOverpaymentTolerance:
		d, err := decimal.NewFromString(value)
		if err != nil || !money.ValidAmount(d) {
			return apperr.Validation(op, fmt.Sprintf("%s must be a non-negative amount", key))
		}
	case models.SettingInvoiceNextNumber:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 1 {
			return apperr.Validation(op, fmt.Sprintf("%s must be a positive integer", key))
		}
	case models.SettingNumberingRetryLimit:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return apperr.Validation(op, fmt.Sprintf("%s must be a positive integer", key))
		}
	case models.SettingDefaultDueDays, models.SettingLowStockThreshold, models.SettingCriticalStockThreshold:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return apperr.Validation(op, fmt.Sprintf("%s must be a non-negative integer", key))
		}
	case models.SettingPaymentMethods:
		if len(splitMethods(value)) == 0 {
			return apperr.Validation(op, "at least one payment method is required")
		}
	case models.SettingInvoicePrefix, models.SettingCurrencySymbol,
		models.SettingCompanyName, models.SettingCompanyAddress,
		models.SettingCompanyPhone, models.SettingCompanyEmail:
	default:
		return apperr.Validation(op, fmt.Sprintf("unknown setting %q", key))
	}
	return nil
}

func splitMethods(value string) []string {
	var out []string
	for _, m := range strings.Split(value, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}
