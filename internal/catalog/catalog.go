// Package catalog manages inventory items and every stock movement that is not
// an invoice commit or void.
package catalog

import (
	"context"
	"strings"
	"time"

	"go-pos-billing/internal/apperr"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/models"
	"go-pos-billing/internal/money"
	"go-pos-billing/internal/settings"
	"go-pos-billing/internal/stockledger"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OpeningStockReason tags the ledger entry written when an item is created
// with a quantity.
const OpeningStockReason = "opening stock"

type Service struct {
	store    *database.Store
	settings *settings.Service
	log      *logrus.Entry
	validate *validator.Validate
}

func New(store *database.Store, cfg *settings.Service, logg *logrus.Logger) *Service {
	return &Service{
		store:    store,
		settings: cfg,
		log:      logg.WithField("module", "catalog"),
		validate: validator.New(),
	}
}

// ItemInput is the editable part of an item. Quantity is only honoured on
// create, where it becomes the opening stock.
type ItemInput struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=1000"`
	Category    string          `json:"category" validate:"required,max=100"`
	Quantity    int             `json:"quantity" validate:"min=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Supplier    string          `json:"supplier" validate:"max=200"`
}

func (in *ItemInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.Supplier = strings.TrimSpace(in.Supplier)
}

func (s *Service) check(op string, in *ItemInput) error {
	in.normalize()
	if err := s.validate.Struct(in); err != nil {
		return apperr.FromValidator(op, err)
	}
	if !money.ValidAmount(in.UnitPrice) {
		return apperr.Validation(op, "unit price must be a non-negative amount with at most two decimals")
	}
	return nil
}

// Create inserts an item and, when it starts with stock, the matching `in`
// ledger entry.
func (s *Service) Create(ctx context.Context, in ItemInput, actor string) (*models.Item, error) {
	const op = "catalog.Create"
	if err := s.check(op, &in); err != nil {
		return nil, err
	}

	item := &models.Item{
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		Supplier:    in.Supplier,
		LastUpdated: s.store.Now(),
		UpdatedBy:   actor,
	}
	err := s.store.Run(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		if item.Quantity == 0 {
			return nil
		}
		return stockledger.Append(tx, &models.StockEntry{
			ItemID:   item.ID,
			Kind:     models.StockIn,
			Quantity: item.Quantity,
			Reason:   OpeningStockReason,
			Actor:    actor,
		})
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"item_id": item.ID, "actor": actor}).Info("item created")
	return item, nil
}

// Update rewrites the descriptive fields and price. Quantity is ignored; stock
// only moves through AdjustStock, invoice commit and void.
func (s *Service) Update(ctx context.Context, id uint, in ItemInput, actor string) (*models.Item, error) {
	const op = "catalog.Update"
	if err := s.check(op, &in); err != nil {
		return nil, err
	}

	var item models.Item
	err := s.store.Run(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			return database.Lookup(err, op, "item", id)
		}
		item.Name = in.Name
		item.Description = in.Description
		item.Category = in.Category
		item.UnitPrice = in.UnitPrice
		item.Supplier = in.Supplier
		item.LastUpdated = s.store.Now()
		item.UpdatedBy = actor
		return tx.Model(&item).Select("name", "description", "category", "unit_price", "supplier", "last_updated", "updated_by").
			Updates(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes an item and its ledger history. Items referenced by any
// invoice line are in use.
func (s *Service) Delete(ctx context.Context, id uint, actor string) error {
	const op = "catalog.Delete"
	err := s.store.Run(ctx, func(tx *gorm.DB) error {
		var item models.Item
		if err := tx.First(&item, id).Error; err != nil {
			return database.Lookup(err, op, "item", id)
		}
		var lines int64
		if err := tx.Model(&models.InvoiceLine{}).Where("item_id = ?", id).Count(&lines).Error; err != nil {
			return err
		}
		if lines > 0 {
			return apperr.InUse(op, "item", id)
		}
		if err := tx.Where("item_id = ?", id).Delete(&models.StockEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&item).Error
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"item_id": id, "actor": actor}).Info("item deleted")
	return nil
}

// AdjustStock applies a signed delta with a required reason. The quantity
// update and its ledger entry share one unit of work.
func (s *Service) AdjustStock(ctx context.Context, id uint, delta int, reason, actor string) (*models.Item, error) {
	const op = "catalog.AdjustStock"
	reason = strings.TrimSpace(reason)
	if delta == 0 {
		return nil, apperr.Validation(op, "delta must not be zero")
	}
	if reason == "" {
		return nil, apperr.Validation(op, "reason is required")
	}

	var item models.Item
	err := s.store.Run(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			return database.Lookup(err, op, "item", id)
		}
		return applyDelta(tx, &item, delta, reason, "", actor, s.store.Now(), op)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"item_id": id, "delta": delta, "actor": actor}).Info("stock adjusted")
	return &item, nil
}

// applyDelta moves item.Quantity by delta and appends the adjust entry.
func applyDelta(tx *gorm.DB, item *models.Item, delta int, reason, reference, actor string, now time.Time, op string) error {
	if item.Quantity+delta < 0 {
		return &apperr.StockError{Op: op, Shortages: []apperr.Shortage{{
			ItemID:    item.ID,
			ItemName:  item.Name,
			Requested: -delta,
			Available: item.Quantity,
		}}}
	}
	entry := &models.StockEntry{
		ItemID:    item.ID,
		Kind:      models.StockAdjust,
		Quantity:  abs(delta),
		Decrease:  delta < 0,
		Reason:    reason,
		Reference: reference,
		Actor:     actor,
	}
	if err := stockledger.Append(tx, entry); err != nil {
		return err
	}
	item.Quantity += delta
	item.LastUpdated = now
	item.UpdatedBy = actor
	return tx.Model(item).Updates(map[string]any{
		"quantity":     item.Quantity,
		"last_updated": now,
		"updated_by":   actor,
	}).Error
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	if err := s.store.DB().WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, database.Lookup(err, "catalog.Get", "item", id)
	}
	return &item, nil
}

// List returns every item ordered by category, then name.
func (s *Service) List(ctx context.Context) ([]models.Item, error) {
	return s.Search(ctx, "", "")
}

// Search matches query case-insensitively as a substring of name,
// description or supplier, optionally within one category.
func (s *Service) Search(ctx context.Context, query, category string) ([]models.Item, error) {
	q := s.store.DB().WithContext(ctx).Model(&models.Item{})
	if query = strings.TrimSpace(query); query != "" {
		like := "%" + escapeLike(strings.ToLower(query)) + "%"
		q = q.Where("(LOWER(name) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!' OR LOWER(supplier) LIKE ? ESCAPE '!')", like, like, like)
	}
	if category = strings.TrimSpace(category); category != "" {
		q = q.Where("category = ?", category)
	}
	var items []models.Item
	if err := q.Order("category").Order("name").Order("id").Find(&items).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "catalog.Search", err)
	}
	return items, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

// Categories lists the distinct categories in use.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	var out []string
	err := s.store.DB().WithContext(ctx).Model(&models.Item{}).
		Distinct("category").Order("category").Pluck("category", &out).Error
	return out, apperr.Wrap(apperr.KindStorage, "catalog.Categories", err)
}

// Suppliers lists the distinct non-empty supplier names.
func (s *Service) Suppliers(ctx context.Context) ([]string, error) {
	var out []string
	err := s.store.DB().WithContext(ctx).Model(&models.Item{}).
		Where("supplier <> ''").
		Distinct("supplier").Order("supplier").Pluck("supplier", &out).Error
	return out, apperr.Wrap(apperr.KindStorage, "catalog.Suppliers", err)
}
