package catalog

import (
	"context"

	"go-pos-billing/internal/apperr"
	"go-pos-billing/internal/models"
)

// StockLevel is the low-stock classification of an item.
type StockLevel string

const (
	LevelNormal   StockLevel = "normal"
	LevelLow      StockLevel = "low"
	LevelCritical StockLevel = "critical"
)

// Thresholds come from the low_stock_threshold and critical_stock_threshold
// settings.
type Thresholds struct {
	Low      int
	Critical int
}

// Classify puts quantity below Critical as critical, below Low as low.
func Classify(quantity int, t Thresholds) StockLevel {
	switch {
	case quantity < t.Critical:
		return LevelCritical
	case quantity < t.Low:
		return LevelLow
	default:
		return LevelNormal
	}
}

// ClassifiedItem pairs an item with its level.
type ClassifiedItem struct {
	models.Item
	Level StockLevel `json:"level"`
}

func (s *Service) thresholds(ctx context.Context) (Thresholds, error) {
	snap, err := s.settings.Get(ctx)
	if err != nil {
		return Thresholds{}, err
	}
	return Thresholds{Low: snap.LowStockThreshold, Critical: snap.CriticalStockThreshold}, nil
}

// Level classifies one item against the configured thresholds.
func (s *Service) Level(ctx context.Context, item models.Item) (StockLevel, error) {
	t, err := s.thresholds(ctx)
	if err != nil {
		return "", err
	}
	return Classify(item.Quantity, t), nil
}

// LowStock returns every item that is not normal, lowest quantity first.
func (s *Service) LowStock(ctx context.Context) ([]ClassifiedItem, error) {
	t, err := s.thresholds(ctx)
	if err != nil {
		return nil, err
	}
	bound := max(t.Low, t.Critical)

	var items []models.Item
	if err := s.store.DB().WithContext(ctx).
		Where("quantity < ?", bound).
		Order("quantity").Order("name").Find(&items).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "catalog.LowStock", err)
	}
	out := make([]ClassifiedItem, 0, len(items))
	for _, it := range items {
		out = append(out, ClassifiedItem{Item: it, Level: Classify(it.Quantity, t)})
	}
	return out, nil
}
