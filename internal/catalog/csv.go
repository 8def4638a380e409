package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"go-pos-billing/internal/apperr"
	"go-pos-billing/internal/database"
	"go-pos-billing/internal/models"
	"go-pos-billing/internal/money"
	"go-pos-billing/internal/stockledger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CSVHeader is the fixed column set of catalog export and import.
var CSVHeader = []string{"id", "name", "description", "category", "quantity", "unit_price", "supplier", "last_updated"}

// ImportReason tags ledger entries written by Import.
const ImportReason = "catalog import"

// Export writes one row per item, ordered by id.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	q := s.store.DB().WithContext(ctx).Model(&models.Item{}).Order("id")
	for item, err := range database.Stream[models.Item](q) {
		if err != nil {
			return err
		}
		record := []string{
			strconv.FormatUint(uint64(item.ID), 10),
			item.Name,
			item.Description,
			item.Category,
			strconv.Itoa(item.Quantity),
			item.UnitPrice.StringFixed(2),
			item.Supplier,
			"",
		}
		if !item.LastUpdated.IsZero() {
			record[7] = item.LastUpdated.UTC().Format(time.RFC3339)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportResult counts what Import changed.
type ImportResult struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

type importRow struct {
	line        int
	in          ItemInput
	lastUpdated time.Time
}

// Import upserts items by name within category. New items get an `in` entry
// for their quantity; existing items get an adjust entry for the difference.
// The whole file is one unit of work: a bad row rejects every row.
func (s *Service) Import(ctx context.Context, r io.Reader, actor string) (ImportResult, error) {
	const op = "catalog.Import"
	rows, err := s.parseCSV(op, r)
	if err != nil {
		return ImportResult{}, err
	}

	var res ImportResult
	err = s.store.Run(ctx, func(tx *gorm.DB) error {
		res = ImportResult{}
		for _, row := range rows {
			stamp := row.lastUpdated
			if stamp.IsZero() {
				stamp = s.store.Now()
			}

			var existing models.Item
			err := tx.Where(&models.Item{Name: row.in.Name, Category: row.in.Category}).First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				item := &models.Item{
					Name:        row.in.Name,
					Description: row.in.Description,
					Category:    row.in.Category,
					Quantity:    row.in.Quantity,
					UnitPrice:   row.in.UnitPrice,
					Supplier:    row.in.Supplier,
					LastUpdated: stamp,
					UpdatedBy:   actor,
				}
				if err := tx.Create(item).Error; err != nil {
					return err
				}
				if item.Quantity > 0 {
					if err := stockledger.Append(tx, &models.StockEntry{
						ItemID:   item.ID,
						Kind:     models.StockIn,
						Quantity: item.Quantity,
						Reason:   ImportReason,
						Actor:    actor,
					}); err != nil {
						return err
					}
				}
				res.Created++
			case err != nil:
				return err
			default:
				if sameItem(existing, row.in) {
					res.Unchanged++
					continue
				}
				if delta := row.in.Quantity - existing.Quantity; delta != 0 {
					if err := applyDelta(tx, &existing, delta, ImportReason, "", actor, stamp, op); err != nil {
						return err
					}
				}
				if err := tx.Model(&existing).Updates(map[string]any{
					"description":  row.in.Description,
					"unit_price":   row.in.UnitPrice,
					"supplier":     row.in.Supplier,
					"last_updated": stamp,
					"updated_by":   actor,
				}).Error; err != nil {
					return err
				}
				res.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	s.log.WithFields(logrus.Fields{
		"created":   res.Created,
		"updated":   res.Updated,
		"unchanged": res.Unchanged,
		"actor":     actor,
	}).Info("catalog imported")
	return res, nil
}

func sameItem(it models.Item, in ItemInput) bool {
	return it.Description == in.Description &&
		it.Quantity == in.Quantity &&
		it.UnitPrice.Equal(in.UnitPrice) &&
		it.Supplier == in.Supplier
}

func (s *Service) parseCSV(op string, r io.Reader) ([]importRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(CSVHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, apperr.Validation(op, fmt.Sprintf("read header: %v", err))
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if !slices.Equal(header, CSVHeader) {
		return nil, apperr.Validation(op, "header must be "+strings.Join(CSVHeader, ","))
	}

	var rows []importRow
	seen := make(map[[2]string]int)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperr.Validation(op, err.Error())
		}
		line, _ := cr.FieldPos(0)

		row := importRow{line: line}
		row.in = ItemInput{
			Name:        rec[1],
			Description: rec[2],
			Category:    rec[3],
			Supplier:    rec[6],
		}
		if row.in.Quantity, err = strconv.Atoi(strings.TrimSpace(rec[4])); err != nil {
			return nil, apperr.Validation(op, fmt.Sprintf("line %d: invalid quantity %q", line, rec[4]))
		}
		// Spreadsheets often re-save prices with grouping or a currency symbol.
		if row.in.UnitPrice, err = money.Parse(rec[5]); err != nil {
			return nil, apperr.Validation(op, fmt.Sprintf("line %d: invalid unit_price %q", line, rec[5]))
		}
		if v := strings.TrimSpace(rec[7]); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return nil, apperr.Validation(op, fmt.Sprintf("line %d: invalid last_updated %q", line, v))
			}
			row.lastUpdated = models.Instant(t)
		}
		if err := s.check(fmt.Sprintf("%s line %d", op, line), &row.in); err != nil {
			return nil, err
		}
		key := [2]string{row.in.Category, row.in.Name}
		if prev, dup := seen[key]; dup {
			return nil, apperr.Validation(op, fmt.Sprintf("line %d duplicates line %d", line, prev))
		}
		seen[key] = line
		rows = append(rows, row)
	}
	return rows, nil
}
