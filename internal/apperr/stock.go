package apperr

import (
	"fmt"
	"strings"
)

// Shortage describes one invoice line that cannot be served from stock.
type Shortage struct {
	LineIndex int    `json:"line_index"`
	ItemID    uint   `json:"item_id"`
	ItemName  string `json:"item_name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// StockError is returned when a commit or adjustment would drive stock negative.
type StockError struct {
	Op        string
	Shortages []Shortage
}

func (e *StockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("line %d item %d (%s): requested %d, available %d",
			s.LineIndex, s.ItemID, s.ItemName, s.Requested, s.Available))
	}
	msg := MsgInsufficientStock
	if len(parts) > 0 {
		msg += ": " + strings.Join(parts, "; ")
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

// Is lets errors.Is(err, ErrInsufficientStock) match.
func (e *StockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
