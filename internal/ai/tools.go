package ai

import (
	"context"
	"fmt"

	"go-pos-billing/internal/catalog"
	"go-pos-billing/internal/models"
	"go-pos-billing/internal/reports"

	"github.com/google/generative-ai-go/genai"
)

// maxOutstandingRows caps how many invoices one tool answer lists.
const maxOutstandingRows = 25

// Tools are the read-only engine functions the assistant may call.
type Tools struct {
	Catalog *catalog.Service
	Reports *reports.Service
}

// Declarations describes every tool to the model.
func (t *Tools) Declarations() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        "check_inventory",
			Description: "Get the inventory list. Use this to find ANY item details like ID, Name, Price, Category, Supplier or Stock. Optionally filter by a search text.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"query": {Type: genai.TypeString, Description: "Optional text to match against name, description or supplier"},
				},
			},
		},
		{
			Name:        "low_stock",
			Description: "List items at or below the low-stock threshold, with their level (low or critical).",
		},
		{
			Name:        "get_sales_report",
			Description: "Get sales totals (invoices, subtotal, tax, discount, total, paid, outstanding) for a date range.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
					"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
				},
				Required: []string{"start_date", "end_date"},
			},
		},
		{
			Name:        "outstanding_invoices",
			Description: "List invoices with money still owed (and overpaid ones), with days overdue and class current, overdue, critical or overpayment.",
		},
	}
}

// Execute runs one tool call and returns the response payload. Errors are
// reported to the model in the payload rather than failing the chat.
func (t *Tools) Execute(ctx context.Context, name string, args map[string]any) map[string]any {
	out, err := t.execute(ctx, name, args)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	return out
}

func (t *Tools) execute(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	switch name {
	case "check_inventory":
		query, _ := args["query"].(string)
		items, err := t.Catalog.Search(ctx, query, "")
		if err != nil {
			return nil, err
		}
		type simpleItem struct {
			ID       uint   `json:"id"`
			Name     string `json:"name"`
			Category string `json:"category"`
			Supplier string `json:"supplier"`
			Stock    int    `json:"stock"`
			Price    string `json:"price"`
		}
		list := make([]simpleItem, 0, len(items))
		for _, it := range items {
			list = append(list, simpleItem{
				ID: it.ID, Name: it.Name, Category: it.Category, Supplier: it.Supplier,
				Stock: it.Quantity, Price: it.UnitPrice.StringFixed(2),
			})
		}
		return map[string]any{"inventory": list}, nil

	case "low_stock":
		items, err := t.Catalog.LowStock(ctx)
		if err != nil {
			return nil, err
		}
		list := make([]map[string]any, 0, len(items))
		for _, it := range items {
			list = append(list, map[string]any{"id": it.ID, "name": it.Name, "stock": it.Quantity, "level": string(it.Level)})
		}
		return map[string]any{"items": list}, nil

	case "get_sales_report":
		start, _ := args["start_date"].(string)
		end, _ := args["end_date"].(string)
		from, err1 := models.ParseDate(start)
		to, err2 := models.ParseDate(end)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("dates must be in YYYY-MM-DD format")
		}
		p, err := reports.NewPeriod(from, to)
		if err != nil {
			return nil, err
		}
		res, err := t.Reports.Sales(ctx, p)
		if err != nil {
			return nil, err
		}
		tot := res.Totals
		return map[string]any{
			"invoices":    tot.Invoices,
			"subtotal":    tot.Subtotal.StringFixed(2),
			"tax":         tot.Tax.StringFixed(2),
			"discount":    tot.Discount.StringFixed(2),
			"revenue":     tot.Total.StringFixed(2),
			"paid":        tot.Paid.StringFixed(2),
			"outstanding": tot.Outstanding.StringFixed(2),
		}, nil

	case "outstanding_invoices":
		summary, err := t.Reports.OutstandingSummary(ctx)
		if err != nil {
			return nil, err
		}
		var rows []map[string]any
		for row, err := range t.Reports.Outstanding(ctx) {
			if err != nil {
				return nil, err
			}
			rows = append(rows, map[string]any{
				"invoice":      row.Number,
				"customer":     row.CustomerName,
				"balance":      row.Balance.StringFixed(2),
				"overpaid":     row.Overpaid.StringFixed(2),
				"days_overdue": row.DaysOverdue,
				"class":        string(row.Class),
			})
			if len(rows) == maxOutstandingRows {
				break
			}
		}
		return map[string]any{"owed": summary.Owed.StringFixed(2), "invoices": rows}, nil

	default:
		return nil, fmt.Errorf("unknown tool %q", name)
	}
}
