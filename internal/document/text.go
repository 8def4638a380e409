package document

import (
	"fmt"
	"io"
	"strings"
	"text/template"
)

const receiptWidth = 48

const receiptTemplate = `{{center .Company.Name}}
{{- with .Company.Address}}
{{center .}}{{end}}
{{- with .Company.Phone}}
{{center .}}{{end}}
{{rule}}
Invoice: {{.Number}}
Status:  {{.Status}}
Date:    {{.IssueDate}}
Due:     {{.DueDate}}
Bill to: {{.Customer.Name}}
{{- with .Customer.TaxID}}
Tax ID:  {{.}}{{end}}
{{rule}}
{{- range .Rows}}
{{.Position}}. {{.ItemName}}
{{- if and .Description (ne .Description .ItemName)}}
   {{.Description}}{{end}}
{{pair (printf "   %d x %s" .Quantity .UnitPrice) .LineTotal}}
{{- end}}
{{rule}}
{{- range .Totals}}
{{pair .Label .Amount}}
{{- end}}
{{- with .Notes}}
{{rule}}
{{.}}{{end}}
{{- with .VoidReason}}
{{rule}}
VOID: {{.}}{{end}}
`

var receipt = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"rule": func() string { return strings.Repeat("-", receiptWidth) },
	"center": func(s string) string {
		if pad := (receiptWidth - len([]rune(s))) / 2; pad > 0 {
			return strings.Repeat(" ", pad) + s
		}
		return s
	},
	"pair": func(left, right string) string {
		gap := receiptWidth - len([]rune(left)) - len([]rune(right))
		if gap < 1 {
			gap = 1
		}
		return left + strings.Repeat(" ", gap) + right
	},
}).Parse(receiptTemplate))

// PlainText writes a fixed-width receipt. It reads only the document value,
// so what it prints is exactly what Compose formatted.
func PlainText(w io.Writer, doc *Document) error {
	if err := receipt.Execute(w, doc); err != nil {
		return fmt.Errorf("render receipt: %w", err)
	}
	return nil
}
