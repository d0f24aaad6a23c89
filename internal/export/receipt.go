package export

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/dmitrijs2005/cinepos/internal/filex"
	"github.com/dmitrijs2005/cinepos/internal/models"
)

const receiptHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Receipt {{.ID}}</title>
</head>
<body>
<h1>Receipt</h1>
<p>Date: {{.Date}}</p>
<p>Customer: {{.Account}}</p>
<p>Seat: {{.Seat}} ({{.SeatKind}}) {{.SeatPrice}} €</p>
<h2>Extras</h2>
{{- if .Lines}}
<ul>
{{- range .Lines}}
<li>{{.Name}} {{.UnitPrice}} € x {{.Quantity}} = {{.Total}} €</li>
{{- end}}
</ul>
{{- else}}
<p>No products</p>
{{- end}}
<p><strong>Total: {{.Total}} €</strong></p>
</body>
</html>
`

var receiptTmpl = template.Must(template.New("receipt").Parse(receiptHTML))

type receiptLine struct {
	Name      string
	UnitPrice string
	Quantity  int
	Total     string
}

type receiptView struct {
	ID        string
	Date      string
	Account   string
	Seat      string
	SeatKind  string
	SeatPrice string
	Lines     []receiptLine
	Total     string
}

func newReceiptView(sale models.Sale) receiptView {
	v := receiptView{
		ID:        sale.ID,
		Date:      sale.CreatedAt.UTC().Format(time.DateTime),
		Account:   sale.Account.ID,
		Seat:      sale.Seat.ID,
		SeatKind:  string(sale.Seat.Kind),
		SeatPrice: sale.Seat.Kind.Price().StringFixed(2),
		Total:     sale.Total().StringFixed(2),
	}
	for _, l := range sale.Lines {
		v.Lines = append(v.Lines, receiptLine{
			Name:      l.Product.Name,
			UnitPrice: l.UnitPrice.StringFixed(2),
			Quantity:  l.Quantity,
			Total:     l.Total().StringFixed(2),
		})
	}
	return v
}

// RenderReceipt writes the HTML receipt of sale to w.
func RenderReceipt(w io.Writer, sale models.Sale) error {
	if err := receiptTmpl.Execute(w, newReceiptView(sale)); err != nil {
		return fmt.Errorf("render receipt %s: %w", sale.ID, err)
	}
	return nil
}

func renderReceipt(sale models.Sale) ([]byte, error) {
	var buf bytes.Buffer
	if err := RenderReceipt(&buf, sale); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReceiptName is the file name of a sale's receipt:
// receipt_<seat>_<account>_<yyyymmdd-hhmmss>.html.
func ReceiptName(sale models.Sale) string {
	stamp := sale.CreatedAt.UTC().Format("20060102-150405")
	return filex.SafeName(fmt.Sprintf("receipt_%s_%s_%s.html", sale.Seat.ID, sale.Account.ID, stamp))
}
