package report

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/esencia/internal/domain/sales"
)

// DefaultRowsPerPage is used when Build gets a non-positive page size.
const DefaultRowsPerPage = 25

const anonymousClient = "Sin nombre"

var Columns = []string{"Fecha", "Cliente", "Producto", "Cant.", "Venta", "Ganancia", "Margen"}

type Row struct {
	Date    string
	Client  string
	Product string
	Units   int
	Price   decimal.Decimal
	Profit  decimal.Decimal
	Margin  decimal.Decimal
}

type Page struct {
	Number int
	Rows   []Row
}

type Totals struct {
	Count  int
	Units  int
	Sold   decimal.Decimal
	Profit decimal.Decimal
	Margin decimal.Decimal // profit / sold * 100, zero when nothing was sold
}

// Report is a paginated sales listing ready to be rendered.
type Report struct {
	Title       string
	GeneratedAt time.Time
	Pages       []Page
	Totals      Totals
}

// Build lays records out in pages of rowsPerPage rows, in the given order.
// Totals are summed in decimal so the printed figures add up.
func Build(title string, generatedAt time.Time, records []sales.Record, rowsPerPage int) Report {
	if rowsPerPage <= 0 {
		rowsPerPage = DefaultRowsPerPage
	}
	rep := Report{Title: title, GeneratedAt: generatedAt}

	var page Page
	for _, r := range records {
		if len(page.Rows) == rowsPerPage {
			rep.Pages = append(rep.Pages, page)
			page = Page{}
		}
		if page.Number == 0 {
			page.Number = len(rep.Pages) + 1
		}
		row := rowFor(r)
		page.Rows = append(page.Rows, row)

		rep.Totals.Count++
		rep.Totals.Units += r.Units
		rep.Totals.Sold = rep.Totals.Sold.Add(row.Price)
		rep.Totals.Profit = rep.Totals.Profit.Add(row.Profit)
	}
	if len(page.Rows) > 0 {
		rep.Pages = append(rep.Pages, page)
	}
	if rep.Totals.Sold.IsPositive() {
		rep.Totals.Margin = rep.Totals.Profit.Div(rep.Totals.Sold).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return rep
}

func rowFor(r sales.Record) Row {
	client := strings.TrimSpace(r.Client)
	if client == "" {
		client = anonymousClient
	}
	return Row{
		Date:    r.Date,
		Client:  client,
		Product: r.RecipeName,
		Units:   r.Units,
		Price:   decimal.NewFromFloat(r.Price).Round(2),
		Profit:  decimal.NewFromFloat(r.Profit).Round(2),
		Margin:  decimal.NewFromFloat(r.Margin).Round(1),
	}
}

// FormatMoney renders an amount as "$ 1.234,56".
func FormatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + "$ " + groupThousands(whole) + "," + frac
}

// FormatPercent renders a margin as "95,0%".
func FormatPercent(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(1), ".", ",", 1) + "%"
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
