// Package report renders printable quotations and invoices and converts them
// to PDF through Gotenberg.
package report

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/catering/internal/clients"
	"github.com/odyssey-erp/catering/internal/documents"
	"github.com/odyssey-erp/catering/internal/money"
	"github.com/odyssey-erp/catering/internal/settings"
)

//go:embed templates/*.html
var templateFS embed.FS

// HTMLConverter turns a rendered page into PDF bytes.
type HTMLConverter interface {
	RenderHTML(ctx context.Context, html []byte) ([]byte, error)
}

// ErrConverterMissing is returned when PDF output is requested without Gotenberg.
var ErrConverterMissing = errors.New("report: pdf converter not configured")

// Renderer fills the document template and hands the page to the converter.
type Renderer struct {
	converter HTMLConverter
	tmpl      *template.Template
}

// NewRenderer parses the embedded template. converter may be nil, in which
// case only HTML output is available.
func NewRenderer(converter HTMLConverter) (*Renderer, error) {
	tmpl, err := template.New("document.html").Funcs(template.FuncMap{
		"date":  formatDate,
		"money": func(decimal.Decimal) string { return "" },
	}).ParseFS(templateFS, "templates/document.html")
	if err != nil {
		return nil, fmt.Errorf("report: parse templates: %w", err)
	}
	return &Renderer{converter: converter, tmpl: tmpl}, nil
}

type printLine struct {
	Index       int
	Description string
	Quantity    string
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

type lineGroup struct {
	Label string
	Lines []printLine
}

type printPayment struct {
	Date      string
	Method    string
	Reference string
	Amount    decimal.Decimal
}

type page struct {
	Heading        string
	Number         string
	Title          string
	Status         string
	Version        int
	IssueDate      *time.Time
	SecondaryLabel string
	SecondaryDate  *time.Time
	Company        settings.Settings
	Client         clients.Client
	Groups         []lineGroup
	Totals         money.Totals
	DiscountLabel  string
	TaxLabel       string
	ShowPayments   bool
	Payments       []printPayment
	PaymentDetails string
	Terms          string
	Notes          string
}

// QuotationHTML renders q as a standalone HTML page.
func (r *Renderer) QuotationHTML(q *documents.Quotation, client clients.Client, cfg settings.Settings) ([]byte, error) {
	p := page{
		Heading:        "QUOTATION",
		Number:         q.Number,
		Title:          q.Title,
		Status:         string(q.Status),
		Version:        q.Version,
		IssueDate:      q.IssueDate,
		SecondaryLabel: "Valid until",
		SecondaryDate:  q.ValidUntil,
		Company:        cfg,
		Client:         client,
		Groups:         groupLines(q.Items),
		Totals:         q.Totals(cfg.Tax()),
		DiscountLabel:  discountLabel(q.Discount),
		TaxLabel:       taxLabel(cfg),
		Terms:          q.Terms,
		Notes:          q.Notes,
	}
	return r.execute(p, cfg.CurrencySymbol)
}

// InvoiceHTML renders inv, including payments received, as a standalone HTML page.
func (r *Renderer) InvoiceHTML(inv *documents.Invoice, client clients.Client, cfg settings.Settings) ([]byte, error) {
	p := page{
		Heading:        "INVOICE",
		Number:         inv.Number,
		Title:          inv.Title,
		Status:         string(inv.Status),
		IssueDate:      inv.IssueDate,
		SecondaryLabel: "Due date",
		SecondaryDate:  inv.DueDate,
		Company:        cfg,
		Client:         client,
		Groups:         groupLines(inv.Items),
		Totals:         inv.Totals(cfg.Tax()),
		DiscountLabel:  discountLabel(inv.Discount),
		TaxLabel:       taxLabel(cfg),
		ShowPayments:   len(inv.Payments) > 0,
		PaymentDetails: inv.PaymentDetails,
		Terms:          inv.Terms,
		Notes:          inv.Notes,
	}
	for _, pay := range inv.Payments {
		method := "-"
		if pay.Method != nil {
			method = string(*pay.Method)
		}
		p.Payments = append(p.Payments, printPayment{
			Date:      pay.PaymentDate.Format("02 Jan 2006"),
			Method:    method,
			Reference: pay.Reference,
			Amount:    pay.Amount,
		})
	}
	return r.execute(p, cfg.CurrencySymbol)
}

// PDF converts a rendered page.
func (r *Renderer) PDF(ctx context.Context, html []byte) ([]byte, error) {
	if r.converter == nil {
		return nil, ErrConverterMissing
	}
	return r.converter.RenderHTML(ctx, html)
}

func (r *Renderer) execute(p page, symbol string) ([]byte, error) {
	tmpl, err := r.tmpl.Clone()
	if err != nil {
		return nil, err
	}
	tmpl.Funcs(template.FuncMap{
		"money": func(v decimal.Decimal) string { return money.Format(v, symbol) },
	})
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("report: execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// groupLines keeps item order and starts a new group whenever the label changes.
func groupLines(items []documents.LineItem) []lineGroup {
	var groups []lineGroup
	for i, it := range items {
		if len(groups) == 0 || groups[len(groups)-1].Label != it.GroupingLabel {
			groups = append(groups, lineGroup{Label: it.GroupingLabel})
		}
		g := &groups[len(groups)-1]
		g.Lines = append(g.Lines, printLine{
			Index:       i + 1,
			Description: it.Description,
			Quantity:    it.Quantity.String(),
			UnitPrice:   it.UnitPrice,
			Total:       it.LineTotal(),
		})
	}
	return groups
}

func discountLabel(spec money.DiscountSpec) string {
	if spec.Kind == money.DiscountPercent {
		return spec.Value.String() + "%"
	}
	return ""
}

func taxLabel(cfg settings.Settings) string {
	tax := cfg.Tax()
	if !tax.Active() {
		return ""
	}
	return "Tax " + tax.RatePercent.String() + "%"
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006")
}
