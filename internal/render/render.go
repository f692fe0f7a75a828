// Package render turns documents into printable HTML and PDF.
package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/shopspring/decimal"

	"github.com/entreprenapp/backoffice/internal/actor"
	"github.com/entreprenapp/backoffice/internal/money"
	"github.com/entreprenapp/backoffice/internal/sales"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var documentTemplate = template.Must(template.New("document.html.tmpl").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return money.Format(d) + " €" },
	"date":  func(t time.Time) string { return t.Format("02/01/2006") },
}).ParseFS(templateFS, "templates/document.html.tmpl"))

const defaultPDFTimeout = 30 * time.Second

type Config struct {
	ChromiumPath string
	PDFTimeout   time.Duration
}

type Renderer struct {
	cfg Config
}

func New(cfg Config) *Renderer {
	if cfg.PDFTimeout <= 0 {
		cfg.PDFTimeout = defaultPDFTimeout
	}

	return &Renderer{cfg: cfg}
}

type lineView struct {
	Label        string
	Description  string
	Quantity     int
	UnitPrice    decimal.Decimal
	TaxRate      string
	DutyFree     decimal.Decimal
	IncludingTax decimal.Decimal
}

type documentView struct {
	Title        string
	Kind         sales.Kind
	Date         time.Time
	ValidityDate *time.Time
	IsPaid       bool
	Saler        *actor.Actor
	Customer     *actor.Actor
	Lines        []lineView
	Totals       sales.Totals
}

func newDocumentView(doc *sales.Document) documentView {
	v := documentView{
		Title:        doc.Title(),
		Kind:         doc.Kind,
		Date:         doc.Date,
		ValidityDate: doc.ValidityDate,
		IsPaid:       doc.IsPaid,
		Saler:        doc.Saler,
		Customer:     doc.Customer,
		Totals:       doc.Totals(),
	}

	if v.Saler == nil {
		v.Saler = &actor.Actor{}
	}

	if v.Customer == nil {
		v.Customer = &actor.Actor{}
	}

	for _, l := range doc.Lines {
		if l.Item == nil {
			continue
		}

		v.Lines = append(v.Lines, lineView{
			Label:        l.Item.Label,
			Description:  l.Item.Description,
			Quantity:     l.Quantity,
			UnitPrice:    l.Item.PriceDutyFree,
			TaxRate:      l.Item.TaxRate.String() + " %",
			DutyFree:     money.Round2(l.SubtotalDutyFree()),
			IncludingTax: money.Round2(l.SubtotalIncludingTax()),
		})
	}

	return v
}

// HTML renders doc with its parties, lines and totals. The document must be
// loaded with its lines and items.
func (r *Renderer) HTML(doc *sales.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, newDocumentView(doc)); err != nil {
		return nil, fmt.Errorf("rendering %s html: %w", doc.Kind, err)
	}

	return buf.Bytes(), nil
}

// PDF prints the HTML rendering of doc with headless Chromium.
func (r *Renderer) PDF(ctx context.Context, doc *sales.Document) ([]byte, error) {
	html, err := r.HTML(doc)
	if err != nil {
		return nil, err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.NoSandbox,
	)
	if r.cfg.ChromiumPath != "" {
		opts = append(opts, chromedp.ExecPath(r.cfg.ChromiumPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	runCtx, cancelRun := chromedp.NewContext(allocCtx)
	defer cancelRun()

	runCtx, cancelTimeout := context.WithTimeout(runCtx, r.cfg.PDFTimeout)
	defer cancelTimeout()

	var pdf []byte

	err = chromedp.Run(runCtx,
		chromedp.Navigate("data:text/html,"+url.PathEscape(string(html))),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}

			pdf = buf

			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("printing %s pdf: %w", doc.Kind, err)
	}

	return pdf, nil
}

// FileName is the download name of the PDF rendering, e.g.
// "Invoice n° 00000042.pdf".
func FileName(doc *sales.Document) string {
	return doc.Title() + ".pdf"
}
