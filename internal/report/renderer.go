// Package report renders completed audit results into PDF documents via
// headless Chromium. The HTML is built with html/template and loaded through a
// data: URL, so no temp files or local web server are involved.
package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/xteam-pro/audit-platform/internal/config"
	"github.com/xteam-pro/audit-platform/internal/db/models"
)

const defaultRenderTimeout = 30 * time.Second

// Renderer turns an audit and its result into a PDF report.
type Renderer struct {
	chromiumPath string
	timeout      time.Duration
	tmpl         *template.Template
}

// NewRenderer creates a Renderer from storage configuration. The template is
// parsed once at construction; a bad template is a programming error and panics.
func NewRenderer(cfg *config.StorageConfig) *Renderer {
	timeout := cfg.PDFTimeout
	if timeout <= 0 {
		timeout = defaultRenderTimeout
	}

	return &Renderer{
		chromiumPath: cfg.ChromiumPath,
		timeout:      timeout,
		tmpl: template.Must(template.New("audit_report").Funcs(template.FuncMap{
			"money": func(v float64) string {
				return fmt.Sprintf("$%s", formatNumber(v))
			},
			"pct": func(v float64) string {
				return fmt.Sprintf("%.0f%%", v)
			},
		}).Parse(reportTemplate)),
	}
}

// Render produces the PDF bytes for a completed audit. If Chromium is
// unavailable the error propagates to the caller, which treats report
// generation as best-effort.
func (r *Renderer) Render(ctx context.Context, audit *models.Audit, result *models.AuditResult) ([]byte, error) {
	html, err := r.renderHTML(audit, result)
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	if r.chromiumPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(r.chromiumPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	runCtx, cancelRun := chromedp.NewContext(allocCtx)
	defer cancelRun()
	runCtx, cancelTimeout := context.WithTimeout(runCtx, r.timeout)
	defer cancelTimeout()

	var pdfBuf []byte
	dataURL := "data:text/html," + url.PathEscape(html)
	err = chromedp.Run(runCtx,
		chromedp.Navigate(dataURL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, perr := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if perr == nil {
				pdfBuf = buf
			}
			return perr
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp run failed: %w", err)
	}

	return pdfBuf, nil
}

// reportData is the flattened view passed to the HTML template.
type reportData struct {
	Audit       *models.Audit
	Result      *models.AuditResult
	GeneratedAt string

	// Cost figures with defaults already applied for display
	HasCosts           bool
	EstimatedSavings   float64
	ImplementationCost float64
	PaybackPeriod      float64
}

func (r *Renderer) renderHTML(audit *models.Audit, result *models.AuditResult) (string, error) {
	data := reportData{
		Audit:       audit,
		Result:      result,
		GeneratedAt: time.Now().UTC().Format("January 2, 2006"),
	}
	if result.EstimatedSavings != nil && result.ImplementationCost != nil {
		data.HasCosts = true
		data.EstimatedSavings = *result.EstimatedSavings
		data.ImplementationCost = *result.ImplementationCost
		if result.PaybackPeriod != nil {
			data.PaybackPeriod = *result.PaybackPeriod
		}
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatNumber(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	// Insert thousands separators
	n := len(s)
	if n <= 3 {
		return s
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}
