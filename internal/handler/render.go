package handler

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
	"time"

	"transbank-webpay/internal/thankyou"
)

//go:embed views/*.html
var viewsFS embed.FS

var views = template.Must(template.New("views").Funcs(template.FuncMap{
	"clp":   formatCLP,
	"date":  formatDate,
	"clock": formatClock,
}).ParseFS(viewsFS, "views/*.html"))

// formatCLP renders whole pesos with dot thousands separators, e.g. $15.000.
func formatCLP(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return sign + "$" + b.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02-01-2006")
}

func formatClock(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("15:04:05")
}

func renderThankYou(w io.Writer, page *thankyou.Page) error {
	if err := views.ExecuteTemplate(w, "header", "Pedido recibido"); err != nil {
		return err
	}
	if err := views.ExecuteTemplate(w, "notices", page.Notices); err != nil {
		return err
	}

	switch page.Template {
	case thankyou.TemplateOrderSummary:
		if err := views.ExecuteTemplate(w, page.Template, page.Webpay); err != nil {
			return err
		}
	case thankyou.TemplateOrderSummaryOneclick:
		if err := views.ExecuteTemplate(w, page.Template, page.Oneclick); err != nil {
			return err
		}
	case "":
	default:
		return fmt.Errorf("unknown thank-you template %q", page.Template)
	}

	return views.ExecuteTemplate(w, "footer", nil)
}

// redirectForm posts Token under Field to the Webpay URL.
type redirectForm struct {
	URL   string
	Field string
	Token string
}

func renderWebpayRedirect(w io.Writer, form redirectForm) error {
	return views.ExecuteTemplate(w, "webpay-redirect", form)
}
