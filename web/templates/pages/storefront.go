package pages

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"autobuy_panel_echo/internal/models"
)

// StorefrontProps is the data behind GET /
type StorefrontProps struct {
	Title    string
	Products models.ProductList
	// FormatPrice renders a rupiah amount for display
	FormatPrice func(int64) string
}

func productCard(p models.Product, format func(int64) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="product" data-product="%s" data-admin="%t">`,
		templ.EscapeString(p.ID), p.Type == models.ProductKindAdmin)
	fmt.Fprintf(&b, `<h3>%s</h3>`, templ.EscapeString(p.Name))
	fmt.Fprintf(&b, `<p class="price">%s</p>`, templ.EscapeString(format(p.Price)))
	fmt.Fprintf(&b, `<button type="button" class="buy" data-product="%s">Buy</button></div>`, templ.EscapeString(p.ID))
	return b.String()
}

func productSection(title string, products []models.Product, format func(int64) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<section><h2>%s</h2><div class="products">`, templ.EscapeString(title))
	for _, p := range products {
		b.WriteString(productCard(p, format))
	}
	b.WriteString(`</div></section>`)
	return b.String()
}

// Storefront lists every product tier with its price
func Storefront(props StorefrontProps) templ.Component {
	format := props.FormatPrice
	if format == nil {
		format = func(v int64) string { return fmt.Sprintf("Rp %d", v) }
	}
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<header><h1>%s</h1></header><main>`, templ.EscapeString(props.Title))
		b.WriteString(productSection("User Panels", props.Products.UserPanels, format))
		b.WriteString(productSection("Admin Panels", props.Products.AdminPanels, format))
		b.WriteString(`<div id="checkout" hidden><img id="qr" alt="QRIS"><p id="status"></p></div></main>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
	return layout(props.Title, body)
}
