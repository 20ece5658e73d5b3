package utils

import (
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"time"

	"ecom_back_end/internal/models"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/skip2/go-qrcode"
)

const receiptPDFTimeout = 30 * time.Second

type receiptData struct {
	Title     string
	Name      string
	OrderID   string
	PaymentID string
	Method    string
	Amount    float64
	Date      time.Time
	Items     []models.OrderItem
	QR        template.URL
}

// PaymentQR encode la référence du paiement en QR, prêt pour <img src="...">.
func PaymentQR(p models.Payment) (string, error) {
	ref := p.ID.String()
	if p.ProviderRef != "" {
		ref = p.ProviderRef
	}
	png, err := qrcode.Encode(fmt.Sprintf("PAY:%s;ORDER:%s;AMOUNT:%.2f", ref, p.OrderID, p.Amount), qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// RenderReceiptHTML produit le reçu de paiement. Un QR en échec est simplement omis.
func RenderReceiptHTML(user models.User, order models.Order, p models.Payment) (string, error) {
	data := receiptData{
		Title:     "Reçu de paiement",
		Name:      user.FullName(),
		OrderID:   order.ID.String(),
		PaymentID: p.ID.String(),
		Method:    p.PaymentMethod,
		Amount:    p.Amount,
		Date:      p.CreatedAt,
		Items:     order.Items,
	}
	if qr, err := PaymentQR(p); err == nil {
		data.QR = template.URL(qr)
	}
	return renderEmail("receipt", data)
}

// RenderPDF imprime une page HTML en PDF avec Chrome headless.
func RenderPDF(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	ctx, cancel = context.WithTimeout(ctx, receiptPDFTimeout)
	defer cancel()

	var pdf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("data:text/html;base64,"+base64.StdEncoding.EncodeToString([]byte(html))),
		chromedp.WaitReady("body", chromedp.ByQuery),
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
		return nil, fmt.Errorf("génération PDF: %w", err)
	}
	return pdf, nil
}
