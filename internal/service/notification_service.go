package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/tradehaus/wholesale-api/internal/models"
	"github.com/tradehaus/wholesale-api/internal/utils"
	"github.com/tradehaus/wholesale-api/pkg/mailer"
)

// EmailSender abstracts the transactional email provider.
type EmailSender interface {
	Send(ctx context.Context, req *mailer.SendRequest) (*mailer.SendResponse, error)
}

// NotificationService renders and dispatches the order emails: one
// confirmation to the customer, one alert to the sales inbox.
type NotificationService struct {
	sender     EmailSender
	fromEmail  string
	adminEmail string
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(sender EmailSender, fromEmail, adminEmail string) *NotificationService {
	return &NotificationService{
		sender:     sender,
		fromEmail:  fromEmail,
		adminEmail: adminEmail,
	}
}

var customerTemplate = template.Must(template.New("customer").Parse(`
<h2>Thank you for your order, {{.Order.CustomerName}}!</h2>
<p>We received order <strong>{{.Order.OrderNumber}}</strong> and will confirm it shortly.</p>
<table border="1" cellpadding="6" cellspacing="0">
  <tr><th>Reference</th><th>Size</th><th>Description</th><th>Qty</th><th>Unit</th><th>Total</th></tr>
  {{range .Order.Items}}
  <tr>
    <td>{{.Reference}}</td>
    <td>{{.Size}}</td>
    <td>{{.Description}}</td>
    <td>{{.Quantity}}</td>
    <td>{{printf "%.2f" .UnitPrice}}</td>
    <td>{{printf "%.2f" .TotalPrice}}</td>
  </tr>
  {{end}}
</table>
<p><strong>Order total: {{printf "%.2f" .Order.TotalAmount}}</strong></p>
<p>We will reach out to {{.Order.CustomerEmail}} with shipping details.</p>
`))

var adminTemplate = template.Must(template.New("admin").Parse(`
<h2>New wholesale order {{.Order.OrderNumber}}</h2>
<p>
  Customer: {{.Order.CustomerName}}{{if .Order.CustomerCompany}} ({{.Order.CustomerCompany}}){{end}}<br>
  Email: {{.Order.CustomerEmail}}<br>
  {{if .Order.CustomerPhone}}Phone: {{.Order.CustomerPhone}}<br>{{end}}
  Lines: {{len .Order.Items}} &mdash; Total: {{printf "%.2f" .Order.TotalAmount}}
</p>
<table border="1" cellpadding="6" cellspacing="0">
  <tr><th>Reference</th><th>Size</th><th>Qty</th><th>Total</th></tr>
  {{range .Order.Items}}
  <tr>
    <td>{{.Reference}}</td>
    <td>{{.Size}}</td>
    <td>{{.Quantity}}</td>
    <td>{{printf "%.2f" .TotalPrice}}</td>
  </tr>
  {{end}}
</table>
`))

// SendCustomerConfirmation emails the order summary to the buyer and returns
// the provider message id.
func (s *NotificationService) SendCustomerConfirmation(ctx context.Context, order *models.Order) (string, error) {
	html, err := render(customerTemplate, order)
	if err != nil {
		return "", fmt.Errorf("%w: %v", utils.ErrDispatch, err)
	}

	resp, err := s.sender.Send(ctx, &mailer.SendRequest{
		From:    s.fromEmail,
		To:      order.CustomerEmail,
		Subject: fmt.Sprintf("Order confirmation %s", order.OrderNumber),
		HTML:    html,
		ReplyTo: s.adminEmail,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", utils.ErrDispatch, err)
	}
	return resp.ID, nil
}

// SendAdminNotification alerts the sales inbox about a new order.
func (s *NotificationService) SendAdminNotification(ctx context.Context, order *models.Order) (string, error) {
	html, err := render(adminTemplate, order)
	if err != nil {
		return "", fmt.Errorf("%w: %v", utils.ErrDispatch, err)
	}

	resp, err := s.sender.Send(ctx, &mailer.SendRequest{
		From:    s.fromEmail,
		To:      s.adminEmail,
		Subject: fmt.Sprintf("New order %s from %s", order.OrderNumber, order.CustomerName),
		HTML:    html,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", utils.ErrDispatch, err)
	}
	return resp.ID, nil
}

func render(t *template.Template, order *models.Order) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, struct{ Order *models.Order }{Order: order}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
