package utils

import (
	"fmt"

	sendgrid "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"quickbasket/models"
)

// EmailService handles sending emails using SendGrid
type EmailService struct {
	client *sendgrid.Client
	sender string
}

// NewEmailService initializes and returns a new EmailService instance
func NewEmailService(apiKey, sender string) *EmailService {
	return &EmailService{
		client: sendgrid.NewSendClient(apiKey),
		sender: sender,
	}
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(toEmail, subject, htmlContent string) error {
	from := mail.NewEmail("QuickBasket", es.sender)
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(from, subject, to, htmlContent, htmlContent)

	resp, err := es.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("failed to send email: sendgrid returned %d", resp.StatusCode)
	}
	return nil
}

// SendOrderConfirmationEmail sends an order confirmation email to the user.
// Every row of one checkout carries the same totals, so any row works here.
func (es *EmailService) SendOrderConfirmationEmail(toEmail string, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	first := orders[0]
	subject := "Order Confirmation - QuickBasket"
	htmlContent := fmt.Sprintf(
		"<strong>Dear Customer,</strong><br><br>Thank you for your purchase! Your order (%d item(s)) has been placed successfully.<br><br>Total Amount: <strong>%.2f</strong><br>Payment Method: <strong>%s</strong><br><br>Thank you for shopping with us!",
		len(orders),
		first.TotalAmt,
		first.PaymentType,
	)
	return es.SendEmail(toEmail, subject, htmlContent)
}
