package utils

import (
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/skillexchange/skill-exchange-backend/config"
)

// SendEmail sends an email using SendGrid
func SendEmail(toName, toEmail, subject, textContent, htmlContent string) error {
	apiKey := config.SendGridAPIKey
	if apiKey == "" {
		return fmt.Errorf("SENDGRID_API_KEY is not set in environment variables")
	}

	from := mail.NewEmail(config.EmailFromName, config.EmailFromAddress)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, textContent, htmlContent)
	client := sendgrid.NewSendClient(apiKey)

	response, err := client.Send(message)
	if err != nil {
		log.Printf("Error sending email to %s: %v", toEmail, err)
		return err
	}

	if response.StatusCode >= 400 {
		log.Printf("SendGrid API Error: Status Code %d, Body: %s", response.StatusCode, response.Body)
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	log.Printf("Email sent successfully to %s. Status Code: %d", toEmail, response.StatusCode)
	return nil
}

// SendOTPEmail sends a one-time verification code to the user.
func SendOTPEmail(toName, toEmail, otpCode string) error {
	return SendEmail(toName, toEmail, "Your Skill Exchange verification code",
		fmt.Sprintf("Your OTP is: %s. It expires in 10 minutes.", otpCode),
		fmt.Sprintf("<h1>Your OTP is: <strong>%s</strong></h1><p>It expires in 10 minutes.</p>", otpCode))
}

// SendMentorNotification emails a mentor that a mentorship payment completed
// on-chain. The platform ledger is not touched for this path.
func SendMentorNotification(toName, toEmail, transactionHash string) error {
	text := fmt.Sprintf("Hello %s,\n\nYour mentorship transaction has been successfully completed. Here is the transaction hash: %s\n\nThank you for your contribution to Skill Exchange!\n\nBest regards,\nSkill Exchange Team", toName, transactionHash)
	html := fmt.Sprintf("<p>Hello %s,</p><p>Your mentorship transaction has been successfully completed. Transaction hash: <code>%s</code></p><p>Thank you for your contribution to Skill Exchange!</p>", toName, transactionHash)
	return SendEmail(toName, toEmail, "Transaction Completed for Mentorship", text, html)
}
