package smtp

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
)

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Client sends transactional mail through an SMTP relay.
type Client struct {
	dialer sender
}

func NewClient(dialer *gomail.Dialer) *Client {
	return &Client{dialer: dialer}
}

// Send delivers a message with a plain text body and an HTML alternative.
func (c *Client) Send(to, subject, text, html string) error {
	return c.dialer.DialAndSend(c.message(to, subject, text, html))
}

func (c *Client) message(to, subject, text, html string) *gomail.Message {
	msg := gomail.NewMessage()

	domain := viper.GetString("service.smtp.domain")
	msg.SetHeader("Message-ID", generateMessageID(domain))
	msg.SetHeader("Date", time.Now().Format(time.RFC1123Z))
	msg.SetHeader("From", viper.GetString("service.smtp.email"))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", text)
	if html != "" {
		msg.AddAlternative("text/html", html)
	}
	return msg
}

func generateMessageID(domain string) string {
	uniqueID := uuid.New().String()
	return fmt.Sprintf("<%s@%s>", uniqueID, domain)
}
