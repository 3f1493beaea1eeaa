package email

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

const (
	TemplateOrderPlaced    = "order_placed"
	TemplateQuoteRequested = "quote_requested"
	TemplateContactMessage = "contact_message"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("email").Funcs(template.FuncMap{
	"brl": FormatBRL,
	"deref": func(v *int64) int64 {
		if v == nil {
			return 0
		}
		return *v
	},
}).ParseFS(templateFS, "templates/*.html"))

var defaultSubjects = map[string]string{
	TemplateOrderPlaced:    "Novo pedido recebido",
	TemplateQuoteRequested: "Novo pedido de orçamento",
	TemplateContactMessage: "Nova mensagem de contato",
}

type OrderEmail struct {
	OrderID     string
	ContactName string
	CompanyName string
	Email       string
	Phone       string
	Items       []OrderEmailItem
	TotalCents  int64
	Message     string
}

type OrderEmailItem struct {
	Name           string
	Quantity       int
	UnitPriceCents *int64
	LineTotalCents int64
}

type QuoteEmail struct {
	Name            string
	Email           string
	Phone           string
	Company         string
	ProductInterest string
	Quantity        string
	Message         string
}

type ContactEmail struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

var ErrNoRecipients = errors.New("email: no recipients")

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPProvider struct {
	cfg  Config
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTP(cfg Config) *SMTPProvider {
	return &SMTPProvider{cfg: cfg, send: smtp.SendMail}
}

func (p *SMTPProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	if len(to) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if p.cfg.Username != "" {
		auth = smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
	}
	addr := net.JoinHostPort(p.cfg.Host, strconv.Itoa(p.cfg.Port))
	return p.send(addr, auth, p.cfg.From, to, buildMessage(p.cfg.From, to, subject, htmlBody))
}

// SendTemplate renders one of the embedded templates. A "subject" key in a
// map payload overrides the template's default subject.
func (p *SMTPProvider) SendTemplate(ctx context.Context, to []string, templateName string, data any) error {
	body, err := Render(templateName, data)
	if err != nil {
		return err
	}

	subject := defaultSubjects[templateName]
	if dataMap, ok := data.(map[string]any); ok {
		if subj, ok := dataMap["subject"].(string); ok && subj != "" {
			subject = subj
		}
	}
	if subject == "" {
		subject = "Notificação"
	}
	return p.Send(ctx, to, subject, body)
}

func Render(templateName string, data any) (string, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, templateName+".html", data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}
	return body.String(), nil
}

func buildMessage(from string, to []string, subject, htmlBody string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

// FormatBRL renders cents as Brazilian reais, e.g. 1700 -> "R$ 17,00".
func FormatBRL(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := strconv.FormatInt(cents/100, 10)
	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, grouped.String(), cents%100)
}
