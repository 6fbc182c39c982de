// internal/services/notification_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/javajoker/pirotecnica-backend/internal/config"
	"github.com/javajoker/pirotecnica-backend/internal/models"
)

// Notifier delivers best-effort messages about state transitions. Callers log
// failures and never roll back because of them.
type Notifier interface {
	NotifyRegistration(ctx context.Context, user *models.User) error
	NotifyLicenseApplication(ctx context.Context, user *models.User) error
	NotifyLicenseDecision(ctx context.Context, user *models.User, approved bool) error
	NotifyOrderPlaced(ctx context.Context, order *models.Order, buyer *models.User) error
}

// Mailer sends one HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMTPMailer struct {
	cfg config.EmailConfig
}

func NewSMTPMailer(cfg config.EmailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	// Setup authentication
	var auth smtp.Auth
	if m.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	}

	// Compose message
	msg := []byte(fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		m.cfg.FromName, m.cfg.FromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", m.cfg.SMTPHost, m.cfg.SMTPPort)

	// smtp.SendMail has no context; the buffered channel lets the send finish
	// in the background once the caller has given up.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.cfg.FromEmail, []string{to}, msg)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s: %w", to, ctx.Err())
	}
}

// LogMailer is used when no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, to, subject, body string) error {
	logrus.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info("Email not configured, message logged instead")
	return ctx.Err()
}

type NotificationService struct {
	mailer     Mailer
	adminEmail string
	shopName   string
	unit       currency.Unit
	printer    *message.Printer
	templates  *template.Template
}

func NewNotificationService(mailer Mailer, cfg *config.Config) *NotificationService {
	unit, err := currency.ParseISO(cfg.Shop.Currency)
	if err != nil {
		unit = currency.EUR
	}

	return &NotificationService{
		mailer:     mailer,
		adminEmail: cfg.Admin.Email,
		shopName:   cfg.Shop.Name,
		unit:       unit,
		printer:    message.NewPrinter(language.Make(cfg.Shop.Locale)),
		templates:  template.Must(template.New("email").Parse(emailTemplates)),
	}
}

// NewMailer picks SMTP when a host is configured.
func NewMailer(cfg config.EmailConfig) Mailer {
	if cfg.Enabled() {
		return NewSMTPMailer(cfg)
	}
	return LogMailer{}
}

func (s *NotificationService) NotifyRegistration(ctx context.Context, user *models.User) error {
	if s.adminEmail == "" {
		return nil
	}
	return s.send(ctx, s.adminEmail, "Nuova Registrazione Utente - "+s.shopName, "registration", map[string]interface{}{
		"Shop":    s.shopName,
		"Name":    user.Name,
		"Email":   user.Email,
		"Role":    string(user.Role),
		"Pending": user.AwaitingApproval(),
	})
}

func (s *NotificationService) NotifyLicenseApplication(ctx context.Context, user *models.User) error {
	if s.adminEmail == "" {
		return nil
	}
	return s.send(ctx, s.adminEmail, "Nuova richiesta licenza - "+s.shopName, "license_application", map[string]interface{}{
		"Shop":          s.shopName,
		"Name":          user.Name,
		"Email":         user.Email,
		"LicenseType":   user.License.Type,
		"LicenseNumber": user.License.Number,
	})
}

func (s *NotificationService) NotifyLicenseDecision(ctx context.Context, user *models.User, approved bool) error {
	subject := "Licenza rifiutata - " + s.shopName
	if approved {
		subject = "Licenza approvata - " + s.shopName
	}
	return s.send(ctx, user.Email, subject, "license_decision", map[string]interface{}{
		"Shop":     s.shopName,
		"Name":     user.Name,
		"Approved": approved,
	})
}

type orderLine struct {
	Name      string
	Quantity  int
	UnitPrice string
	LineTotal string
}

func (s *NotificationService) NotifyOrderPlaced(ctx context.Context, order *models.Order, buyer *models.User) error {
	if s.adminEmail == "" {
		return nil
	}

	lines := make([]orderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, orderLine{
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: s.FormatAmount(item.UnitPrice),
			LineTotal: s.FormatAmount(item.LineTotal),
		})
	}

	return s.send(ctx, s.adminEmail, "Nuovo Ordine - "+s.shopName, "order_placed", map[string]interface{}{
		"Shop":    s.shopName,
		"OrderID": order.ID.String(),
		"Name":    buyer.Name,
		"Email":   buyer.Email,
		"Items":   lines,
		"Total":   s.FormatAmount(order.Total),
		"Status":  string(order.Status),
	})
}

// FormatAmount renders money in the shop currency and locale, e.g. "€ 25,50".
func (s *NotificationService) FormatAmount(m models.Money) string {
	return s.printer.Sprint(currency.Symbol(s.unit.Amount(m.Round(2).InexactFloat64())))
}

func (s *NotificationService) send(ctx context.Context, to, subject, name string, data interface{}) error {
	body, err := s.renderTemplate(name, data)
	if err != nil {
		return fmt.Errorf("failed to render email template %s: %w", name, err)
	}
	return s.mailer.Send(ctx, to, subject, body)
}

func (s *NotificationService) renderTemplate(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// notify runs a best-effort notification bounded by timeout. The error is logged and
// returned so callers can surface a warning.
func notify(ctx context.Context, timeout time.Duration, event string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	// Detached from the request so a client disconnect does not cancel the email.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		logrus.WithError(err).WithField("event", event).Warn("Notification failed")
		return err
	}
	return nil
}

const emailTemplates = `
{{define "registration"}}
<h2>Nuova Registrazione</h2>
<p>Un nuovo utente si è registrato su {{.Shop}}:</p>
<ul>
	<li><strong>Nome:</strong> {{.Name}}</li>
	<li><strong>Email:</strong> {{.Email}}</li>
	<li><strong>Ruolo:</strong> {{.Role}}</li>
</ul>
{{if .Pending}}<p>La licenza è in attesa di approvazione.</p>{{end}}
<p>Accedi alla dashboard admin per gestire l'utente.</p>
{{end}}

{{define "license_application"}}
<h2>Nuova richiesta licenza</h2>
<p>{{.Name}} ({{.Email}}) ha richiesto di diventare venditore su {{.Shop}}.</p>
<ul>
	<li><strong>Tipo:</strong> {{.LicenseType}}</li>
	<li><strong>Numero:</strong> {{.LicenseNumber}}</li>
</ul>
<p>Accedi alla dashboard admin per approvare o rifiutare la richiesta.</p>
{{end}}

{{define "license_decision"}}
<h2>{{if .Approved}}Licenza approvata{{else}}Licenza rifiutata{{end}}</h2>
<p>Ciao <strong>{{.Name}}</strong>,</p>
{{if .Approved}}
<p>La tua licenza è stata approvata. Ora puoi accedere e pubblicare prodotti su {{.Shop}}.</p>
{{else}}
<p>La tua richiesta di licenza non è stata approvata. Puoi continuare a usare {{.Shop}} come acquirente.</p>
{{end}}
{{end}}

{{define "order_placed"}}
<h2>Nuovo Ordine</h2>
<p>Un nuovo ordine ({{.OrderID}}) è stato effettuato da {{.Name}} ({{.Email}}):</p>
<ul>
{{range .Items}}	<li>{{.Name}} - Quantità: {{.Quantity}} - Prezzo: {{.UnitPrice}} - Totale: {{.LineTotal}}</li>
{{end}}</ul>
<p><strong>Totale:</strong> {{.Total}}</p>
<p><strong>Stato:</strong> {{.Status}}</p>
<p>Accedi alla dashboard admin per gestire l'ordine.</p>
{{end}}
`
