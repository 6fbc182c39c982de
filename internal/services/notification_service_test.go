package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/pirotecnica-backend/internal/config"
	"github.com/javajoker/pirotecnica-backend/internal/models"
)

type sentMail struct {
	To, Subject, Body string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func TestNotifyOrderPlacedRendersItems(t *testing.T) {
	mailer := &recordingMailer{}
	svc := NewNotificationService(mailer, testConfig())

	order := &models.Order{
		BaseModel: models.BaseModel{ID: uuid.New()},
		Items: []models.OrderItem{
			{ProductName: "Fontana <XL>", UnitPrice: models.MustParseMoney("10.00"), Quantity: 2, LineTotal: models.MustParseMoney("20.00")},
			{ProductName: "Petardo", UnitPrice: models.MustParseMoney("5.50"), Quantity: 1, LineTotal: models.MustParseMoney("5.50")},
		},
		Total:  models.MustParseMoney("25.50"),
		Status: models.OrderStatusPending,
	}
	buyer := &models.User{Name: "Mario Rossi", Email: "mario@example.com"}

	require.NoError(t, svc.NotifyOrderPlaced(t.Context(), order, buyer))
	require.Len(t, mailer.sent, 1)

	mail := mailer.sent[0]
	assert.Equal(t, "admin@pirotecnica.local", mail.To)
	assert.Equal(t, "Nuovo Ordine - Pirotecnica Posca", mail.Subject)
	assert.Contains(t, mail.Body, order.ID.String())
	assert.Contains(t, mail.Body, "Fontana &lt;XL&gt;")
	assert.Contains(t, mail.Body, "Mario Rossi")
	assert.Contains(t, mail.Body, "€")
	assert.Contains(t, mail.Body, "25")
}

func TestNotifyLicenseDecisionGoesToApplicant(t *testing.T) {
	mailer := &recordingMailer{}
	svc := NewNotificationService(mailer, testConfig())
	user := &models.User{Name: "Luigi", Email: "luigi@example.com"}

	require.NoError(t, svc.NotifyLicenseDecision(t.Context(), user, true))
	require.NoError(t, svc.NotifyLicenseDecision(t.Context(), user, false))

	require.Len(t, mailer.sent, 2)
	assert.Equal(t, "luigi@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Subject, "approvata")
	assert.Contains(t, mailer.sent[1].Subject, "rifiutata")
}

func TestAdminNotificationsNeedAnAdminAddress(t *testing.T) {
	mailer := &recordingMailer{}
	cfg := testConfig()
	cfg.Admin.Email = ""
	svc := NewNotificationService(mailer, cfg)

	require.NoError(t, svc.NotifyRegistration(t.Context(), &models.User{Name: "Anna", Email: "anna@example.com"}))
	assert.Empty(t, mailer.sent)
}

func TestNewMailerFallsBackToLog(t *testing.T) {
	assert.IsType(t, LogMailer{}, NewMailer(config.EmailConfig{}))
	assert.IsType(t, &SMTPMailer{}, NewMailer(config.EmailConfig{SMTPHost: "smtp.example.com"}))

	assert.NoError(t, LogMailer{}.Send(t.Context(), "a@example.com", "subject", "body"))
}
