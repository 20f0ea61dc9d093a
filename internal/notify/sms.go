package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/ironsheep/platewatch/internal/geo"
)

// ErrNotification is returned (wrapped) in Outcome.Err when the gateway
// rejects or fails to deliver a message.
var ErrNotification = errors.New("notification failed")

// ReasonNotConfigured is the skip reason when credentials are missing.
const ReasonNotConfigured = "twilio credentials not configured"

// Status is the result category of a send attempt.
type Status string

const (
	StatusSent    Status = "sent"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome describes one send attempt.
type Outcome struct {
	Status Status `json:"status"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason,omitempty"`
	Err    error  `json:"-"`
}

// Sender delivers a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, to, body string) Outcome
}

// Credentials are the Twilio account settings.
type Credentials struct {
	AccountSID string
	AuthToken  string
	FromPhone  string
}

// Complete reports whether every credential is set.
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.AccountSID) != "" &&
		strings.TrimSpace(c.AuthToken) != "" &&
		strings.TrimSpace(c.FromPhone) != ""
}

// Gateway is the part of the Twilio messages API that is used.
type Gateway interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// SMSNotifier sends messages through a Gateway.
type SMSNotifier struct {
	creds   Credentials
	gateway Gateway
	log     *logrus.Logger
}

// NewSMSNotifier creates a notifier backed by the Twilio REST client.
// Incomplete credentials produce a notifier that skips every send.
func NewSMSNotifier(creds Credentials, logger *logrus.Logger) *SMSNotifier {
	n := &SMSNotifier{creds: creds, log: logger}
	if creds.Complete() {
		client := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: creds.AccountSID,
			Password: creds.AuthToken,
		})
		n.gateway = client.Api
	}
	return n
}

// WithGateway returns a copy of the notifier sending through g.
func (n *SMSNotifier) WithGateway(g Gateway) *SMSNotifier {
	cp := *n
	cp.gateway = g
	return &cp
}

// Send delivers body to the recipient.
func (n *SMSNotifier) Send(ctx context.Context, to, body string) Outcome {
	if !n.creds.Complete() || n.gateway == nil {
		n.log.Warn("Twilio credentials are not set, skipping SMS")
		return Outcome{Status: StatusSkipped, Reason: ReasonNotConfigured}
	}

	if err := ctx.Err(); err != nil {
		return n.failed(to, fmt.Errorf("%w: %w", ErrNotification, err))
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(n.creds.FromPhone)
	params.SetBody(body)

	resp, err := n.gateway.CreateMessage(params)
	if err != nil {
		return n.failed(to, fmt.Errorf("%w: %w", ErrNotification, err))
	}

	var sid string
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}

	n.log.WithFields(logrus.Fields{
		"sid": sid,
		"to":  maskPhone(to),
	}).Info("Message sent")

	return Outcome{Status: StatusSent, ID: sid}
}

func (n *SMSNotifier) failed(to string, err error) Outcome {
	n.log.WithFields(logrus.Fields{
		"to":    maskPhone(to),
		"error": err.Error(),
	}).Error("Failed to send SMS")
	return Outcome{Status: StatusFailed, Reason: err.Error(), Err: err}
}

// FormatAlert builds the alert text for a set of matched plates.
func FormatAlert(matches []string, loc geo.Estimate) string {
	return fmt.Sprintf("Alert: Detected plate(s) %s at %s (lat: %s, lon: %s)",
		strings.Join(matches, ", "), loc.PlaceName, loc.Latitude, loc.Longitude)
}

// maskPhone keeps the last four digits of a number for logs.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
