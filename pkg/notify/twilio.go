package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/lessoncast/lessoncast/pkg/logging"
	"github.com/lessoncast/lessoncast/pkg/redact"
)

// TwilioConfig holds SMS notification settings.
type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	From       string `mapstructure:"from"`
	To         string `mapstructure:"to"`
}

type messageCreator interface {
	CreateMessage(params *api.CreateMessageParams) (*api.ApiV2010Message, error)
}

// TwilioSMS announces finished generation batches over SMS.
type TwilioSMS struct {
	cfg    TwilioConfig
	client messageCreator
	logger *slog.Logger
}

// NewTwilioSMS creates an SMS notifier.
func NewTwilioSMS(cfg TwilioConfig) *TwilioSMS {
	return &TwilioSMS{
		cfg:    cfg,
		logger: logging.NewComponentLogger(slog.Default(), "twilio_sms"),
	}
}

func (t *TwilioSMS) Name() string { return "twilio_sms" }

func (t *TwilioSMS) NotifyAudioReady(ctx context.Context, ev AudioReady) error {
	_ = ctx
	if t.cfg.AccountSID == "" || t.cfg.AuthToken == "" {
		return errors.New("missing twilio credentials")
	}
	if t.cfg.From == "" || t.cfg.To == "" {
		return errors.New("to/from required")
	}
	client := t.client
	if client == nil {
		rest := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: t.cfg.AccountSID,
			Password: t.cfg.AuthToken,
		})
		client = rest.Api
	}
	body := fmt.Sprintf("Lesson audio ready: day %d (%d/%d files)", ev.DayNumber, ev.FilesGenerated, ev.FilesTotal)
	params := &api.CreateMessageParams{}
	params.SetTo(t.cfg.To)
	params.SetFrom(t.cfg.From)
	params.SetBody(body)
	resp, err := client.CreateMessage(params)
	if err != nil {
		return err
	}
	if resp == nil || resp.Sid == nil {
		return fmt.Errorf("missing message sid")
	}
	t.logger.Info("audio ready notification sent",
		slog.String("lesson_id", ev.LessonID),
		slog.String("to", redact.Phone(t.cfg.To)),
		slog.String("message_sid", *resp.Sid))
	return nil
}

var _ Notifier = (*TwilioSMS)(nil)
