package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/MrSnakeDoc/pocket2drive/internal/logger"
)

// messageCreator is the part of the Twilio REST client used here.
type messageCreator interface {
	CreateMessage(params *twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error)
}

// TwilioConfig holds the SMS account and the numbers involved.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
}

// SMSNotifier sends prompts as text messages through Twilio.
type SMSNotifier struct {
	api    messageCreator
	from   string
	to     string
	logger logger.Logger
}

func NewSMSNotifier(cfg TwilioConfig, log logger.Logger) (*SMSNotifier, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, errors.New("twilio account sid and auth token are required")
	}
	if cfg.From == "" || cfg.To == "" {
		return nil, errors.New("twilio sender and recipient numbers are required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newSMSNotifier(client.Api, cfg.From, cfg.To, log), nil
}

func newSMSNotifier(api messageCreator, from, to string, log logger.Logger) *SMSNotifier {
	return &SMSNotifier{api: api, from: from, to: to, logger: log}
}

func (n *SMSNotifier) Notify(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(n.to)
	params.SetFrom(n.from)
	params.SetBody(message)

	resp, err := n.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio create message: %w", err)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	n.logger.Info("sms prompt sent", logger.String("sid", sid), logger.Secret("to", n.to))
	return nil
}
