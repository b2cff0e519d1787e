// services/sms.go
package services

import (
	"errors"
	"fmt"
	"log"
	"os"

	"klord-backend/config"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSSender dispatches a text message. Nil means SMS is disabled and OTP
// codes are returned in the response instead (development behavior).
type SMSSender interface {
	Send(to, body string) error
}

// SMS is the process-wide sender, set in main when SMS_ENABLED=true.
var SMS SMSSender

// SMSEnabled reports whether outbound SMS dispatch is configured.
func SMSEnabled() bool {
	return SMS != nil
}

// TwilioSender sends through the Twilio REST API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender() (*TwilioSender, error) {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_PHONE_NUMBER")
	if accountSid == "" || authToken == "" || from == "" {
		return nil, errors.New("twilio credentials are not configured")
	}

	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		}),
		from: from,
	}, nil
}

func (t *TwilioSender) Send(to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		config.RecordSMS("failed")
		return err
	}
	config.RecordSMS("sent")
	if resp.Sid != nil {
		log.Printf("[twilio] message sent to %s, SID: %s", to, *resp.Sid)
	}
	return nil
}

// SendOTP dispatches a login code to the given phone number.
func SendOTP(phone, code string) error {
	body := fmt.Sprintf("Your Klord login OTP is %s. It will expire in 5 minutes.", code)
	return SMS.Send(phone, body)
}
