package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const twilioBaseURL = "https://api.twilio.com"

// Twilio REST error codes worth distinguishing for callers.
const (
	twilioCodeInvalidNumber    = 21211
	twilioCodeUnverifiedNumber = 21608
)

// TwilioSender sends SMS through the Twilio REST API.
type TwilioSender struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	httpClient *http.Client
}

func NewTwilioSender(accountSID, authToken, fromNumber string) (*TwilioSender, error) {
	if accountSID == "" {
		return nil, fmt.Errorf("twilio account SID not set")
	}
	if authToken == "" {
		return nil, fmt.Errorf("twilio auth token not set")
	}
	if fromNumber == "" {
		return nil, fmt.Errorf("twilio from number not set")
	}

	return &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		baseURL:    twilioBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

type twilioMessageResponse struct {
	SID     string `json:"sid"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (t *TwilioSender) SendSMS(ctx context.Context, to, msg string) (SendResult, error) {
	apiURL := fmt.Sprintf(
		"%s/2010-04-01/Accounts/%s/Messages.json",
		t.baseURL, t.accountSID,
	)

	formData := url.Values{}
	formData.Set("To", to)
	formData.Set("From", t.fromNumber)
	formData.Set("Body", msg)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL,
		strings.NewReader(formData.Encode()))
	if err != nil {
		return SendResult{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(t.accountSID, t.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return SendResult{}, fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var parsed twilioMessageResponse
	_ = json.Unmarshal(body, &parsed)

	if resp.StatusCode >= 300 {
		switch parsed.Code {
		case twilioCodeInvalidNumber:
			return SendResult{}, ErrInvalidPhoneNumber
		case twilioCodeUnverifiedNumber:
			return SendResult{}, ErrUnverifiedPhoneNumber
		}
		return SendResult{}, fmt.Errorf("twilio error %s: %s", resp.Status, string(body))
	}

	return SendResult{
		SID:    parsed.SID,
		SentAt: time.Now(),
	}, nil
}
