package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront-api/sender"
)

type fakeSMSSender struct {
	gotTo   string
	gotMsg  string
	calls   int
	sendErr error
}

func (f *fakeSMSSender) SendSMS(ctx context.Context, to, msg string) (sender.SendResult, error) {
	f.calls++
	f.gotTo = to
	f.gotMsg = msg
	if f.sendErr != nil {
		return sender.SendResult{}, f.sendErr
	}
	return sender.SendResult{SID: "SM123"}, nil
}

func newSMSRouter(sms sender.SMSSender) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ctrl := NewNotificationController(sms, zap.NewNop())
	r := gin.New()
	r.POST("/api/send-sms", ctrl.SendSMS)
	return r
}

func postSMS(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/send-sms", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSendSMSAcceptsPhoneNumberField(t *testing.T) {
	sms := &fakeSMSSender{}
	r := newSMSRouter(sms)

	w := postSMS(r, `{"phoneNumber":"+15551234567","message":"Your order has shipped"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, sms.calls)
	assert.Equal(t, "+15551234567", sms.gotTo)
	assert.Equal(t, "Your order has shipped", sms.gotMsg)
	assert.Contains(t, w.Body.String(), `"sid":"SM123"`)
	assert.Contains(t, w.Body.String(), "SMS sent successfully")
}

func TestSendSMSRequiresBothFields(t *testing.T) {
	sms := &fakeSMSSender{}
	r := newSMSRouter(sms)

	for _, body := range []string{
		`{"message":"hi"}`,
		`{"phoneNumber":"+15551234567"}`,
		`{}`,
	} {
		w := postSMS(r, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
		assert.Contains(t, w.Body.String(), "Phone number and message are required")
	}
	assert.Zero(t, sms.calls)
}

func TestSendSMSNotConfigured(t *testing.T) {
	r := newSMSRouter(nil)

	w := postSMS(r, `{"phoneNumber":"+15551234567","message":"hi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSendSMSMapsSenderErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"invalid number", sender.ErrInvalidPhoneNumber, http.StatusBadRequest, "Invalid phone number format"},
		{"unverified number", sender.ErrUnverifiedPhoneNumber, http.StatusBadRequest, "not verified"},
		{"provider failure", assert.AnError, http.StatusInternalServerError, "Failed to send SMS"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newSMSRouter(&fakeSMSSender{sendErr: tc.err})

			w := postSMS(r, `{"phoneNumber":"+15551234567","message":"hi"}`)
			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tc.wantBody)
		})
	}
}
