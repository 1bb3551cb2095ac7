package sender

import (
	"context"
	"errors"
	"time"
)

type SendResult struct {
	SID    string
	SentAt time.Time
}

// Errors the SMS controller maps to client-facing responses.
var (
	ErrInvalidPhoneNumber    = errors.New("invalid phone number format")
	ErrUnverifiedPhoneNumber = errors.New("phone number not verified")
)

type SMSSender interface {
	SendSMS(ctx context.Context, to, msg string) (SendResult, error)
}
