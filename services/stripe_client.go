package services

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"github.com/stripe/stripe-go/v80/webhook"
	"go.uber.org/zap"
)

// Callers may be on unreliable mobile networks and Stripe itself can blip, so
// every session round-trip gets a bounded retry with linear backoff and a
// per-attempt timeout, behind a circuit breaker.
const (
	stripeMaxAttempts    = 3
	stripeAttemptTimeout = 20 * time.Second
	stripeRetryBackoff   = 1 * time.Second
)

// StripeGateway is the narrow Stripe surface the checkout flow needs.
type StripeGateway interface {
	Configured() bool
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error)
}

// StripeService wraps the Stripe client. The API client is an explicit
// instance rather than the package-global key so tests and multi-tenant
// setups can hold several.
type StripeService struct {
	api           *client.API
	webhookSecret string
	breaker       *gobreaker.CircuitBreaker
	logger        *zap.Logger
}

func NewStripeService(secretKey, webhookSecret string, logger *zap.Logger) *StripeService {
	s := &StripeService{
		webhookSecret: webhookSecret,
		logger:        logger,
	}
	if secretKey != "" {
		s.api = &client.API{}
		s.api.Init(secretKey, nil)
	}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "stripe",
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("circuit", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return s
}

// Configured reports whether a secret key was supplied at startup.
func (s *StripeService) Configured() bool { return s.api != nil }

func (s *StripeService) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return s.withRetry(ctx, "create checkout session", func(attemptCtx context.Context) (*stripe.CheckoutSession, error) {
		params.Context = attemptCtx
		return s.api.CheckoutSessions.New(params)
	})
}

func (s *StripeService) GetCheckoutSession(ctx context.Context, sessionID string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params == nil {
		params = &stripe.CheckoutSessionParams{}
	}
	return s.withRetry(ctx, "retrieve checkout session", func(attemptCtx context.Context) (*stripe.CheckoutSession, error) {
		params.Context = attemptCtx
		return s.api.CheckoutSessions.Get(sessionID, params)
	})
}

// VerifyWebhook checks the Stripe-Signature header against the configured
// webhook secret and returns the parsed event.
func (s *StripeService) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, s.webhookSecret)
}

func (s *StripeService) withRetry(ctx context.Context, op string, fn func(context.Context) (*stripe.CheckoutSession, error)) (*stripe.CheckoutSession, error) {
	var lastErr error
	for attempt := 1; attempt <= stripeMaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, stripeAttemptTimeout)
		result, err := s.breaker.Execute(func() (interface{}, error) {
			return fn(attemptCtx)
		})
		cancel()
		if err == nil {
			return result.(*stripe.CheckoutSession), nil
		}
		lastErr = err

		if !retryableStripeError(err) || attempt == stripeMaxAttempts {
			break
		}
		s.logger.Warn("Stripe call failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-time.After(time.Duration(attempt) * stripeRetryBackoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// retryableStripeError reports whether another attempt could succeed.
// Client-side rejections (validation, auth, missing resources) are final; so
// is an open breaker.
func retryableStripeError(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.HTTPStatusCode >= 500
	}
	// Timeouts and transport errors.
	return true
}
