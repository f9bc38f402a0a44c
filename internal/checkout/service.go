// Package checkout implements the payment transaction orchestration
// workflow: register a pending intent with the ledger, hand off to the
// hosted checkout, resolve the outcome and confirm settlement, plus the
// complementary cancellation flow for already-settled payments.
package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/payflow-kr/backend-payflow/internal/common"
	"github.com/payflow-kr/backend-payflow/internal/gateway"
	"github.com/payflow-kr/backend-payflow/internal/ledger"
	"github.com/payflow-kr/backend-payflow/internal/lock"
	"github.com/payflow-kr/backend-payflow/internal/obs"
)

// Ledger is the slice of the backend ledger client the workflow depends on.
type Ledger interface {
	GatewayConfig(ctx context.Context) (gateway.Config, error)
	CreateIntent(ctx context.Context, p ledger.CreateIntentParams) (ledger.PaymentRecord, error)
	Confirm(ctx context.Context, impUID, merchantUID string) (ledger.PaymentRecord, error)
	List(ctx context.Context, page, size int) ([]ledger.PaymentRecord, error)
	Cancel(ctx context.Context, impUID, reason string) (ledger.CancelResult, error)
}

// SubmitParams carries the user's submission. Reference may be empty, in
// which case a fresh one is generated.
type SubmitParams struct {
	Reference string
	Amount    int64
	Name      string
	OrderID   *int64
}

// SubmitResult is the outcome of a fully confirmed submission.
type SubmitResult struct {
	Intent        Intent
	TransactionID string
	Record        ledger.PaymentRecord
}

// CancelOutcome is the result of a successful cancellation. Payments holds
// the freshly reloaded collection; nil when the reload itself failed, which
// does not undo the cancellation.
type CancelOutcome struct {
	Result   ledger.CancelResult
	Payments []ledger.PaymentRecord
}

// Service coordinates the submission and cancellation workflows.
type Service struct {
	Ledger              Ledger
	Gateway             gateway.Invoker
	Locks               lock.TryLocker
	Currency            string
	PayMethod           string
	DefaultCancelReason string
	CancelLockTTL       time.Duration
	PageSize            int
	Log                 zerolog.Logger

	cfgMu sync.Mutex
	cfg   *gateway.Config

	inFlight sync.Map // session id -> struct{}
	usedRefs sync.Map // reference -> struct{}
}

// Submit runs the full submission workflow for one session: intent creation
// must succeed before the checkout is dispatched, the checkout must resolve
// before the outcome is read, and the outcome must resolve to an identifier
// before confirmation. One submission may be in flight per session; a
// re-entrant call is rejected before any network traffic. No step retries
// and no step is abandoned once dispatched.
func (s *Service) Submit(ctx context.Context, sessionID string, p SubmitParams) (SubmitResult, error) {
	var zero SubmitResult
	if s == nil || s.Ledger == nil || s.Gateway == nil {
		return zero, errors.New("checkout service not configured")
	}
	ctx, span := otel.Tracer("checkout.Service").Start(ctx, "CheckoutService.Submit")
	defer span.End()

	result := "rejected"
	defer func() {
		span.SetAttributes(attribute.String("checkout.result", result))
		if obs.CheckoutSubmissionTotal != nil {
			obs.CheckoutSubmissionTotal.WithLabelValues(result).Inc()
		}
	}()

	reference := strings.TrimSpace(p.Reference)
	if reference == "" {
		reference = NewReference()
	}
	if p.Amount <= 0 {
		return zero, errors.New("checkout: amount must be a positive integer")
	}
	if strings.TrimSpace(p.Name) == "" {
		return zero, errors.New("checkout: order name is required")
	}
	if _, used := s.usedRefs.Load(reference); used {
		return zero, ErrReferenceUsed
	}

	if _, loaded := s.inFlight.LoadOrStore(sessionID, struct{}{}); loaded {
		return zero, ErrSubmissionInFlight
	}
	defer s.inFlight.Delete(sessionID)

	cfg, err := s.gatewayConfig(ctx)
	if err != nil {
		result = "config_unavailable"
		return zero, err
	}
	if strings.TrimSpace(cfg.ChannelKey) == "" {
		result = "config_unavailable"
		return zero, ledger.ErrConfigUnavailable
	}

	span.SetAttributes(attribute.String("checkout.reference", reference))

	record, err := s.Ledger.CreateIntent(ctx, ledger.CreateIntentParams{
		MerchantUID: reference,
		Amount:      p.Amount,
		Name:        p.Name,
		OrderID:     p.OrderID,
	})
	if err != nil {
		result = "intent_failed"
		span.RecordError(err)
		if errors.Is(err, ledger.ErrUnauthorized) {
			return zero, err
		}
		return zero, &IntentError{Message: ledger.UserMessage(err), Err: err}
	}
	s.usedRefs.Store(reference, struct{}{})

	intent := Intent{
		Reference:   reference,
		Amount:      p.Amount,
		Description: p.Name,
		OrderID:     p.OrderID,
		BuyerName:   record.BuyerName,
		BuyerEmail:  record.BuyerEmail,
		BuyerTel:    record.BuyerTel,
		Status:      StatusCreated,
	}

	if err := intent.transition(StatusAwaitingGateway); err != nil {
		return zero, err
	}
	outcome, err := s.Gateway.Invoke(ctx, gateway.Request{
		StoreID:     cfg.StoreID,
		ChannelKey:  cfg.ChannelKey,
		PaymentID:   reference,
		OrderName:   p.Name,
		TotalAmount: p.Amount,
		Currency:    s.Currency,
		PayMethod:   s.PayMethod,
		Customer: gateway.Customer{
			FullName:    record.BuyerName,
			Email:       record.BuyerEmail,
			PhoneNumber: record.BuyerTel,
		},
	})
	if obs.GatewayInvokeTotal != nil {
		label := "success"
		if err != nil || outcome.Failed() {
			label = "failure"
		}
		obs.GatewayInvokeTotal.WithLabelValues(label).Inc()
	}
	if err != nil {
		result = "gateway_failed"
		span.RecordError(err)
		_ = intent.transition(StatusFailed)
		return SubmitResult{Intent: intent}, &GatewayError{Code: "GATEWAY_ERROR", Message: common.GenericTransportMessage}
	}
	if outcome.Failed() {
		result = "gateway_failed"
		_ = intent.transition(StatusFailed)
		return SubmitResult{Intent: intent}, &GatewayError{Code: outcome.Code, Message: outcome.Message}
	}

	txID, err := ResolveTransactionID(outcome, reference)
	if err != nil {
		result = "identifier_missing"
		span.RecordError(err)
		_ = intent.transition(StatusFailed)
		return SubmitResult{Intent: intent}, err
	}
	span.SetAttributes(attribute.String("checkout.transaction_id", txID))

	confirmed, err := s.Ledger.Confirm(ctx, txID, reference)
	if err != nil {
		// The pending ledger record is deliberately left untouched for
		// manual reconciliation.
		result = "confirm_failed"
		span.RecordError(err)
		if errors.Is(err, ledger.ErrUnauthorized) {
			return zero, err
		}
		return SubmitResult{Intent: intent, TransactionID: txID}, &ConfirmError{Message: ledger.UserMessage(err), Err: err}
	}

	if err := intent.transition(StatusConfirmed); err != nil {
		return zero, err
	}
	result = "confirmed"
	s.Log.Info().
		Str("reference", reference).
		Str("transaction_id", txID).
		Int64("amount", p.Amount).
		Msg("payment confirmed")
	return SubmitResult{Intent: intent, TransactionID: txID, Record: confirmed}, nil
}

// gatewayConfig returns the store/channel credentials, fetching them from the
// ledger at most once per service lifetime. Failures are not cached so a
// later submission can try again.
func (s *Service) gatewayConfig(ctx context.Context) (gateway.Config, error) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	if s.cfg != nil {
		return *s.cfg, nil
	}
	cfg, err := s.Ledger.GatewayConfig(ctx)
	if err != nil {
		return gateway.Config{}, err
	}
	s.cfg = &cfg
	return cfg, nil
}

// Cancel reverses a previously settled payment. At most one cancellation may
// run per payment id at a time; a duplicate is rejected before any network
// call, while cancels for distinct ids proceed independently. On success the
// visible payment collection is reloaded in full.
func (s *Service) Cancel(ctx context.Context, impUID, reason string) (CancelOutcome, error) {
	var zero CancelOutcome
	if s == nil || s.Ledger == nil {
		return zero, errors.New("checkout service not configured")
	}
	ctx, span := otel.Tracer("checkout.Service").Start(ctx, "CheckoutService.Cancel")
	defer span.End()

	result := "rejected"
	defer func() {
		span.SetAttributes(attribute.String("cancel.result", result))
		if obs.CancellationTotal != nil {
			obs.CancellationTotal.WithLabelValues(result).Inc()
		}
	}()

	impUID = strings.TrimSpace(impUID)
	if impUID == "" {
		return zero, errors.New("checkout: payment id is required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = strings.TrimSpace(s.DefaultCancelReason)
	}
	if reason == "" {
		return zero, ErrReasonRequired
	}
	span.SetAttributes(attribute.String("cancel.imp_uid", impUID))

	release, ok, err := s.Locks.Acquire(ctx, "payments:cancel:"+impUID, s.CancelLockTTL)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, ErrCancelInFlight
	}
	defer release()

	cancelled, err := s.Ledger.Cancel(ctx, impUID, reason)
	if err != nil {
		result = "failed"
		span.RecordError(err)
		if errors.Is(err, ledger.ErrUnauthorized) {
			return zero, err
		}
		return zero, &CancelError{Message: ledger.UserMessage(err), Err: err}
	}
	result = "cancelled"
	s.Log.Info().Str("imp_uid", impUID).Str("reason", reason).Msg("payment cancelled")

	// Reload the full page rather than patching the single row; the ledger is
	// the source of truth for what the collection now looks like.
	payments, err := s.Ledger.List(ctx, 1, s.pageSize())
	if err != nil {
		s.Log.Warn().Err(err).Msg("reload payments after cancellation")
		return CancelOutcome{Result: cancelled}, nil
	}
	return CancelOutcome{Result: cancelled, Payments: payments}, nil
}

func (s *Service) pageSize() int {
	if s.PageSize > 0 {
		return s.PageSize
	}
	return 20
}
