package enrollments

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Overland-East-Bay/trip-enrollment-api/internal/domain"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/platform/metrics"
	clockport "github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/clock"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/enrollmentrepo"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/triplock"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/triprepo"
)

const tracerName = "github.com/Overland-East-Bay/trip-enrollment-api/internal/app/enrollments"

// Service registers clients for trips and removes them again.
//
// Register runs every precondition check and the insert inside one
// enrollmentrepo.Store.WithinTrip scope, so concurrent registrations for the same
// trip cannot both pass the capacity check. Unregister only needs per-record
// atomicity and deletes directly.
type Service struct {
	store enrollmentrepo.Store
	clk   clockport.Clock

	locker  triplock.Locker
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTripLocker adds a cross-process lock taken before the store scope.
func WithTripLocker(l triplock.Locker) Option {
	return func(s *Service) {
		s.locker = l
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func NewService(store enrollmentrepo.Store, clk clockport.Clock, opts ...Option) *Service {
	s := &Service{
		store:  store,
		clk:    clk,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Register enrolls clientID in tripID.
//
// Checks run in this order and the first failure wins: the trip exists, the client
// exists, the pair is not enrolled yet, and the trip has a free slot. On success
// exactly one enrollment is stored with RegisteredAt set to today.
func (s *Service) Register(ctx context.Context, clientID domain.ClientID, tripID domain.TripID) (Result, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "enrollments.Register", trace.WithAttributes(
		attribute.Int64("client.id", int64(clientID)),
		attribute.Int64("trip.id", int64(tripID)),
	))
	defer span.End()

	err := s.register(ctx, clientID, tripID)
	outcome := outcomeOf(err)
	s.metrics.ObserveRegister(outcome, start)
	s.finish(ctx, span, "register", clientID, tripID, outcome, err)
	if err != nil {
		return Result{}, err
	}
	return Result{Success: true, Message: MessageRegistered}, nil
}

func (s *Service) register(ctx context.Context, clientID domain.ClientID, tripID domain.TripID) error {
	if s.locker != nil {
		waitStart := time.Now()
		release, err := s.locker.Acquire(ctx, tripID)
		s.metrics.ObserveLockWait(waitStart)
		if err != nil {
			return storeUnavailable(err)
		}
		defer func() {
			// Release even when the request context is already gone.
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.WarnContext(ctx, "trip lock release failed",
					slog.Int64("trip_id", int64(tripID)),
					slog.String("error", err.Error()),
				)
			}
		}()
	}

	err := s.store.WithinTrip(ctx, tripID, func(ctx context.Context, sc enrollmentrepo.Scope) error {
		trip, err := sc.Trips.GetByID(ctx, tripID)
		if err != nil {
			if errors.Is(err, triprepo.ErrNotFound) {
				return newError(KindTripNotFound, map[string]any{"tripId": int64(tripID)})
			}
			return err
		}

		ok, err := sc.Clients.Exists(ctx, clientID)
		if err != nil {
			return err
		}
		if !ok {
			return newError(KindClientNotFound, map[string]any{"clientId": int64(clientID)})
		}

		enrolled, err := sc.Ledger.Exists(ctx, clientID, tripID)
		if err != nil {
			return err
		}
		if enrolled {
			return newError(KindAlreadyEnrolled, nil)
		}

		n, err := sc.Ledger.CountByTrip(ctx, tripID)
		if err != nil {
			return err
		}
		if !SlotAvailable(trip.MaxPeople, n) {
			return newError(KindCapacityExceeded, map[string]any{"maxPeople": trip.MaxPeople})
		}

		err = sc.Ledger.Insert(ctx, enrollmentrepo.Enrollment{
			ClientID:     clientID,
			TripID:       tripID,
			RegisteredAt: domain.DayStampOf(s.clk.Now()),
		})
		if errors.Is(err, enrollmentrepo.ErrDuplicateKey) {
			return newError(KindAlreadyEnrolled, nil)
		}
		return err
	})
	return classify(err)
}

// Unregister removes the enrollment of clientID in tripID.
func (s *Service) Unregister(ctx context.Context, clientID domain.ClientID, tripID domain.TripID) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "enrollments.Unregister", trace.WithAttributes(
		attribute.Int64("client.id", int64(clientID)),
		attribute.Int64("trip.id", int64(tripID)),
	))
	defer span.End()

	err := s.store.Ledger().Delete(ctx, clientID, tripID)
	if errors.Is(err, enrollmentrepo.ErrNotFound) {
		err = newError(KindNotEnrolled, nil)
	}
	err = classify(err)

	outcome := outcomeOf(err)
	s.metrics.ObserveUnregister(outcome)
	s.finish(ctx, span, "unregister", clientID, tripID, outcome, err)
	if err != nil {
		return Result{}, err
	}
	return Result{Success: true, Message: MessageUnregistered}, nil
}

// classify passes business failures through and wraps everything else as StoreUnavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return storeUnavailable(err)
}

func (s *Service) finish(ctx context.Context, span trace.Span, op string, clientID domain.ClientID, tripID domain.TripID, outcome string, err error) {
	span.SetAttributes(attribute.String("enrollment.outcome", outcome))
	attrs := []any{
		slog.String("op", op),
		slog.Int64("client_id", int64(clientID)),
		slog.Int64("trip_id", int64(tripID)),
		slog.String("outcome", outcome),
	}

	var ae *Error
	if errors.As(err, &ae) && ae.Kind == KindStoreUnavailable {
		span.RecordError(err)
		span.SetStatus(codes.Error, ae.Message)
		s.logger.ErrorContext(ctx, "enrollment store failure", append(attrs, slog.String("error", err.Error()))...)
		return
	}
	s.logger.InfoContext(ctx, "enrollment "+op, attrs...)
}
