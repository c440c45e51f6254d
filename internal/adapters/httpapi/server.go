package httpapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/Overland-East-Bay/trip-enrollment-api/internal/app/clients"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/app/enrollments"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/app/trips"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/domain"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/idempotency"
)

const (
	enrollmentRoute = "/api/clients/{clientId}/trips/{tripId}"

	// IdempotencyKeyHeader carries the caller's retry key on enrollment mutations.
	IdempotencyKeyHeader = "Idempotency-Key"
	// ReplayedHeader is set on responses served from the idempotency store.
	ReplayedHeader = "Idempotent-Replayed"

	maxBodyBytes = 1 << 20
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the HTTP handlers. Idem and Health are optional.
type Server struct {
	Enrollments *enrollments.Service
	Clients     *clients.Service
	Trips       *trips.Service
	Idem        idempotency.Store
	Health      Pinger
	Logger      *slog.Logger
}

func NewServer(enrollSvc *enrollments.Service, clientsSvc *clients.Service, tripsSvc *trips.Service, idem idempotency.Store) *Server {
	return &Server{
		Enrollments: enrollSvc,
		Clients:     clientsSvc,
		Trips:       tripsSvc,
		Idem:        idem,
		Logger:      slog.Default(),
	}
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.Health.Ping(ctx); err != nil {
			s.Logger.WarnContext(ctx, "health check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("store unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) listTrips(w http.ResponseWriter, r *http.Request) {
	ts, err := s.Trips.ListTrips(r.Context())
	if err != nil {
		writeAppError(w, r, s.Logger, err)
		return
	}
	out := ListTripsResponse{Trips: make([]TripSummary, 0, len(ts))}
	for _, t := range ts {
		out.Trips = append(out.Trips, tripSummaryFromDomain(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getTrip(w http.ResponseWriter, r *http.Request) {
	tripID, ok := bindID(w, r, "tripId")
	if !ok {
		return
	}
	t, err := s.Trips.GetTrip(r.Context(), domain.TripID(tripID))
	if err != nil {
		writeAppError(w, r, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, GetTripResponse{Trip: tripSummaryFromDomain(t)})
}

func (s *Server) createClient(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be a client JSON object", map[string]any{"reason": err.Error()})
		return
	}

	c, err := s.Clients.CreateClient(r.Context(), clients.CreateClientInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
		NationalID: req.NationalId,
	})
	if err != nil {
		writeAppError(w, r, s.Logger, err)
		return
	}
	w.Header().Set("Location", "/api/clients/"+c.ID.String()+"/trips")
	writeJSON(w, http.StatusCreated, CreateClientResponse{Client: clientFromDomain(c)})
}

func (s *Server) listClientTrips(w http.ResponseWriter, r *http.Request) {
	clientID, ok := bindID(w, r, "clientId")
	if !ok {
		return
	}
	cts, err := s.Clients.ListClientTrips(r.Context(), domain.ClientID(clientID))
	if err != nil {
		writeAppError(w, r, s.Logger, err)
		return
	}
	out := ListClientTripsResponse{Trips: make([]ClientTrip, 0, len(cts))}
	for _, ct := range cts {
		out.Trips = append(out.Trips, clientTripFromDomain(ct))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) registerClient(w http.ResponseWriter, r *http.Request) {
	s.mutateEnrollment(w, r, s.Enrollments.Register)
}

func (s *Server) unregisterClient(w http.ResponseWriter, r *http.Request) {
	s.mutateEnrollment(w, r, s.Enrollments.Unregister)
}

type enrollmentOp func(ctx context.Context, clientID domain.ClientID, tripID domain.TripID) (enrollments.Result, error)

// mutateEnrollment runs a register or unregister with Idempotency-Key replay:
// - replay if same subject+key+method+route+target
// - reject if same subject+key+method+route with a different target (409)
// Only successful responses are stored, so failed attempts can be retried.
func (s *Server) mutateEnrollment(w http.ResponseWriter, r *http.Request, op enrollmentOp) {
	ctx := r.Context()
	clientID, ok := bindID(w, r, "clientId")
	if !ok {
		return
	}
	tripID, ok := bindID(w, r, "tripId")
	if !ok {
		return
	}

	var respFP idempotency.Fingerprint
	idemKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	useIdem := s.Idem != nil && idemKey != ""
	if useIdem {
		sub, ok := SubjectFromContext(ctx)
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject", nil)
			return
		}
		targetHash := hashEnrollmentTarget(clientID, tripID)
		metaFP := idempotency.Fingerprint{
			Key:     idempotency.Key(idemKey),
			Subject: sub,
			Method:  r.Method,
			Route:   enrollmentRoute,
		}
		meta, ok, err := s.Idem.Get(ctx, metaFP)
		if err != nil {
			writeStoreUnavailable(w, r, s.Logger, err)
			return
		}
		if ok && string(meta.Body) != targetHash {
			writeError(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE", "idempotency key reuse with different target", nil)
			return
		}
		if !ok {
			s.putIdem(ctx, metaFP, idempotency.Record{
				ContentType: "text/plain",
				Body:        []byte(targetHash),
				CreatedAt:   time.Now().UTC(),
			})
		}

		respFP = metaFP
		respFP.BodyHash = targetHash
		rec, ok, err := s.Idem.Get(ctx, respFP)
		if err != nil {
			writeStoreUnavailable(w, r, s.Logger, err)
			return
		}
		if ok && rec.StatusCode == http.StatusOK && strings.HasPrefix(rec.ContentType, "application/json") {
			w.Header().Set(ReplayedHeader, "true")
			writeRawJSON(w, rec.StatusCode, rec.Body)
			return
		}
	}

	res, err := op(ctx, domain.ClientID(clientID), domain.TripID(tripID))
	if err != nil {
		writeAppError(w, r, s.Logger, err)
		return
	}
	b, err := json.Marshal(EnrollmentResponse{Success: res.Success, Message: res.Message})
	if err != nil {
		writeAppError(w, r, s.Logger, err)
		return
	}
	if useIdem {
		s.putIdem(ctx, respFP, idempotency.Record{
			StatusCode:  http.StatusOK,
			ContentType: "application/json",
			Body:        b,
			CreatedAt:   time.Now().UTC(),
		})
	}
	writeRawJSON(w, http.StatusOK, b)
}

// putIdem stores rec. A failed write only costs a later replay, so it is logged and dropped.
func (s *Server) putIdem(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) {
	if err := s.Idem.Put(ctx, fp, rec); err != nil {
		s.Logger.WarnContext(ctx, "idempotency record not stored",
			slog.String("route", fp.Route),
			slog.String("error", err.Error()),
		)
	}
}

// bindID binds a positive integer path parameter, writing a 400 when it is malformed.
func bindID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err == nil && id <= 0 {
		err = errors.New("must be a positive integer")
	}
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_PARAMETER", "invalid path parameter "+name, map[string]any{
			name:     chi.URLParam(r, name),
			"reason": err.Error(),
		})
		return 0, false
	}
	return id, true
}

func hashEnrollmentTarget(clientID, tripID int64) string {
	sum := sha256.Sum256([]byte(strconv.FormatInt(clientID, 10) + "/" + strconv.FormatInt(tripID, 10)))
	return hex.EncodeToString(sum[:])
}
