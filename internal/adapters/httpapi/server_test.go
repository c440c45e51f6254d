package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/mock/gomock"

	memclock "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/memory/clock"
	memclientrepo "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/memory/clientrepo"
	memenrollmentrepo "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/memory/enrollmentrepo"
	memidempotency "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/memory/idempotency"
	memtriprepo "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/memory/triprepo"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/app/clients"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/app/enrollments"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/app/trips"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/domain"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/platform/logging"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/platform/metrics"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/clientrepo"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/enrollmentrepo"
	enrollmentmocks "github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/enrollmentrepo/mocks"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/idempotency"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/triprepo"
)

type testAPI struct {
	h       http.Handler
	srv     *Server
	trips   *memtriprepo.Repo
	clients *memclientrepo.Repo
	ledger  *memenrollmentrepo.Repo
	idem    *memidempotency.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()

	tripRepo := memtriprepo.NewRepo()
	mustCreateTrip := func(tr triprepo.Trip) {
		if err := tripRepo.Create(ctx, tr); err != nil {
			t.Fatalf("Create trip: %v", err)
		}
	}
	mustCreateTrip(triprepo.Trip{
		ID: 1, Name: "Bieszczady", Description: "mountains",
		DateFrom: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), DateTo: time.Date(2026, 6, 7, 0, 0, 0, 0, time.UTC),
		MaxPeople: 2,
	})
	mustCreateTrip(triprepo.Trip{
		ID: 2, Name: "Mazury", Description: "lakes",
		DateFrom: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), DateTo: time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		MaxPeople: 1,
	})

	clientRepo := memclientrepo.NewRepo()
	for _, id := range []domain.ClientID{10, 11, 12} {
		if err := clientRepo.Put(ctx, clientrepo.Client{ID: id, FirstName: "Ann", LastName: "Nowak", Email: "ann@example.com", Phone: "+48 600", NationalID: "90010112345"}); err != nil {
			t.Fatalf("Put client: %v", err)
		}
	}

	ledger := memenrollmentrepo.NewRepo()
	store := memenrollmentrepo.NewStore(tripRepo, clientRepo, ledger)
	clk := memclock.NewManualClock(time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC))
	logger := logging.Discard()

	enrollSvc := enrollments.NewService(store, clk,
		enrollments.WithLogger(logger),
		enrollments.WithMetrics(metrics.New(prometheus.NewRegistry())),
	)
	idem := memidempotency.NewStore()
	srv := NewServer(enrollSvc, clients.NewService(clientRepo, tripRepo, ledger), trips.NewService(tripRepo, ledger), idem)
	srv.Logger = logger

	h := NewRouterWithOptions(srv, RouterOptions{
		AuthMiddleware: NewDevAuthMiddleware("tester"),
		Gatherer:       prometheus.NewRegistry(),
	})
	return &testAPI{h: h, srv: srv, trips: tripRepo, clients: clientRepo, ledger: ledger, idem: idem}
}

func (a *testAPI) do(t *testing.T, method, path string, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v body=%s", v, err, rec.Body.String())
	}
	return v
}

func requireErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) ErrorResponse {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status: got %d want %d body=%s", rec.Code, status, rec.Body.String())
	}
	er := decodeJSON[ErrorResponse](t, rec)
	if er.Error.Code != code {
		t.Fatalf("code: got %q want %q", er.Error.Code, code)
	}
	if er.Error.Message == "" {
		t.Fatalf("empty message")
	}
	return er
}

func TestRegister_SuccessThenConflicts(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPut, "/api/clients/10/trips/1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	got := decodeJSON[EnrollmentResponse](t, rec)
	if !got.Success || got.Message != enrollments.MessageRegistered {
		t.Fatalf("body=%+v", got)
	}

	rec = a.do(t, http.MethodPut, "/api/clients/10/trips/1", "", nil)
	requireErrorCode(t, rec, http.StatusConflict, "ALREADY_ENROLLED")

	rec = a.do(t, http.MethodPut, "/api/clients/11/trips/1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("second client: %d", rec.Code)
	}
	rec = a.do(t, http.MethodPut, "/api/clients/12/trips/1", "", nil)
	er := requireErrorCode(t, rec, http.StatusConflict, "CAPACITY_EXCEEDED")
	if !er.Error.RequestId.IsSpecified() {
		t.Fatalf("expected requestId")
	}
}

func TestRegister_NotFoundPrecedence(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	requireErrorCode(t, a.do(t, http.MethodPut, "/api/clients/999/trips/999", "", nil), http.StatusNotFound, "TRIP_NOT_FOUND")
	requireErrorCode(t, a.do(t, http.MethodPut, "/api/clients/999/trips/1", "", nil), http.StatusNotFound, "CLIENT_NOT_FOUND")
}

func TestRegister_BadPathParams_400(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	for _, path := range []string{
		"/api/clients/abc/trips/1",
		"/api/clients/10/trips/1.5",
		"/api/clients/0/trips/1",
		"/api/clients/10/trips/-3",
	} {
		requireErrorCode(t, a.do(t, http.MethodPut, path, "", nil), http.StatusBadRequest, "INVALID_PARAMETER")
	}
}

func TestUnregister(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	requireErrorCode(t, a.do(t, http.MethodDelete, "/api/clients/10/trips/1", "", nil), http.StatusNotFound, "NOT_ENROLLED")

	if rec := a.do(t, http.MethodPut, "/api/clients/10/trips/1", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("register: %d", rec.Code)
	}
	rec := a.do(t, http.MethodDelete, "/api/clients/10/trips/1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	got := decodeJSON[EnrollmentResponse](t, rec)
	if !got.Success || got.Message != enrollments.MessageUnregistered {
		t.Fatalf("body=%+v", got)
	}
	n, _ := a.ledger.CountByTrip(context.Background(), 1)
	if n != 0 {
		t.Fatalf("count=%d", n)
	}
}

func TestIdempotency_ReplaysSuccessfulRegister(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)
	hdr := map[string]string{IdempotencyKeyHeader: "k-1"}

	first := a.do(t, http.MethodPut, "/api/clients/10/trips/1", "", hdr)
	if first.Code != http.StatusOK {
		t.Fatalf("first: %d body=%s", first.Code, first.Body.String())
	}
	if first.Header().Get(ReplayedHeader) != "" {
		t.Fatalf("first response marked as replay")
	}

	// Without the key the retry would be ALREADY_ENROLLED; with it the original success is replayed.
	second := a.do(t, http.MethodPut, "/api/clients/10/trips/1", "", hdr)
	if second.Code != http.StatusOK {
		t.Fatalf("replay: %d body=%s", second.Code, second.Body.String())
	}
	if second.Header().Get(ReplayedHeader) != "true" {
		t.Fatalf("missing %s header", ReplayedHeader)
	}
	if !bytes.Equal(bytes.TrimSpace(first.Body.Bytes()), bytes.TrimSpace(second.Body.Bytes())) {
		t.Fatalf("replayed body differs: %s vs %s", first.Body.String(), second.Body.String())
	}

	n, _ := a.ledger.CountByTrip(context.Background(), 1)
	if n != 1 {
		t.Fatalf("count=%d", n)
	}

	// Same key for another target is rejected.
	requireErrorCode(t, a.do(t, http.MethodPut, "/api/clients/11/trips/1", "", hdr), http.StatusConflict, "IDEMPOTENCY_KEY_REUSE")

	// Another subject has its own key space.
	other := map[string]string{IdempotencyKeyHeader: "k-1", "X-Debug-Subject": "someone-else"}
	requireErrorCode(t, a.do(t, http.MethodPut, "/api/clients/10/trips/1", "", other), http.StatusConflict, "ALREADY_ENROLLED")
}

func TestIdempotency_FailuresAreNotStored(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)
	hdr := map[string]string{IdempotencyKeyHeader: "k-2"}

	requireErrorCode(t, a.do(t, http.MethodPut, "/api/clients/10/trips/999", "", hdr), http.StatusNotFound, "TRIP_NOT_FOUND")
	if err := a.trips.Create(context.Background(), triprepo.Trip{ID: 999, Name: "late", MaxPeople: 5}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	rec := a.do(t, http.MethodPut, "/api/clients/10/trips/999", "", hdr)
	if rec.Code != http.StatusOK {
		t.Fatalf("retry after failure: %d body=%s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(ReplayedHeader) != "" {
		t.Fatalf("failure was replayed")
	}
}

func TestIdempotency_ConcurrentRetriesRegisterOnce(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)
	hdr := map[string]string{IdempotencyKeyHeader: "k-3"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = a.do(t, http.MethodPut, "/api/clients/10/trips/2", "", hdr)
		}()
	}
	wg.Wait()

	n, _ := a.ledger.CountByTrip(context.Background(), 2)
	if n != 1 {
		t.Fatalf("count=%d", n)
	}
}

func TestListTrips(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)
	if rec := a.do(t, http.MethodPut, "/api/clients/10/trips/1", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("register: %d", rec.Code)
	}

	rec := a.do(t, http.MethodGet, "/api/trips", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	got := decodeJSON[ListTripsResponse](t, rec)
	if len(got.Trips) != 2 {
		t.Fatalf("trips=%d", len(got.Trips))
	}
	// Latest start date first.
	if got.Trips[0].TripId != 2 || got.Trips[1].TripId != 1 {
		t.Fatalf("order=%d,%d", got.Trips[0].TripId, got.Trips[1].TripId)
	}
	b := got.Trips[1]
	if b.EnrolledCount != 1 || b.FreeSlots != 1 || b.MaxPeople != 2 {
		t.Fatalf("trip 1 counts=%+v", b)
	}
	if b.DateFrom.String() != "2026-06-01" || b.DateTo.String() != "2026-06-07" {
		t.Fatalf("dates=%s..%s", b.DateFrom, b.DateTo)
	}
}

func TestGetTrip(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/trips/2", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	got := decodeJSON[GetTripResponse](t, rec)
	if got.Trip.Name != "Mazury" || got.Trip.FreeSlots != 1 {
		t.Fatalf("trip=%+v", got.Trip)
	}

	requireErrorCode(t, a.do(t, http.MethodGet, "/api/trips/77", "", nil), http.StatusNotFound, "TRIP_NOT_FOUND")
}

func TestCreateClient(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	body := `{"firstName":"  jan ","lastName":"Kowalski","email":"jan@example.com","phone":"+48 123","nationalId":"85020312345"}`
	rec := a.do(t, http.MethodPost, "/api/clients", body, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	got := decodeJSON[CreateClientResponse](t, rec)
	if got.Client.ClientId != 13 {
		t.Fatalf("clientId=%d", got.Client.ClientId)
	}
	if got.Client.FirstName != "jan" {
		t.Fatalf("firstName=%q", got.Client.FirstName)
	}
	if loc := rec.Header().Get("Location"); loc != "/api/clients/13/trips" {
		t.Fatalf("Location=%q", loc)
	}

	// The new client can enroll right away.
	if rec := a.do(t, http.MethodPut, "/api/clients/13/trips/1", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("register new client: %d", rec.Code)
	}
}

func TestCreateClient_Validation(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/clients", `{"firstName":"Jan","lastName":"K","email":"nope","phone":"1","nationalId":"123"}`, nil)
	er := requireErrorCode(t, rec, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	details, err := er.Error.Details.Get()
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if _, ok := details["nationalId"]; !ok {
		t.Fatalf("details=%v", details)
	}
	if _, ok := details["email"]; !ok {
		t.Fatalf("details=%v", details)
	}

	requireErrorCode(t, a.do(t, http.MethodPost, "/api/clients", "{", nil), http.StatusBadRequest, "INVALID_BODY")
	requireErrorCode(t, a.do(t, http.MethodPost, "/api/clients", `{"pesel":"1"}`, nil), http.StatusBadRequest, "INVALID_BODY")
}

func TestListClientTrips(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)
	ctx := context.Background()

	rec := a.do(t, http.MethodGet, "/api/clients/10/trips", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	if got := decodeJSON[ListClientTripsResponse](t, rec); len(got.Trips) != 0 {
		t.Fatalf("trips=%v", got.Trips)
	}
	if !strings.Contains(rec.Body.String(), `"trips":[]`) {
		t.Fatalf("empty list not encoded as []: %s", rec.Body.String())
	}

	paid := domain.DayStamp(20260515)
	if err := a.ledger.Insert(ctx, enrollmentrepo.Enrollment{ClientID: 10, TripID: 2, RegisteredAt: 20260510, PaymentDate: &paid}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if rec := a.do(t, http.MethodPut, "/api/clients/10/trips/1", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("register: %d", rec.Code)
	}

	rec = a.do(t, http.MethodGet, "/api/clients/10/trips", "", nil)
	got := decodeJSON[ListClientTripsResponse](t, rec)
	if len(got.Trips) != 2 {
		t.Fatalf("trips=%d", len(got.Trips))
	}
	first, second := got.Trips[0], got.Trips[1]
	if first.TripId != 1 || second.TripId != 2 {
		t.Fatalf("order=%d,%d", first.TripId, second.TripId)
	}
	if first.RegisteredAt.String() != "2026-05-20" {
		t.Fatalf("registeredAt=%s", first.RegisteredAt)
	}
	if !first.PaymentDate.IsNull() {
		t.Fatalf("trip 1 paymentDate should be null")
	}
	pd, err := second.PaymentDate.Get()
	if err != nil || pd.String() != "2026-05-15" {
		t.Fatalf("paymentDate=%v err=%v", pd, err)
	}

	requireErrorCode(t, a.do(t, http.MethodGet, "/api/clients/404/trips", "", nil), http.StatusNotFound, "CLIENT_NOT_FOUND")
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthzAndMetrics_AreOpen(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)
	v := newTestVerifier()
	h := NewRouterWithOptions(a.srv, RouterOptions{
		AuthMiddleware: NewAuthMiddleware(v),
		Gatherer:       prometheus.NewRegistry(),
	})

	for _, path := range []string{"/healthz", "/metrics"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trips", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("/api/trips without token: %d", rec.Code)
	}
}

func TestHealthz_StoreDown_503(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)
	a.srv.Health = pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	rec := a.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: %d", rec.Code)
	}
}

type downIdemStore struct{}

func (downIdemStore) Get(context.Context, idempotency.Fingerprint) (idempotency.Record, bool, error) {
	return idempotency.Record{}, false, errors.New("connection refused")
}

func (downIdemStore) Put(context.Context, idempotency.Fingerprint, idempotency.Record) error {
	return errors.New("connection refused")
}

func TestIdempotency_StoreDown_503(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)
	a.srv.Idem = downIdemStore{}

	for _, method := range []string{http.MethodPut, http.MethodDelete} {
		rec := a.do(t, method, "/api/clients/10/trips/1", "", map[string]string{IdempotencyKeyHeader: "k"})
		requireErrorCode(t, rec, http.StatusServiceUnavailable, "STORE_UNAVAILABLE")
		if got := rec.Header().Get("Retry-After"); got != "1" {
			t.Fatalf("%s: Retry-After=%q, want 1", method, got)
		}
	}
	ok, err := a.ledger.Exists(context.Background(), 10, 1)
	if err != nil || ok {
		t.Fatalf("enrollment written while the idempotency store was down: ok=%v err=%v", ok, err)
	}
}

func TestReadPaths_StoreDown_503(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)
	ctrl := gomock.NewController(t)
	ledger := enrollmentmocks.NewMockLedger(ctrl)
	down := errors.New("connection refused")
	ledger.EXPECT().CountByTrip(gomock.Any(), gomock.Any()).Return(0, down).AnyTimes()
	ledger.EXPECT().ListByClient(gomock.Any(), gomock.Any()).Return(nil, down).AnyTimes()
	a.srv.Trips = trips.NewService(a.trips, ledger)
	a.srv.Clients = clients.NewService(a.clients, a.trips, ledger)

	for _, path := range []string{"/api/trips", "/api/trips/1", "/api/clients/10/trips"} {
		rec := a.do(t, http.MethodGet, path, "", nil)
		requireErrorCode(t, rec, http.StatusServiceUnavailable, "STORE_UNAVAILABLE")
		if got := rec.Header().Get("Retry-After"); got != "1" {
			t.Fatalf("%s: Retry-After=%q, want 1", path, got)
		}
	}
}

func TestUnknownRoute_JSON404(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	requireErrorCode(t, a.do(t, http.MethodGet, "/api/nope", "", nil), http.StatusNotFound, "NOT_FOUND")
	requireErrorCode(t, a.do(t, http.MethodPatch, "/api/clients/10/trips/1", "", nil), http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
}

func TestCORS_Preflight(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/clients/10/trips/1", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Allow-Origin=%q", got)
	}
}
