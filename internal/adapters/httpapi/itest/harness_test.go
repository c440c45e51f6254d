//go:build integration

package itest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/contracttest"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/httpapi"
	memclock "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/memory/clock"
	memclientrepo "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/memory/clientrepo"
	memenrollmentrepo "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/memory/enrollmentrepo"
	memidempotency "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/memory/idempotency"
	memtriprepo "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/memory/triprepo"
	pgclientrepo "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/postgres/clientrepo"
	pgenrollmentrepo "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/postgres/enrollmentrepo"
	pgidempotency "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/postgres/idempotency"
	postgres_testutil "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/postgres/testutil"
	pgtriprepo "github.com/Overland-East-Bay/trip-enrollment-api/internal/adapters/postgres/triprepo"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/app/clients"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/app/enrollments"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/app/trips"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/platform/logging"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/platform/metrics"
	clientrepoport "github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/clientrepo"
	enrollmentrepoport "github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/enrollmentrepo"
	idempotencyport "github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/idempotency"
	triprepoport "github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/triprepo"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|postgres|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
	trips   contracttest.TripSeeder
}

// newTestServer wires the full stack over b. Trips are seeded by the caller through seedTrip.
func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	const issuer = "itest-issuer"
	clk := memclock.NewManualClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	var (
		tripRepo   contracttest.TripSeeder
		clientRepo clientrepoport.Repository
		store      enrollmentrepoport.Store
		idemStore  idempotencyport.Store
		health     httpapi.Pinger
	)

	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		tripRepo = pgtriprepo.NewRepo(pool)
		clientRepo = pgclientrepo.NewRepo(pool)
		pgStore := pgenrollmentrepo.NewStore(pool)
		store = pgStore
		health = pgStore
		idemStore = pgidempotency.NewStore(pool, issuer, time.Hour)
	case backendMemory:
		memTrips := memtriprepo.NewRepo()
		memClients := memclientrepo.NewRepo()
		tripRepo = memTrips
		clientRepo = memClients
		store = memenrollmentrepo.NewStore(memTrips, memClients, memenrollmentrepo.NewRepo())
		idemStore = memidempotency.NewStore()
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	logger := logging.Discard()
	enrollSvc := enrollments.NewService(store, clk,
		enrollments.WithLogger(logger),
		enrollments.WithMetrics(metrics.New(prometheus.NewRegistry())),
	)
	api := httpapi.NewServer(enrollSvc, clients.NewService(clientRepo, tripRepo, store.Ledger()), trips.NewService(tripRepo, store.Ledger()), idemStore)
	api.Health = health
	api.Logger = logger

	// An empty default subject means requests must send X-Debug-Subject, which keeps auth failures testable.
	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{
		AuthMiddleware: httpapi.NewDevAuthMiddleware(""),
		Gatherer:       prometheus.NewRegistry(),
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
		trips:   tripRepo,
	}
}

func (s *testServer) seedTrip(t *testing.T, tr triprepoport.Trip) {
	t.Helper()
	if err := s.trips.Create(context.Background(), tr); err != nil {
		t.Fatalf("seed trip %d: %v", tr.ID, err)
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) doJSON(t *testing.T, method string, path string, subject string, body any, hdr map[string]string) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if subject != "" {
		req.Header.Set("X-Debug-Subject", subject)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorResponse struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestId string `json:"requestId"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("status=%d want=%d body=%s", status, wantStatus, string(body))
	}
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
}

func requireStatus(t *testing.T, status int, body []byte, want int) {
	t.Helper()
	if status != want {
		t.Fatalf("status=%d want=%d body=%s", status, want, string(body))
	}
}
