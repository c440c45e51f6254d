package contracttest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Overland-East-Bay/trip-enrollment-api/internal/domain"
	clientrepoport "github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/clientrepo"
	enrollmentrepoport "github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/enrollmentrepo"
	idempotencyport "github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/idempotency"
	triprepoport "github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/triprepo"
)

type CleanupFunc = func()

// TripSeeder is a trip repository that can also store fixture trips.
// Trips are owned upstream, so seeding is an adapter concern rather than part of the port.
type TripSeeder interface {
	triprepoport.Repository
	Create(ctx context.Context, t triprepoport.Trip) error
}

// Backend is one storage backend wired for the enrollment contract.
type Backend struct {
	Store   enrollmentrepoport.Store
	Clients clientrepoport.Repository
	Trips   TripSeeder
}

type ClientRepoFactory func(t *testing.T) (clientrepoport.Repository, CleanupFunc)
type TripRepoFactory func(t *testing.T) (TripSeeder, CleanupFunc)
type BackendFactory func(t *testing.T) (Backend, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:      "k-1",
		Subject:  domain.SubjectID("sub-1"),
		Method:   "PUT",
		Route:    "/api/clients/{clientId}/trips/{tripId}",
		BodyHash: "",
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get before Put: ok=%v err=%v", ok, err)
	}

	rec := idempotencyport.Record{
		StatusCode:  200,
		ContentType: "application/json",
		Body:        []byte(`{"success":true}`),
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != `{"success":true}` || got.ContentType != "application/json" || got.StatusCode != 200 {
		t.Fatalf("unexpected record: %+v", got)
	}

	// A different method is a different fingerprint.
	other := fp
	other.Method = "DELETE"
	if _, ok, err := store.Get(ctx, other); err != nil || ok {
		t.Fatalf("Get other fingerprint: ok=%v err=%v", ok, err)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte(`{"success":false}`)
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != `{"success":false}` {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}
}

func RunClientRepo(t *testing.T, newRepo ClientRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	if _, err := repo.GetByID(ctx, 987654); !errors.Is(err, clientrepoport.ErrNotFound) {
		t.Fatalf("GetByID(missing) err=%v, want ErrNotFound", err)
	}
	if ok, err := repo.Exists(ctx, 987654); err != nil || ok {
		t.Fatalf("Exists(missing) ok=%v err=%v", ok, err)
	}

	in := clientrepoport.Client{
		FirstName:  "Anna",
		LastName:   "Nowak",
		Email:      "anna@example.com",
		Phone:      "+48 600 100 200",
		NationalID: "90010112345",
	}
	aID, err := repo.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create a: %v", err)
	}
	bID, err := repo.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create b: %v", err)
	}
	if aID <= 0 || bID <= 0 || aID == bID {
		t.Fatalf("ids a=%d b=%d, want distinct positive", aID, bID)
	}

	got, err := repo.GetByID(ctx, aID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	in.ID = aID
	if got != in {
		t.Fatalf("GetByID=%+v, want %+v", got, in)
	}
	if ok, err := repo.Exists(ctx, bID); err != nil || !ok {
		t.Fatalf("Exists(b) ok=%v err=%v", ok, err)
	}
}

func RunTripRepo(t *testing.T, newRepo TripRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	if _, err := repo.GetByID(ctx, 987654); !errors.Is(err, triprepoport.ErrNotFound) {
		t.Fatalf("GetByID(missing) err=%v, want ErrNotFound", err)
	}

	early := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	seed := []triprepoport.Trip{
		{ID: 31, Name: "Tatra Hike", DateFrom: early, DateTo: early.AddDate(0, 0, 3), MaxPeople: 10},
		{ID: 12, Name: "Lake District", DateFrom: early, DateTo: early.AddDate(0, 0, 5), MaxPeople: 4},
		{ID: 20, Name: "Alps", Description: "Glacier walk", DateFrom: late, DateTo: late.AddDate(0, 0, 7), MaxPeople: 0},
	}
	for _, tr := range seed {
		if err := repo.Create(ctx, tr); err != nil {
			t.Fatalf("Create %d: %v", tr.ID, err)
		}
	}
	if err := repo.Create(ctx, seed[0]); !errors.Is(err, triprepoport.ErrAlreadyExists) {
		t.Fatalf("Create duplicate err=%v, want ErrAlreadyExists", err)
	}

	got, err := repo.GetByID(ctx, 20)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Alps" || got.Description != "Glacier walk" || got.MaxPeople != 0 || !got.DateFrom.Equal(late) {
		t.Fatalf("unexpected trip: %+v", got)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 || list[0].ID != 20 || list[1].ID != 12 || list[2].ID != 31 {
		t.Fatalf("unexpected ordering: %#v", list)
	}
}

// RunEnrollmentStore exercises the ledger and the per-trip atomic scope.
func RunEnrollmentStore(t *testing.T, newBackend BackendFactory) {
	t.Helper()

	t.Run("ledger", func(t *testing.T) { runLedger(t, newBackend) })
	t.Run("rollback", func(t *testing.T) { runRollback(t, newBackend) })
	t.Run("serialized per trip", func(t *testing.T) { runSerializedPerTrip(t, newBackend) })
	t.Run("cancelled context", func(t *testing.T) { runCancelled(t, newBackend) })
}

func openBackend(t *testing.T, newBackend BackendFactory) Backend {
	t.Helper()
	b, cleanup := newBackend(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}
	return b
}

func seedClients(t *testing.T, repo clientrepoport.Repository, n int) []domain.ClientID {
	t.Helper()
	ids := make([]domain.ClientID, 0, n)
	for i := 0; i < n; i++ {
		id, err := repo.Create(context.Background(), clientrepoport.Client{
			FirstName:  "Client",
			LastName:   fmt.Sprintf("No%d", i),
			Email:      fmt.Sprintf("client%d@example.com", i),
			Phone:      "000",
			NationalID: fmt.Sprintf("%011d", i),
		})
		if err != nil {
			t.Fatalf("seed client %d: %v", i, err)
		}
		ids = append(ids, id)
	}
	return ids
}

func seedTrip(t *testing.T, repo TripSeeder, id domain.TripID, maxPeople int) {
	t.Helper()
	from := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	if err := repo.Create(context.Background(), triprepoport.Trip{
		ID:        id,
		Name:      fmt.Sprintf("Trip %d", id),
		DateFrom:  from,
		DateTo:    from.AddDate(0, 0, 2),
		MaxPeople: maxPeople,
	}); err != nil {
		t.Fatalf("seed trip %d: %v", id, err)
	}
}

func runLedger(t *testing.T, newBackend BackendFactory) {
	ctx := context.Background()
	b := openBackend(t, newBackend)
	clients := seedClients(t, b.Clients, 2)
	seedTrip(t, b.Trips, 1, 5)
	seedTrip(t, b.Trips, 2, 5)
	ledger := b.Store.Ledger()

	paid := domain.DayStamp(20260602)
	if err := ledger.Insert(ctx, enrollmentrepoport.Enrollment{ClientID: clients[0], TripID: 2, RegisteredAt: 20260601, PaymentDate: &paid}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := ledger.Insert(ctx, enrollmentrepoport.Enrollment{ClientID: clients[0], TripID: 1, RegisteredAt: 20260603}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	err := ledger.Insert(ctx, enrollmentrepoport.Enrollment{ClientID: clients[0], TripID: 1, RegisteredAt: 20260604})
	if !errors.Is(err, enrollmentrepoport.ErrDuplicateKey) {
		t.Fatalf("Insert duplicate err=%v, want ErrDuplicateKey", err)
	}

	if ok, err := ledger.Exists(ctx, clients[0], 1); err != nil || !ok {
		t.Fatalf("Exists ok=%v err=%v", ok, err)
	}
	if ok, err := ledger.Exists(ctx, clients[1], 1); err != nil || ok {
		t.Fatalf("Exists(other client) ok=%v err=%v", ok, err)
	}
	if n, err := ledger.CountByTrip(ctx, 1); err != nil || n != 1 {
		t.Fatalf("CountByTrip n=%d err=%v", n, err)
	}

	list, err := ledger.ListByClient(ctx, clients[0])
	if err != nil {
		t.Fatalf("ListByClient: %v", err)
	}
	if len(list) != 2 || list[0].TripID != 1 || list[1].TripID != 2 {
		t.Fatalf("unexpected list: %#v", list)
	}
	if list[0].RegisteredAt != 20260603 || list[0].PaymentDate != nil {
		t.Fatalf("unexpected first enrollment: %+v", list[0])
	}
	if list[1].PaymentDate == nil || *list[1].PaymentDate != paid {
		t.Fatalf("unexpected payment date: %+v", list[1])
	}
	if empty, err := ledger.ListByClient(ctx, clients[1]); err != nil || len(empty) != 0 {
		t.Fatalf("ListByClient(empty) len=%d err=%v", len(empty), err)
	}

	if err := ledger.Delete(ctx, clients[0], 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := ledger.Delete(ctx, clients[0], 1); !errors.Is(err, enrollmentrepoport.ErrNotFound) {
		t.Fatalf("Delete twice err=%v, want ErrNotFound", err)
	}
	if n, err := ledger.CountByTrip(ctx, 1); err != nil || n != 0 {
		t.Fatalf("CountByTrip after delete n=%d err=%v", n, err)
	}
}

func runRollback(t *testing.T, newBackend BackendFactory) {
	ctx := context.Background()
	b := openBackend(t, newBackend)
	clients := seedClients(t, b.Clients, 1)
	seedTrip(t, b.Trips, 7, 2)

	boom := errors.New("boom")
	err := b.Store.WithinTrip(ctx, 7, func(ctx context.Context, s enrollmentrepoport.Scope) error {
		if _, err := s.Trips.GetByID(ctx, 7); err != nil {
			return err
		}
		if ok, err := s.Clients.Exists(ctx, clients[0]); err != nil || !ok {
			return fmt.Errorf("client exists ok=%v err=%v", ok, err)
		}
		if err := s.Ledger.Insert(ctx, enrollmentrepoport.Enrollment{ClientID: clients[0], TripID: 7, RegisteredAt: 20260101}); err != nil {
			return err
		}
		if n, err := s.Ledger.CountByTrip(ctx, 7); err != nil || n != 1 {
			return fmt.Errorf("count inside scope n=%d err=%v", n, err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTrip err=%v, want boom", err)
	}
	if ok, err := b.Store.Ledger().Exists(ctx, clients[0], 7); err != nil || ok {
		t.Fatalf("write survived rollback: ok=%v err=%v", ok, err)
	}

	if _, err := b.Store.Ledger().ListByClient(ctx, clients[0]); err != nil {
		t.Fatalf("ListByClient: %v", err)
	}
}

func runSerializedPerTrip(t *testing.T, newBackend BackendFactory) {
	ctx := context.Background()
	b := openBackend(t, newBackend)

	const (
		capacity = 3
		workers  = 16
	)
	clients := seedClients(t, b.Clients, workers)
	seedTrip(t, b.Trips, 42, capacity)

	var g errgroup.Group
	for _, id := range clients {
		id := id
		g.Go(func() error {
			return b.Store.WithinTrip(ctx, 42, func(ctx context.Context, s enrollmentrepoport.Scope) error {
				tr, err := s.Trips.GetByID(ctx, 42)
				if err != nil {
					return err
				}
				n, err := s.Ledger.CountByTrip(ctx, 42)
				if err != nil {
					return err
				}
				if n >= tr.MaxPeople {
					return nil
				}
				return s.Ledger.Insert(ctx, enrollmentrepoport.Enrollment{ClientID: id, TripID: 42, RegisteredAt: 20260101})
			})
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("WithinTrip: %v", err)
	}

	n, err := b.Store.Ledger().CountByTrip(ctx, 42)
	if err != nil {
		t.Fatalf("CountByTrip: %v", err)
	}
	if n != capacity {
		t.Fatalf("count=%d, want %d", n, capacity)
	}
}

func runCancelled(t *testing.T, newBackend BackendFactory) {
	b := openBackend(t, newBackend)
	clients := seedClients(t, b.Clients, 1)
	seedTrip(t, b.Trips, 9, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := b.Store.WithinTrip(ctx, 9, func(ctx context.Context, s enrollmentrepoport.Scope) error {
		called = true
		return s.Ledger.Insert(ctx, enrollmentrepoport.Enrollment{ClientID: clients[0], TripID: 9, RegisteredAt: 20260101})
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("WithinTrip err=%v called=%v, want context.Canceled", err, called)
	}
	if ok, err := b.Store.Ledger().Exists(context.Background(), clients[0], 9); err != nil || ok {
		t.Fatalf("cancelled scope left a record: ok=%v err=%v", ok, err)
	}
}
