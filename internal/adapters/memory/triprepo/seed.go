package triprepo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/Overland-East-Bay/trip-enrollment-api/internal/domain"
	"github.com/Overland-East-Bay/trip-enrollment-api/internal/ports/out/triprepo"
)

type seedTrip struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	DateFrom    openapi_types.Date `json:"dateFrom"`
	DateTo      openapi_types.Date `json:"dateTo"`
	MaxPeople   int                `json:"maxPeople"`
}

// LoadSeedFile reads a JSON array of trips from path into r.
func LoadSeedFile(ctx context.Context, r *Repo, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return LoadSeed(ctx, r, f)
}

// LoadSeed reads a JSON array of trips such as
//
//	[{"id":1,"name":"Tatry","dateFrom":"2026-07-01","dateTo":"2026-07-05","maxPeople":12}]
//
// and stores each one. Dates are calendar days.
func LoadSeed(ctx context.Context, r *Repo, src io.Reader) (int, error) {
	var in []seedTrip
	dec := json.NewDecoder(src)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return 0, fmt.Errorf("decode trip seed: %w", err)
	}
	for i, st := range in {
		switch {
		case st.ID <= 0:
			return i, fmt.Errorf("trip seed #%d: id must be positive", i)
		case st.MaxPeople < 0:
			return i, fmt.Errorf("trip %d: maxPeople must not be negative", st.ID)
		case st.DateTo.Before(st.DateFrom.Time):
			return i, fmt.Errorf("trip %d: dateTo before dateFrom", st.ID)
		}
		err := r.Create(ctx, triprepo.Trip{
			ID:          domain.TripID(st.ID),
			Name:        st.Name,
			Description: st.Description,
			DateFrom:    st.DateFrom.Time,
			DateTo:      st.DateTo.Time,
			MaxPeople:   st.MaxPeople,
		})
		if err != nil {
			return i, fmt.Errorf("trip %d: %w", st.ID, err)
		}
	}
	return len(in), nil
}
