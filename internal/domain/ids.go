package domain

import "strconv"

// SubjectID is the authenticated subject extracted from JWT claims (typically "sub").
// We model it as an opaque identifier: its format is controlled by the token issuer.
type SubjectID string

// ClientID identifies a client record. Values are assigned by the store.
type ClientID int64

// TripID identifies a trip record. Values are assigned by the store.
type TripID int64

func (id ClientID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id TripID) String() string   { return strconv.FormatInt(int64(id), 10) }
