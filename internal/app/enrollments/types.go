package enrollments

// Result is returned by successful Register and Unregister calls.
type Result struct {
	Success bool
	Message string
}

// Outcome labels used in logs and metrics.
const (
	outcomeOK = "ok"
)

func outcomeOf(err error) string {
	if err == nil {
		return outcomeOK
	}
	if k, ok := KindOf(err); ok {
		return string(k)
	}
	return string(KindStoreUnavailable)
}
