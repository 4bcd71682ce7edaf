package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the store answers but has nothing to report on.
	Degraded Status = "degraded"
	// Unhealthy indicates the store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckMissing indicates the checked object does not exist.
	CheckMissing CheckResult = "missing"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckSkipped indicates the check depends on a failed one.
	CheckSkipped CheckResult = "skipped"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db         DBPinger
	collection CollectionChecker
}

// New creates a Service.
func New(db DBPinger, collection CollectionChecker) *Service {
	return &Service{db: db, collection: collection}
}

// Check pings the store, then looks for the collection.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 2)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
		checks["collection"] = CheckSkipped
		return Report{Status: Unhealthy, Checks: checks}
	}
	checks["database"] = CheckOK

	exists, err := s.collection.CollectionExists(ctx)
	switch {
	case err != nil:
		checks["collection"] = CheckError
		return Report{Status: Unhealthy, Checks: checks}
	case !exists:
		checks["collection"] = CheckMissing
		return Report{Status: Degraded, Checks: checks}
	}
	checks["collection"] = CheckOK
	return Report{Status: Healthy, Checks: checks}
}
