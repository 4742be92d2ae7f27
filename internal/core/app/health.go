package app

import (
	"context"
	"fmt"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

// HealthService reports on whichever session is current. Watch mode swaps
// sessions, so the session is fetched on every check.
type HealthService struct {
	current func() *Session
}

func NewHealthService(current func() *Session) *HealthService {
	return &HealthService{current: current}
}

func (h *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	var s *Session
	if h.current != nil {
		s = h.current()
	}
	if s == nil {
		status.Status = "degraded"
		status.Components["session"] = "missing"
		return status
	}

	status.Components["session"] = s.ID
	status.Components["roots"] = fmt.Sprintf("ok (%d configured)", len(s.opts.Roots))

	s.indexMu.Lock()
	full := s.full
	s.indexMu.Unlock()
	if full != nil {
		status.Components["index"] = fmt.Sprintf("ok (%d modules)", full.Len())
	} else {
		status.Components["index"] = "not built"
	}
	return status
}
