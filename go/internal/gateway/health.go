package gateway

import (
	"context"
	"database/sql"
	"net/http"
)

// HealthStatus is the detailed readiness report served at /health/details.
type HealthStatus struct {
	Healthy           bool     `json:"healthy"`
	DatabaseConnected *bool    `json:"database_connected,omitempty"`
	NATSConnected     *bool    `json:"nats_connected,omitempty"`
	PendingSchedules  int      `json:"pending_schedules"`
	Connections       int      `json:"websocket_connections"`
	Errors            []string `json:"errors"`
}

type HealthChecker interface {
	Check(ctx context.Context) HealthStatus
}

// PendingCounter reports how many deferred sends are still armed.
type PendingCounter interface {
	Pending() int
}

// ConnectedChecker reports broker connectivity.
type ConnectedChecker interface {
	Connected() bool
}

// ServiceHealthChecker probes the optional database and broker. A nil db or nats is skipped.
type ServiceHealthChecker struct {
	db          *sql.DB
	nats        ConnectedChecker
	scheduler   PendingCounter
	connections *ConnectionManager
}

func NewServiceHealthChecker(db *sql.DB, nats ConnectedChecker, scheduler PendingCounter, connections *ConnectionManager) *ServiceHealthChecker {
	return &ServiceHealthChecker{
		db:          db,
		nats:        nats,
		scheduler:   scheduler,
		connections: connections,
	}
}

func (h *ServiceHealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy: true,
		Errors:  []string{},
	}

	if h.db != nil {
		ok := h.db.PingContext(ctx) == nil
		status.DatabaseConnected = &ok
		if !ok {
			status.Healthy = false
			status.Errors = append(status.Errors, "database ping failed")
		}
	}

	if h.nats != nil {
		ok := h.nats.Connected()
		status.NATSConnected = &ok
		if !ok {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS not connected")
		}
	}

	if h.scheduler != nil {
		status.PendingSchedules = h.scheduler.Pending()
	}
	if h.connections != nil {
		status.Connections = h.connections.ConnectionCount()
	}
	return status
}

func healthDetailsHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := checker.Check(r.Context())
		code := http.StatusOK
		if !status.Healthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, status)
	}
}
