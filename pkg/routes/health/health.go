package health

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rajeevhemai/unify-mdm/pkg/database"
)

// Checker handles health check endpoints
type Checker struct {
	db        database.DB
	version   string
	startTime time.Time
	ready     atomic.Bool
}

// NewChecker creates a new health checker
func NewChecker(db database.DB, version string) *Checker {
	return &Checker{
		db:        db,
		version:   version,
		startTime: time.Now(),
	}
}

// SetReady sets the readiness state
func (c *Checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

// RegisterRoutes registers health check endpoints
func (c *Checker) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/health", c.Health)
	e.GET("/api/v1/health/live", c.Live)
	e.GET("/api/v1/health/ready", c.Ready)
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status     string                  `json:"status"`
	Version    string                  `json:"version"`
	Uptime     string                  `json:"uptime"`
	Checks     map[string]*CheckResult `json:"checks"`
	ReportedAt time.Time               `json:"reported_at"`
}

// CheckResult represents an individual check result
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Health returns the overall health status
func (c *Checker) Health(ctx echo.Context) error {
	checks := map[string]*CheckResult{
		"database": c.checkDatabase(ctx),
	}

	status := "healthy"
	code := http.StatusOK
	for _, check := range checks {
		if check.Status != "healthy" {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
			break
		}
	}

	return ctx.JSON(code, HealthStatus{
		Status:     status,
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		Checks:     checks,
		ReportedAt: time.Now().UTC(),
	})
}

// Live reports process liveness
func (c *Checker) Live(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "alive"})
}

// Ready reports whether the service can take traffic
func (c *Checker) Ready(ctx echo.Context) error {
	if !c.ready.Load() {
		return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

func (c *Checker) checkDatabase(ctx echo.Context) *CheckResult {
	start := time.Now()
	if err := c.db.PingContext(ctx.Request().Context()); err != nil {
		return &CheckResult{Status: "unhealthy", Message: err.Error()}
	}
	return &CheckResult{Status: "healthy", Latency: time.Since(start).String()}
}
