package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/theblitlabs/starknet-env/pkg/logger"
)

// Status represents the health status of a component
type Status string

const (
	StatusOK Status = "OK"
	// StatusWarning indicates the component has issues but is still functional
	StatusWarning Status = "WARNING"
	StatusError   Status = "ERROR"
)

// ComponentHealth represents the health status of a system component
type ComponentHealth struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Message     string    `json:"message"`
	LastChecked time.Time `json:"last_checked"`
}

// Check probes one component.
type Check func(ctx context.Context) (Status, string)

type Report struct {
	Status     string             `json:"status"`
	Components []*ComponentHealth `json:"components"`
}

// HealthChecker runs registered checks periodically and serves the latest
// results.
type HealthChecker struct {
	mu           sync.RWMutex
	checks       map[string]Check
	components   map[string]*ComponentHealth
	checkFreq    time.Duration
	checkTimeout time.Duration
	cancel       context.CancelFunc
}

func NewHealthChecker(checkFreq time.Duration) *HealthChecker {
	if checkFreq == 0 {
		checkFreq = 30 * time.Second
	}
	return &HealthChecker{
		checks:       make(map[string]Check),
		components:   make(map[string]*ComponentHealth),
		checkFreq:    checkFreq,
		checkTimeout: 5 * time.Second,
	}
}

func (hc *HealthChecker) Register(name string, check Check) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[name] = check
}

// Start begins periodic health checks
func (hc *HealthChecker) Start(ctx context.Context) {
	log := logger.WithComponent("health_checker")
	log.Info().Dur("frequency", hc.checkFreq).Msg("Starting health checker")

	ctx, cancel := context.WithCancel(ctx)
	hc.mu.Lock()
	hc.cancel = cancel
	hc.mu.Unlock()

	ticker := time.NewTicker(hc.checkFreq)
	go func() {
		defer ticker.Stop()

		hc.CheckAll(ctx)

		for {
			select {
			case <-ticker.C:
				hc.CheckAll(ctx)
			case <-ctx.Done():
				log.Info().Msg("Health checker stopped")
				return
			}
		}
	}()
}

func (hc *HealthChecker) Stop() {
	hc.mu.RLock()
	cancel := hc.cancel
	hc.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

// CheckAll runs all health checks
func (hc *HealthChecker) CheckAll(ctx context.Context) {
	log := logger.WithComponent("health_checker")

	hc.mu.RLock()
	checks := make(map[string]Check, len(hc.checks))
	for name, check := range hc.checks {
		checks[name] = check
	}
	hc.mu.RUnlock()

	for name, check := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, hc.checkTimeout)
		status, message := check(checkCtx)
		cancel()

		health := &ComponentHealth{
			Name:        name,
			Status:      status,
			Message:     message,
			LastChecked: time.Now(),
		}
		if status == StatusError {
			log.Warn().Str("component", name).Str("message", message).Msg("Component unhealthy")
		}

		hc.mu.Lock()
		hc.components[name] = health
		hc.mu.Unlock()
	}
}

// GetAllHealth returns a copy of the latest results sorted by name.
func (hc *HealthChecker) GetAllHealth() []*ComponentHealth {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	result := make([]*ComponentHealth, 0, len(hc.components))
	for _, v := range hc.components {
		componentCopy := *v
		result = append(result, &componentCopy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// ServeHTTP reports "degraded" when any component is in error, else "ok".
func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	report := Report{Status: "ok", Components: hc.GetAllHealth()}
	for _, c := range report.Components {
		if c.Status == StatusError {
			report.Status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
