package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/tair/batch-allocation/api-gateway/config"
	"github.com/tair/batch-allocation/pkg/logger"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// InstanceHealth is the probe result of one backend instance
type InstanceHealth struct {
	URL       string  `json:"url"`
	Status    string  `json:"status"`
	LatencyMS float64 `json:"latency_ms"`
	Error     string  `json:"error,omitempty"`
}

// ServiceHealth represents the health status of a service. It is healthy when
// every instance is, degraded when some are.
type ServiceHealth struct {
	Name      string           `json:"name"`
	Status    string           `json:"status"`
	Instances []InstanceHealth `json:"instances"`
	Timestamp time.Time        `json:"timestamp"`
}

// GatewayHealth represents the overall gateway health
type GatewayHealth struct {
	Gateway  string                   `json:"gateway"`
	Status   string                   `json:"status"`
	Services map[string]ServiceHealth `json:"services"`
	Uptime   float64                  `json:"uptime_seconds"`
}

// HealthChecker checks health of downstream services
type HealthChecker struct {
	config    *config.GatewayConfig
	client    *http.Client
	startTime time.Time
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(cfg *config.GatewayConfig) *HealthChecker {
	return &HealthChecker{
		config:    cfg,
		client:    &http.Client{Timeout: 5 * time.Second},
		startTime: time.Now(),
	}
}

func (h *HealthChecker) checkInstance(ctx context.Context, baseURL, path string) InstanceHealth {
	start := time.Now()
	result := InstanceHealth{URL: baseURL, Status: StatusUnhealthy}
	defer func() { result.LatencyMS = float64(time.Since(start).Microseconds()) / 1000 }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
	if err != nil {
		result.Error = fmt.Sprintf("Failed to create request: %v", err)
		return result
	}

	resp, err := h.client.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("Failed to reach service: %v", err)
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		result.Status = StatusHealthy
	} else {
		result.Error = fmt.Sprintf("Unexpected status code: %d", resp.StatusCode)
	}
	return result
}

// CheckService probes every instance of a service concurrently
func (h *HealthChecker) CheckService(ctx context.Context, name string, svc config.ServiceConfig) ServiceHealth {
	instances := make([]InstanceHealth, len(svc.Instances))

	var wg sync.WaitGroup
	for i, url := range svc.Instances {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			instances[i] = h.checkInstance(ctx, url, svc.HealthCheck)
		}(i, url)
	}
	wg.Wait()

	healthy := 0
	for _, inst := range instances {
		if inst.Status == StatusHealthy {
			healthy++
		}
	}

	result := ServiceHealth{
		Name:      name,
		Status:    overall(healthy, len(instances)),
		Instances: instances,
		Timestamp: time.Now(),
	}

	if result.Status == StatusHealthy {
		logger.Logger.Debug().Str("service", name).Msg("Service health check")
	} else {
		logger.Logger.Warn().
			Str("service", name).
			Str("status", result.Status).
			Int("healthy_instances", healthy).
			Int("instances", len(instances)).
			Msg("Service health check failed")
	}
	return result
}

// CheckAllServices checks health of all downstream services
func (h *HealthChecker) CheckAllServices(ctx context.Context) GatewayHealth {
	services := make(map[string]ServiceHealth, len(h.config.Services))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, svc := range h.config.Services {
		wg.Add(1)
		go func(n string, s config.ServiceConfig) {
			defer wg.Done()
			health := h.CheckService(ctx, n, s)

			mu.Lock()
			services[n] = health
			mu.Unlock()
		}(name, svc)
	}
	wg.Wait()

	healthy, degraded := 0, 0
	for _, svc := range services {
		switch svc.Status {
		case StatusHealthy:
			healthy++
		case StatusDegraded:
			degraded++
		}
	}

	status := overall(healthy, len(services))
	if status == StatusUnhealthy && degraded > 0 {
		status = StatusDegraded
	}

	return GatewayHealth{
		Gateway:  h.config.ServiceName,
		Status:   status,
		Services: services,
		Uptime:   time.Since(h.startTime).Seconds(),
	}
}

// QuickCheck reports the gateway itself without probing downstream services
func (h *HealthChecker) QuickCheck() map[string]interface{} {
	return map[string]interface{}{
		"status":    StatusHealthy,
		"gateway":   h.config.ServiceName,
		"uptime":    time.Since(h.startTime).Seconds(),
		"timestamp": time.Now(),
	}
}

func overall(healthy, total int) string {
	switch {
	case total > 0 && healthy == total:
		return StatusHealthy
	case healthy > 0:
		return StatusDegraded
	default:
		return StatusUnhealthy
	}
}
