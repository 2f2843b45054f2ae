package proxy

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tair/batch-allocation/api-gateway/config"
	"github.com/tair/batch-allocation/api-gateway/loadbalancer"
	"github.com/tair/batch-allocation/pkg/logger"
)

var upstreamDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "gateway_upstream_duration_seconds",
		Help:    "Latency of proxied calls by service and upstream status",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"service", "status_code"},
)

func init() {
	prometheus.MustRegister(upstreamDuration)
}

// hop-by-hop headers are not forwarded
var hopHeaders = map[string]bool{
	"connection":        true,
	"keep-alive":        true,
	"proxy-connection":  true,
	"transfer-encoding": true,
	"upgrade":           true,
	"te":                true,
	"trailer":           true,
	"host":              true,
	"content-length":    true,
}

// ReverseProxy handles proxying requests to backend services
type ReverseProxy struct {
	services      map[string]config.ServiceConfig
	client        *http.Client
	loadBalancers map[string]*loadbalancer.RoundRobin
}

// NewReverseProxy creates a new reverse proxy. Outgoing requests carry the
// trace context of the gateway span.
func NewReverseProxy(cfg *config.GatewayConfig) *ReverseProxy {
	loadBalancers := make(map[string]*loadbalancer.RoundRobin, len(cfg.Services))
	for name, svc := range cfg.Services {
		loadBalancers[name] = loadbalancer.NewRoundRobin(svc.Instances)
	}

	return &ReverseProxy{
		services:      cfg.Services,
		loadBalancers: loadBalancers,
		client:        &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

// ProxyRequest forwards the request to serviceName, replacing the path with
// upstreamPath and keeping the query string
func (p *ReverseProxy) ProxyRequest(c *fiber.Ctx, serviceName, upstreamPath string) error {
	lb, ok := p.loadBalancers[serviceName]
	if !ok {
		return badGateway(c, serviceName, "Unknown service")
	}

	serverURL := lb.Next()
	if serverURL == "" {
		return badGateway(c, serviceName, "No available instances")
	}

	targetURL := serverURL + upstreamPath
	if qs := string(c.Request().URI().QueryString()); qs != "" {
		targetURL += "?" + qs
	}

	ctx := c.UserContext()
	if timeout := p.services[serviceName].Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, c.Method(), targetURL, bytes.NewReader(c.Body()))
	if err != nil {
		return badGateway(c, serviceName, "Failed to create request")
	}
	p.copyHeaders(c, req)

	logger.Debug(ctx).
		Str("service", serviceName).
		Str("target_url", targetURL).
		Msg("Proxying request")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		upstreamDuration.WithLabelValues(serviceName, "error").Observe(time.Since(start).Seconds())
		logger.Error(ctx).Err(err).
			Str("service", serviceName).
			Str("target_url", targetURL).
			Msg("Failed to reach backend service")
		return badGateway(c, serviceName, "Failed to reach backend service")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	upstreamDuration.WithLabelValues(serviceName, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())
	if err != nil {
		return badGateway(c, serviceName, "Failed to read response")
	}

	for key, values := range resp.Header {
		if hopHeaders[strings.ToLower(key)] {
			continue
		}
		for _, value := range values {
			c.Set(key, value)
		}
	}

	c.Status(resp.StatusCode)
	return c.Send(body)
}

// GetLoadBalancers returns all load balancers (for stats)
func (p *ReverseProxy) GetLoadBalancers() map[string]*loadbalancer.RoundRobin {
	return p.loadBalancers
}

func (p *ReverseProxy) copyHeaders(c *fiber.Ctx, req *http.Request) {
	c.Request().Header.VisitAll(func(key, value []byte) {
		if hopHeaders[strings.ToLower(string(key))] {
			return
		}
		req.Header.Set(string(key), string(value))
	})

	if id := logger.RequestIDFromContext(c.UserContext()); id != "" {
		req.Header.Set(fiber.HeaderXRequestID, id)
	}
	req.Header.Set("X-Forwarded-For", c.IP())
	req.Header.Set("X-Forwarded-Proto", c.Protocol())
	req.Header.Set("X-Forwarded-Host", c.Hostname())
}

func badGateway(c *fiber.Ctx, service, msg string) error {
	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
		"success": false,
		"error":   msg,
		"service": service,
		"path":    c.Path(),
	})
}
