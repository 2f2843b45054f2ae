// Package client implements domain.InventoryClient over HTTP and gRPC.
package client

import (
	"fmt"
	"io"

	"github.com/tair/batch-allocation/internal/order/domain"
	"github.com/tair/batch-allocation/pkg/config"
)

const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

// New selects the inventory transport from configuration. The returned
// closer releases the gRPC connection and is a no-op for HTTP.
func New(cfg config.Order) (domain.InventoryClient, io.Closer, error) {
	switch cfg.InventoryTransport {
	case TransportHTTP, "":
		return NewHTTPInventoryClient(cfg.InventoryURL, cfg.InventoryTimeout), nopCloser{}, nil
	case TransportGRPC:
		c, err := NewGRPCInventoryClient(cfg.InventoryGRPCAddr, cfg.InventoryTimeout)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	default:
		return nil, nil, fmt.Errorf("unknown inventory transport %q", cfg.InventoryTransport)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
