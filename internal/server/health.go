package server

import (
	"context"

	"github.com/vanshika/graphlink/internal/transport"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

type connectivityChecker interface {
	VerifyConnectivity(ctx context.Context) error
}

// TransportHealthService checks the graph backend. Bolt transports verify
// driver connectivity; discovering transports re-read the service root.
type TransportHealthService struct {
	Transport transport.Transport
}

// Probe implements the HealthService interface.
func (s TransportHealthService) Probe(ctx context.Context) error {
	switch t := s.Transport.(type) {
	case nil:
		return nil
	case connectivityChecker:
		return t.VerifyConnectivity(ctx)
	case transport.Discoverer:
		return t.Discover(ctx)
	}
	return nil
}
