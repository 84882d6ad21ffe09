package transport

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vanshika/graphlink/internal/config"
)

// Closer releases a transport's resources.
type Closer func(ctx context.Context) error

// Open builds the transport selected by cfg.Transport. selfBaseURL is only used
// by the Bolt transport to render entity links.
func Open(ctx context.Context, cfg config.GraphConfig, selfBaseURL string, logger *zap.Logger) (Transport, Closer, error) {
	switch strings.ToLower(cfg.Transport) {
	case config.TransportBolt:
		t, err := NewBoltTransport(ctx, BoltOptions{
			URI:            cfg.BoltURI,
			Database:       cfg.Database,
			Username:       cfg.Username,
			Password:       cfg.Password,
			MaxConnections: cfg.MaxConnections,
			SelfBaseURL:    selfBaseURL,
			Logger:         logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return t, t.Close, nil
	case config.TransportREST, "":
		t, err := NewRESTTransport(RESTOptions{
			BaseURL: cfg.URL,
			Timeout: cfg.RequestTimeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return t, func(context.Context) error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown graph transport %q", cfg.Transport)
}
