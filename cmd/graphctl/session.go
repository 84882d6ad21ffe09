package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vanshika/graphlink/internal/config"
	"github.com/vanshika/graphlink/internal/graph"
	"github.com/vanshika/graphlink/internal/logging"
	"github.com/vanshika/graphlink/internal/transport"
)

// session bundles the graph client a command runs against.
type session struct {
	graph  *graph.Graph
	logger *zap.Logger
	closer transport.Closer
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	logger = logger.With(zap.String("component", "graphctl"))

	t, closer, err := transport.Open(cmd.Context(), cfg.Graph, "", logger)
	if err != nil {
		return nil, fmt.Errorf("open %s transport: %w", cfg.Graph.Transport, err)
	}

	s := &session{graph: graph.New(t, logger), logger: logger, closer: closer}

	if _, ok := t.(transport.Discoverer); ok {
		var discoverErr error
		if err := s.await(func() error {
			return s.graph.Reconnect(func(err error) { discoverErr = err })
		}); err != nil {
			s.close()
			return nil, err
		}
		if discoverErr != nil {
			logger.Warn("service root discovery failed, using default endpoint paths", zap.Error(discoverErr))
		}
	}
	return s, nil
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	if v, _ := cmd.Flags().GetString("transport"); v != "" {
		cfg.Graph.Transport = strings.ToLower(v)
	}
	if v, _ := cmd.Flags().GetString("url"); v != "" {
		cfg.Graph.URL = v
	}
	if v, _ := cmd.Flags().GetString("bolt-uri"); v != "" {
		cfg.Graph.BoltURI = v
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// await issues one or more calls and blocks until their callbacks have run.
func (s *session) await(issue func() error) error {
	if err := issue(); err != nil {
		return err
	}
	s.graph.Wait()
	return nil
}

func (s *session) close() {
	s.graph.Close()
	if err := s.closer(context.Background()); err != nil {
		s.logger.Warn("closing graph transport failed", zap.Error(err))
	}
	_ = s.logger.Sync()
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseParams turns key=value pairs into a map. Values that parse as JSON keep
// their JSON type, anything else is a string.
func parseParams(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("parameter %q is not key=value", pair)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		out[key] = v
	}
	return out, nil
}

func parseObject(flag, raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("--%s must be a JSON object: %w", flag, err)
	}
	return out, nil
}
