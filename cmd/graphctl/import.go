package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vanshika/graphlink/internal/entity"
	"github.com/vanshika/graphlink/internal/graph"
)

var errEmptyDataset = errors.New("dataset is empty")

type importStats struct {
	Created int     `json:"created"`
	Batches int     `json:"batches"`
	IDs     []int64 `json:"ids"`
}

func runImport(cmd *cobra.Command, args []string) error {
	chunk, _ := cmd.Flags().GetInt("chunk")
	if chunk <= 0 {
		return fmt.Errorf("--chunk must be positive, got %d", chunk)
	}

	nodes, err := loadNodes(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	start := time.Now()
	s.logger.Info("importing nodes", zap.Int("count", len(nodes)), zap.Int("chunk", chunk))
	stats, err := importNodes(ctx, s.graph, nodes, chunk, s.logger)
	if err != nil {
		return err
	}
	s.logger.Info("import complete", zap.Duration("duration", time.Since(start)), zap.Int("created", stats.Created))
	return printJSON(cmd, stats)
}

func loadNodes(path string) ([]map[string]any, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	var nodes []map[string]any
	if err := json.NewDecoder(file).Decode(&nodes); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", errEmptyDataset, path)
	}
	return nodes, nil
}

// importNodes creates nodes in batches of chunk. Each batch is atomic; the
// import stops at the first failed batch or when ctx is cancelled between
// batches.
func importNodes(ctx context.Context, g *graph.Graph, nodes []map[string]any, chunk int, logger *zap.Logger) (importStats, error) {
	var stats importStats
	for start := 0; start < len(nodes); start += chunk {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		end := start + chunk
		if end > len(nodes) {
			end = len(nodes)
		}

		b := g.CreateBatch()
		ids := make([]int64, end-start)
		for i, props := range nodes[start:end] {
			i := i
			if props == nil {
				props = map[string]any{}
			}
			if err := g.CreateNode(b, props, func(n *entity.Node, err error) {
				if err == nil {
					ids[i] = n.ID
				}
			}); err != nil {
				return stats, fmt.Errorf("node %d: %w", start+i, err)
			}
		}

		var batchErr error
		if err := g.RunBatch(b, func(err error) { batchErr = err }); err != nil {
			return stats, err
		}
		g.Wait()
		if batchErr != nil {
			return stats, fmt.Errorf("batch starting at node %d: %w", start, batchErr)
		}

		stats.Batches++
		stats.Created += len(ids)
		stats.IDs = append(stats.IDs, ids...)
		logger.Debug("batch committed", zap.Int("from", start), zap.Int("to", end))
	}
	return stats, nil
}
