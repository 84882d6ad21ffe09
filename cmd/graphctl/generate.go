package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanshika/graphlink/internal/generator"
)

func runGenerate(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt("count")
	seed, _ := cmd.Flags().GetInt64("seed")
	shared, _ := cmd.Flags().GetFloat64("shared-attr-chance")
	label, _ := cmd.Flags().GetString("label")
	if count <= 0 {
		return fmt.Errorf("--count must be positive, got %d", count)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	nodes, err := generator.New(generator.Config{
		NumNodes:              count,
		SharedAttributeChance: shared,
		Seed:                  seed,
		Label:                 label,
	}).Generate(ctx)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	if args[0] == "-" {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(nodes)
	}
	if err := generator.WriteNodes(nodes, args[0]); err != nil {
		return err
	}
	cmd.Printf("Generated %d nodes into %s\n", len(nodes), args[0])
	return nil
}
