// Package main provides graphctl, a command line client for the graph
// database's REST command layer.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vanshika/graphlink/internal/generator"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "graphctl",
		Short: "graphctl - command line client for a Neo4j REST endpoint",
		Long: `graphctl issues queries and entity commands against a graph database
that speaks the legacy REST protocol, or directly over Bolt.

Every command prints its result as JSON.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", os.Getenv("GRAPHLINK_CONFIG"), "path to a YAML config file")
	flags.String("transport", "", "transport to use: rest or bolt")
	flags.String("url", "", "REST service root, e.g. http://localhost:7474/db/data/")
	flags.String("bolt-uri", "", "Bolt URI, e.g. bolt://localhost:7687")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("graphctl v%s (%s)\n", version, commit)
		},
	})

	queryCmd := &cobra.Command{
		Use:   "query <cypher>",
		Short: "Run a cypher query",
		Args:  cobra.ExactArgs(1),
		RunE:  runQuery,
	}
	queryCmd.Flags().StringArrayP("param", "p", nil, "query parameter as key=value (value parsed as JSON when possible)")
	queryCmd.Flags().Bool("profile", false, "attach the execution plan")
	rootCmd.AddCommand(queryCmd)

	nodeCmd := &cobra.Command{
		Use:   "node",
		Short: "Node operations",
	}
	nodeCmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Fetch a node",
		Args:  cobra.ExactArgs(1),
		RunE:  runNodeGet,
	})
	nodeCreateCmd := &cobra.Command{
		Use:   "create [key=value...]",
		Short: "Create a node",
		RunE:  runNodeCreate,
	}
	nodeCreateCmd.Flags().String("data", "", "node properties as a JSON object")
	nodeCmd.AddCommand(nodeCreateCmd)
	nodeCmd.AddCommand(&cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete one or more nodes",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runNodeDelete,
	})
	rootCmd.AddCommand(nodeCmd)

	relCmd := &cobra.Command{
		Use:   "rel",
		Short: "Relationship operations",
	}
	relCmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Fetch a relationship",
		Args:  cobra.ExactArgs(1),
		RunE:  runRelGet,
	})
	relCmd.AddCommand(&cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete one or more relationships",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRelDelete,
	})
	rootCmd.AddCommand(relCmd)

	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Legacy index operations",
	}
	indexCmd.PersistentFlags().String("kind", "node", "index kind: node or relationship")
	indexCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List indexes",
		Args:  cobra.NoArgs,
		RunE:  runIndexList,
	})
	indexCreateCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an index",
		Args:  cobra.ExactArgs(1),
		RunE:  runIndexCreate,
	}
	indexCreateCmd.Flags().String("index-config", "", "index configuration as a JSON object")
	indexCmd.AddCommand(indexCreateCmd)
	indexCmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an index",
		Args:  cobra.ExactArgs(1),
		RunE:  runIndexDelete,
	})
	rootCmd.AddCommand(indexCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "batch <file.yaml>",
		Short: "Run the queries listed in a YAML file as one atomic batch",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	})

	importCmd := &cobra.Command{
		Use:   "import <nodes.json>",
		Short: "Create nodes from a JSON array of property objects",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	importCmd.Flags().Int("chunk", 100, "nodes created per batch")
	rootCmd.AddCommand(importCmd)

	defaults := generator.DefaultConfig()
	generateCmd := &cobra.Command{
		Use:   "generate <out.json|->",
		Short: "Write a synthetic node dataset for import",
		Args:  cobra.ExactArgs(1),
		RunE:  runGenerate,
	}
	generateCmd.Flags().Int("count", defaults.NumNodes, "number of nodes to generate")
	generateCmd.Flags().Int64("seed", defaults.Seed, "random seed for deterministic generation")
	generateCmd.Flags().Float64("shared-attr-chance", defaults.SharedAttributeChance, "probability of reusing an existing email or city")
	generateCmd.Flags().String("label", defaults.Label, "value of the kind property on every node")
	rootCmd.AddCommand(generateCmd)

	return rootCmd
}
