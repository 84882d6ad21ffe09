package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vanshika/graphlink/internal/decode"
	"github.com/vanshika/graphlink/internal/graph"
)

// batchFile is the YAML document accepted by "graphctl batch":
//
//	statements:
//	  - query: 'CREATE (n:Person {name: $name}) RETURN n'
//	    params: {name: Alice}
//	  - query: |
//	      MATCH (n:Person)
//	      RETURN count(n)
//
// Queries containing ": " must be quoted or written as a block scalar.
type batchFile struct {
	Statements []batchStatement `yaml:"statements"`
}

type batchStatement struct {
	Query  string         `yaml:"query"`
	Params map[string]any `yaml:"params"`
}

var errEmptyBatch = errors.New("batch file has no statements")

func loadBatchFile(path string) ([]batchStatement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	var file batchFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse batch file %s: %w", path, err)
	}
	if len(file.Statements) == 0 {
		return nil, errEmptyBatch
	}
	for i, st := range file.Statements {
		if st.Query == "" {
			return nil, fmt.Errorf("statement %d has no query", i)
		}
	}
	return file.Statements, nil
}

// batchOutcome is the printed result of one batched statement.
type batchOutcome struct {
	Query  string            `json:"query"`
	Result *decode.ResultSet `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// runStatements queues every statement into one batch, submits it and waits
// for the outcome. The returned error is the batch's.
func runStatements(g *graph.Graph, statements []batchStatement) ([]batchOutcome, error) {
	b := g.CreateBatch()
	outcomes := make([]batchOutcome, len(statements))
	for i, st := range statements {
		i := i
		outcomes[i].Query = st.Query
		params := st.Params
		if params == nil {
			params = map[string]any{}
		}
		err := g.Query(b, st.Query, params, func(rs *decode.ResultSet, err error) {
			if err != nil {
				outcomes[i].Error = err.Error()
				return
			}
			outcomes[i].Result = rs
		})
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i, err)
		}
	}

	var batchErr error
	if err := g.RunBatch(b, func(err error) { batchErr = err }); err != nil {
		return nil, err
	}
	g.Wait()
	return outcomes, batchErr
}

func runBatch(cmd *cobra.Command, args []string) error {
	statements, err := loadBatchFile(args[0])
	if err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	outcomes, batchErr := runStatements(s.graph, statements)
	if outcomes != nil {
		if err := printJSON(cmd, outcomes); err != nil {
			return err
		}
	}
	return batchErr
}
