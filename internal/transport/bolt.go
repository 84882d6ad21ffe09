package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/vanshika/graphlink/internal/logging"
)

// BoltOptions configures a BoltTransport.
type BoltOptions struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
	// SelfBaseURL prefixes the self links rendered for entities.
	SelfBaseURL string
	Logger      *zap.Logger
}

// ErrMissingURI indicates the bolt URI is not provided.
var ErrMissingURI = errors.New("bolt URI is required")

const defaultSelfBaseURL = "http://localhost:7474/db/data/"

// NewBoltTransport establishes a Bolt connection using the official Neo4j driver.
// REST requests are translated to Cypher and responses are rendered in the REST
// JSON shape so the rest of the command layer cannot tell the difference.
func NewBoltTransport(ctx context.Context, opts BoltOptions) (*BoltTransport, error) {
	if opts.URI == "" {
		return nil, ErrMissingURI
	}

	auth := neo4j.NoAuth()
	if opts.Username != "" {
		auth = neo4j.BasicAuth(opts.Username, opts.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, auth, func(c *neo4j.Config) {
		if opts.MaxConnections > 0 {
			c.MaxConnectionPoolSize = opts.MaxConnections
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify graph connectivity: %w", err)
	}

	logger := logging.OrNop(opts.Logger)
	return &BoltTransport{
		driver:   driver,
		database: opts.Database,
		render:   renderer{base: selfBase(opts.SelfBaseURL)},
		logger:   logger,
	}, nil
}

// BoltTransport implements Transport over the Bolt protocol.
type BoltTransport struct {
	driver   neo4j.DriverWithContext
	database string
	render   renderer
	logger   *zap.Logger
}

type runFunc func(ctx context.Context, cypher string, params map[string]any) (neo4j.ResultWithContext, error)

func (t *BoltTransport) Do(ctx context.Context, req Request) (any, error) {
	mode := neo4j.AccessModeWrite
	if req.Verb == VerbGet {
		mode = neo4j.AccessModeRead
	}
	session := t.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: t.database,
		AccessMode:   mode,
	})
	defer session.Close(ctx)

	run := func(ctx context.Context, cypher string, params map[string]any) (neo4j.ResultWithContext, error) {
		return session.Run(ctx, cypher, params)
	}
	body, err := t.execute(ctx, run, req)
	if err != nil {
		t.logger.Error("bolt request failed", zap.String("request", req.String()), zap.Error(err))
	}
	return body, err
}

// DoBatch runs every step in one explicit transaction. The first failing step
// rolls the transaction back and the whole batch fails.
func (t *BoltTransport) DoBatch(ctx context.Context, reqs []Request) ([]StepResult, error) {
	session := t.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: t.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		return nil, &Error{Verb: VerbPost, Path: Literal(ResourceBatch).Path(), Err: err}
	}
	defer tx.Close(ctx)

	run := func(ctx context.Context, cypher string, params map[string]any) (neo4j.ResultWithContext, error) {
		return tx.Run(ctx, cypher, params)
	}
	out := make([]StepResult, len(reqs))
	for i, req := range reqs {
		body, err := t.execute(ctx, run, req)
		if err != nil {
			_ = tx.Rollback(ctx)
			t.logger.Error("bolt batch step failed", zap.Int("step", i), zap.String("request", req.String()), zap.Error(err))
			return nil, err
		}
		out[i] = StepResult{Body: body}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, &Error{Verb: VerbPost, Path: Literal(ResourceBatch).Path(), Err: err}
	}
	return out, nil
}

func (t *BoltTransport) VerifyConnectivity(ctx context.Context) error {
	return t.driver.VerifyConnectivity(ctx)
}

func (t *BoltTransport) Close(ctx context.Context) error {
	return t.driver.Close(ctx)
}

// statement is the Cypher translation of one REST request.
type statement struct {
	cypher  string
	params  map[string]any
	profile bool
	// single marks entity endpoints: the body is the first value of the first
	// row, and an empty result is a 404.
	single bool
	// counted marks deletes: the single value is a match count.
	counted bool
	what    string
}

func statementFor(req Request) (statement, error) {
	e := req.Endpoint
	switch e.Resource {
	case ResourceCypher:
		if req.Verb != VerbPost {
			break
		}
		body, _ := req.Body.(map[string]any)
		query, _ := body["query"].(string)
		if query == "" {
			return statement{}, &Error{Verb: req.Verb, Path: e.Path(), Status: http.StatusBadRequest, Message: "query is required"}
		}
		params, _ := body["params"].(map[string]any)
		if params == nil {
			params = map[string]any{}
		}
		st := statement{cypher: query, params: params}
		if strings.Contains(e.Query, "profile=true") {
			st.cypher = "PROFILE " + query
			st.profile = true
		}
		return st, nil

	case ResourceNode, ResourceRelationship:
		what := string(e.Resource)
		if e.ID == "" {
			if e.Resource == ResourceNode && req.Verb == VerbPost {
				props, _ := req.Body.(map[string]any)
				if props == nil {
					props = map[string]any{}
				}
				return statement{cypher: "CREATE (n) SET n = $props RETURN n", params: map[string]any{"props": props}, single: true, what: what}, nil
			}
			break
		}
		id, err := strconv.ParseInt(e.ID, 10, 64)
		if err != nil {
			return statement{}, &Error{Verb: req.Verb, Path: e.Path(), Status: http.StatusBadRequest, Message: "invalid id " + strconv.Quote(e.ID)}
		}
		match := "MATCH (x) WHERE id(x) = $id"
		if e.Resource == ResourceRelationship {
			match = "MATCH ()-[x]->() WHERE id(x) = $id"
		}
		params := map[string]any{"id": id}
		switch req.Verb {
		case VerbGet:
			return statement{cypher: match + " RETURN x", params: params, single: true, what: what}, nil
		case VerbDelete:
			return statement{cypher: match + " DELETE x RETURN count(*) AS deleted", params: params, single: true, counted: true, what: what}, nil
		}
	}
	return statement{}, unsupported(req)
}

func (t *BoltTransport) execute(ctx context.Context, run runFunc, req Request) (any, error) {
	st, err := statementFor(req)
	if err != nil {
		return nil, err
	}

	res, err := run(ctx, st.cypher, st.params)
	if err != nil {
		return nil, &Error{Verb: req.Verb, Path: req.Endpoint.Path(), Status: http.StatusBadRequest, Message: err.Error(), Err: err}
	}

	keys, err := res.Keys()
	if err != nil {
		return nil, &Error{Verb: req.Verb, Path: req.Endpoint.Path(), Err: err}
	}
	rows := make([]any, 0)
	for res.Next(ctx) {
		rec := res.Record()
		row := make([]any, len(rec.Values))
		for i, v := range rec.Values {
			row[i] = t.render.value(v)
		}
		rows = append(rows, row)
	}
	if err := res.Err(); err != nil {
		return nil, &Error{Verb: req.Verb, Path: req.Endpoint.Path(), Status: http.StatusBadRequest, Message: err.Error(), Err: err}
	}
	summary, err := res.Consume(ctx)
	if err != nil {
		return nil, &Error{Verb: req.Verb, Path: req.Endpoint.Path(), Err: err}
	}

	if st.single {
		return singleValue(req, st, rows)
	}

	cols := make([]any, len(keys))
	for i, k := range keys {
		cols[i] = k
	}
	out := map[string]any{"columns": cols, "data": rows}
	if st.profile && summary != nil && summary.Profile() != nil {
		out["plan"] = renderPlan(summary.Profile())
	}
	return out, nil
}

func singleValue(req Request, st statement, rows []any) (any, error) {
	if len(rows) == 0 {
		return nil, notFound(req, st.what)
	}
	row, _ := rows[0].([]any)
	if len(row) == 0 {
		return nil, notFound(req, st.what)
	}
	if st.counted {
		if n, ok := row[0].(int64); !ok || n == 0 {
			return nil, notFound(req, st.what)
		}
		return nil, nil
	}
	return row[0], nil
}

func renderPlan(p neo4j.ProfiledPlan) map[string]any {
	children := make([]any, 0, len(p.Children()))
	for _, c := range p.Children() {
		children = append(children, renderPlan(c))
	}
	return map[string]any{
		"name":        p.Operator(),
		"args":        p.Arguments(),
		"identifiers": p.Identifiers(),
		"dbHits":      p.DbHits(),
		"rows":        p.Records(),
		"children":    children,
	}
}

// renderer turns driver values into the REST JSON shapes.
type renderer struct {
	base string
}

func selfBase(base string) string {
	if base == "" {
		base = defaultSelfBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

func (r renderer) nodeURL(id int64) string {
	return r.base + "node/" + strconv.FormatInt(id, 10)
}

func (r renderer) relURL(id int64) string {
	return r.base + "relationship/" + strconv.FormatInt(id, 10)
}

func (r renderer) value(v any) any {
	switch val := v.(type) {
	case neo4j.Node:
		return r.node(val)
	case neo4j.Relationship:
		return r.relationship(val)
	case neo4j.Path:
		return r.path(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = r.value(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = r.value(item)
		}
		return out
	case nil, bool, string, int64, float64, []byte:
		return val
	case fmt.Stringer:
		return val.String()
	}
	return v
}

func (r renderer) props(p map[string]any) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = r.value(v)
	}
	return out
}

func (r renderer) node(n neo4j.Node) map[string]any {
	labels := make([]any, len(n.Labels))
	for i, l := range n.Labels {
		labels[i] = l
	}
	return map[string]any{
		"self": r.nodeURL(n.Id),
		"data": r.props(n.Props),
		"metadata": map[string]any{
			"id":     n.Id,
			"labels": labels,
		},
	}
}

func (r renderer) relationship(rel neo4j.Relationship) map[string]any {
	return map[string]any{
		"self":  r.relURL(rel.Id),
		"start": r.nodeURL(rel.StartId),
		"end":   r.nodeURL(rel.EndId),
		"type":  rel.Type,
		"data":  r.props(rel.Props),
		"metadata": map[string]any{
			"id":   rel.Id,
			"type": rel.Type,
		},
	}
}

func (r renderer) path(p neo4j.Path) map[string]any {
	nodes := make([]any, len(p.Nodes))
	for i, n := range p.Nodes {
		nodes[i] = r.nodeURL(n.Id)
	}
	rels := make([]any, len(p.Relationships))
	for i, rel := range p.Relationships {
		rels[i] = r.relURL(rel.Id)
	}
	out := map[string]any{
		"nodes":         nodes,
		"relationships": rels,
		"length":        int64(len(p.Relationships)),
	}
	if len(nodes) > 0 {
		out["start"] = nodes[0]
		out["end"] = nodes[len(nodes)-1]
	}
	return out
}
