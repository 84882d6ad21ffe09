// Package graph is the command layer of the client. Every operation takes its
// arguments positionally, optionally led by a *dispatch.Batch, and reports its
// result through a callback on the Graph's serial execution queue.
//
//	g.Query("MATCH (n) RETURN n", func(rs *decode.ResultSet, err error) { ... })
//	g.Query(batch, "MATCH (n) RETURN n", params, cb)
//
// Argument errors are returned synchronously and the callback is not called.
package graph

import (
	"context"

	"go.uber.org/zap"

	"github.com/vanshika/graphlink/internal/args"
	"github.com/vanshika/graphlink/internal/decode"
	"github.com/vanshika/graphlink/internal/dispatch"
	"github.com/vanshika/graphlink/internal/entity"
	"github.com/vanshika/graphlink/internal/logging"
	"github.com/vanshika/graphlink/internal/transport"
)

// Callback signatures. They are aliases so that plain func literals match.
type (
	QueryCallback        = func(*decode.ResultSet, error)
	NodeCallback         = func(*entity.Node, error)
	RelationshipCallback = func(*entity.Relationship, error)
	IndexesCallback      = func(map[string]any, error)
	ErrorCallback        = func(error)
)

// Graph issues commands against one transport.
type Graph struct {
	transport transport.Transport
	queue     *dispatch.Queue
	router    *dispatch.Router
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New starts a Graph over t. Close releases its queue.
func New(t transport.Transport, logger *zap.Logger) *Graph {
	logger = logging.OrNop(logger)
	ctx, cancel := context.WithCancel(context.Background())
	q := dispatch.NewQueue(logger)
	return &Graph{
		transport: t,
		queue:     q,
		router:    dispatch.NewRouter(ctx, t, q, logger),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Wait blocks until every issued call and its callback have run. It must not
// be called from inside a callback.
func (g *Graph) Wait() { g.queue.Wait() }

// Close waits for pending work, then stops the queue. Later calls fail with
// dispatch.ErrClosed.
func (g *Graph) Close() {
	g.queue.Close()
	g.cancel()
}

// CreateBatch returns an empty batch. Pass it as the first argument of any
// operation to queue that operation, then submit it with RunBatch.
func (g *Graph) CreateBatch() *dispatch.Batch {
	return dispatch.NewBatch()
}

var runBatchFormat = args.Format{
	Op: "runBatch",
	Slots: []args.Slot{
		{Name: "batch", Kind: args.KindBatch},
		errorCallbackSlot,
	},
}

// RunBatch(batch, cb ErrorCallback) submits batch as one atomic unit.
func (g *Graph) RunBatch(raw ...any) error {
	v, err := args.Parse(raw, runBatchFormat)
	if err != nil {
		return err
	}
	cb := v["callback"].(ErrorCallback)
	return g.router.Submit(v.Batch("batch"), cb)
}

var queryFormat = args.Format{
	Op: "query",
	Slots: []args.Slot{
		batchSlot,
		{Name: "profile", Kind: args.KindBool, Optional: true},
		{Name: "query", Kind: args.KindString},
		{Name: "params", Kind: args.KindObject, Optional: true},
		{Name: "callback", Kind: args.KindCallback, Accept: isQueryCallback},
	},
}

// Query([batch], [profile], query, [params], cb QueryCallback) runs a cypher
// query. With profile set the result set carries the execution plan.
func (g *Graph) Query(raw ...any) error {
	v, err := args.Parse(raw, queryFormat)
	if err != nil {
		return err
	}
	cb := v["callback"].(QueryCallback)

	params := v.Object("params")
	if params == nil {
		params = map[string]any{}
	}
	endpoint := transport.Literal(transport.ResourceCypher)
	if v.Bool("profile") {
		endpoint = endpoint.WithQuery("profile=true")
	}
	req := transport.Request{
		Verb:     transport.VerbPost,
		Endpoint: endpoint,
		Body:     map[string]any{"query": v.String("query"), "params": params},
	}

	return g.router.Dispatch(dispatch.ExecFor(v.Batch("batch")), req, func(body any, err error) {
		if err != nil {
			cb(nil, err)
			return
		}
		rs, err := decode.DecodeBody(body)
		if err != nil {
			g.logger.Warn("undecodable query result", zap.Error(err))
			cb(nil, err)
			return
		}
		cb(rs, nil)
	})
}

// Reconnect(cb ErrorCallback) re-reads the service root when the transport
// supports discovery. Otherwise it completes with no error.
func (g *Graph) Reconnect(raw ...any) error {
	v, err := args.Parse(raw, reconnectFormat)
	if err != nil {
		return err
	}
	cb := v["callback"].(ErrorCallback)

	d, ok := g.transport.(transport.Discoverer)
	task := func() {
		if !ok {
			cb(nil)
			return
		}
		err := d.Discover(g.ctx)
		if err != nil {
			g.logger.Error("reconnect failed", zap.Error(err))
		}
		cb(err)
	}
	if !g.queue.Submit(task) {
		return dispatch.ErrClosed
	}
	return nil
}

var reconnectFormat = args.Format{
	Op:    "reconnect",
	Slots: []args.Slot{errorCallbackSlot},
}

func (g *Graph) IsNode(v any) bool         { return entity.IsNode(v) }
func (g *Graph) IsRelationship(v any) bool { return entity.IsRelationship(v) }
func (g *Graph) IsPath(v any) bool         { return entity.IsPath(v) }

var (
	batchSlot         = args.Slot{Name: "batch", Kind: args.KindBatch, Optional: true}
	errorCallbackSlot = args.Slot{Name: "callback", Kind: args.KindCallback, Accept: isErrorCallback}
)

func isQueryCallback(v any) bool {
	cb, ok := v.(QueryCallback)
	return ok && cb != nil
}

func isNodeCallback(v any) bool {
	cb, ok := v.(NodeCallback)
	return ok && cb != nil
}

func isRelationshipCallback(v any) bool {
	cb, ok := v.(RelationshipCallback)
	return ok && cb != nil
}

func isIndexesCallback(v any) bool {
	cb, ok := v.(IndexesCallback)
	return ok && cb != nil
}

func isErrorCallback(v any) bool {
	cb, ok := v.(ErrorCallback)
	return ok && cb != nil
}

// errorOnly adapts cb to a completion that ignores the body.
func errorOnly(cb ErrorCallback) dispatch.Completion {
	return func(_ any, err error) { cb(err) }
}
