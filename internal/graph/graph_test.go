package graph

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/graphlink/internal/args"
	"github.com/vanshika/graphlink/internal/decode"
	"github.com/vanshika/graphlink/internal/dispatch"
	"github.com/vanshika/graphlink/internal/entity"
	"github.com/vanshika/graphlink/internal/transport"
)

func newTestGraph(t *testing.T) (*Graph, *transport.MemoryTransport) {
	t.Helper()
	mt := transport.NewMemoryTransport()
	g := New(mt, nil)
	t.Cleanup(g.Close)
	return g, mt
}

func aliceResult() map[string]any {
	return map[string]any{
		"columns": []any{"n", "n.name"},
		"data": []any{
			[]any{
				map[string]any{"self": "http://localhost:7474/db/data/node/1", "data": map[string]any{"name": "Alice"}},
				"Alice",
			},
		},
	}
}

func TestQuery(t *testing.T) {
	g, mt := newTestGraph(t)
	mt.PushResult(aliceResult())

	var rs *decode.ResultSet
	err := g.Query("MATCH (n) RETURN n, n.name", func(res *decode.ResultSet, err error) {
		assert.NoError(t, err)
		rs = res
	})
	require.NoError(t, err)
	g.Wait()

	require.NotNil(t, rs)
	require.Equal(t, 1, rs.Len())
	assert.True(t, g.IsNode(rs.Records[0]["n"]))
	assert.Equal(t, "Alice", rs.Records[0]["n.name"])

	calls := mt.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, transport.VerbPost, calls[0].Verb)
	assert.Equal(t, "cypher", calls[0].Endpoint.Path())
	assert.Equal(t, map[string]any{"query": "MATCH (n) RETURN n, n.name", "params": map[string]any{}}, calls[0].Body)
}

func TestQuery_ProfileAndParams(t *testing.T) {
	g, mt := newTestGraph(t)
	plan := map[string]any{"name": "AllNodesScan"}
	mt.PushResult(map[string]any{"columns": []any{}, "data": []any{}, "plan": plan})

	var rs *decode.ResultSet
	params := map[string]any{"name": "Bob"}
	require.NoError(t, g.Query(true, "MATCH (n {name: $name}) RETURN n", params, func(res *decode.ResultSet, err error) {
		rs = res
	}))
	g.Wait()

	require.NotNil(t, rs)
	assert.Equal(t, plan, rs.Plan)
	assert.Zero(t, rs.Len())

	calls := mt.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "cypher?profile=true", calls[0].Endpoint.Path())
	assert.Equal(t, params, calls[0].Body.(map[string]any)["params"])
}

func TestQuery_TransportErrorSkipsDecode(t *testing.T) {
	g, mt := newTestGraph(t)
	boom := &transport.Error{Verb: "POST", Path: "cypher", Status: http.StatusBadRequest, Message: "syntax"}
	mt.PushError(boom)

	var (
		gotErr error
		gotRS  = &decode.ResultSet{}
	)
	require.NoError(t, g.Query("RETURN", func(rs *decode.ResultSet, err error) {
		gotRS, gotErr = rs, err
	}))
	g.Wait()

	assert.Same(t, boom, gotErr)
	assert.Nil(t, gotRS)
}

func TestQuery_DecodeError(t *testing.T) {
	g, mt := newTestGraph(t)
	mt.PushResult(map[string]any{"columns": []any{"a", "b"}, "data": []any{[]any{1}}})

	var gotErr error
	require.NoError(t, g.Query("RETURN 1", func(rs *decode.ResultSet, err error) {
		assert.Nil(t, rs)
		gotErr = err
	}))
	g.Wait()

	var de *decode.Error
	assert.True(t, errors.As(gotErr, &de))
}

func TestQuery_ValidationIsSynchronous(t *testing.T) {
	g, mt := newTestGraph(t)

	called := false
	cb := func(*decode.ResultSet, error) { called = true }

	tests := []struct {
		name string
		raw  []any
	}{
		{"missing query", []any{cb}},
		{"wrong callback", []any{"RETURN 1", func(error) {}}},
		{"extra argument", []any{"RETURN 1", cb, 1}},
		{"nothing", nil},
		{"nil callback", []any{"RETURN 1", QueryCallback(nil)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Query(tt.raw...)
			var ve *args.ValidationError
			assert.True(t, errors.As(err, &ve), "got %v", err)
		})
	}
	g.Wait()

	assert.False(t, called)
	assert.Empty(t, mt.Calls())

	var nilNode NodeCallback
	var nilErr ErrorCallback
	var ve *args.ValidationError
	assert.ErrorAs(t, g.CreateNode(map[string]any{}, nilNode), &ve)
	assert.ErrorAs(t, g.DeleteNode(1, nilErr), &ve)
	assert.ErrorAs(t, g.Reconnect(nilErr), &ve)
	g.Wait()
	assert.Empty(t, mt.Calls())
	assert.Zero(t, mt.Discoveries())
}

func TestBatch(t *testing.T) {
	g, mt := newTestGraph(t)
	mt.PushResult(map[string]any{"self": "http://localhost:7474/db/data/node/5", "data": map[string]any{"name": "a"}})
	mt.PushResult(aliceResult())
	mt.PushResult(nil)

	b := g.CreateBatch()

	var (
		created *entity.Node
		rs      *decode.ResultSet
		delErr  = errors.New("unset")
		order   []string
	)
	require.NoError(t, g.CreateNode(b, map[string]any{"name": "a"}, func(n *entity.Node, err error) {
		assert.NoError(t, err)
		created = n
		order = append(order, "create")
	}))
	require.NoError(t, g.Query(b, "MATCH (n) RETURN n, n.name", func(res *decode.ResultSet, err error) {
		rs = res
		order = append(order, "query")
	}))
	require.NoError(t, g.DeleteRelationship(b, 9, func(err error) {
		delErr = err
		order = append(order, "delete")
	}))
	assert.Equal(t, 3, b.Len())

	g.Wait()
	assert.Empty(t, mt.Calls())
	assert.Empty(t, mt.Batches())

	var batchErr = errors.New("unset")
	require.NoError(t, g.RunBatch(b, func(err error) {
		batchErr = err
		order = append(order, "batch")
	}))
	g.Wait()

	assert.NoError(t, batchErr)
	assert.NoError(t, delErr)
	assert.Equal(t, []string{"create", "query", "delete", "batch"}, order)
	require.NotNil(t, created)
	assert.Equal(t, int64(5), created.ID)
	require.NotNil(t, rs)
	assert.Equal(t, 1, rs.Len())

	batches := mt.Batches()
	require.Len(t, batches, 1)
	paths := make([]string, len(batches[0]))
	for i, req := range batches[0] {
		paths[i] = req.String()
	}
	assert.Equal(t, []string{"POST node", "POST cypher", "DELETE relationship/9"}, paths)

	assert.ErrorIs(t, g.RunBatch(b, func(error) {}), dispatch.ErrBatchClosed)
	assert.ErrorIs(t, g.GetNode(b, 1, func(*entity.Node, error) {}), dispatch.ErrBatchClosed)
}

func TestRunBatch_Empty(t *testing.T) {
	g, mt := newTestGraph(t)

	done := false
	require.NoError(t, g.RunBatch(g.CreateBatch(), func(err error) {
		assert.NoError(t, err)
		done = true
	}))
	g.Wait()

	assert.True(t, done)
	assert.Empty(t, mt.Batches())
}

func TestRunBatch_RequiresBatch(t *testing.T) {
	g, _ := newTestGraph(t)

	var ve *args.ValidationError
	require.True(t, errors.As(g.RunBatch(func(error) {}), &ve))
	assert.Equal(t, "batch", ve.Slot)
}

func TestNodes(t *testing.T) {
	g, mt := newTestGraph(t)
	mt.PushResult(map[string]any{"self": "http://localhost:7474/db/data/node/12", "data": map[string]any{"name": "Alice"}})
	mt.PushResult(nil)
	mt.PushResult(nil)

	var got *entity.Node
	require.NoError(t, g.GetNode("12", func(n *entity.Node, err error) {
		assert.NoError(t, err)
		got = n
	}))
	g.Wait()
	require.NotNil(t, got)
	assert.Equal(t, "Alice", got.Data["name"])

	var delErr = errors.New("unset")
	require.NoError(t, g.DeleteNode([]any{got, 13}, func(err error) { delErr = err }))
	g.Wait()
	assert.NoError(t, delErr)

	var paths []string
	for _, c := range mt.Calls() {
		paths = append(paths, c.String())
	}
	assert.Equal(t, []string{"GET node/12", "DELETE node/12", "DELETE node/13"}, paths)
}

func TestGetNode_InvalidID(t *testing.T) {
	g, mt := newTestGraph(t)
	cb := func(*entity.Node, error) {}

	tests := []struct {
		name string
		id   any
	}{
		{"relationship handle", &entity.Relationship{ID: 3}},
		{"unknown id", &entity.Node{ID: entity.UnknownID}},
		{"several ids", []int{1, 2}},
		{"not numeric", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ve *args.ValidationError
			require.True(t, errors.As(g.GetNode(tt.id, cb), &ve))
			assert.Equal(t, "id", ve.Slot)
		})
	}
	assert.Empty(t, mt.Calls())
}

func TestRelationships(t *testing.T) {
	g, mt := newTestGraph(t)
	mt.PushResult(map[string]any{
		"self":  "http://localhost:7474/db/data/relationship/4",
		"start": "http://localhost:7474/db/data/node/1",
		"end":   "http://localhost:7474/db/data/node/2",
		"type":  "KNOWS",
		"data":  map[string]any{},
	})
	notFound := &transport.Error{Verb: "DELETE", Path: "relationship/4", Status: http.StatusNotFound}
	mt.PushError(notFound)

	var rel *entity.Relationship
	require.NoError(t, g.GetRelationship(4, func(r *entity.Relationship, err error) {
		assert.NoError(t, err)
		rel = r
	}))
	var delErr error
	require.NoError(t, g.DeleteRelationship(&entity.Relationship{ID: 4}, func(err error) { delErr = err }))
	g.Wait()

	require.NotNil(t, rel)
	assert.Equal(t, "KNOWS", rel.Type)
	assert.Equal(t, int64(1), rel.StartID)
	assert.True(t, transport.IsNotFound(delErr))
}

func TestIndexes(t *testing.T) {
	g, mt := newTestGraph(t)
	mt.PushResult(nil)
	mt.PushResult(nil)
	mt.PushResult(map[string]any{"people": map[string]any{"type": "exact"}})
	mt.PushResult(nil)

	var errs []error
	collect := func(err error) { errs = append(errs, err) }

	require.NoError(t, g.CreateNodeIndex("people", map[string]any{"type": "exact"}, collect))

	var empty, listed map[string]any
	require.NoError(t, g.ListRelationshipIndexes(func(m map[string]any, err error) {
		assert.NoError(t, err)
		empty = m
	}))
	require.NoError(t, g.ListNodeIndexes(func(m map[string]any, err error) {
		assert.NoError(t, err)
		listed = m
	}))
	require.NoError(t, g.DeleteNodeIndex("people", collect))
	g.Wait()

	assert.Equal(t, []error{nil, nil}, errs)
	assert.Equal(t, map[string]any{}, empty)
	assert.Contains(t, listed, "people")

	calls := mt.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, "POST index/node", calls[0].String())
	assert.Equal(t, map[string]any{"name": "people", "config": map[string]any{"type": "exact"}}, calls[0].Body)
	assert.Equal(t, "GET index/relationship", calls[1].String())
	assert.Equal(t, "GET index/node", calls[2].String())
	assert.Equal(t, "DELETE index/node/people", calls[3].String())

	var ve *args.ValidationError
	assert.True(t, errors.As(g.CreateRelationshipIndex(collect), &ve))
	assert.True(t, errors.As(g.DeleteRelationshipIndex("", collect), &ve))
}

type discoveringTransport struct {
	*transport.MemoryTransport
	err error
}

func (d *discoveringTransport) Discover(ctx context.Context) error {
	if d.err != nil {
		return d.err
	}
	return d.MemoryTransport.Discover(ctx)
}

func TestReconnect(t *testing.T) {
	t.Run("discovers", func(t *testing.T) {
		mt := transport.NewMemoryTransport()
		g := New(mt, nil)
		defer g.Close()

		var gotErr = errors.New("unset")
		require.NoError(t, g.Reconnect(func(err error) { gotErr = err }))
		g.Wait()

		assert.NoError(t, gotErr)
		assert.Equal(t, 1, mt.Discoveries())
	})

	t.Run("reports failure", func(t *testing.T) {
		boom := errors.New("service root unreachable")
		g := New(&discoveringTransport{MemoryTransport: transport.NewMemoryTransport(), err: boom}, nil)
		defer g.Close()

		var gotErr error
		require.NoError(t, g.Reconnect(func(err error) { gotErr = err }))
		g.Wait()

		assert.ErrorIs(t, gotErr, boom)
	})
}

func TestClosed(t *testing.T) {
	g := New(transport.NewMemoryTransport(), nil)
	g.Close()

	assert.ErrorIs(t, g.Query("RETURN 1", func(*decode.ResultSet, error) {}), dispatch.ErrClosed)
	assert.ErrorIs(t, g.Reconnect(func(error) {}), dispatch.ErrClosed)
}

func TestClosed_PendingBatchFails(t *testing.T) {
	g := New(transport.NewMemoryTransport(), nil)
	b := g.CreateBatch()

	var nodeErr error
	require.NoError(t, g.CreateNode(b, map[string]any{"name": "a"}, func(_ *entity.Node, err error) { nodeErr = err }))
	g.Close()

	assert.ErrorIs(t, g.RunBatch(b, func(error) { t.Error("batch callback must not run") }), dispatch.ErrClosed)
	assert.ErrorIs(t, nodeErr, dispatch.ErrClosed)
}

func TestPredicates(t *testing.T) {
	g, _ := newTestGraph(t)

	assert.True(t, g.IsNode(&entity.Node{}))
	assert.True(t, g.IsRelationship(&entity.Relationship{}))
	assert.True(t, g.IsPath(&entity.Path{}))
	assert.False(t, g.IsNode(&entity.Path{}))
	assert.False(t, g.IsPath(map[string]any{}))
}
