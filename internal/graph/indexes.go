package graph

import (
	"fmt"

	"github.com/vanshika/graphlink/internal/args"
	"github.com/vanshika/graphlink/internal/dispatch"
	"github.com/vanshika/graphlink/internal/transport"
)

// Index operations come in node and relationship flavours that differ only in
// the endpoint.

func (g *Graph) CreateNodeIndex(raw ...any) error {
	return g.createIndex(raw, "createNodeIndex", transport.ResourceNodeIndex)
}

func (g *Graph) CreateRelationshipIndex(raw ...any) error {
	return g.createIndex(raw, "createRelationshipIndex", transport.ResourceRelationshipIndex)
}

func (g *Graph) DeleteNodeIndex(raw ...any) error {
	return g.deleteIndex(raw, "deleteNodeIndex", transport.ResourceNodeIndex)
}

func (g *Graph) DeleteRelationshipIndex(raw ...any) error {
	return g.deleteIndex(raw, "deleteRelationshipIndex", transport.ResourceRelationshipIndex)
}

// ListNodeIndexes([batch], cb IndexesCallback) reports every node index keyed
// by name. No indexes is an empty map.
func (g *Graph) ListNodeIndexes(raw ...any) error {
	return g.listIndexes(raw, "listNodeIndexes", transport.ResourceNodeIndex)
}

func (g *Graph) ListRelationshipIndexes(raw ...any) error {
	return g.listIndexes(raw, "listRelationshipIndexes", transport.ResourceRelationshipIndex)
}

func createIndexFormat(op string) args.Format {
	return args.Format{
		Op: op,
		Slots: []args.Slot{
			batchSlot,
			{Name: "name", Kind: args.KindString},
			{Name: "config", Kind: args.KindObject, Optional: true},
			errorCallbackSlot,
		},
	}
}

func (g *Graph) createIndex(raw []any, op string, resource transport.Resource) error {
	v, err := args.Parse(raw, createIndexFormat(op))
	if err != nil {
		return err
	}
	body := map[string]any{"name": v.String("name")}
	if cfg := v.Object("config"); cfg != nil {
		body["config"] = cfg
	}
	req := transport.Request{Verb: transport.VerbPost, Endpoint: transport.Literal(resource), Body: body}
	return g.router.Dispatch(dispatch.ExecFor(v.Batch("batch")), req, errorOnly(v["callback"].(ErrorCallback)))
}

func deleteIndexFormat(op string) args.Format {
	return args.Format{
		Op: op,
		Slots: []args.Slot{
			batchSlot,
			{Name: "name", Kind: args.KindString},
			errorCallbackSlot,
		},
	}
}

func (g *Graph) deleteIndex(raw []any, op string, resource transport.Resource) error {
	v, err := args.Parse(raw, deleteIndexFormat(op))
	if err != nil {
		return err
	}
	name := v.String("name")
	if name == "" {
		return &args.ValidationError{Op: op, Slot: "name", Reason: "must not be empty"}
	}
	req := transport.Request{Verb: transport.VerbDelete, Endpoint: transport.ResourcePath(resource, name)}
	return g.router.Dispatch(dispatch.ExecFor(v.Batch("batch")), req, errorOnly(v["callback"].(ErrorCallback)))
}

func listIndexesFormat(op string) args.Format {
	return args.Format{
		Op: op,
		Slots: []args.Slot{
			batchSlot,
			{Name: "callback", Kind: args.KindCallback, Accept: isIndexesCallback},
		},
	}
}

func (g *Graph) listIndexes(raw []any, op string, resource transport.Resource) error {
	v, err := args.Parse(raw, listIndexesFormat(op))
	if err != nil {
		return err
	}
	cb := v["callback"].(IndexesCallback)
	req := transport.Request{Verb: transport.VerbGet, Endpoint: transport.Literal(resource)}
	return g.router.Dispatch(dispatch.ExecFor(v.Batch("batch")), req, func(body any, err error) {
		if err != nil {
			cb(nil, err)
			return
		}
		switch indexes := body.(type) {
		case nil:
			// the server answers 204 with no body when there are no indexes
			cb(map[string]any{}, nil)
		case map[string]any:
			cb(indexes, nil)
		default:
			cb(nil, fmt.Errorf("%s: unexpected index listing %T", op, body))
		}
	})
}
