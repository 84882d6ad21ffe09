package graph

import (
	"fmt"

	"github.com/vanshika/graphlink/internal/args"
	"github.com/vanshika/graphlink/internal/dispatch"
	"github.com/vanshika/graphlink/internal/entity"
	"github.com/vanshika/graphlink/internal/transport"
)

var createNodeFormat = args.Format{
	Op: "createNode",
	Slots: []args.Slot{
		batchSlot,
		{Name: "data", Kind: args.KindObject},
		{Name: "callback", Kind: args.KindCallback, Accept: isNodeCallback},
	},
}

// CreateNode([batch], data, cb NodeCallback) creates a node with the given
// properties.
func (g *Graph) CreateNode(raw ...any) error {
	v, err := args.Parse(raw, createNodeFormat)
	if err != nil {
		return err
	}
	req := transport.Request{
		Verb:     transport.VerbPost,
		Endpoint: transport.Literal(transport.ResourceNode),
		Body:     v.Object("data"),
	}
	return g.router.Dispatch(dispatch.ExecFor(v.Batch("batch")), req, nodeCompletion(v["callback"].(NodeCallback)))
}

var getNodeFormat = args.Format{
	Op: "getNode",
	Slots: []args.Slot{
		batchSlot,
		{Name: "id", Kind: args.KindAny},
		{Name: "callback", Kind: args.KindCallback, Accept: isNodeCallback},
	},
}

// GetNode([batch], id, cb NodeCallback) fetches one node by raw id or handle.
func (g *Graph) GetNode(raw ...any) error {
	v, err := args.Parse(raw, getNodeFormat)
	if err != nil {
		return err
	}
	id, err := singleID(getNodeFormat.Op, transport.ResourceNode, v["id"])
	if err != nil {
		return err
	}
	req := transport.Request{Verb: transport.VerbGet, Endpoint: transport.ResourcePath(transport.ResourceNode, id)}
	return g.router.Dispatch(dispatch.ExecFor(v.Batch("batch")), req, nodeCompletion(v["callback"].(NodeCallback)))
}

var deleteNodeFormat = args.Format{
	Op: "deleteNode",
	Slots: []args.Slot{
		batchSlot,
		{Name: "id", Kind: args.KindAny},
		errorCallbackSlot,
	},
}

// DeleteNode([batch], id or ids, cb ErrorCallback) deletes one or more nodes.
// The callback receives the first failure.
func (g *Graph) DeleteNode(raw ...any) error {
	return g.deleteEach(raw, deleteNodeFormat, transport.ResourceNode)
}

var getRelationshipFormat = args.Format{
	Op: "getRelationship",
	Slots: []args.Slot{
		batchSlot,
		{Name: "id", Kind: args.KindAny},
		{Name: "callback", Kind: args.KindCallback, Accept: isRelationshipCallback},
	},
}

// GetRelationship([batch], id, cb RelationshipCallback) fetches one
// relationship by raw id or handle.
func (g *Graph) GetRelationship(raw ...any) error {
	v, err := args.Parse(raw, getRelationshipFormat)
	if err != nil {
		return err
	}
	id, err := singleID(getRelationshipFormat.Op, transport.ResourceRelationship, v["id"])
	if err != nil {
		return err
	}
	cb := v["callback"].(RelationshipCallback)
	req := transport.Request{Verb: transport.VerbGet, Endpoint: transport.ResourcePath(transport.ResourceRelationship, id)}
	return g.router.Dispatch(dispatch.ExecFor(v.Batch("batch")), req, func(body any, err error) {
		if err != nil {
			cb(nil, err)
			return
		}
		cb(entity.NewRelationship(body), nil)
	})
}

var deleteRelationshipFormat = args.Format{
	Op: "deleteRelationship",
	Slots: []args.Slot{
		batchSlot,
		{Name: "id", Kind: args.KindAny},
		errorCallbackSlot,
	},
}

// DeleteRelationship([batch], id or ids, cb ErrorCallback) deletes one or more
// relationships.
func (g *Graph) DeleteRelationship(raw ...any) error {
	return g.deleteEach(raw, deleteRelationshipFormat, transport.ResourceRelationship)
}

func (g *Graph) deleteEach(raw []any, f args.Format, resource transport.Resource) error {
	v, err := args.Parse(raw, f)
	if err != nil {
		return err
	}
	ids, err := dispatch.ResolveIDs(resource, v["id"])
	if err != nil {
		return idError(f.Op, err)
	}
	cb := v["callback"].(ErrorCallback)
	return g.router.DispatchEach(dispatch.ExecFor(v.Batch("batch")), transport.VerbDelete, resource, ids, nil, errorOnly(cb))
}

func nodeCompletion(cb NodeCallback) dispatch.Completion {
	return func(body any, err error) {
		if err != nil {
			cb(nil, err)
			return
		}
		cb(entity.NewNode(body), nil)
	}
}

func singleID(op string, resource transport.Resource, id any) (string, error) {
	ids, err := dispatch.ResolveIDs(resource, id)
	if err != nil {
		return "", idError(op, err)
	}
	if len(ids) != 1 {
		return "", &args.ValidationError{Op: op, Slot: "id", Reason: fmt.Sprintf("takes a single id, got %d", len(ids))}
	}
	return ids[0], nil
}

func idError(op string, err error) error {
	return &args.ValidationError{Op: op, Slot: "id", Reason: err.Error()}
}
