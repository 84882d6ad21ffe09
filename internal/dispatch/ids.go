package dispatch

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/vanshika/graphlink/internal/entity"
	"github.com/vanshika/graphlink/internal/transport"
)

// ErrInvalidID is wrapped by every ResolveIDs failure.
var ErrInvalidID = errors.New("invalid id")

// ResolveIDs turns id into the raw ids used in resource paths. id may be a raw
// id (integer or numeric string), an entity handle matching resource, or a
// slice mixing both.
func ResolveIDs(resource transport.Resource, id any) ([]string, error) {
	var items []any
	switch list := id.(type) {
	case []any:
		items = list
	case []string:
		for _, v := range list {
			items = append(items, v)
		}
	case []int64:
		for _, v := range list {
			items = append(items, v)
		}
	case []int:
		for _, v := range list {
			items = append(items, v)
		}
	case []*entity.Node:
		for _, v := range list {
			items = append(items, v)
		}
	case []*entity.Relationship:
		for _, v := range list {
			items = append(items, v)
		}
	default:
		items = []any{id}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty id list", ErrInvalidID)
	}

	out := make([]string, len(items))
	for i, item := range items {
		raw, err := resolveOne(resource, item)
		if err != nil {
			return nil, err
		}
		out[i] = raw
	}
	return out, nil
}

func resolveOne(resource transport.Resource, v any) (string, error) {
	switch id := v.(type) {
	case int:
		return checkRaw(int64(id))
	case int64:
		return checkRaw(id)
	case float64:
		if id != math.Trunc(id) {
			return "", fmt.Errorf("%w: %v is not an integer", ErrInvalidID, id)
		}
		return checkRaw(int64(id))
	case string:
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
		}
		return checkRaw(n)
	case *entity.Node:
		if resource != transport.ResourceNode {
			return "", fmt.Errorf("%w: node handle given for %s", ErrInvalidID, resource)
		}
		if id == nil {
			return "", fmt.Errorf("%w: nil node", ErrInvalidID)
		}
		return checkRaw(id.ID)
	case *entity.Relationship:
		if resource != transport.ResourceRelationship {
			return "", fmt.Errorf("%w: relationship handle given for %s", ErrInvalidID, resource)
		}
		if id == nil {
			return "", fmt.Errorf("%w: nil relationship", ErrInvalidID)
		}
		return checkRaw(id.ID)
	}
	return "", fmt.Errorf("%w: unsupported type %T", ErrInvalidID, v)
}

func checkRaw(id int64) (string, error) {
	if id < 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	return strconv.FormatInt(id, 10), nil
}
