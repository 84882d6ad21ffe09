package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Transport performs the remote calls issued by the command layer. Bodies are
// the decoded JSON values of the REST protocol.
type Transport interface {
	// Do issues a single request and returns the parsed response body.
	Do(ctx context.Context, req Request) (any, error)
	// DoBatch executes reqs as one atomic unit. The returned slice has one
	// entry per request, in order.
	DoBatch(ctx context.Context, reqs []Request) ([]StepResult, error)
}

// Discoverer is implemented by transports that can re-read the service root.
type Discoverer interface {
	Discover(ctx context.Context) error
}

// Request is a normalized call: verb, endpoint and optional body.
type Request struct {
	Verb     string
	Endpoint Endpoint
	Body     any
}

func (r Request) String() string {
	return r.Verb + " " + r.Endpoint.Path()
}

// StepResult is one request's slice of a batch response.
type StepResult struct {
	Body any
	Err  error
}

const (
	VerbGet    = http.MethodGet
	VerbPost   = http.MethodPost
	VerbPut    = http.MethodPut
	VerbDelete = http.MethodDelete
)

// Resource names a family of endpoints. The values match the service root keys.
type Resource string

const (
	ResourceCypher            Resource = "cypher"
	ResourceNode              Resource = "node"
	ResourceRelationship      Resource = "relationship"
	ResourceNodeIndex         Resource = "node_index"
	ResourceRelationshipIndex Resource = "relationship_index"
	ResourceBatch             Resource = "batch"
)

var defaultPaths = map[Resource]string{
	ResourceCypher:            "cypher",
	ResourceNode:              "node",
	ResourceRelationship:      "relationship",
	ResourceNodeIndex:         "index/node",
	ResourceRelationshipIndex: "index/relationship",
	ResourceBatch:             "batch",
}

// Endpoint addresses a resource, optionally a single member of it, relative to
// the service root.
type Endpoint struct {
	Resource Resource
	ID       string
	Query    string
}

// Literal returns the collection endpoint of r.
func Literal(r Resource) Endpoint {
	return Endpoint{Resource: r}
}

// ResourcePath is the id-aware endpoint builder.
func ResourcePath(r Resource, id string) Endpoint {
	return Endpoint{Resource: r, ID: id}
}

// WithQuery returns a copy of e carrying the raw query string q.
func (e Endpoint) WithQuery(q string) Endpoint {
	e.Query = q
	return e
}

// collectionPath is the unescaped path of e's resource.
func (e Endpoint) collectionPath() string {
	if p, ok := defaultPaths[e.Resource]; ok {
		return p
	}
	return string(e.Resource)
}

// Path renders e relative to the service root, e.g. "node/12". The id is
// path-escaped, so an index name containing "/" stays one segment.
func (e Endpoint) Path() string {
	p := e.collectionPath()
	if e.ID != "" {
		p += "/" + url.PathEscape(e.ID)
	}
	if e.Query != "" {
		p += "?" + e.Query
	}
	return p
}

// ParsePath is the inverse of Endpoint.Path. A leading slash and a
// "db/data/" prefix are ignored.
func ParsePath(path string) (Endpoint, error) {
	path = strings.TrimPrefix(path, "/")
	path = strings.TrimPrefix(path, "db/data/")

	var e Endpoint
	if i := strings.IndexByte(path, '?'); i >= 0 {
		e.Query = path[i+1:]
		path = path[:i]
	}
	path = strings.TrimSuffix(path, "/")

	// longest prefix wins so index/node is not read as a bare id under "index"
	var best Resource
	bestLen := -1
	for r, p := range defaultPaths {
		if (path == p || strings.HasPrefix(path, p+"/")) && len(p) > bestLen {
			best, bestLen = r, len(p)
		}
	}
	if bestLen < 0 {
		return Endpoint{}, fmt.Errorf("unknown endpoint %q", path)
	}
	id, err := url.PathUnescape(strings.TrimPrefix(strings.TrimPrefix(path, defaultPaths[best]), "/"))
	if err != nil {
		return Endpoint{}, fmt.Errorf("endpoint %q: %w", path, err)
	}
	e.Resource = best
	e.ID = id
	return e, nil
}
