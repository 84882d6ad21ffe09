// Package entity holds the typed graph values produced from the REST JSON
// representation: nodes, relationships and paths.
package entity

import (
	"strconv"
	"strings"
)

// UnknownID marks an entity whose self link carried no numeric id.
const UnknownID int64 = -1

// Entity is implemented by *Node, *Relationship and *Path only.
type Entity interface {
	entity()
}

// Node is a graph vertex.
type Node struct {
	ID     int64          `json:"id"`
	Self   string         `json:"self"`
	Data   map[string]any `json:"data"`
	Labels []string       `json:"labels,omitempty"`
}

// Relationship is a graph edge. Start and End are the self links of its endpoints.
type Relationship struct {
	ID      int64          `json:"id"`
	Self    string         `json:"self"`
	Type    string         `json:"type"`
	Data    map[string]any `json:"data"`
	Start   string         `json:"start"`
	End     string         `json:"end"`
	StartID int64          `json:"start_id"`
	EndID   int64          `json:"end_id"`
}

// Path is a traversal result. It has no identity of its own; Key gives a
// comparable value built from its members.
type Path struct {
	Start         string   `json:"start"`
	End           string   `json:"end"`
	Nodes         []string `json:"nodes"`
	Relationships []string `json:"relationships"`
	Length        int      `json:"length"`
}

func (*Node) entity()         {}
func (*Relationship) entity() {}
func (*Path) entity()         {}

// NewNode builds a Node from its raw JSON form. Missing or mistyped fields are
// left zero; a non-object input yields an empty Node.
func NewNode(raw any) *Node {
	obj, _ := raw.(map[string]any)
	n := &Node{
		Self: stringField(obj, "self"),
		Data: objectField(obj, "data"),
	}
	n.ID = idFromURL(n.Self)
	if meta := objectField(obj, "metadata"); meta != nil {
		if id, ok := numberField(meta, "id"); ok {
			n.ID = id
		}
		n.Labels = stringList(meta["labels"])
	}
	return n
}

// NewRelationship builds a Relationship from its raw JSON form.
func NewRelationship(raw any) *Relationship {
	obj, _ := raw.(map[string]any)
	r := &Relationship{
		Self:  stringField(obj, "self"),
		Type:  stringField(obj, "type"),
		Data:  objectField(obj, "data"),
		Start: stringField(obj, "start"),
		End:   stringField(obj, "end"),
	}
	r.ID = idFromURL(r.Self)
	r.StartID = idFromURL(r.Start)
	r.EndID = idFromURL(r.End)
	if meta := objectField(obj, "metadata"); meta != nil {
		if id, ok := numberField(meta, "id"); ok {
			r.ID = id
		}
		if t, ok := meta["type"].(string); ok && r.Type == "" {
			r.Type = t
		}
	}
	return r
}

// NewPath builds a Path from its raw JSON form.
func NewPath(raw any) *Path {
	obj, _ := raw.(map[string]any)
	p := &Path{
		Start:         stringField(obj, "start"),
		End:           stringField(obj, "end"),
		Nodes:         stringList(obj["nodes"]),
		Relationships: stringList(obj["relationships"]),
	}
	if l, ok := numberField(obj, "length"); ok {
		p.Length = int(l)
	} else {
		p.Length = len(p.Relationships)
	}
	return p
}

// Key identifies the path by its ordered member links.
func (p *Path) Key() string {
	var b strings.Builder
	for i, n := range p.Nodes {
		if i > 0 {
			b.WriteByte('>')
		}
		b.WriteString(strconv.FormatInt(idFromURL(n), 10))
	}
	b.WriteByte('|')
	for i, r := range p.Relationships {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(idFromURL(r), 10))
	}
	return b.String()
}

func IsNode(v any) bool {
	_, ok := v.(*Node)
	return ok
}

func IsRelationship(v any) bool {
	_, ok := v.(*Relationship)
	return ok
}

func IsPath(v any) bool {
	_, ok := v.(*Path)
	return ok
}

// ParseID extracts the trailing numeric segment of a self link.
func ParseID(url string) (int64, bool) {
	url = strings.TrimRight(url, "/")
	idx := strings.LastIndexByte(url, '/')
	id, err := strconv.ParseInt(url[idx+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func idFromURL(url string) int64 {
	if id, ok := ParseID(url); ok {
		return id
	}
	return UnknownID
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func objectField(obj map[string]any, key string) map[string]any {
	m, _ := obj[key].(map[string]any)
	return m
}

func numberField(obj map[string]any, key string) (int64, bool) {
	switch v := obj[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
