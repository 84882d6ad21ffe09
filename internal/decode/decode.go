// Package decode turns the tabular JSON returned by a cypher call into typed
// records. Each column is classified once, from the first row, as scalar,
// node, relationship or path, and every row is decoded by that classification.
package decode

import (
	"encoding/json"
	"fmt"

	"github.com/vanshika/graphlink/internal/entity"
)

// Kind is the classification of one result column.
type Kind int

const (
	KindScalar Kind = iota
	KindNode
	KindRelationship
	KindPath
)

func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindRelationship:
		return "relationship"
	case KindPath:
		return "path"
	default:
		return "scalar"
	}
}

// Classify reports the kind of v. The checks run in a fixed order: a
// relationship is a node shape with a start field, so it must be tested
// before node.
func Classify(v any) Kind {
	obj, ok := v.(map[string]any)
	if !ok {
		return KindScalar
	}
	if isString(obj["self"]) && isObject(obj["data"]) {
		if isString(obj["start"]) {
			return KindRelationship
		}
		return KindNode
	}
	if isString(obj["start"]) && isString(obj["end"]) && isCollection(obj["nodes"]) {
		return KindPath
	}
	return KindScalar
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isObject(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

func isCollection(v any) bool {
	switch v.(type) {
	case []any, map[string]any:
		return true
	}
	return false
}

// Error reports a response that cannot be decoded into records. Row is -1
// when the problem is not tied to a row.
type Error struct {
	Row    int
	Reason string
}

func (e *Error) Error() string {
	if e.Row < 0 {
		return "decode: " + e.Reason
	}
	return fmt.Sprintf("decode: row %d: %s", e.Row, e.Reason)
}

// Response is the raw cypher reply.
type Response struct {
	Columns []string
	Data    [][]any
	Plan    any
}

// FromBody reads a Response out of a parsed JSON body of the shape
// {columns: [...], data: [[...]], plan?: {...}}. A nil body is an empty
// response.
func FromBody(body any) (Response, error) {
	if body == nil {
		return Response{}, nil
	}
	obj, ok := body.(map[string]any)
	if !ok {
		return Response{}, &Error{Row: -1, Reason: fmt.Sprintf("expected an object, got %T", body)}
	}
	_, hasColumns := obj["columns"]
	_, hasData := obj["data"]
	if !hasColumns && !hasData {
		return Response{}, &Error{Row: -1, Reason: "object has neither columns nor data"}
	}

	var resp Response
	if raw, ok := obj["columns"]; ok && raw != nil {
		cols, ok := raw.([]any)
		if !ok {
			return Response{}, &Error{Row: -1, Reason: fmt.Sprintf("columns must be a list, got %T", raw)}
		}
		resp.Columns = make([]string, len(cols))
		for i, c := range cols {
			name, ok := c.(string)
			if !ok {
				return Response{}, &Error{Row: -1, Reason: fmt.Sprintf("column %d is not a string", i)}
			}
			resp.Columns[i] = name
		}
	}
	if raw, ok := obj["data"]; ok && raw != nil {
		rows, ok := raw.([]any)
		if !ok {
			return Response{}, &Error{Row: -1, Reason: fmt.Sprintf("data must be a list, got %T", raw)}
		}
		resp.Data = make([][]any, len(rows))
		for i, r := range rows {
			row, ok := r.([]any)
			if !ok {
				return Response{}, &Error{Row: i, Reason: fmt.Sprintf("expected a list, got %T", r)}
			}
			resp.Data[i] = row
		}
	}
	resp.Plan = obj["plan"]
	return resp, nil
}

// Record is one decoded row keyed by column name.
type Record map[string]any

// ResultSet is a decoded cypher reply.
type ResultSet struct {
	Columns []string
	Records []Record
	// Plan is the execution plan of a profiled query, nil otherwise.
	Plan  any
	kinds []Kind
}

func (rs *ResultSet) Len() int { return len(rs.Records) }

// Kinds returns the column classifications, or nil when there were no rows to
// classify.
func (rs *ResultSet) Kinds() []Kind {
	if rs.kinds == nil {
		return nil
	}
	return append([]Kind(nil), rs.kinds...)
}

// MarshalJSON renders the decoded records, keeping the column order.
func (rs *ResultSet) MarshalJSON() ([]byte, error) {
	out := struct {
		Columns []string `json:"columns"`
		Records []Record `json:"records"`
		Plan    any      `json:"plan,omitempty"`
	}{Columns: rs.Columns, Records: rs.Records, Plan: rs.Plan}
	if out.Columns == nil {
		out.Columns = []string{}
	}
	return json.Marshal(out)
}

// Decode builds a ResultSet from resp. Rows whose length differs from the
// column count fail the whole decode.
func Decode(resp Response) (*ResultSet, error) {
	rs := &ResultSet{
		Columns: resp.Columns,
		Records: make([]Record, 0, len(resp.Data)),
		Plan:    resp.Plan,
	}
	if len(resp.Data) == 0 {
		return rs, nil
	}

	for i, row := range resp.Data {
		if len(row) != len(resp.Columns) {
			return nil, &Error{
				Row:    i,
				Reason: fmt.Sprintf("has %d values for %d columns", len(row), len(resp.Columns)),
			}
		}
	}

	rs.kinds = make([]Kind, len(resp.Columns))
	for col, v := range resp.Data[0] {
		rs.kinds[col] = Classify(v)
	}

	for _, row := range resp.Data {
		rec := make(Record, len(resp.Columns))
		for col, name := range resp.Columns {
			rec[name] = materialize(rs.kinds[col], row[col])
		}
		rs.Records = append(rs.Records, rec)
	}
	return rs, nil
}

// DecodeBody is FromBody followed by Decode.
func DecodeBody(body any) (*ResultSet, error) {
	resp, err := FromBody(body)
	if err != nil {
		return nil, err
	}
	return Decode(resp)
}

func materialize(k Kind, v any) any {
	if v == nil {
		return nil
	}
	switch k {
	case KindNode:
		return entity.NewNode(v)
	case KindRelationship:
		return entity.NewRelationship(v)
	case KindPath:
		return entity.NewPath(v)
	default:
		return v
	}
}
