package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vanshika/graphlink/internal/logging"
)

// RESTOptions configures a RESTTransport.
type RESTOptions struct {
	// BaseURL is the service root, e.g. http://localhost:7474/db/data/.
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
	Logger  *zap.Logger
}

// ErrMissingBaseURL indicates RESTOptions.BaseURL is empty.
var ErrMissingBaseURL = errors.New("rest base URL is required")

// RESTTransport speaks the legacy REST protocol over HTTP.
type RESTTransport struct {
	base   *url.URL
	client *http.Client
	logger *zap.Logger

	mu        sync.RWMutex
	endpoints map[Resource]string
}

// NewRESTTransport validates opts and builds the transport. It does not
// contact the server; call Discover for that.
func NewRESTTransport(opts RESTOptions) (*RESTTransport, error) {
	if opts.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	logger := logging.OrNop(opts.Logger)

	return &RESTTransport{
		base:      base,
		client:    client,
		logger:    logger,
		endpoints: make(map[Resource]string),
	}, nil
}

// Discover reads the service root and remembers the advertised endpoint URLs.
func (t *RESTTransport) Discover(ctx context.Context) error {
	req := Request{Verb: VerbGet}
	body, err := t.send(ctx, req, t.base.String(), nil)
	if err != nil {
		return err
	}
	root, ok := body.(map[string]any)
	if !ok {
		return &Error{Verb: VerbGet, Path: t.base.String(), Message: "service root is not an object"}
	}

	found := make(map[Resource]string)
	for r := range defaultPaths {
		if s, ok := root[string(r)].(string); ok && s != "" {
			found[r] = strings.TrimSuffix(s, "/")
		}
	}

	t.mu.Lock()
	t.endpoints = found
	t.mu.Unlock()

	t.logger.Debug("discovered service root", zap.Int("endpoints", len(found)), zap.Any("version", root["neo4j_version"]))
	return nil
}

func (t *RESTTransport) Do(ctx context.Context, req Request) (any, error) {
	return t.send(ctx, req, t.resolve(req.Endpoint), req.Body)
}

type batchJob struct {
	Method string `json:"method"`
	To     string `json:"to"`
	Body   any    `json:"body,omitempty"`
	ID     int    `json:"id"`
}

type batchReply struct {
	ID     int    `json:"id"`
	From   string `json:"from"`
	Status int    `json:"status"`
	Body   any    `json:"body"`
}

func (t *RESTTransport) DoBatch(ctx context.Context, reqs []Request) ([]StepResult, error) {
	jobs := make([]batchJob, len(reqs))
	for i, r := range reqs {
		jobs[i] = batchJob{Method: r.Verb, To: "/" + r.Endpoint.Path(), Body: r.Body, ID: i}
	}

	batchReq := Request{Verb: VerbPost, Endpoint: Literal(ResourceBatch)}
	body, err := t.send(ctx, batchReq, t.resolve(batchReq.Endpoint), jobs)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("re-encode batch reply: %w", err)
	}
	var replies []batchReply
	if err := json.Unmarshal(raw, &replies); err != nil {
		return nil, &Error{Verb: batchReq.Verb, Path: batchReq.Endpoint.Path(), Message: "malformed batch reply", Err: err}
	}

	out := make([]StepResult, len(reqs))
	seen := make([]bool, len(reqs))
	for _, rep := range replies {
		if rep.ID < 0 || rep.ID >= len(reqs) {
			continue
		}
		seen[rep.ID] = true
		if rep.Status >= http.StatusBadRequest {
			out[rep.ID] = StepResult{Err: errorFromBody(reqs[rep.ID], rep.Status, rep.Body)}
			continue
		}
		out[rep.ID] = StepResult{Body: rep.Body}
	}
	for i, ok := range seen {
		if !ok {
			out[i] = StepResult{Err: &Error{Verb: reqs[i].Verb, Path: reqs[i].Endpoint.Path(), Message: "no reply for batch step"}}
		}
	}
	return out, nil
}

func (t *RESTTransport) resolve(e Endpoint) string {
	t.mu.RLock()
	advertised, ok := t.endpoints[e.Resource]
	t.mu.RUnlock()

	if !ok {
		ref := &url.URL{Path: e.collectionPath(), RawQuery: e.Query}
		if e.ID != "" {
			ref.Path += "/" + e.ID
			ref.RawPath = e.collectionPath() + "/" + url.PathEscape(e.ID)
		}
		return t.base.ResolveReference(ref).String()
	}
	u := advertised
	if e.ID != "" {
		u += "/" + url.PathEscape(e.ID)
	}
	if e.Query != "" {
		u += "?" + e.Query
	}
	return u
}

func (t *RESTTransport) send(ctx context.Context, req Request, target string, payload any) (any, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", req, err)
		}
		reader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Verb, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", req, err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-Id", requestID)
	if reader != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		t.logger.Error("graph request failed", zap.String("request", req.String()), zap.String("request_id", requestID), zap.Error(err))
		return nil, &Error{Verb: req.Verb, Path: req.Endpoint.Path(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Verb: req.Verb, Path: req.Endpoint.Path(), Status: resp.StatusCode, Err: err}
	}

	var body any
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, &Error{Verb: req.Verb, Path: req.Endpoint.Path(), Status: resp.StatusCode, Message: "invalid JSON response", Err: err}
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		te := errorFromBody(req, resp.StatusCode, body)
		t.logger.Error("graph request rejected",
			zap.String("request", req.String()),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.String("message", te.Message),
		)
		return nil, te
	}
	return body, nil
}
