package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vanshika/graphlink/internal/logging"
	"github.com/vanshika/graphlink/internal/transport"
)

// APIHandlers serves the legacy REST protocol on top of a transport, normally
// the Bolt one.
type APIHandlers struct {
	logger    *zap.Logger
	transport transport.Transport
	publicURL string
}

// NewAPIHandlers constructs an APIHandlers instance. publicURL is the service
// root advertised to clients; when empty it is derived from each request.
func NewAPIHandlers(logger *zap.Logger, t transport.Transport, publicURL string) *APIHandlers {
	logger = logging.OrNop(logger)
	if publicURL != "" && !strings.HasSuffix(publicURL, "/") {
		publicURL += "/"
	}
	return &APIHandlers{
		logger:    logger,
		transport: t,
		publicURL: publicURL,
	}
}

const protocolVersion = "1.9"

func (h *APIHandlers) serviceRoot(c *gin.Context) {
	base := h.baseURL(c)
	c.JSON(http.StatusOK, gin.H{
		string(transport.ResourceNode):              base + "node",
		string(transport.ResourceRelationship):      base + "relationship",
		string(transport.ResourceNodeIndex):         base + "index/node",
		string(transport.ResourceRelationshipIndex): base + "index/relationship",
		string(transport.ResourceBatch):             base + "batch",
		string(transport.ResourceCypher):            base + "cypher",
		"neo4j_version":                             protocolVersion,
	})
}

type cypherRequest struct {
	Query  string         `json:"query" binding:"required"`
	Params map[string]any `json:"params"`
}

func (h *APIHandlers) cypher(c *gin.Context) {
	var request cypherRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		writeError(c, http.StatusBadRequest, "BadInputException", "invalid cypher payload: "+err.Error())
		return
	}
	if request.Params == nil {
		request.Params = map[string]any{}
	}

	endpoint := transport.Literal(transport.ResourceCypher)
	if c.Query("profile") == "true" {
		endpoint = endpoint.WithQuery("profile=true")
	}
	h.forward(c, http.StatusOK, transport.Request{
		Verb:     transport.VerbPost,
		Endpoint: endpoint,
		Body:     map[string]any{"query": request.Query, "params": request.Params},
	})
}

func (h *APIHandlers) createNode(c *gin.Context) {
	props := map[string]any{}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&props); err != nil {
			writeError(c, http.StatusBadRequest, "BadInputException", "node properties must be a JSON object")
			return
		}
	}
	h.forward(c, http.StatusCreated, transport.Request{
		Verb:     transport.VerbPost,
		Endpoint: transport.Literal(transport.ResourceNode),
		Body:     props,
	})
}

// member returns a handler for GET or DELETE on resource/:id.
func (h *APIHandlers) member(verb string, resource transport.Resource) gin.HandlerFunc {
	status := http.StatusOK
	if verb == transport.VerbDelete {
		status = http.StatusNoContent
	}
	return func(c *gin.Context) {
		h.forward(c, status, transport.Request{
			Verb:     verb,
			Endpoint: transport.ResourcePath(resource, c.Param("id")),
		})
	}
}

func indexResource(kind string) (transport.Resource, bool) {
	switch kind {
	case "node":
		return transport.ResourceNodeIndex, true
	case "relationship":
		return transport.ResourceRelationshipIndex, true
	}
	return "", false
}

func (h *APIHandlers) indexes(c *gin.Context) {
	resource, ok := indexResource(c.Param("kind"))
	if !ok {
		writeError(c, http.StatusNotFound, "NotFoundException", "unknown index kind "+c.Param("kind"))
		return
	}

	switch c.Request.Method {
	case http.MethodGet:
		h.forward(c, http.StatusOK, transport.Request{Verb: transport.VerbGet, Endpoint: transport.Literal(resource)})
	case http.MethodPost:
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			writeError(c, http.StatusBadRequest, "BadInputException", "index definition must be a JSON object")
			return
		}
		h.forward(c, http.StatusCreated, transport.Request{Verb: transport.VerbPost, Endpoint: transport.Literal(resource), Body: body})
	case http.MethodDelete:
		h.forward(c, http.StatusNoContent, transport.Request{
			Verb:     transport.VerbDelete,
			Endpoint: transport.ResourcePath(resource, c.Param("name")),
		})
	default:
		methodNotAllowed(c, http.MethodGet, http.MethodPost, http.MethodDelete)
	}
}

type batchJob struct {
	Method string `json:"method" binding:"required"`
	To     string `json:"to" binding:"required"`
	Body   any    `json:"body"`
	ID     int    `json:"id"`
}

type batchReply struct {
	ID     int    `json:"id"`
	From   string `json:"from"`
	Status int    `json:"status"`
	Body   any    `json:"body,omitempty"`
}

func (h *APIHandlers) batch(c *gin.Context) {
	var jobs []batchJob
	if err := c.ShouldBindJSON(&jobs); err != nil {
		writeError(c, http.StatusBadRequest, "BadInputException", "batch must be a list of jobs: "+err.Error())
		return
	}

	reqs := make([]transport.Request, len(jobs))
	for i, job := range jobs {
		endpoint, err := transport.ParsePath(job.To)
		if err != nil {
			writeError(c, http.StatusBadRequest, "BadInputException", err.Error())
			return
		}
		reqs[i] = transport.Request{Verb: strings.ToUpper(job.Method), Endpoint: endpoint, Body: job.Body}
	}

	results, err := h.transport.DoBatch(c.Request.Context(), reqs)
	if err != nil {
		h.fail(c, err)
		return
	}

	replies := make([]batchReply, len(jobs))
	for i, job := range jobs {
		replies[i] = batchReply{ID: job.ID, From: job.To, Status: statusFor(reqs[i].Verb)}
		if i < len(results) {
			replies[i].Body = results[i].Body
		}
	}
	c.JSON(http.StatusOK, replies)
}

func statusFor(verb string) int {
	if verb == transport.VerbDelete {
		return http.StatusNoContent
	}
	return http.StatusOK
}

func (h *APIHandlers) forward(c *gin.Context, status int, req transport.Request) {
	body, err := h.transport.Do(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	if status == http.StatusNoContent || body == nil {
		c.Status(http.StatusNoContent)
		return
	}
	if status == http.StatusCreated {
		if obj, ok := body.(map[string]any); ok {
			if self, ok := obj["self"].(string); ok {
				c.Header("Location", self)
			}
		}
	}
	c.JSON(status, body)
}

func (h *APIHandlers) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	exception := "ServerError"

	var te *transport.Error
	if errors.As(err, &te) {
		if te.Status != 0 {
			status = te.Status
		}
		if te.Code != "" {
			exception = te.Code
		}
	}
	if errors.Is(err, transport.ErrUnsupported) {
		status = http.StatusNotImplemented
		exception = "UnsupportedOperationException"
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("graph request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	writeError(c, status, exception, err.Error())
}

func (h *APIHandlers) baseURL(c *gin.Context) string {
	if h.publicURL != "" {
		return h.publicURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + "/db/data/"
}

// writeError renders the legacy {message, exception} error shape.
func writeError(c *gin.Context, status int, exception, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"message":   msg,
		"exception": exception,
	})
}

func methodNotAllowed(c *gin.Context, allowed ...string) {
	c.Header("Allow", strings.Join(allowed, ", "))
	writeError(c, http.StatusMethodNotAllowed, "MethodNotAllowedException", "method not allowed")
}
