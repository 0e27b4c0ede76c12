package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/heysubinoy/minidis/internal/protocol"
	"github.com/heysubinoy/minidis/internal/store"
)

// Server exposes the command set over HTTP. Every route builds one Command,
// hands it to the executor and writes the Response JSON.
type Server struct {
	exec    protocol.Executor
	metrics *store.InstrumentedStore
	logger  hclog.Logger
}

// NewServer creates a new HTTP server. metrics may be nil, in which case
// /metrics is not registered.
func NewServer(exec protocol.Executor, metrics *store.InstrumentedStore, logger hclog.Logger) *Server {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Server{
		exec:    exec,
		metrics: metrics,
		logger:  logger,
	}
}

// Handler builds the gin engine with middleware and all routes registered.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		requestid.New(),
		requestLogger(s.logger),
		gzip.Gzip(gzip.DefaultCompression),
	)
	s.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers all HTTP handlers on the given router.
func (s *Server) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", s.handleHealth)
	if s.metrics != nil {
		r.GET("/metrics", metricsHandler(s.metrics))
	}

	api := r.Group("/api")
	api.GET("/get", s.handleGet)
	api.POST("/set", s.handleSet)
	api.DELETE("/del", s.handleDel)
	api.GET("/exists", s.handleExists)
	api.GET("/keys", s.handleKeys)
	api.DELETE("/flush", s.handleFlush)
	api.GET("/size", s.handleSize)
	api.GET("/ping", s.handlePing)
	api.POST("/command", s.handleCommand)
}

// handleGet handles GET /api/get?key=foo.
// Responds with the value as a JSON string, or null if the key is absent.
func (s *Server) handleGet(c *gin.Context) {
	key, ok := requireKey(c)
	if !ok {
		return
	}
	s.execute(c, protocol.Get{Key: key})
}

type setRequest struct {
	Key   *string `json:"key" binding:"required"`
	Value *string `json:"value" binding:"required"`
}

// handleSet handles POST /api/set with a JSON body.
// Expects: {"key": "foo", "value": "bar"}
func (s *Server) handleSet(c *gin.Context) {
	var req setRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, protocol.Failure{Message: "invalid body: " + err.Error()})
		return
	}
	s.execute(c, protocol.Set{Key: *req.Key, Value: *req.Value})
}

// handleDel handles DELETE /api/del?key=foo.
func (s *Server) handleDel(c *gin.Context) {
	key, ok := requireKey(c)
	if !ok {
		return
	}
	s.execute(c, protocol.Del{Key: key})
}

// handleExists handles GET /api/exists?key=foo.
func (s *Server) handleExists(c *gin.Context) {
	key, ok := requireKey(c)
	if !ok {
		return
	}
	s.execute(c, protocol.Exists{Key: key})
}

func (s *Server) handleKeys(c *gin.Context)  { s.execute(c, protocol.Keys{}) }
func (s *Server) handleFlush(c *gin.Context) { s.execute(c, protocol.Flush{}) }
func (s *Server) handleSize(c *gin.Context)  { s.execute(c, protocol.Size{}) }
func (s *Server) handlePing(c *gin.Context)  { s.execute(c, protocol.Ping{}) }

// handleCommand handles POST /api/command with a structured command body,
// e.g. {"command": "GET", "args": {"key": "foo"}}.
func (s *Server) handleCommand(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, protocol.Failure{Message: "failed to read body"})
		return
	}

	cmd, err := protocol.DecodeCommand(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, protocol.FailureFrom(err))
		return
	}
	s.execute(c, cmd)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) execute(c *gin.Context, cmd protocol.Command) {
	resp := s.exec.Execute(cmd)

	status := http.StatusOK
	if f, ok := resp.(protocol.Failure); ok {
		status = http.StatusInternalServerError
		s.logger.Error("command failed", "command", cmd.Name(), "error", f.Message, "request_id", requestid.Get(c))
	}
	c.JSON(status, resp)
}

// requireKey returns the key query parameter. An empty value is a valid key;
// only a missing parameter is rejected.
func requireKey(c *gin.Context) (string, bool) {
	key, ok := c.GetQuery("key")
	if !ok {
		c.JSON(http.StatusBadRequest, protocol.Failure{Message: "missing key parameter"})
		return "", false
	}
	return key, true
}

// requestLogger logs every request through hclog, tagged with its request id.
func requestLogger(logger hclog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rlog := logger.With(
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"client_ip", c.ClientIP(),
			"request_id", requestid.Get(c),
		)

		start := time.Now()
		rlog.Debug("request started")
		c.Next()
		rlog.Info("request completed", "status", c.Writer.Status(), "duration", time.Since(start))
	}
}
