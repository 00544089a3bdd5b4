// Package httpapi exposes a running solve over REST and WebSocket: a
// status/stats endpoint a caller can poll, and a live event feed for
// subscribers who want push updates as the solve iterates.
//
// Grounded on darkdragonsastro-draco-simulator's internal/api/rest
// (gin router/server shape, healthCheck, CORS middleware) and
// internal/api/websocket's hub (gorilla/websocket connection
// management, broadcast channel, typed Message envelope).
package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/soypat/gorad"
	"github.com/soypat/gorad/solve"
)

// Server holds the HTTP server and the solve it reports on.
type Server struct {
	router *gin.Engine
	engine *solve.Engine
	hub    *Hub
}

// Config holds server configuration (draco-simulator's rest.Config).
type Config struct {
	Address string
	Debug   bool
}

// NewServer builds a gin router exposing engine's progress, plus a
// WebSocket hub for push updates. Run the hub's loop with a context the
// caller controls (Hub.Run) before serving requests that subscribe to
// it.
func NewServer(cfg Config, engine *solve.Engine) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		router: gin.New(),
		engine: engine,
		hub:    NewHub(),
	}
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.setupRoutes()
	return s
}

// Hub returns the server's WebSocket hub, so the caller can run it and
// push Step-by-step progress events (EventSolveProgress, ...).
func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) setupRoutes() {
	api := s.router.Group("/api/v1")
	api.GET("/health", s.healthCheck)

	solveGroup := api.Group("/solve")
	{
		solveGroup.GET("/stats", s.getStats)
		solveGroup.POST("/step", s.step)
		solveGroup.GET("/radiance/:id", s.getRadiance)
	}

	api.GET("/ws", gin.WrapF(s.hub.HandleWebSocket))
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run starts the HTTP server.
func (s *Server) Run(addr string) error { return s.router.Run(addr) }

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Stats())
}

// step runs one refinement-and-transport pass and broadcasts the
// resulting stats to WebSocket subscribers, so a client can drive the
// solve interactively instead of letting it run to completion
// unattended.
func (s *Server) step(c *gin.Context) {
	status := s.engine.Step()
	stats := s.engine.Stats()
	s.hub.Broadcast(EventSolveProgress, stats)
	if status == solve.Done {
		s.hub.Broadcast(EventSolveDone, stats)
	}
	c.JSON(http.StatusOK, gin.H{
		"done":  status == solve.Done,
		"stats": stats,
	})
}

type radianceQuery struct {
	U float32 `form:"u"`
	V float32 `form:"v"`
}

func (s *Server) getRadiance(c *gin.Context) {
	raw, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid element id"})
		return
	}
	var q radianceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rad := s.engine.RadianceAt(gorad.ElementID(raw), q.U, q.V)
	c.JSON(http.StatusOK, rad)
}
