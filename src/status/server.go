package status

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stake-plus/mission-agent/src/agent"
)

// Reporter is the slice of the agent the status server reads.
type Reporter interface {
	Snapshot() agent.Snapshot
}

// Server exposes agent health over HTTP.
type Server struct {
	srv    *http.Server
	logger *log.Logger
}

// New builds the status server. It does not start listening.
func New(addr string, reporter Reporter, logger *log.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(reporter, logger),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// NewRouter returns the gin engine serving /healthz and /status.
func NewRouter(reporter Reporter, logger *log.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	if logger != nil {
		r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
			Output:    logger.Writer(),
			SkipPaths: []string{"/healthz"},
		}))
	}
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type"},
		ExposeHeaders:   []string{"Content-Length"},
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/status", func(c *gin.Context) {
		snap := reporter.Snapshot()
		code := http.StatusOK
		if !snap.Running {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, snap)
	})
	return r
}

// Start listens in the background. Listen errors other than a clean shutdown
// are logged.
func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("http: %v", err)
		}
	}()
	s.logger.Printf("Status server listening on %s", s.srv.Addr)
}

// Shutdown stops the listener, waiting up to ctx for open requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
