// Package server is the reference HTTP backend for debatepad: the authoritative store of
// topics and arguments behind /api.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"debatepad/internal/generate"
	"debatepad/internal/store"
)

const Banner = "Debate Prep Pad API"

type Options struct {
	// CORSOrigins defaults to allowing every origin.
	CORSOrigins []string
	// Registry receives the server metrics; a private registry is created when nil.
	Registry *prometheus.Registry
}

type Server struct {
	store   store.TopicStore
	gen     generate.Generator
	log     *slog.Logger
	metrics *metrics
	router  *gin.Engine
}

func New(st store.TopicStore, gen generate.Generator, log *slog.Logger, opt Options) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if gen == nil {
		gen = generate.Static{}
	}
	reg := opt.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	s := &Server{store: st, gen: gen, log: log, metrics: newMetrics(reg)}

	r := gin.New()
	r.Use(recoverer(log), requestLogger(log, s.metrics))
	r.Use(cors.New(corsConfig(opt.CORSOrigins)))

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.GET("/", s.handleRoot)
	api.GET("/topics", s.handleListTopics)
	api.POST("/topics", s.handleCreateTopic)
	api.GET("/topics/:topicId", s.handleGetTopic)
	api.DELETE("/topics/:topicId", s.handleDeleteTopic)
	api.POST("/topics/:topicId/arguments", s.handleAddArgument)
	api.DELETE("/topics/:topicId/arguments/:argumentId", s.handleDeleteArgument)
	api.POST("/generate-arguments", s.handleGenerate)

	s.router = r
	return s
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()
	s.log.Info("server listening", "addr", addr, "generator", s.gen.Name())

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("server shutting down")
		return hs.Shutdown(shutdownCtx)
	}
}
