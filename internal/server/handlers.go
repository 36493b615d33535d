package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"debatepad/internal/generate"
	"debatepad/internal/model"
	"debatepad/internal/store"
)

type createTopicRequest struct {
	Title string `json:"title" binding:"required"`
}

type addArgumentRequest struct {
	Point           string   `json:"point" binding:"required"`
	SupportingFacts []string `json:"supporting_facts"`
	Side            string   `json:"side" binding:"required"`
}

type generateRequest struct {
	Topic string `json:"topic" binding:"required"`
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": Banner})
}

func (s *Server) handleListTopics(c *gin.Context) {
	topics, err := s.store.ListTopics(c.Request.Context())
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, topics)
}

func (s *Server) handleCreateTopic(c *gin.Context) {
	var req createTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	t, err := s.store.CreateTopic(c.Request.Context(), req.Title)
	if err != nil {
		s.storeError(c, err)
		return
	}
	s.log.Info("topic created", "topic", t.ID)
	c.JSON(http.StatusOK, t)
}

func (s *Server) handleGetTopic(c *gin.Context) {
	t, err := s.store.GetTopic(c.Request.Context(), c.Param("topicId"))
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) handleDeleteTopic(c *gin.Context) {
	if err := s.store.DeleteTopic(c.Request.Context(), c.Param("topicId")); err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Topic deleted successfully"})
}

func (s *Server) handleAddArgument(c *gin.Context) {
	var req addArgumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	side := model.Side(req.Side)
	if !side.Valid() {
		detail(c, http.StatusBadRequest, "Side must be 'for' or 'against'")
		return
	}
	t, err := s.store.AddArgument(c.Request.Context(), c.Param("topicId"), side, req.Point, req.SupportingFacts)
	if err != nil {
		s.storeError(c, err)
		return
	}
	s.metrics.argumentsAdded.WithLabelValues(string(side)).Inc()
	c.JSON(http.StatusOK, t)
}

func (s *Server) handleDeleteArgument(c *gin.Context) {
	err := s.store.DeleteArgument(c.Request.Context(), c.Param("topicId"), c.Param("argumentId"))
	if err != nil {
		s.storeError(c, err)
		return
	}
	s.metrics.argumentsDeleted.Inc()
	c.JSON(http.StatusOK, gin.H{"message": "Argument deleted successfully"})
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	title := strings.TrimSpace(req.Topic)
	if title == "" {
		detail(c, http.StatusBadRequest, "Topic is required")
		return
	}

	batch, err := s.gen.Suggest(c.Request.Context(), title)
	if err == nil {
		err = batch.Validate()
		if err != nil {
			err = errors.Join(generate.ErrMalformed, err)
		}
	}
	if err != nil {
		s.metrics.suggestions.WithLabelValues(s.gen.Name(), "error").Inc()
		s.log.Error("generate suggestions failed", "generator", s.gen.Name(), "error", err)
		status := http.StatusBadGateway
		if errors.Is(err, generate.ErrUnavailable) {
			status = http.StatusServiceUnavailable
		}
		detail(c, status, "Failed to generate arguments")
		return
	}
	s.metrics.suggestions.WithLabelValues(s.gen.Name(), "ok").Inc()
	if batch.Topic == "" {
		batch.Topic = title
	}
	c.JSON(http.StatusOK, batch)
}

func (s *Server) storeError(c *gin.Context, err error) {
	var nf store.NotFoundError
	switch {
	case errors.As(err, &nf):
		if nf.Kind == "argument" {
			detail(c, http.StatusNotFound, "Argument not found")
			return
		}
		detail(c, http.StatusNotFound, "Topic not found")
	case errors.Is(err, store.ErrNotFound):
		detail(c, http.StatusNotFound, "Topic not found")
	case errors.Is(err, store.ErrInvalid):
		detail(c, http.StatusBadRequest, strings.TrimPrefix(err.Error(), store.ErrInvalid.Error()+": "))
	default:
		s.log.Error("store failure", "path", c.Request.URL.Path, "error", err)
		detail(c, http.StatusInternalServerError, "Internal server error")
	}
}

func detail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}
