package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jmylchreest/colordots/internal/grid"
	"github.com/jmylchreest/colordots/internal/pipeline"
	"github.com/jmylchreest/colordots/internal/render"
	"github.com/jmylchreest/colordots/internal/search"
	"github.com/jmylchreest/colordots/internal/seed"
	"github.com/jmylchreest/colordots/internal/version"
)

type searchRequest struct {
	Query    string `json:"query"`
	Sort     string `json:"sort"`
	Seed     *int64 `json:"seed"`
	SeedMode string `json:"seed_mode"`
}

type sortRequest struct {
	Sort string `json:"sort"`
	Seed *int64 `json:"seed"`
}

type seedRequest struct {
	Seed *int64 `json:"seed"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Short()})
}

func (s *Server) handleGrid(c *gin.Context) {
	s.withSession(c, func(*pipeline.Session) error { return nil })
}

func (s *Server) handleSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" && s.opts.Backend.Name() != "list" {
		respondError(c, http.StatusBadRequest, "query is required")
		return
	}

	mode := s.opts.DefaultSort
	if req.Sort != "" {
		parsed, err := grid.ParseSortMode(req.Sort)
		if err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		mode = parsed
	}

	seedCfg := seed.Config{Value: req.Seed}
	if req.SeedMode != "" {
		parsed, err := seed.ParseMode(req.SeedMode)
		if err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		seedCfg.Mode = parsed
	}

	// The pipeline runs without the lock so the current grid stays readable.
	session, err := s.opts.Pipeline.Search(c.Request.Context(), s.opts.Backend, pipeline.Request{
		Query: req.Query,
		Mode:  mode,
		Limit: s.opts.Limit,
		Seed:  seedCfg,
	})
	if err != nil {
		if search.IsBackendError(err) {
			respondError(c, http.StatusBadGateway, err.Error())
			return
		}
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	s.current = session
	payload := render.NewPayload(session)
	s.mu.Unlock()

	respondSuccess(c, http.StatusOK, payload, session.Summary())
}

func (s *Server) handleSort(c *gin.Context) {
	var req sortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	mode, err := grid.ParseSortMode(req.Sort)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	s.withSession(c, func(session *pipeline.Session) error {
		session.Resort(mode, seedOrRandom(req.Seed))
		return nil
	})
}

func (s *Server) handleShuffle(c *gin.Context) {
	var req seedRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	s.withSession(c, func(session *pipeline.Session) error {
		session.Reshuffle(seedOrRandom(req.Seed))
		return nil
	})
}

func (s *Server) handleResample(c *gin.Context) {
	var req seedRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	s.withSession(c, func(session *pipeline.Session) error {
		return session.Resample(seedOrRandom(req.Seed))
	})
}

// withSession applies fn to the current session under the lock and responds
// with the updated payload.
func (s *Server) withSession(c *gin.Context, fn func(*pipeline.Session) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		respondError(c, http.StatusNotFound, "no grid yet; run a search first")
		return
	}
	if err := fn(s.current); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrNoSources) {
			status = http.StatusConflict
		}
		respondError(c, status, err.Error())
		return
	}
	respondSuccess(c, http.StatusOK, render.NewPayload(s.current), "")
}

func seedOrRandom(v *int64) int64 {
	if v != nil {
		return *v
	}
	return seed.GenerateRandomSeed()
}
