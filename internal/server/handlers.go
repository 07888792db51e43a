package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangsam/fragmeter/core"
	"github.com/huangsam/fragmeter/core/algo"
	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/internal/source"
	"github.com/huangsam/fragmeter/schema"
)

// scoreRequest is the body of POST /api/v1/score.
type scoreRequest struct {
	UserID     string                `json:"userId"`
	WindowDays *int                  `json:"windowDays"`
	Activities []schema.ActivityItem `json:"activities"`
}

// anomalyRequest is the body of POST /api/v1/anomaly.
type anomalyRequest struct {
	Series    []float64 `json:"series"`
	Threshold *float64  `json:"threshold"`
}

// errUserNotFound is reported when a trend is requested for an unknown user.
var errUserNotFound = errors.New("user not found")

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleScore(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, contract.NewInvalidInput("invalid request body", err))
		return
	}
	userID, err := contract.NormalizeUserID(req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	windowDays := contract.DefaultWindowDays
	if req.WindowDays != nil {
		windowDays = *req.WindowDays
	}

	result, err := core.NewScorer(s.cfg).Score(c.Request.Context(), userID, req.Activities, windowDays)
	if err != nil {
		writeError(c, err)
		return
	}
	s.metrics.ObserveScore("score", result.FragmentationScore.Float())
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleAnomaly(c *gin.Context) {
	var req anomalyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, contract.NewInvalidInput("invalid request body", err))
		return
	}
	threshold := s.cfg.AnomalyThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	result, err := algo.DetectAnomaly(req.Series, threshold)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleUsers(c *gin.Context) {
	users, err := s.listUsers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (s *Server) handleTrend(c *gin.Context) {
	userID, err := contract.NormalizeUserID(c.Param("user"))
	if err != nil {
		writeError(c, err)
		return
	}

	cfg := s.cfg.Clone()
	cfg.Users = []string{userID}
	if err := contract.RevalidateRange(cfg, c.Query("start"), c.Query("end"), time.Now()); err != nil {
		writeError(c, err)
		return
	}

	users, err := s.listUsers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if !slices.Contains(users, userID) {
		writeError(c, errUserNotFound)
		return
	}

	trends, err := core.GetTrendResults(c.Request.Context(), cfg, s.mgr)
	if err != nil {
		writeError(c, err)
		return
	}
	trend := trends[0]
	if trend.Average != nil {
		s.metrics.ObserveScore("trend", trend.Average.Float())
	}
	c.JSON(http.StatusOK, trend)
}

func (s *Server) listUsers(ctx context.Context) ([]string, error) {
	src, err := source.New(s.cfg, s.mgr)
	if err != nil {
		return nil, err
	}
	lister, ok := src.(contract.UserLister)
	if !ok {
		return nil, errors.New("activity source cannot list users")
	}
	users, err := lister.Users(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []string{}
	}
	return users, nil
}

// writeError maps err onto a status code and a JSON error body.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case contract.IsInvalidInput(err):
		status = http.StatusBadRequest
	case errors.Is(err, errUserNotFound), errors.Is(err, source.ErrUserNotFound):
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
