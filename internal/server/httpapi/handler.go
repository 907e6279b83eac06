package httpapi

import (
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type loginResponse struct {
	Token    string `json:"token"`
	ID       string `json:"id"`
	Username string `json:"username"`
}

type profileResponse struct {
	Username string `json:"username"`
}

// bindCredentials decodes the JSON body. An empty body decodes to empty
// fields so the service reports which one is missing.
func bindCredentials(c *gin.Context) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortWith(c, apiError{http.StatusBadRequest, KindValidation, "request body must be a JSON object with username and password"})
		return req, false
	}
	return req, true
}

// fail logs unexpected errors, counts the outcome and writes the envelope.
func (s *Server) fail(c *gin.Context, op string, err error) {
	e := classify(err)
	if e.status >= http.StatusInternalServerError {
		logging.LogError(c.Request.Context(), s.logger, op+" failed", err)
	}
	s.metrics.RecordAuth(op, e.kind)
	abortWith(c, e)
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"API": "gophauth REST API"})
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.health != nil {
		if err := s.health.PingContext(c.Request.Context()); err != nil {
			logging.LogError(c.Request.Context(), s.logger, "health check failed", err)
			abortWith(c, errStoreUnavailable)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleRegister(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		s.metrics.RecordAuth(metrics.OpRegister, KindValidation)
		return
	}

	user, err := s.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.fail(c, metrics.OpRegister, err)
		return
	}

	s.metrics.RecordAuth(metrics.OpRegister, metrics.OutcomeSuccess)
	s.logger.Info(c.Request.Context(), "Registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, registerResponse{ID: user.ID, Username: user.UserName})
}

func (s *Server) handleLogin(c *gin.Context) {
	ctx := c.Request.Context()
	ip := c.ClientIP()

	retryAfter, err := s.limiter.Check(ctx, ip)
	if err != nil {
		// the limiter failing must not lock everybody out
		logging.LogError(ctx, s.logger, "login throttle check failed", err)
	}
	if retryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
		s.fail(c, metrics.OpLogin, common.ErrTooManyAttempts)
		return
	}

	req, ok := bindCredentials(c)
	if !ok {
		s.metrics.RecordAuth(metrics.OpLogin, KindValidation)
		return
	}

	res, err := s.users.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			if _, lerr := s.limiter.RecordFailure(ctx, ip); lerr != nil {
				logging.LogError(ctx, s.logger, "login throttle record failed", lerr)
			}
		}
		s.fail(c, metrics.OpLogin, err)
		return
	}

	if err := s.limiter.Reset(ctx, ip); err != nil {
		logging.LogError(ctx, s.logger, "login throttle reset failed", err)
	}

	s.metrics.RecordAuth(metrics.OpLogin, metrics.OutcomeSuccess)
	c.JSON(http.StatusOK, loginResponse{Token: res.Token, ID: res.User.ID, Username: res.User.UserName})
}

func (s *Server) handleProfile(c *gin.Context) {
	token, err := bearerToken(c)
	if err != nil {
		s.fail(c, metrics.OpProfile, err)
		return
	}

	user, err := s.users.Profile(c.Request.Context(), token)
	if err != nil {
		s.fail(c, metrics.OpProfile, err)
		return
	}

	s.metrics.RecordAuth(metrics.OpProfile, metrics.OutcomeSuccess)
	c.JSON(http.StatusOK, profileResponse{Username: user.UserName})
}
