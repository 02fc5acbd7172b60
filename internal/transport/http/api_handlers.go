package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/auth"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/service/screening"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/service/teams"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/service/workspace"
)

// Services are the domain services exposed over the REST API.
type Services struct {
	Teams     *teams.Service
	Screening *screening.Service
	Workspace *workspace.Service
}

// QueueInspector reports pending offline events.
type QueueInspector interface {
	QueuedMessageCount(userID int64) int
}

// APIHandlers provides HTTP handlers for REST API endpoints.
type APIHandlers struct {
	authService *auth.Service
	svc         Services
	queue       QueueInspector
	log         *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(authService *auth.Service, svc Services, queue QueueInspector, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		authService: authService,
		svc:         svc,
		queue:       queue,
		log:         logger,
	}
}

// Register handles user registration.
// POST /api/register
func (h *APIHandlers) Register(c *gin.Context) {
	var req auth.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid register request")
		badRequest(c, "invalid request body")
		return
	}

	session, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.Info().Str("username", session.User.Username).Msg("user registered successfully")
	c.JSON(http.StatusCreated, AuthResponse{Token: session.Token, User: toUser(session.User)})
}

// Login handles user login.
// POST /api/login
func (h *APIHandlers) Login(c *gin.Context) {
	var req auth.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid login request")
		badRequest(c, "invalid request body")
		return
	}

	session, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.Info().Str("username", session.User.Username).Msg("user logged in successfully")
	c.JSON(http.StatusOK, AuthResponse{Token: session.Token, User: toUser(session.User)})
}

// Presence lists the caller's teammates that are online.
// GET /api/presence
func (h *APIHandlers) Presence(c *gin.Context) {
	online, err := h.svc.Workspace.OnlineTeammates(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if online == nil {
		online = []int64{}
	}
	c.JSON(http.StatusOK, PresenceResponse{Online: online})
}

// QueuedCount reports how many events wait for the caller's next connection.
// GET /api/presence/queue
func (h *APIHandlers) QueuedCount(c *gin.Context) {
	c.JSON(http.StatusOK, QueueResponse{Queued: h.queue.QueuedMessageCount(currentUser(c))})
}
