package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/service/teams"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/store"
)

// ListPosts returns the newest posts.
// GET /api/posts?kind=startup|hackathon&limit=N
func (h *APIHandlers) ListPosts(c *gin.Context) {
	limit, _, ok := pageParams(c)
	if !ok {
		return
	}
	posts, err := h.svc.Teams.ListPosts(c.Request.Context(), c.Query("kind"), limit)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(posts, toPost))
}

// CreatePost publishes a post owned by the caller.
// POST /api/posts
func (h *APIHandlers) CreatePost(c *gin.Context) {
	var req teams.CreatePostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	post, err := h.svc.Teams.CreatePost(c.Request.Context(), currentUser(c), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toPost(post))
}

// GetPost returns one post.
// GET /api/posts/:id
func (h *APIHandlers) GetPost(c *gin.Context) {
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}
	post, err := h.svc.Teams.GetPost(c.Request.Context(), postID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toPost(post))
}

// Apply records the caller's application to a post.
// POST /api/posts/:id/applications
func (h *APIHandlers) Apply(c *gin.Context) {
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req teams.ApplyInput
	// the pitch is optional, so an empty body is fine
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}
	app, err := h.svc.Teams.Apply(c.Request.Context(), currentUser(c), postID, req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toApplication(app))
}

// ListApplications returns a post's applications to its owner.
// GET /api/posts/:id/applications
func (h *APIHandlers) ListApplications(c *gin.Context) {
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}
	apps, err := h.svc.Teams.ListApplications(c.Request.Context(), currentUser(c), postID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(apps, toApplication))
}

// AcceptApplication opens a screening chat with the applicant.
// POST /api/applications/:id/accept
func (h *APIHandlers) AcceptApplication(c *gin.Context) {
	h.decide(c, h.svc.Teams.AcceptApplication)
}

// RejectApplication closes an application.
// POST /api/applications/:id/reject
func (h *APIHandlers) RejectApplication(c *gin.Context) {
	h.decide(c, h.svc.Teams.RejectApplication)
}

// AddToTeam makes an accepted applicant a member of the post's Builder Space.
// POST /api/applications/:id/team
func (h *APIHandlers) AddToTeam(c *gin.Context) {
	appID, ok := idParam(c, "id")
	if !ok {
		return
	}
	space, err := h.svc.Teams.AddToTeam(c.Request.Context(), currentUser(c), appID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toSpace(space))
}

// MySpaces lists the spaces the caller belongs to.
// GET /api/spaces
func (h *APIHandlers) MySpaces(c *gin.Context) {
	spaces, err := h.svc.Teams.MySpaces(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(spaces, toSpace))
}

type decision func(ctx context.Context, actorID, applicationID int64) (*store.Application, error)

func (h *APIHandlers) decide(c *gin.Context, fn decision) {
	appID, ok := idParam(c, "id")
	if !ok {
		return
	}
	app, err := fn(c.Request.Context(), currentUser(c), appID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toApplication(app))
}
