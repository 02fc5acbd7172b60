package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/service/screening"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/service/workspace"
)

// ==== Screening chat ====

// ScreeningHistory returns a page of a screening chat.
// GET /api/screening/:appId/messages?limit=N&before=ID
func (h *APIHandlers) ScreeningHistory(c *gin.Context) {
	appID, ok := idParam(c, "appId")
	if !ok {
		return
	}
	limit, before, ok := pageParams(c)
	if !ok {
		return
	}
	msgs, err := h.svc.Screening.History(c.Request.Context(), currentUser(c), appID, limit, before)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(msgs, toScreeningMessage))
}

// SendScreeningMessage posts to a screening chat.
// POST /api/screening/:appId/messages
func (h *APIHandlers) SendScreeningMessage(c *gin.Context) {
	appID, ok := idParam(c, "appId")
	if !ok {
		return
	}
	var req screening.SendInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	msg, err := h.svc.Screening.Send(c.Request.Context(), currentUser(c), appID, req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toScreeningMessage(msg))
}

// ==== Builder Space ====

// SpaceMembers lists a space's members with their presence.
// GET /api/spaces/:id/members
func (h *APIHandlers) SpaceMembers(c *gin.Context) {
	spaceID, ok := idParam(c, "id")
	if !ok {
		return
	}
	members, err := h.svc.Workspace.Members(c.Request.Context(), currentUser(c), spaceID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// GroupHistory returns a page of a space's group chat.
// GET /api/spaces/:id/messages?limit=N&before=ID
func (h *APIHandlers) GroupHistory(c *gin.Context) {
	spaceID, ok := idParam(c, "id")
	if !ok {
		return
	}
	limit, before, ok := pageParams(c)
	if !ok {
		return
	}
	msgs, err := h.svc.Workspace.GroupHistory(c.Request.Context(), currentUser(c), spaceID, limit, before)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(msgs, toGroupMessage))
}

// SendGroupMessage posts to a space's group chat.
// POST /api/spaces/:id/messages
func (h *APIHandlers) SendGroupMessage(c *gin.Context) {
	spaceID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req workspace.MessageInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	msg, err := h.svc.Workspace.SendGroupMessage(c.Request.Context(), currentUser(c), spaceID, req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toGroupMessage(msg))
}

// ListLinks returns a space's shared links.
// GET /api/spaces/:id/links
func (h *APIHandlers) ListLinks(c *gin.Context) {
	spaceID, ok := idParam(c, "id")
	if !ok {
		return
	}
	links, err := h.svc.Workspace.ListLinks(c.Request.Context(), currentUser(c), spaceID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(links, toLink))
}

// AddLink shares a link with the space.
// POST /api/spaces/:id/links
func (h *APIHandlers) AddLink(c *gin.Context) {
	spaceID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req workspace.LinkInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	link, err := h.svc.Workspace.AddLink(c.Request.Context(), currentUser(c), spaceID, req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toLink(link))
}

// RemoveLink deletes a link the caller created.
// DELETE /api/links/:id
func (h *APIHandlers) RemoveLink(c *gin.Context) {
	linkID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Workspace.RemoveLink(c.Request.Context(), currentUser(c), linkID); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListTasks returns a space's tasks.
// GET /api/spaces/:id/tasks?completed=true|false
func (h *APIHandlers) ListTasks(c *gin.Context) {
	spaceID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var completed *bool
	if raw := c.Query("completed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "invalid completed")
			return
		}
		completed = &v
	}
	tasks, err := h.svc.Workspace.ListTasks(c.Request.Context(), currentUser(c), spaceID, completed)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, mapAll(tasks, toTask))
}

// CreateTask adds a task to the space.
// POST /api/spaces/:id/tasks
func (h *APIHandlers) CreateTask(c *gin.Context) {
	spaceID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req workspace.TaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	task, err := h.svc.Workspace.CreateTask(c.Request.Context(), currentUser(c), spaceID, req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toTask(task))
}

// UpdateTask edits a task.
// PATCH /api/tasks/:id
func (h *APIHandlers) UpdateTask(c *gin.Context) {
	taskID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req workspace.TaskUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	task, err := h.svc.Workspace.UpdateTask(c.Request.Context(), currentUser(c), taskID, req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toTask(task))
}

// DeleteTask removes a task the caller created.
// DELETE /api/tasks/:id
func (h *APIHandlers) DeleteTask(c *gin.Context) {
	taskID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Workspace.DeleteTask(c.Request.Context(), currentUser(c), taskID); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
