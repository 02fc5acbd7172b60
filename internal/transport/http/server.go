package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/auth"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/config"
)

// Router is what the HTTP layer needs from the broadcast engine.
type Router interface {
	Realtime
	QueueInspector
}

// NewServer builds the HTTP server with the REST API and the /ws endpoint.
func NewServer(rt Router, authService *auth.Service, svc Services, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(LoggerMiddleware(logger))

	engine.GET("/health", healthHandler)
	engine.GET("/ws", gin.WrapH(NewWSHandler(rt, authService, WSOptions{
		MaxMessageBytes:  cfg.MaxMessageBytes,
		InboundRateLimit: cfg.InboundRateLimit,
		ChannelBuffer:    cfg.Realtime.ChannelBuffer,
	}, logger)))

	h := NewAPIHandlers(authService, svc, rt, logger)

	api := engine.Group("/api")
	api.POST("/register", h.Register)
	api.POST("/login", h.Login)

	protected := api.Group("")
	protected.Use(AuthMiddleware(authService, logger))

	protected.GET("/posts", h.ListPosts)
	protected.POST("/posts", h.CreatePost)
	protected.GET("/posts/:id", h.GetPost)
	protected.GET("/posts/:id/applications", h.ListApplications)
	protected.POST("/posts/:id/applications", h.Apply)

	protected.POST("/applications/:id/accept", h.AcceptApplication)
	protected.POST("/applications/:id/reject", h.RejectApplication)
	protected.POST("/applications/:id/team", h.AddToTeam)

	protected.GET("/screening/:appId/messages", h.ScreeningHistory)
	protected.POST("/screening/:appId/messages", h.SendScreeningMessage)

	protected.GET("/spaces", h.MySpaces)
	protected.GET("/spaces/:id/members", h.SpaceMembers)
	protected.GET("/spaces/:id/messages", h.GroupHistory)
	protected.POST("/spaces/:id/messages", h.SendGroupMessage)
	protected.GET("/spaces/:id/links", h.ListLinks)
	protected.POST("/spaces/:id/links", h.AddLink)
	protected.GET("/spaces/:id/tasks", h.ListTasks)
	protected.POST("/spaces/:id/tasks", h.CreateTask)

	protected.DELETE("/links/:id", h.RemoveLink)
	protected.PATCH("/tasks/:id", h.UpdateTask)
	protected.DELETE("/tasks/:id", h.DeleteTask)

	protected.GET("/presence", h.Presence)
	protected.GET("/presence/queue", h.QueuedCount)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
