package controller

import (
	"github.com/Azzc0/fika-guild.xyz/app_error"
	"github.com/Azzc0/fika-guild.xyz/repository"
	"github.com/Azzc0/fika-guild.xyz/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SessionController struct {
	sessionRepository *repository.SessionRepository
	summaryService    *service.SummaryService
}

func NewSessionController(db *gorm.DB, summaryService *service.SummaryService) *SessionController {
	return &SessionController{
		sessionRepository: repository.NewSessionRepository(db),
		summaryService:    summaryService,
	}
}

func setupSessionController(db *gorm.DB, summaryService *service.SummaryService) []RouteInfo {
	c := NewSessionController(db, summaryService)
	routes := []RouteInfo{
		{Method: "GET", Path: "/weeks", HandlerFunc: c.getWeeksHandler(), Cached: true},
		{Method: "GET", Path: "/sessions", HandlerFunc: c.getSessionsHandler(), Cached: true},
		{Method: "GET", Path: "/sessions/:session_key", HandlerFunc: c.getSessionHandler(), Cached: true},
		{Method: "GET", Path: "/sessions/:session_key/loot", HandlerFunc: c.getSessionLootHandler(), Cached: true},
		{Method: "PATCH", Path: "/sessions/:session_key/notes", HandlerFunc: c.setNotesHandler(), Authenticated: true, RoleRequired: []string{"admin"}},
		{Method: "PATCH", Path: "/sessions/:session_key/irrelevant", HandlerFunc: c.markIrrelevantHandler(), Authenticated: true, RoleRequired: []string{"admin"}},
	}
	return routes
}

func (c *SessionController) getWeeksHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(200, c.summaryService.Weeks())
	}
}

func (c *SessionController) getSessionsHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(200, c.summaryService.Sessions())
	}
}

func (c *SessionController) getSessionHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		summary, ok := c.summaryService.GetSession(ctx.Param("session_key"))
		if !ok {
			ctx.JSON(404, gin.H{"error": "session not found"})
			return
		}
		ctx.JSON(200, summary)
	}
}

func (c *SessionController) getSessionLootHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		summary, ok := c.summaryService.GetSession(ctx.Param("session_key"))
		if !ok {
			ctx.JSON(404, gin.H{"error": "session not found"})
			return
		}
		ctx.JSON(200, summary.Loot)
	}
}

type NotesUpdate struct {
	Notes string `json:"notes" binding:"required"`
}

func (c *SessionController) setNotesHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var update NotesUpdate
		if err := ctx.BindJSON(&update); err != nil {
			app_error.WithHTTPStatus(ctx, err, 400)
			return
		}
		if err := c.sessionRepository.SetNotes(ctx.Param("session_key"), update.Notes); err != nil {
			app_error.WithHTTPStatus(ctx, err, 500)
			return
		}
		if err := c.summaryService.Refresh(); err != nil {
			app_error.WithHTTPStatus(ctx, err, 500)
			return
		}
		ctx.JSON(200, gin.H{"status": "ok"})
	}
}

type IrrelevantUpdate struct {
	Reason string `json:"reason"`
}

func (c *SessionController) markIrrelevantHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var update IrrelevantUpdate
		if err := ctx.BindJSON(&update); err != nil {
			app_error.WithHTTPStatus(ctx, err, 400)
			return
		}
		if err := c.sessionRepository.MarkIrrelevant(ctx.Param("session_key"), update.Reason); err != nil {
			app_error.WithHTTPStatus(ctx, err, 500)
			return
		}
		if err := c.summaryService.Refresh(); err != nil {
			app_error.WithHTTPStatus(ctx, err, 500)
			return
		}
		ctx.JSON(200, gin.H{"status": "ok"})
	}
}
