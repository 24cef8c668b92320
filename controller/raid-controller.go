package controller

import (
	"github.com/Azzc0/fika-guild.xyz/app_error"
	"github.com/Azzc0/fika-guild.xyz/repository"
	"github.com/Azzc0/fika-guild.xyz/service"
	"github.com/Azzc0/fika-guild.xyz/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RaidController struct {
	raidRepository *repository.RaidRepository
	summaryService *service.SummaryService
}

func NewRaidController(db *gorm.DB, summaryService *service.SummaryService) *RaidController {
	return &RaidController{
		raidRepository: repository.NewRaidRepository(db),
		summaryService: summaryService,
	}
}

func setupRaidController(db *gorm.DB, summaryService *service.SummaryService) []RouteInfo {
	c := NewRaidController(db, summaryService)
	routes := []RouteInfo{
		{Method: "GET", Path: "/raids", HandlerFunc: c.getRaidsHandler(), Cached: true},
		{Method: "GET", Path: "/raids/:abbreviation/progress", HandlerFunc: c.getProgressHandler(), Cached: true},
	}
	return routes
}

type RaidResponse struct {
	Name         string   `json:"name"`
	Abbreviation string   `json:"abbreviation"`
	BossCount    int      `json:"boss_count"`
	Description  string   `json:"description"`
	Encounters   []string `json:"encounters"`
}

func toRaidResponse(raid *repository.Raid) *RaidResponse {
	return &RaidResponse{
		Name:         raid.Name,
		Abbreviation: raid.Abbreviation,
		BossCount:    raid.BossCount,
		Description:  raid.Description,
		Encounters:   utils.Map(raid.Encounters, func(e *repository.Encounter) string { return e.Name }),
	}
}

func (c *RaidController) getRaidsHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		raids, err := c.raidRepository.FindAll()
		if err != nil {
			app_error.WithHTTPStatus(ctx, err, 500)
			return
		}
		ctx.JSON(200, utils.Map(raids, toRaidResponse))
	}
}

func (c *RaidController) getProgressHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		entries, err := c.summaryService.Progress(ctx.Param("abbreviation"))
		if err != nil {
			ctx.JSON(404, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(200, entries)
	}
}
