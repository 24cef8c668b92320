package controller

import (
	"strings"
	"time"

	"github.com/Azzc0/fika-guild.xyz/auth"
	"github.com/Azzc0/fika-guild.xyz/config"
	"github.com/Azzc0/fika-guild.xyz/service"
	"github.com/gin-contrib/cache"
	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RouteInfo struct {
	Method        string
	Path          string
	HandlerFunc   gin.HandlerFunc
	Authenticated bool
	RoleRequired  []string
	Cached        bool
}

func SetRoutes(r *gin.Engine, db *gorm.DB, cacheStore persistence.CacheStore, summaryService *service.SummaryService) {
	cacheTTL := time.Duration(config.Env().CacheTTLSeconds) * time.Second

	routes := make([]RouteInfo, 0)
	routes = append(routes, setupRaidController(db, summaryService)...)
	routes = append(routes, setupSessionController(db, summaryService)...)
	for _, route := range routes {
		handlerfuncs := make([]gin.HandlerFunc, 0)
		if route.Authenticated {
			handlerfuncs = append(handlerfuncs, AuthMiddleware(route.RoleRequired))
		}
		handler := route.HandlerFunc
		if route.Cached {
			handler = cache.CachePage(cacheStore, cacheTTL, handler)
		}
		handlerfuncs = append(handlerfuncs, handler)
		r.Handle(route.Method, "/api"+route.Path, handlerfuncs...)
	}
}

func AuthMiddleware(roles []string) gin.HandlerFunc {
	return func(r *gin.Context) {
		header := r.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			r.JSON(401, gin.H{"error": "Unauthenticated"})
			r.Abort()
			return
		}
		token, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil || !token.Valid {
			r.JSON(401, gin.H{"error": "Unauthenticated"})
			r.Abort()
			return
		}
		claims := &auth.Claims{}
		if err := claims.FromJWTClaims(token.Claims); err != nil {
			r.JSON(401, gin.H{"error": "Unauthenticated"})
			r.Abort()
			return
		}
		if err := claims.Valid(); err != nil {
			r.JSON(401, gin.H{"error": "Unauthenticated"})
			r.Abort()
			return
		}
		if len(roles) == 0 {
			r.Next()
			return
		}
		for _, requiredRole := range roles {
			for _, userRole := range claims.Roles {
				if requiredRole == userRole {
					r.Next()
					return
				}
			}
		}
		r.JSON(403, gin.H{"error": "Unauthorized"})
		r.Abort()
	}
}
