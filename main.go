package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Azzc0/fika-guild.xyz/auth"
	"github.com/Azzc0/fika-guild.xyz/config"
	"github.com/Azzc0/fika-guild.xyz/controller"
	"github.com/Azzc0/fika-guild.xyz/cron"
	"github.com/Azzc0/fika-guild.xyz/registry"
	"github.com/Azzc0/fika-guild.xyz/service"
	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"gorm.io/gorm"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fika",
	Short: "Guild raid tracking backend",
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(syncRegistryCmd)
	rootCmd.AddCommand(tokenCmd)
}

func openDatabase() (*gorm.DB, error) {
	cfg := config.Env()
	return config.InitDB(
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.PostgresUser,
		cfg.PostgresPassword,
		cfg.DatabaseName,
	)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		t := time.Now()
		cfg := config.Env()
		db, err := openDatabase()
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}

		summaryService := service.NewSummaryService(db)
		if err := summaryService.Refresh(); err != nil {
			log.Printf("initial summary refresh failed: %v", err)
		}
		refreshJob := cron.NewSummaryRefreshJob(summaryService, time.Duration(cfg.CacheRefreshSeconds)*time.Second)
		refreshJob.Start()
		defer refreshJob.Stop()

		r := gin.New()
		r.Use(gin.Recovery())
		if err := r.SetTrustedProxies(nil); err != nil {
			return fmt.Errorf("failed to set trusted proxies: %w", err)
		}
		addLogger(r)
		addMetrics(r)
		setCors(r)
		cacheStore := persistence.NewInMemoryStore(time.Duration(cfg.CacheTTLSeconds) * time.Second)
		controller.SetRoutes(r, db, cacheStore, summaryService)
		fmt.Println("Server started in", time.Since(t))
		return r.Run(":" + cfg.ServerPort)
	},
}

var importCmd = &cobra.Command{
	Use:   "import <manifest.toml>",
	Short: "Parse and import one raid session from a session manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		manifest, err := service.LoadSessionManifest(args[0])
		if err != nil {
			return err
		}
		report, err := service.NewImportService(db).ImportSession(manifest.ToImportInput())
		if err != nil {
			return err
		}
		printReport(report)
		return nil
	},
}

var syncRegistryCmd = &cobra.Command{
	Use:   "sync-registry [registry.yaml]",
	Short: "Sync the raid catalog into the database",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.Env().RegistryPath
		if len(args) == 1 {
			path = args[0]
		}
		reg, err := registry.Load(path)
		if err != nil {
			return err
		}
		db, err := openDatabase()
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := service.NewRegistryService(db).SyncRegistry(reg); err != nil {
			return err
		}
		fmt.Printf("Synced %d raids\n", len(reg.Raids))
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "Mint an admin token for the override endpoints",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := auth.CreateToken(args[0], []string{"admin"})
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func printReport(report *service.ImportReport) {
	fmt.Printf("Imported session %s (%d/week %d), run %s\n", report.SessionKey, report.Year, report.Week, report.RunId)
	for _, part := range report.Parts {
		fmt.Printf("  part %d: %d deaths, %d loot events, %d trades, %d encounters\n",
			part.PartNumber, part.Deaths, part.LootEvents, part.Trades, part.Encounters)
		for _, warning := range part.Warnings {
			fmt.Printf("    warning: %s\n", warning)
		}
	}
	if report.Cleared {
		fmt.Println("Session cleared the raid")
	} else {
		fmt.Printf("Not cleared, missing: %s\n", strings.Join(report.MissingEncounters, ", "))
	}
}

func addLogger(r *gin.Engine) {
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/api/metrics"},
	}))
}

func addMetrics(r *gin.Engine) {
	p := ginprometheus.NewPrometheus("gin")
	p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
		url := strings.Split(c.Request.URL.String(), "?")[0]
		for _, param := range c.Params {
			url = strings.Replace(url, param.Value, "?", 1)
		}
		return strings.TrimPrefix(url, "/api")
	}
	p.MetricsPath = "/api/metrics"
	p.Use(r)
}

func setCors(r *gin.Engine) {
	corsConfig := cors.Config{
		AllowOrigins: []string{
			"https://fika-guild.xyz",
			"https://www.fika-guild.xyz",
			"http://localhost",
			"http://localhost:3000",
		},
		AllowMethods:     []string{"GET", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsConfig))
}
