package main

import (
	"context"
	"fmt"
	"log"
	"os"

	apirest "github.com/Saadmadni84/Learning-Platform--sub002/api/rest"
	"github.com/Saadmadni84/Learning-Platform--sub002/api/sse"
	"github.com/Saadmadni84/Learning-Platform--sub002/audit"
	"github.com/Saadmadni84/Learning-Platform--sub002/cache"
	"github.com/Saadmadni84/Learning-Platform--sub002/config"
	dbadapter "github.com/Saadmadni84/Learning-Platform--sub002/db"
	"github.com/Saadmadni84/Learning-Platform--sub002/enroll"
	mw "github.com/Saadmadni84/Learning-Platform--sub002/middleware"
	"github.com/Saadmadni84/Learning-Platform--sub002/model"
	"github.com/Saadmadni84/Learning-Platform--sub002/quest"
	"github.com/Saadmadni84/Learning-Platform--sub002/queststore"
	"github.com/Saadmadni84/Learning-Platform--sub002/scheduler"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// Warn loudly if admin endpoints will be disabled.
	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	// ---- Activity log ----
	activity := audit.New(db, logger)
	defer activity.Stop(nil)

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	// ---- Core services ----
	stores := queststore.NewManager(logger)
	questSvc := quest.NewService(db, c, pubsub, logger)
	enrollVal := enroll.New()

	// ---- Periodic tasks ----
	sched.AddTicker("store_prune", cfg.Quest.StoreIdleTTL, func() {
		stores.PruneIdle(cfg.Quest.StoreIdleTTL)
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(db, c, cfg.Security, activity)
	questH := apirest.NewQuestHandler(questSvc, stores, activity)
	enrollH := apirest.NewEnrollHandler(enrollVal)
	lbH := apirest.NewLeaderboardHandler(db, c, logger)
	adminH := apirest.NewAdminHandler(db, stores, sched, activity, logger)

	sched.AddTicker("leaderboard_refresh", cfg.Quest.LeaderboardRefresh, func() {
		if _, err := lbH.RefreshFromDB(context.Background()); err != nil {
			logger.Warn("leaderboard refresh failed", zap.Error(err))
		}
	})

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(cfg.Security, c), authH.Refresh)

		// Enrollment wizard validation (pre-auth: it gates account creation).
		api.POST("/enroll/validate", enrollH.Validate)

		questsG := api.Group("/quests")
		questsG.Use(mw.Auth(cfg.Security, c))
		questsG.POST("/start", questH.Start)
		questsG.GET("/current", questH.Current)
		questsG.POST("/advance", questH.Advance)
		questsG.POST("/reset", questH.Reset)

		lbG := api.Group("/leaderboard")
		lbG.GET("/xp", lbH.TopXP)

		adminG := api.Group("/admin")
		adminG.Use(mw.IPWhitelist(cfg.Security.AdminIPs), apirest.AdminAuth(cfg.Server.AdminKey))
		adminG.GET("/metrics", adminH.Metrics)
		adminG.GET("/quests/active", adminH.ListActiveQuests)
		adminG.POST("/accounts/:id/ban", adminH.BanAccount)
		adminG.GET("/scheduler", adminH.ListSchedulerTasks)
		adminG.POST("/leaderboard/refresh", lbH.Refresh)
	}

	// ---- SSE ----
	sseH := sse.NewHandler(pubsub, c, cfg.Security, logger)
	r.GET("/sse", sseH.ServeSSE)

	// ---- Web frontend static files ----
	if cfg.Server.StaticDir != "" {
		r.Static("/assets", cfg.Server.StaticDir+"/assets")
		r.StaticFile("/", cfg.Server.StaticDir+"/index.html")
		// NoRoute fallback for client-side routing.
		r.NoRoute(func(c *gin.Context) {
			path := cfg.Server.StaticDir + c.Request.URL.Path
			if _, err := os.Stat(path); err == nil {
				c.File(path)
				return
			}
			c.File(cfg.Server.StaticDir + "/index.html")
		})
		logger.Info("Serving web frontend", zap.String("dir", cfg.Server.StaticDir))
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
