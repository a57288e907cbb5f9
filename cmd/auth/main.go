package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	myPostgresRepo "github.com/mslee98/crawl-back/internal/adapters/db/postgres"
	myRedisRepo "github.com/mslee98/crawl-back/internal/adapters/db/redis"
	myGrpc "github.com/mslee98/crawl-back/internal/adapters/transport/grpc"
	myHttp "github.com/mslee98/crawl-back/internal/adapters/transport/http"
	httpmw "github.com/mslee98/crawl-back/internal/adapters/transport/http/middleware"
	"github.com/mslee98/crawl-back/internal/app/auth/jwt"
	"github.com/mslee98/crawl-back/internal/app/auth/password"
	appsvc "github.com/mslee98/crawl-back/internal/app/auth/service"
	"github.com/mslee98/crawl-back/internal/app/crawl"
	"github.com/mslee98/crawl-back/internal/infra/config"
	lg "github.com/mslee98/crawl-back/internal/infra/log"
	"github.com/mslee98/crawl-back/internal/infra/migrate"
	"github.com/mslee98/crawl-back/internal/infra/seed"
	"github.com/mslee98/crawl-back/internal/infra/server"
	"github.com/mslee98/crawl-back/internal/infra/validate"
)

const appName = "crawl-back"

func main() {
	displayAppname(appName)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	zapLog := lg.Must(cfg.LogLevel)
	defer zapLog.Sync()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	if cfg.SeedPlans {
		sctx, cancel := context.WithTimeout(rootCtx, cfg.StoreTimeout)
		if _, err := seed.EnsurePlans(sctx, myPostgresRepo.NewPostgresPlanRepo(db), zapLog); err != nil {
			zapLog.Error("seed subscription plans", zap.Error(err))
		}
		cancel()
	}

	checks := []myHttp.HealthCheck{{Name: "db", Ping: sqlDB.PingContext}}

	var authLimiter httpmw.WindowLimiter
	if cfg.RedisAddress != "" {
		redisCli := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisCli.Close()
		rl := myRedisRepo.NewRedisRateLimiter(redisCli, "rl:auth", cfg.AuthRateLimit, cfg.AuthRateWindow)
		authLimiter = rl
		checks = append(checks, myHttp.HealthCheck{Name: "redis", Ping: rl.Ping})
	} else {
		zapLog.Warn("REDIS_ADDRESS not set, auth rate limiting is per instance")
		authLimiter = httpmw.NewMemoryWindow(cfg.AuthRateLimit, cfg.AuthRateWindow, 10_000)
	}

	v := validate.New()
	jwtUtil, err := jwt.NewJWTUtil(cfg)
	if err != nil {
		zapLog.Fatal("failed to init JWT util", zap.Error(err))
	}
	svc, err := appsvc.New(
		myPostgresRepo.NewPostgresAccountRepo(db),
		myPostgresRepo.NewPostgresRefreshTokenRepo(db),
		jwtUtil,
		password.NewFromConfig(cfg),
		cfg, v, zapLog,
	)
	if err != nil {
		zapLog.Fatal("failed to init auth service", zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpmw.RequestLogger(zapLog))
	router.Use(httpmw.NewHTTPMetrics(prometheus.DefaultRegisterer).Handler())
	router.Use(httpmw.NewHTTPRateLimitPerIP(cfg.IPRateLimit, cfg.IPRateBurst, 10_000, time.Hour))
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			"Authorization",
			"X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	myHttp.NewHandler(svc, crawl.NewEchoFetcher(), v, zapLog, checks...).
		Register(router, httpmw.RequireBearer(jwtUtil), httpmw.LimitAuth(authLimiter, zapLog))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	g, ctx := errgroup.WithContext(rootCtx)

	lis, err := net.Listen("tcp", cfg.HTTPAddress)
	if err != nil {
		zapLog.Fatal("listen HTTP", zap.Error(err))
	}
	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		return server.ServeHTTP(ctx, srv, lis, cfg, zapLog)
	})

	if cfg.GRPCAddress != "" {
		grpcChecks := make(map[string]myGrpc.Check, len(checks))
		for _, c := range checks {
			grpcChecks[c.Name] = c.Ping
		}
		reporter := myGrpc.NewHealthReporter(grpcChecks, 10*time.Second, zapLog)
		g.Go(func() error {
			reporter.Run(ctx)
			return nil
		})
		g.Go(func() error {
			return server.StartGRPCServer(ctx, cfg, reporter, zapLog)
		})
	}

	<-ctx.Done()
	zapLog.Info("shutdown signal received")
	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
