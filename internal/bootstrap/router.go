package bootstrap

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/GoSim-25-26J-441/civic-rag-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/api/http/middleware"
	searchhttp "github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/http"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/service"
)

type RouterDeps struct {
	ServiceName   string
	Version       string
	CORSOrigins   []string
	DB            *pgxpool.Pool
	Redis         *redis.Client
	SearchService *service.SearchService
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     dep.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	checks := map[string]httpapi.Pinger{"db": nil, "redis": nil}
	if dep.DB != nil {
		checks["db"] = dep.DB
	}
	if dep.Redis != nil {
		checks["redis"] = httpapi.PingFunc(func(ctx context.Context) error {
			return dep.Redis.Ping(ctx).Err()
		})
	}
	httpapi.NewHealthHandler(dep.ServiceName, dep.Version, checks).RegisterRoutes(r)

	api := r.Group("/api/v1")
	searchhttp.New(dep.SearchService).Register(api.Group("/search"))

	return r
}
