package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kidcare-platform/account-api/internal/config"
	"github.com/kidcare-platform/account-api/internal/events"
	"github.com/kidcare-platform/account-api/internal/handlers"
	"github.com/kidcare-platform/account-api/internal/metrics"
	"github.com/kidcare-platform/account-api/internal/middleware"
	"github.com/kidcare-platform/account-api/internal/repository"
	"github.com/kidcare-platform/account-api/internal/services"
	"github.com/kidcare-platform/account-api/internal/storage"
	"github.com/kidcare-platform/account-api/internal/utils"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg := config.FromEnv()
	if cfg.JWTSecret == "" {
		log.Error("JWT_SECRET is not set")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Error("mongo connection failed", "error", err)
		os.Exit(1)
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Error("mongo ping failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warn("mongo disconnect failed", "error", err)
		}
	}()

	var cipher storage.FieldCipher = storage.NoopCipher{}
	if cfg.EncryptKey != "" {
		cipher, err = storage.NewFieldCipher([]byte(cfg.EncryptKey))
		if err != nil {
			log.Error("field cipher setup failed", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("ENCRYPT_SECRET_KEY is not set, usernames will be stored in plaintext")
	}

	db := client.Database(cfg.MongoDatabase)
	if err := ensureIndexes(ctx, db); err != nil {
		log.Error("index creation failed", "error", err)
		os.Exit(1)
	}

	users := storage.NewMongoCollection(db.Collection("users"), cipher)
	groups := storage.NewMongoCollection(db.Collection("childrengroups"), storage.NoopCipher{})
	institutions := storage.NewMongoCollection(db.Collection("institutions"), storage.NoopCipher{})

	var bus events.Bus = events.NoopBus{}
	var redisClient *redis.Client
	if cfg.RedisURI != "" {
		opts, err := redis.ParseURL(cfg.RedisURI)
		if err != nil {
			log.Error("invalid redis uri", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, events disabled", "error", err)
			redisClient = nil
		} else {
			bus = events.NewRedisBus(redisClient, cfg.EventPrefix)
			defer redisClient.Close()
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	repoMetrics := metrics.NewRepositoryMetrics(registry)

	hasher := utils.NewBcryptHasher()
	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	userRepo := repository.NewUserRepository(users, groups, hasher, log, repoMetrics)
	educatorRepo := repository.NewEducatorRepository(users, groups, hasher, log, repoMetrics)
	hpRepo := repository.NewHealthProfessionalRepository(users, groups, hasher, log, repoMetrics)
	groupRepo := repository.NewChildrenGroupRepository(groups, users, log, repoMetrics)
	childRepo := repository.NewChildRepository(users, log, repoMetrics)
	institutionRepo := repository.NewInstitutionRepository(institutions, log)

	groupService := services.NewChildrenGroupService(groupRepo, childRepo, bus, log)
	userService := services.NewUserService(userRepo, hasher, bus, log)
	educatorService := services.NewEducatorService(educatorRepo, institutionRepo, groupService, bus, log)
	hpService := services.NewHealthProfessionalService(hpRepo, institutionRepo, groupService, bus, log)

	h := handlers.NewHandler(userService, educatorService, hpService, tokens, log)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		checkCtx, checkCancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer checkCancel()
		if err := client.Ping(checkCtx, nil); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "mongo": err.Error()})
			return
		}
		if redisClient != nil {
			if err := redisClient.Ping(checkCtx).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	v1 := router.Group("/v1")
	v1.POST("/auth/login", h.Login)
	v1.POST("/educators", h.CreateEducator)
	v1.POST("/healthprofessionals", h.CreateHealthProfessional)

	authed := v1.Group("", middleware.Auth(tokens))
	{
		authed.GET("/users/:user_id", h.GetUser)
		authed.PATCH("/users/:user_id/password", h.ChangePassword)
		authed.DELETE("/users/:user_id", h.DeleteUser)

		authed.GET("/educators", h.GetEducators)
		authed.GET("/educators/:educator_id", h.GetEducator)
		authed.PATCH("/educators/:educator_id", h.UpdateEducator)
		authed.DELETE("/educators/:educator_id", h.DeleteEducator)
		authed.POST("/educators/:educator_id/children/groups", h.CreateEducatorChildrenGroup)
		authed.GET("/educators/:educator_id/children/groups", h.GetEducatorChildrenGroups)
		authed.GET("/educators/:educator_id/children/groups/:group_id", h.GetEducatorChildrenGroup)
		authed.PATCH("/educators/:educator_id/children/groups/:group_id", h.UpdateEducatorChildrenGroup)
		authed.DELETE("/educators/:educator_id/children/groups/:group_id", h.DeleteEducatorChildrenGroup)
		authed.GET("/children/:child_id/educators", h.GetEducatorsByChild)

		authed.GET("/healthprofessionals", h.GetHealthProfessionals)
		authed.GET("/healthprofessionals/:healthprofessional_id", h.GetHealthProfessional)
		authed.PATCH("/healthprofessionals/:healthprofessional_id", h.UpdateHealthProfessional)
		authed.DELETE("/healthprofessionals/:healthprofessional_id", h.DeleteHealthProfessional)
		authed.POST("/healthprofessionals/:healthprofessional_id/children/groups", h.CreateHealthProfessionalChildrenGroup)
		authed.GET("/healthprofessionals/:healthprofessional_id/children/groups", h.GetHealthProfessionalChildrenGroups)
		authed.GET("/healthprofessionals/:healthprofessional_id/children/groups/:group_id", h.GetHealthProfessionalChildrenGroup)
		authed.PATCH("/healthprofessionals/:healthprofessional_id/children/groups/:group_id", h.UpdateHealthProfessionalChildrenGroup)
		authed.DELETE("/healthprofessionals/:healthprofessional_id/children/groups/:group_id", h.DeleteHealthProfessionalChildrenGroup)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-shutdownCtx.Done()
	log.Info("shutting down")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer stopCancel()
	if err := srv.Shutdown(stopCtx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
}

// ensureIndexes creates the unique username index that backs the
// duplicate-registration conflict, and the owner index the group
// listing path depends on.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "username", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"username": bson.M{"$type": "string"}}),
	})
	if err != nil {
		return err
	}
	_, err = db.Collection("childrengroups").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}},
	})
	return err
}
