package server

import (
	"time"

	"backend-vintrek/internal/auth"
	"backend-vintrek/internal/cache"
	"backend-vintrek/internal/completion"
	"backend-vintrek/internal/config"
	"backend-vintrek/internal/hybrid"
	"backend-vintrek/internal/ledger"
	"backend-vintrek/internal/recording"
	"backend-vintrek/internal/storage"
	"backend-vintrek/internal/stream"
	"backend-vintrek/internal/trails"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
	Users  *cache.UserCache
	Log    *logrus.Logger
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	// Redis is the preferred backing store for per-wallet caches; an
	// in-process store keeps single-node deployments working without it.
	var store cache.Store
	if redisClient != nil {
		store = cache.NewRedisStore(redisClient)
	} else {
		store = cache.NewMemoryStore()
	}
	ttl := time.Duration(cfg.UserCacheTTLSec) * time.Second

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient, logrus.NewEntry(log)),
		Users:  cache.NewUserCache(store, ttl),
		Log:    log,
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	criteria := completion.Criteria{
		MinimumDistanceM:   s.Cfg.MinDistanceM,
		MinimumDurationSec: s.Cfg.MinDurationSec,
		MinimumPoints:      s.Cfg.MinTrackPoints,
	}

	manager := recording.NewManager(recording.Options{
		MinPointGapM:         s.Cfg.MinPointGapM,
		SmoothingEnabled:     true,
		SmoothingMaxSpeedMps: s.Cfg.SmoothingMaxSpeedMps,
	}, s.Stream)

	var wallet ledger.Wallet
	if s.Cfg.WalletBridgeURL != "" {
		wallet = ledger.NewBridgeWallet(s.Cfg.WalletBridgeURL)
	}
	chain := ledger.NewClient(ledger.ClientOptions{
		BaseURL:       s.Cfg.BlockfrostURL,
		ProjectID:     s.Cfg.BlockfrostAPIKey,
		ScriptAddress: s.Cfg.ScriptAddress,
		Wallet:        wallet,
		Logger:        logrus.NewEntry(s.Log).WithField("component", "ledger"),
	})
	coordinator := hybrid.NewCoordinator(chain, s.Users, logrus.NewEntry(s.Log).WithField("component", "hybrid"))

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	recording.RegisterRoutes(s.App.Group("/recordings"), manager, criteria, jwtMiddleware)
	hybrid.RegisterRoutes(s.App.Group("/completions"), coordinator, criteria, jwtMiddleware)
	trails.RegisterRoutes(s.App.Group("/trails"), trails.NewService(s.DB), jwtMiddleware)
	storage.RegisterRoutes(s.App.Group("/storage"), storage.NewService(s.DB), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)

	s.App.Get("/stats/:wallet", func(c *fiber.Ctx) error {
		userStats, err := s.Users.Stats(c.Context(), c.Params("wallet"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(userStats)
	})
}
