package container

import (
	"voteon/internal/config"
	"voteon/internal/domain"
	"voteon/internal/repository"
	"voteon/internal/service"
	"voteon/internal/service/auth"
	"voteon/pkg/credentials"
	"voteon/pkg/database"
	"voteon/pkg/logger"
	"voteon/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          *database.PostgresDB
	RedisClient *redis.Client

	Repositories *repository.Repositories

	AuthService      service.AuthService
	AuditService     *service.AuditService
	CacheService     *service.CacheService
	ElectionService  *service.ElectionService
	CandidacyService *service.CandidacyService
	PromotionService *service.PromotionService
	StudentService   *service.StudentService
}

// New wires every repository and service together. Redis is optional: a
// missing or unreachable Redis leaves the service running uncached.
func New(cfg *config.Config, log *logger.Logger, db *database.PostgresDB) (*Container, error) {
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			redisClient = client
			log.Info("Redis client initialized successfully")
		}
	} else {
		log.Info("Redis URL not configured, proceeding without caching")
	}

	repos := &repository.Repositories{
		Election: repository.NewPgElectionRepository(db),
		Student:  repository.NewPgStudentRepository(db),
		Audit:    repository.NewPgAuditRepository(db),
	}

	matcher := domain.NewClassMatcher(domain.MatchMode(cfg.ClassMatchMode))
	authService := auth.NewService(cfg.JWTSecret, cfg.TokenTTL, log)
	auditService := service.NewAuditService(repos.Audit, log)
	cacheService := service.NewCacheService(redisClient, log)
	notifier := service.NewLogNotifier(log)
	hasher := credentials.NewBcryptHasher(0)

	return &Container{
		Config:       cfg,
		Logger:       log,
		DB:           db,
		RedisClient:  redisClient,
		Repositories: repos,
		AuthService:  authService,
		AuditService: auditService,
		CacheService: cacheService,
		ElectionService: service.NewElectionService(
			repos.Election, repos.Student, cacheService, auditService, matcher, log),
		CandidacyService: service.NewCandidacyService(repos.Student, auditService, log),
		PromotionService: service.NewPromotionService(
			repos.Student, repos.Election, cacheService, auditService, matcher, log),
		StudentService: service.NewStudentService(
			repos.Student, hasher, notifier, authService, auditService, log),
	}, nil
}
