package container

import (
	"context"
	"fmt"

	"contact-api/internal/config"
	"contact-api/internal/repository"
	"contact-api/internal/service"
	"contact-api/pkg/database"
	"contact-api/pkg/logger"
	"contact-api/pkg/mail"
	"contact-api/pkg/queue"
	"contact-api/pkg/redis"
	"contact-api/pkg/utils"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          *database.PostgresDB
	RedisClient *redis.Client
	Publisher   *queue.RabbitMQPublisher

	Repository        repository.SubmissionRepository
	RateLimiter       service.RateLimiter
	SubmissionService service.SubmissionService
}

// New creates a new dependency injection container. Only the database is
// mandatory once configured; Redis, SMTP and RabbitMQ degrade gracefully.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: log}

	newReference := func() (string, error) { return utils.GenerateReference(cfg.ReferencePrefix) }

	// Initialize storage
	if cfg.DatabaseURL != "" {
		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.DB = db
		c.Repository = repository.NewSubmissionRepository(db.DB, cfg.DefaultCountryCode, newReference)
		log.Info("PostgreSQL connected successfully")
	} else {
		c.Repository = repository.NewMemorySubmissionRepository(cfg.DefaultCountryCode, newReference)
		log.Warn("DATABASE_URL not configured, submissions are kept in memory only")
	}

	// Initialize Redis client if Redis URL is configured
	var cache service.StatsCache
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			c.RedisClient = client
			cache = service.NewCacheService(client, log.Logger)
			log.Info("Redis client initialized successfully")
		}
	} else {
		log.Info("Redis URL not configured, proceeding without caching")
	}

	if c.RedisClient != nil {
		c.RateLimiter = service.NewRedisRateLimiter(c.RedisClient, cfg.RateLimit.Window, cfg.RateLimit.MaxRequests, log)
	} else {
		c.RateLimiter = service.NewMemoryRateLimiter(cfg.RateLimit.Window, cfg.RateLimit.MaxRequests)
	}

	// Email stays disabled unless real credentials are configured
	var sender service.MailSender
	if cfg.Email.Enabled {
		sender = mail.NewSender(cfg.Email.Host, cfg.Email.Port, cfg.Email.Username, cfg.Email.Password, cfg.Email.From, cfg.Email.SendTimeout)
		log.WithField("host", cfg.Email.Host).Info("Email notifications enabled")
	} else {
		log.Warn("Email credentials not configured, notification emails are skipped")
	}
	notifier := service.NewEmailNotifier(sender, service.NotifierConfig{
		Enabled:      cfg.Email.Enabled,
		AdminAddress: cfg.Email.ContactTo,
		SendTimeout:  cfg.Email.SendTimeout,
	}, log)

	var publisher service.EventPublisher
	if cfg.Queue.URL != "" {
		p, err := queue.NewRabbitMQPublisher(cfg.Queue.URL, cfg.Queue.Exchange)
		if err != nil {
			log.WithError(err).Warn("Failed to connect to RabbitMQ, submission events are disabled")
		} else {
			c.Publisher = p
			publisher = p
			log.WithField("exchange", cfg.Queue.Exchange).Info("RabbitMQ publisher initialized successfully")
		}
	}

	c.SubmissionService = service.NewSubmissionService(c.Repository, notifier, cache, publisher, log)

	return c, nil
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// Close releases every external connection the container opened
func (c *Container) Close() error {
	var errs []error

	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("RabbitMQ close: %w", err))
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("Redis close: %w", err))
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}

	if len(errs) > 0 {
		return fmt.Errorf("close completed with %d errors: %v", len(errs), errs)
	}
	return nil
}
