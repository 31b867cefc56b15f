// Package service implements the REST API of the contacts service: the contacts resource, the
// CSV export and the warm-up probe.
package service

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/guard-contacts/internal/auth"
	"gitlab.com/dirk.krummacker/guard-contacts/internal/config"
	"gitlab.com/dirk.krummacker/guard-contacts/internal/csvexport"
	"gitlab.com/dirk.krummacker/guard-contacts/internal/mailer"
	"gitlab.com/dirk.krummacker/guard-contacts/internal/metrics"
	"gitlab.com/dirk.krummacker/guard-contacts/internal/store"
)

// callerKey is the gin context key under which the authenticated caller is stored.
const callerKey = "caller"

// Service holds everything the HTTP handlers need. Handlers keep no state between requests
// apart from the cold start flag of the warm-up probe.
type Service struct {
	store      *store.Store
	verifier   *auth.Verifier
	dispatcher mailer.Dispatcher
	metrics    *metrics.Collector
	logger     *zap.Logger

	serializer  csvexport.Serializer
	location    *time.Location
	warmupDelay time.Duration
	ginLogging  bool
	metricsPath string

	now    func() time.Time
	probed atomic.Bool
}

// New creates the service. A nil collector disables metrics.
func New(cfg *config.Config, contacts *store.Store, dispatcher mailer.Dispatcher, collector *metrics.Collector, logger *zap.Logger) (*Service, error) {
	tag, err := cfg.Export.LanguageTag()
	if err != nil {
		return nil, err
	}
	if collector == nil {
		collector = metrics.NewCollector(config.MetricsConfig{Enabled: false}, nil)
	}
	location := cfg.Export.Location()
	if location.String() != cfg.Export.Timezone && cfg.Export.Timezone != "" {
		logger.Warn("Unknown export time zone, falling back to UTC.", zap.String("timezone", cfg.Export.Timezone))
	}
	s := &Service{
		store:       contacts,
		verifier:    auth.NewVerifier(cfg.Auth.JWTSecret),
		dispatcher:  dispatcher,
		metrics:     collector,
		logger:      logger,
		serializer:  csvexport.ForLocale(tag, location),
		location:    location,
		warmupDelay: cfg.Server.WarmupDelay,
		ginLogging:  cfg.Server.GinLogging,
		now:         time.Now,
	}
	if cfg.Metrics.Enabled {
		s.metricsPath = cfg.Metrics.Path
	}
	return s, nil
}

// SetupHttpRouter initializes the REST API router and registers all endpoints.
func (s *Service) SetupHttpRouter() *gin.Engine {
	var router *gin.Engine
	if !s.ginLogging {
		s.logger.Info("Turning off HTTP request logging.")
		router = gin.New()
		router.Use(gin.Recovery())
	} else {
		router = gin.Default()
	}
	router.HandleMethodNotAllowed = true
	router.NoMethod(methodNotAllowed)
	router.Use(cors)

	router.GET("/health", s.health)
	router.GET("/export-contacts", s.exportContacts)

	contacts := router.Group("/contacts", s.requireCaller)
	contacts.GET("", s.findContacts)
	contacts.POST("", s.createContact)
	contacts.GET("/:id", s.findContactByID)
	contacts.PUT("/:id", s.updateContactByID)
	contacts.DELETE("/:id", s.deleteContactByID)

	if s.metricsPath != "" {
		router.GET(s.metricsPath, gin.WrapH(s.metrics.Handler()))
	}
	return router
}

// Run serves the API on the specified port until the server fails.
func (s *Service) Run(port string) error {
	s.logger.Info("Starting contacts service.", zap.String("port", port))
	if err := s.SetupHttpRouter().Run(":" + port); err != nil {
		return fmt.Errorf("serve http: %w", err)
	}
	return nil
}

// cors adds the CORS headers to every answer and answers preflight requests right away. It runs
// before routing is resolved, so preflights for unknown paths succeed as well.
func cors(c *gin.Context) {
	header := c.Writer.Header()
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusOK)
		return
	}
	c.Next()
}

func methodNotAllowed(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
}

// requireCaller rejects requests without a valid bearer token and stores the caller otherwise.
func (s *Service) requireCaller(c *gin.Context) {
	caller, err := s.verifier.CallerFromHeader(c.GetHeader("Authorization"))
	if err != nil || caller.Anonymous() {
		if err != nil {
			s.logger.Debug("Rejected bearer token.", zap.Error(err))
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "message": "valid bearer token required"})
		return
	}
	c.Set(callerKey, caller)
	c.Next()
}

// scope returns the data-access client of the caller stored by requireCaller.
func (s *Service) scope(c *gin.Context) *store.Scope {
	caller := c.MustGet(callerKey).(auth.Caller)
	return s.store.ForOwner(caller.Id)
}
