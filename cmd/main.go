package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"authshield/internal/caching"
	"authshield/internal/config"
	"authshield/internal/handlers"
	"authshield/internal/jobs/background"
	"authshield/internal/middleware"
	"authshield/internal/repositories"
	"authshield/internal/services"
	"authshield/pkg/database"
)

const version = "1.0.0"

// auditRetention is how long audit entries stay in Postgres before
// the archival job moves them to object storage.
const auditRetention = 90 * 24 * time.Hour

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	pool, err := database.NewPool(context.Background(), cfg.Server.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret; issued tokens will not survive a restart")
	}

	// Create repositories
	clientRepo := repositories.NewClientRepo(pool)
	userRepo := repositories.NewUserRepo(pool)
	tokenRepo := repositories.NewTokenRepo(pool)
	scopeRepo := repositories.NewScopeRepo(pool)
	tenantRepo := repositories.NewTenantRepo(pool)
	auditLogRepo := repositories.NewAuditLogsRepo(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	// Create services
	secretVerifier := services.NewSecretVerifier([]byte(cfg.Auth.EncryptionKey))
	clientSvc := services.NewClientService(clientRepo, secretVerifier, cacheSvc, cfg.StoreTimeout())
	userSvc := services.NewUserService(userRepo, cfg.StoreTimeout())
	tokenSvc := services.NewTokenService(tokenRepo, cfg.RefreshTTL(), cfg.StoreTimeout())
	scopeSvc := services.NewScopeService(scopeRepo, cfg.StoreTimeout())
	tenantSvc := services.NewTenantService(tenantRepo, cfg.StoreTimeout())
	auditSvc := services.NewAuditLogsService(auditLogRepo, cfg.StoreTimeout())

	// jwt-bearer assertions are accepted only when a JWKS endpoint is
	// configured.
	var assertions services.AssertionVerifier
	if cfg.JWKS.URL != "" {
		assertions, err = services.NewJWKSAssertionVerifier(cfg.JWKS.URL, cfg.JWKS.Issuer, cfg.JWKS.Audience)
		if err != nil {
			log.Fatalf("Failed to initialize JWKS verifier: %v", err)
		}
	}

	authSvc := services.NewAuthService(
		clientSvc,
		userSvc,
		tokenSvc,
		scopeSvc,
		auditSvc,
		cacheSvc,
		assertions,
		[]byte(jwtSecret),
		cfg.Auth.Issuer,
		cfg.Auth.Audience,
		cfg.AccessTTL(),
	)

	// Audit archival to object storage
	storage, err := services.NewMinioStorage(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}
	if err := storage.EnsureBucketExists(context.Background(), cfg.Minio.Bucket); err != nil {
		log.Printf("WARNING: audit archive bucket unavailable: %v", err)
	}
	archiveSvc := services.NewArchiveService(auditLogRepo, storage, cfg.Minio.Bucket)

	// Background jobs
	scheduler, err := background.NewJobScheduler(tokenSvc, archiveSvc, auditRetention)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create handlers
	oauthHandlers := handlers.NewOAuthHandlers(authSvc)
	clientHandlers := handlers.NewClientHandlers(clientSvc)
	userHandlers := handlers.NewUserHandlers(userSvc)
	scopeHandlers := handlers.NewScopeHandlers(scopeSvc)
	tenantHandlers := handlers.NewTenantHandlers(tenantSvc)
	auditHandlers := handlers.NewAuditLogsHandlers(auditSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	// Policy-driven auth middleware
	authMiddleware := middleware.NewAuthMiddleware(authSvc, cacheSvc, middleware.DefaultPolicyTable())

	// JWT pre-check on the protected group. Signature and expiry are
	// rejected here; revocation and scope checks happen in
	// CheckCredentials.
	jwtConfig := echojwt.Config{
		SigningKey: []byte(jwtSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(services.TokenClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(401, map[string]string{
				"error":             "invalid_token",
				"error_description": "the access token is invalid or expired",
			})
		},
	}

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)

	// Token endpoints (client credentials in the request body, no
	// bearer token required)
	public := e.Group("/oauth")
	public.Use(authMiddleware.RateLimit())
	public.POST("/token", oauthHandlers.Token)
	public.POST("/revoke", oauthHandlers.Revoke)

	// Management endpoints (require a valid bearer token with the
	// scopes the policy table demands)
	protected := e.Group("/oauth")
	protected.Use(echojwt.WithConfig(jwtConfig))
	protected.Use(authMiddleware.CheckCredentials())
	protected.Use(authMiddleware.RateLimit())

	protected.POST("/introspect", oauthHandlers.Introspect)

	protected.POST("/users", userHandlers.Create)
	protected.GET("/users", userHandlers.List)
	protected.GET("/users/:id", userHandlers.Get)
	protected.PUT("/users/:id", userHandlers.Update)
	protected.DELETE("/users/:id", userHandlers.Delete)
	protected.GET("/users/:id/scopes", userHandlers.GetScopes)
	protected.POST("/users/:id/scopes", userHandlers.GrantScope)
	protected.DELETE("/users/:id/scopes/:scope", userHandlers.RevokeScope)

	protected.POST("/clients", clientHandlers.Create)
	protected.GET("/clients", clientHandlers.List)
	protected.GET("/clients/:id", clientHandlers.Get)
	protected.DELETE("/clients/:id", clientHandlers.Delete)
	protected.GET("/clients/:id/scopes", clientHandlers.GetScopes)
	protected.POST("/clients/:id/scopes", clientHandlers.GrantScope)
	protected.DELETE("/clients/:id/scopes/:scope", clientHandlers.RevokeScope)

	protected.POST("/scopes", scopeHandlers.Create)
	protected.GET("/scopes", scopeHandlers.List)
	protected.GET("/scopes/:name", scopeHandlers.Get)
	protected.DELETE("/scopes/:name", scopeHandlers.Delete)

	protected.POST("/tenants", tenantHandlers.Create)
	protected.GET("/tenants", tenantHandlers.List)
	protected.GET("/tenants/:id", tenantHandlers.Get)
	protected.PUT("/tenants/:id", tenantHandlers.Update)
	protected.DELETE("/tenants/:id", tenantHandlers.Delete)

	protected.GET("/audit-logs", auditHandlers.List)

	log.Printf("authshield v%s starting on port %d", version, cfg.Server.Port)
	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", cfg.Server.Port)))
}
