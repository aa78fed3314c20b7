// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting, and it bridges the
// REST surface to the realtime hub so both share one persistence path.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/afrimart/marketplace-backend/internal/config"
	"github.com/afrimart/marketplace-backend/internal/domain"
	"github.com/afrimart/marketplace-backend/internal/http/handlers"
	"github.com/afrimart/marketplace-backend/internal/http/middleware"
	"github.com/afrimart/marketplace-backend/internal/realtime"
	"github.com/afrimart/marketplace-backend/internal/repo"
	"github.com/afrimart/marketplace-backend/internal/search"
	"github.com/afrimart/marketplace-backend/internal/services"
	"github.com/afrimart/marketplace-backend/internal/storage"
)

// userRepoShim adapts the repository free functions to the services.UserRepo
// interface expected by the UserService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type userRepoShim struct{}

func (userRepoShim) CreateUser(ctx context.Context, db *gorm.DB, name, email, passwordHash, avatar string) (*domain.User, error) {
	return repo.CreateUser(ctx, db, name, email, passwordHash, avatar)
}

func (userRepoShim) GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

func (userRepoShim) GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	return repo.GetUserByEmail(ctx, db, email)
}

func (userRepoShim) UpdateUserAvatar(ctx context.Context, db *gorm.DB, id, avatar string) error {
	return repo.UpdateUserAvatar(ctx, db, id, avatar)
}

// messagingRepoShim adapts the repository free functions to
// services.MessagingRepo.
type messagingRepoShim struct{}

func (messagingRepoShim) GetOrder(ctx context.Context, db *gorm.DB, id string) (*domain.Order, error) {
	return repo.GetOrder(ctx, db, id)
}

func (messagingRepoShim) AppendOrderMessage(ctx context.Context, db *gorm.DB, orderID, senderID, body string) (*domain.OrderMessage, error) {
	return repo.AppendOrderMessage(ctx, db, orderID, senderID, body)
}

func (messagingRepoShim) GetGroup(ctx context.Context, db *gorm.DB, id string) (*domain.Group, error) {
	return repo.GetGroup(ctx, db, id)
}

func (messagingRepoShim) AppendGroupMessage(ctx context.Context, db *gorm.DB, groupID, senderID, senderName, body string) (*domain.GroupMessage, error) {
	return repo.AppendGroupMessage(ctx, db, groupID, senderID, senderName, body)
}

func (messagingRepoShim) GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

func (messagingRepoShim) CreateDirectMessage(ctx context.Context, db *gorm.DB, senderID, receiverID, body string) (*domain.DirectMessage, error) {
	return repo.CreateDirectMessage(ctx, db, senderID, receiverID, body)
}

func (messagingRepoShim) ListConversation(ctx context.Context, db *gorm.DB, userA, userB string) ([]domain.DirectMessage, error) {
	return repo.ListConversation(ctx, db, userA, userB)
}

// deliveryShim adapts the realtime hub to the services.Delivery contract,
// formatting persistence-layer notes into wire payloads.
type deliveryShim struct {
	hub *realtime.Hub
}

func (d deliveryShim) NotifyMessage(userID string, note services.MessageNote) {
	d.hub.Notify(userID, realtime.EventNewMessage, realtime.MessageNotification{
		SenderName: note.SenderName,
		Message:    note.Body,
		Timestamp:  note.SentAt.UTC().Format(time.RFC3339),
	})
}

func (d deliveryShim) BroadcastMessage(groupID string, note services.MessageNote) {
	d.hub.Broadcast(groupID, realtime.EventNewMessage, realtime.MessageNotification{
		SenderName: note.SenderName,
		Message:    note.Body,
		Timestamp:  note.SentAt.UTC().Format(time.RFC3339),
	})
}

func (d deliveryShim) NotifyOffer(sellerID, buyerID, itemID string) {
	note := realtime.OfferNotification{
		BuyerID: buyerID,
		ItemID:  itemID,
	}
	d.hub.Notify(sellerID, realtime.EventOfferNotification, note)
	// Older clients listen for newOffer instead.
	d.hub.Notify(sellerID, realtime.EventNewOffer, note)
}

// idemStoreShim adapts the idempotency repo functions to the
// handlers.IdempotencyStore contract.
type idemStoreShim struct {
	db  *gorm.DB
	ttl time.Duration
}

func (s idemStoreShim) Lookup(ctx context.Context, userID, scope, key string) (string, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, userID, scope, key, time.Now().UTC())
	if err != nil || rec == nil {
		return "", false, err
	}
	return rec.ResultID, true, nil
}

func (s idemStoreShim) Record(ctx context.Context, userID, scope, key, resultID string) error {
	_, err := repo.CreateIdempotency(ctx, s.db, userID, scope, key, resultID, http.StatusCreated, s.ttl)
	if err == repo.ErrDuplicate {
		return nil
	}
	return err
}

// Deps carries the externally constructed dependencies the router needs.
type Deps struct {
	DB      *gorm.DB
	Index   *search.MemoryIndex
	Hub     *realtime.Hub
	Uploads *storage.UploadStore
	Log     zerolog.Logger
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v* plus the /ws realtime channel.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	db := deps.DB

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (covers JSON; uploads get their own cap)
	limit := cfg.MaxUploadBytes + (1 << 20)
	r.Use(limitBody(limit))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/index/hub
	delivery := deliveryShim{hub: deps.Hub}
	tokens := services.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	userSvc := services.NewUserService(db, userRepoShim{}, tokens)
	itemSvc := services.NewItemService(db, deps.Index, delivery)
	orderSvc := services.NewOrderService(db)
	groupSvc := services.NewGroupService(db)
	msgSvc := services.NewMessagingService(db, messagingRepoShim{}, delivery)
	msgSvc.MaxMessageRunes = cfg.MaxMessageRunes

	idem := idemStoreShim{db: db, ttl: cfg.IdempotencyTTL}

	uh := handlers.NewUserHandlers(userSvc, deps.Uploads)
	ih := handlers.NewItemHandlers(itemSvc, deps.Uploads)
	oh := handlers.NewOrderHandlers(orderSvc, msgSvc, idem)
	gh := handlers.NewGroupHandlers(groupSvc, msgSvc)
	ch := handlers.NewChatHandlers(msgSvc)

	// Realtime channel: event dispatch shares the messaging service, so a
	// socket send and a REST send persist through the same path.
	dispatcher := &realtime.Dispatcher{Hub: deps.Hub, Messages: msgSvc, Log: deps.Log}
	ws := handlers.NewWSHandler(deps.Hub, dispatcher, cfg.WSQueueSize, deps.Log)
	r.GET("/ws", ws.Serve)

	// Stored media
	if deps.Uploads != nil {
		r.Static(cfg.UploadBaseURL, deps.Uploads.Dir)
	}

	auth := middleware.RequireAuth(tokens.Verify)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	api.Use(gzip.Gzip(gzip.DefaultCompression))
	{
		// Accounts
		api.POST("/users/register", uh.Register)
		api.POST("/users/login", uh.Login)
		api.GET("/users/me", auth, uh.Me)
		api.POST("/users/me/avatar", auth, uh.UploadAvatar)

		// Listings
		api.GET("/items", ih.List)
		api.GET("/items/search", ih.Search)
		api.GET("/items/:id", ih.Get)
		api.POST("/items", auth, ih.Create)
		api.PUT("/items/:id", auth, ih.Update)
		api.DELETE("/items/:id", auth, ih.Delete)
		api.POST("/items/:id/offer", auth, ih.MakeOffer)

		// Orders and their embedded chat
		api.POST("/orders", auth, oh.Create)
		api.GET("/orders", auth, oh.List)
		api.GET("/orders/:id", auth, oh.Get)
		api.PUT("/orders/:id/complete", auth, oh.Complete)
		api.GET("/orders/:id/messages", auth, oh.Messages)
		api.POST("/orders/:id/messages", auth, oh.SendMessage)

		// Groups
		api.GET("/groups", gh.List)
		api.GET("/groups/:id", gh.Get)
		api.GET("/groups/:id/messages", gh.Messages)
		api.POST("/groups", auth, gh.Create)
		api.POST("/groups/:id/join", auth, gh.Join)
		api.POST("/groups/:id/leave", auth, gh.Leave)
		api.POST("/groups/:id/messages", auth, gh.SendMessage)

		// Direct chat
		api.POST("/chats", auth, ch.Send)
		api.GET("/chats/:userId", auth, ch.Conversation)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
