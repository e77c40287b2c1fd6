// Package app wires the controllers, guards and ambient middleware into
// a gin engine
package app

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"bitwise74/rental-api/app/auth"
	"bitwise74/rental-api/app/item"
	"bitwise74/rental-api/app/root"
	"bitwise74/rental-api/app/user"
	"bitwise74/rental-api/internal"
	"bitwise74/rental-api/internal/apierr"
	"bitwise74/rental-api/pkg/middleware"
	"bitwise74/rental-api/pkg/validators"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const jsonBodyLimit = 1 << 20

type Options struct {
	CORSOrigins []string
	// Requests per second per client IP
	RateLimit int
	// Public item reads are cached for this long, 0 disables caching
	CacheTTL time.Duration
	// Bytes
	UploadMaxSize int64
}

func OptionsFromConfig() Options {
	origins := viper.GetStringSlice("host.cors")
	if len(origins) == 1 {
		origins = strings.Split(origins[0], ",")
	}

	return Options{
		CORSOrigins:   origins,
		RateLimit:     viper.GetInt("security.rate_limit"),
		CacheTTL:      viper.GetDuration("cache.ttl"),
		UploadMaxSize: viper.GetInt64("upload.max_size"),
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	origins = slices.DeleteFunc(origins, func(o string) bool { return strings.TrimSpace(o) == "" })
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}

	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	cfg.AllowOrigins = origins
	return cfg
}

// NewRouter builds the engine. Background work tied to the router, like the
// rate limiter cleanup, stops when ctx is cancelled
func NewRouter(ctx context.Context, d *internal.Deps, o Options) *gin.Engine {
	validators.Register()

	router := gin.New()

	router.Use(
		cors.New(corsConfig(o.CORSOrigins)),
		middleware.NewRequestIDMiddleware(),
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			apierr.Respond(c, fmt.Errorf("panic recovered, %v", recovered))
		}),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == http.MethodHead
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	if o.RateLimit > 0 {
		rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: o.RateLimit,
			Burst:             o.RateLimit * 2,
		})
		go rl.Run(ctx)

		router.Use(rl.Middleware())
	}

	router.RedirectFixedPath = true
	router.MaxMultipartMemory = 5 << 20

	router.NoRoute(func(c *gin.Context) {
		apierr.Respond(c, apierr.NotFound("Not Found - "+c.Request.URL.Path))
	})

	cacheFor := func(ttl time.Duration) gin.HandlerFunc {
		return func(c *gin.Context) { c.Next() }
	}
	if o.CacheTTL > 0 {
		store := persist.NewMemoryStore(time.Minute)
		cacheFor = func(ttl time.Duration) gin.HandlerFunc {
			return cache.CacheByRequestURI(store, ttl)
		}
	}

	jsonLimit := middleware.BodySizeLimiter(jsonBodyLimit)

	authn := middleware.Authenticate(d.Tokens)
	admin := middleware.RequireAdmin(d.Store)
	owner := middleware.RequireItemOwner(d.Store, d.Store)
	quota := middleware.ItemQuota(d.Store, d.MaxItems)

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		main.HEAD("/heartbeat", root.Heartbeat)

		// GET /api/validate		-> Validates a token and echoes its claims
		main.GET("/validate", middleware.Guards(authn), root.Validate)
	}

	a := main.Group("/auth", jsonLimit)
	{
		// POST /api/auth/login 		-> Exchanges credentials for a token
		a.POST("/login", func(c *gin.Context) { auth.Login(c, d) })

		// POST /api/auth/register 	-> Creates an unverified account
		a.POST("/register", func(c *gin.Context) { auth.Register(c, d) })

		// POST /api/auth/send-otp 	-> Mails a verification code
		a.POST("/send-otp", func(c *gin.Context) { auth.SendOTP(c, d) })

		// POST /api/auth/verify-otp 	-> Verifies the email and returns a reset token
		a.POST("/verify-otp", func(c *gin.Context) { auth.VerifyOTP(c, d) })

		// POST /api/auth/reset-password 	-> Replaces the password using the reset token
		a.POST("/reset-password", func(c *gin.Context) { auth.ResetPassword(c, d) })
	}

	u := main.Group("/users", jsonLimit)
	{
		// GET /api/users/get-user/:id 	-> Public profile of a user
		u.GET("/get-user/:id", func(c *gin.Context) { user.Get(c, d) })

		// PUT /api/users/update-user/:id 	-> Updates a profile, self or admin
		u.PUT("/update-user/:id", middleware.Guards(authn), func(c *gin.Context) { user.Update(c, d) })

		// GET /api/users 		-> Lists every user
		u.GET("", middleware.Guards(authn, admin), func(c *gin.Context) { user.List(c, d) })

		// DELETE /api/users/delete-user/:id 	-> Deletes a user and their items
		u.DELETE("/delete-user/:id", middleware.Guards(authn, admin), func(c *gin.Context) { user.Delete(c, d) })
	}

	i := main.Group("/items")
	{
		// GET /api/items 		-> Filtered and paginated listing
		i.GET("", cacheFor(o.CacheTTL), func(c *gin.Context) { item.List(c, d) })

		// GET /api/items/get-nearby-items 	-> Available items around a point
		i.GET("/get-nearby-items", jsonLimit, func(c *gin.Context) { item.Nearby(c, d) })

		// GET /api/items/get-item/:id 	-> A single item with its owner
		i.GET("/get-item/:id", cacheFor(o.CacheTTL), func(c *gin.Context) { item.Get(c, d) })

		// GET /api/items/get-items-by-owner/:ownerId 	-> Available items of a user
		i.GET("/get-items-by-owner/:ownerId", cacheFor(o.CacheTTL), func(c *gin.Context) { item.ByOwner(c, d) })

		// GET /api/items/get-my-items 	-> Every item of the caller
		i.GET("/get-my-items", middleware.Guards(authn), func(c *gin.Context) { item.Mine(c, d) })

		// GET /api/items/get-my-stats 	-> Quota and availability counts of the caller
		i.GET("/get-my-stats", middleware.Guards(authn), func(c *gin.Context) { item.MyStats(c, d) })

		// POST /api/items/create-item 	-> Creates an item while under the quota
		i.POST("/create-item", jsonLimit, middleware.Guards(authn, quota), func(c *gin.Context) { item.Create(c, d) })

		// PUT /api/items/update-item/:id 	-> Updates an item, owner or admin
		i.PUT("/update-item/:id", jsonLimit, middleware.Guards(authn, owner), func(c *gin.Context) { item.Update(c, d) })

		// DELETE /api/items/delete-item/:id 	-> Deletes an item, owner or admin
		i.DELETE("/delete-item/:id", middleware.Guards(authn, owner), func(c *gin.Context) { item.Delete(c, d) })

		// PATCH /api/items/toggle-availability/:id 	-> Flips availability, owner or admin
		i.PATCH("/toggle-availability/:id", middleware.Guards(authn, owner), func(c *gin.Context) { item.ToggleAvailability(c, d) })

		if d.Images != nil {
			// POST /api/items/upload-image 	-> Stores a picture and returns its URL
			i.POST("/upload-image",
				middleware.BodySizeLimiter(o.UploadMaxSize+jsonBodyLimit),
				middleware.Guards(authn),
				func(c *gin.Context) { item.UploadImage(c, d) },
			)
		}
	}

	return router
}
