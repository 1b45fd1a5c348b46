// Package api contains all endpoints available
package api

import (
	"fmt"
	"time"
	"xendpal/file-api/db"
	"xendpal/file-api/middleware"
	"xendpal/file-api/service"
	"xendpal/file-api/storage"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var store = persist.NewMemoryStore(time.Minute)

type API struct {
	DB       *gorm.DB
	Router   *gin.Engine
	Files    storage.Store
	Accounts *service.AccountStore
	Uploader *service.Uploader
	Shares   *service.ShareService
	Tasks    *service.TaskQueue
}

func NewRouter() (*API, error) {
	a := &API{
		Tasks: service.NewTaskQueue(2, 64),
	}

	db, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	a.DB = db

	makeLogger()

	files, err := storage.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage backend, %w", err)
	}
	a.Files = files

	a.Accounts = service.NewAccountStore(db)
	a.Uploader = service.NewUploader(db, files)
	a.Shares = service.NewShareService(db, a.Tasks)

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userEmail"); v != "" {
					fields = append(fields, zap.String("user_email", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	a.Router.MaxMultipartMemory = 5 << 20

	jwt := middleware.NewJWTMiddleware(db)
	loginLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: 5,
		Burst:             20,
	})
	maxUploadSize := viper.GetInt64("upload.max_size")

	// HEAD /heartbeat		-> Used to check if the server is alive
	router.HEAD("/heartbeat", a.Heartbeat)

	// HEAD /validate		-> Validates a bearer token
	router.HEAD("/validate", jwt, a.Validate)

	user := router.Group("/user", middleware.BodySizeLimiter(1<<20))
	{
		// POST /user/login/google	-> Exchanges a Google authorization code for tokens
		user.POST("/login/google", loginLimiter, a.GoogleLogin)

		// POST /user/login/demo	-> Logs in the demo account
		user.POST("/login/demo", loginLimiter, a.DemoLogin)

		// POST /user/refresh-token	-> Mints a new access token
		user.POST("/refresh-token", a.RefreshToken)

		// GET /user/info		-> Returns the profile of the current user
		user.GET("/info", jwt, a.UserInfo)

		// GET /user/get-yearly-usage	-> Returns per-month upload usage for this year
		user.GET("/get-yearly-usage", jwt, a.YearlyUsage)

		// GET /user/history		-> Returns today's history entries
		user.GET("/history", jwt, a.History)

		// GET /user/google_redirect	-> Redirects to the provider authorization URL
		user.GET("/google_redirect", cacheFor(60), a.GoogleRedirect)
	}

	file := router.Group("/file")
	{
		// POST /file/upload		-> Uploads a new ZIP archive
		file.POST("/upload", jwt, middleware.BodySizeLimiter(maxUploadSize), a.FileUpload)

		// GET /file/user_items		-> Returns owned and shared-to uploads
		file.GET("/user_items", jwt, a.UserItems)

		// POST /file/share-upload	-> Shares an upload with a recipient
		file.POST("/share-upload", jwt, a.ShareUpload)

		// DELETE /file/delete_upload/:upload_id -> Deletes an owned upload
		file.DELETE("/delete_upload/:upload_id", jwt, a.FileDelete)
	}

	a.Tasks.StartWorkerPool()

	return a, nil
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	if lvl, err := zapcore.ParseLevel(viper.GetString("app.log_level")); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
