// Package router assembles the gin engine: global middleware, the optional static
// client, Swagger UI and the rate-limited, key-protected intake API.
package router

import (
	"fmt"
	"net/http"
	"path"
	"path/filepath"

	"github.com/ariebrainware/patient-intake/auth"
	"github.com/ariebrainware/patient-intake/config"
	_ "github.com/ariebrainware/patient-intake/docs"
	"github.com/ariebrainware/patient-intake/endpoint"
	"github.com/ariebrainware/patient-intake/logger"
	"github.com/ariebrainware/patient-intake/middleware"
	"github.com/ariebrainware/patient-intake/util"
	"github.com/ariebrainware/patient-intake/validation"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// NewRouter builds the HTTP handler for cfg. db may be nil or unreachable; the API
// then answers with storage errors instead of refusing to start.
func NewRouter(cfg *config.Config, db *gorm.DB, log *logger.Logger) (*gin.Engine, error) {
	mode, err := auth.ParseMode(cfg.AuthMode)
	if err != nil {
		return nil, err
	}
	policy, err := validation.ParsePolicy(cfg.InfoPolicy)
	if err != nil {
		return nil, err
	}
	authenticator := &auth.Authenticator{
		Mode:           mode,
		Secret:         cfg.APIKey,
		AllowAnonymous: cfg.AllowUnauthenticated,
	}
	if log == nil {
		log = logger.Nop()
	}
	if authenticator.Open() {
		log.Warn().Str("auth_mode", string(mode)).Msg("API key check disabled, every request is authorized")
	}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	r.Use(gin.Recovery())
	r.Use(middleware.EndpointCallLogger(log))
	r.Use(middleware.RequireHTTPS(cfg.IsProduction()))
	r.Use(middleware.CORSMiddleware(middleware.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		APIKeyHeader:   cfg.APIKeyHeader,
	}))
	r.Use(middleware.DatabaseMiddleware(db))

	if cfg.ServeStatic {
		mountStatic(r, cfg.StaticDir)
	} else {
		r.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message": fmt.Sprintf("Welcome to %s!", cfg.AppName),
			})
		})
		r.NoRoute(notFound)
	}

	if cfg.EnableSwagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group("/")
	api.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		Limit:  cfg.RateLimit,
		Window: cfg.RateLimitWindow,
	}))
	api.Use(middleware.RequireAPIKey(authenticator, cfg.APIKeyHeader))
	{
		api.POST("/submit", endpoint.SubmitPatientData(validation.Rules{Info: policy}))
		api.GET("/data", endpoint.ListPatientData())
	}

	return r, nil
}

func notFound(c *gin.Context) {
	util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Not found"})
}

// mountStatic serves the browser client from dir. Paths that match no file fall
// through to the JSON 404.
func mountStatic(r *gin.Engine, dir string) {
	fs := http.Dir(dir)
	index := filepath.Join(dir, "index.html")

	r.GET("/", func(c *gin.Context) {
		c.File(index)
	})
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			notFound(c)
			return
		}
		name := path.Clean("/" + c.Request.URL.Path)
		f, err := fs.Open(name)
		if err != nil {
			notFound(c)
			return
		}
		info, err := f.Stat()
		_ = f.Close()
		if err != nil || info.IsDir() {
			notFound(c)
			return
		}
		c.FileFromFS(name, fs)
	})
}
