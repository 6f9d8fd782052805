// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariebrainware/patient-intake/config"
	"github.com/ariebrainware/patient-intake/logger"
	"github.com/ariebrainware/patient-intake/router"
	"github.com/ariebrainware/patient-intake/util"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// @title                       Patient Intake API
// @version                     1.0
// @description                 Collects patient intake forms and lists stored records.
// @BasePath                    /
// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        x-api-key
func main() {
	// Load the configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger("server", "info").Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.NewLogger("server", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Set Gin mode from config
	gin.SetMode(cfg.GinMode)

	db, err := config.ConnectMySQL(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("error configuring MySQL pool")
	}
	pingCtx, cancelPing := context.WithTimeout(context.Background(), cfg.DBConnectTimeout)
	if err := config.PingDatabase(pingCtx, cfg, db); err != nil {
		// Keep serving; requests report storage errors until MySQL is reachable.
		log.Error().Err(err).Str("host", cfg.DBHost).Msg("❌ MySQL connection failed")
	} else {
		log.Info().Str("host", cfg.DBHost).Str("database", cfg.DBName).Msg("✅ Connected to MySQL")
	}
	cancelPing()

	if cfg.RedisAddr != "" {
		if _, err := config.ConnectRedis(cfg); err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, rate limiting uses in-process counters")
		} else {
			log.Info().Str("addr", cfg.RedisAddr).Msg("Connected to Redis")
		}
	}

	if err := util.InitGeoIP(cfg.GeoIPDBPath); err != nil {
		log.Warn().Err(err).Str("path", cfg.GeoIPDBPath).Msg("GeoIP database unavailable, security events carry no location")
	}
	defer util.CloseGeoIP()

	handler, err := router.NewRouter(cfg, db, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error building router")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("🚀 Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("error starting server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if rdb := config.GetRedisClient(); rdb != nil {
		_ = rdb.Close()
	}
	hits, misses, size := util.GetGeoIPCacheMetrics()
	log.Info().Int64("geoip_cache_hits", hits).Int64("geoip_cache_misses", misses).Int("geoip_cache_size", size).Msg("stopped")
}
