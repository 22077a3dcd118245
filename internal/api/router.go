// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

// Package api exposes the breach check, strength estimate and password candidates over HTTP.
package api

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/alvinbaena/pwdguard/internal/config"
	"github.com/alvinbaena/pwdguard/pkg/generator"
	"github.com/alvinbaena/pwdguard/pkg/hibp"
	"github.com/alvinbaena/pwdguard/pkg/strength"
)

type Services struct {
	Engine    *hibp.Engine
	Estimator *strength.Estimator
	Generator *generator.Generator
}

// NewRouter builds the API handler. Request bodies are never logged, only the request line.
func NewRouter(svc Services, cfg config.ServerConfig) (*gin.Engine, error) {
	router := gin.New()
	// gin trusts every proxy by default, which would let any caller pick the IP it is rate
	// limited by.
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	router.Use(gin.Recovery())
	router.Use(logger.SetLogger(logger.WithLogger(func(c *gin.Context, z zerolog.Logger) zerolog.Logger {
		return zerolog.New(gin.DefaultWriter).With().Timestamp().Logger()
	})))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	v1.Use(RateLimit(cfg.RateLimit, cfg.Burst))

	if err := RegisterQueryApi(v1, svc.Engine, svc.Estimator, svc.Generator); err != nil {
		return nil, err
	}

	return router, nil
}
