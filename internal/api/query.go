// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/alvinbaena/pwdguard/pkg/generator"
	"github.com/alvinbaena/pwdguard/pkg/hibp"
	"github.com/alvinbaena/pwdguard/pkg/secret"
	"github.com/alvinbaena/pwdguard/pkg/strength"
)

type queryApi struct {
	engine    *hibp.Engine
	estimator *strength.Estimator
	generator *generator.Generator
}

func newQueryResponse(result hibp.Result) queryResponse {
	exposure := result.Exposure()
	return queryResponse{
		Status: result.Status,
		Pwned:  exposure.Exposed,
		Count:  exposure.Count,
		Error:  result.Reason(),
	}
}

func (q *queryApi) checkPassword(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	credential := secret.FromString(req.Password)
	defer credential.Zero()

	result := q.engine.Check(c.Request.Context(), credential)
	assessment := q.estimator.Assess(credential)

	resp := newQueryResponse(result)
	resp.Strength = &assessment

	// Replacements are only offered for credentials that should not be kept.
	if result.Status == hibp.Exposed || assessment.Weak() {
		candidates, err := q.generator.Suggestions()
		if err != nil {
			log.Error().Err(err).Msg("error generating password candidates")
		}
		resp.Candidates = candidates
	}

	c.JSON(http.StatusOK, resp)
}

func (q *queryApi) checkHash(c *gin.Context) {
	var req hashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	digest, err := hibp.ParseDigest(req.Hash)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "input is not a valid SHA1 Hexadecimal hash"})
		return
	}

	c.JSON(http.StatusOK, newQueryResponse(q.engine.CheckDigest(c.Request.Context(), digest)))
}

func (q *queryApi) generate(c *gin.Context) {
	candidates, err := q.generator.Suggestions()
	if err != nil {
		log.Error().Err(err).Msg("error generating password candidates")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate candidates"})
		return
	}

	c.JSON(http.StatusOK, generateResponse{Candidates: candidates})
}

// RegisterQueryApi mounts the check endpoints under check and the generator under group.
func RegisterQueryApi(group *gin.RouterGroup, engine *hibp.Engine, estimator *strength.Estimator, gen *generator.Generator) error {
	if engine == nil || estimator == nil || gen == nil {
		return errors.New("query API requires an engine, an estimator and a generator")
	}

	q := &queryApi{engine: engine, estimator: estimator, generator: gen}

	check := group.Group("/check")
	check.POST("/password", q.checkPassword)
	check.POST("/hash", q.checkHash)
	group.GET("/generate", q.generate)

	return nil
}
