// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package api

import (
	"github.com/alvinbaena/pwdguard/pkg/generator"
	"github.com/alvinbaena/pwdguard/pkg/hibp"
	"github.com/alvinbaena/pwdguard/pkg/strength"
)

type queryRequest struct {
	Password string `json:"password" binding:"required"`
}

type hashRequest struct {
	Hash string `json:"hash" binding:"required"`
}

type queryResponse struct {
	Status     hibp.Status           `json:"status"`
	Pwned      bool                  `json:"pwned"`
	Count      int64                 `json:"count"`
	Error      string                `json:"error,omitempty"`
	Strength   *strength.Assessment  `json:"strength,omitempty"`
	Candidates []generator.Candidate `json:"candidates,omitempty"`
}

type generateResponse struct {
	Candidates []generator.Candidate `json:"candidates"`
}
