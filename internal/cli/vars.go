// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import "time"

var (
	// root
	verbose bool
	// root
	profile bool
	// root
	pprofPort uint16
	// root
	configFile string
	// batch
	inputFile string
	// batch
	outFile string
	// batch
	overwrite bool
	// batch
	threads int
	// check
	interactive bool
	// check, batch
	hashed bool
	// check, batch
	timeout time.Duration
	// generate
	copyIndex int
	// serve
	selfTLS bool
	// serve
	tlsCert string
	// serve
	tlsKey string
	// serve
	port uint16
	// serve
	rateLimit float64
	// serve
	burst int
	// serve
	trustedProxies []string
)
