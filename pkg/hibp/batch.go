// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"bufio"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/thinhdanggroup/executor"
	"golang.org/x/net/context"

	"github.com/alvinbaena/pwdguard/internal/util"
	"github.com/alvinbaena/pwdguard/pkg/secret"
)

// Batch checks many credentials concurrently. Every check is independent: a 429 or a network
// error only affects the credential whose request got it.
type Batch struct {
	engine      *Engine
	parallelism int
	interval    time.Duration
	ctx         context.Context
	hashed      bool
	stat        *status
	wm          sync.Mutex
	writer      *bufio.Writer
}

// NewBatch results for exposed and unknown credentials are written to out, identified by
// their line number only.
func NewBatch(engine *Engine, out io.Writer, parallelism int) *Batch {
	return &Batch{
		engine:      engine,
		parallelism: parallelism,
		interval:    10 * time.Second,
		writer:      bufio.NewWriter(out),
	}
}

// Process reads one credential per line, or one SHA1 hex hash per line if hashed is set.
func (b *Batch) Process(ctx context.Context, in io.Reader, hashed bool) (Summary, error) {
	s := util.Stats()
	defer s()

	var threads int
	if b.parallelism > 0 {
		threads = b.parallelism
	} else {
		// Each worker spends most of its time waiting on the network.
		threads = runtime.NumCPU() * 2
	}

	tasks, err := executor.New(executor.Config{
		ReqPerSeconds: 0,
		QueueSize:     2 * threads,
		NumWorkers:    threads,
	})
	if err != nil {
		return Summary{}, err
	}
	defer tasks.Close()

	b.ctx = ctx
	b.hashed = hashed
	b.stat = newStatus(b.interval)
	b.stat.BeginProgress()
	log.Info().Msgf("checking credentials with %d threads, ^C to stop the process", threads)

	scanner := bufio.NewScanner(in)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		if ctx.Err() != nil {
			break
		}

		b.stat.Queued()
		if err = tasks.Publish(b.processLine, n, line); err != nil {
			log.Panic().Err(err).Msgf("there is a programming error here.")
		}
	}

	tasks.Wait()
	b.stat.Done()

	if err = b.flush(); err != nil {
		return b.stat.Summary(), err
	}
	if err = scanner.Err(); err != nil {
		return b.stat.Summary(), err
	}
	return b.stat.Summary(), ctx.Err()
}

func (b *Batch) processLine(n int, line string) {
	var result Result

	switch {
	case b.ctx.Err() != nil:
		result = Result{Status: Unknown, Err: b.ctx.Err()}
	case b.hashed:
		d, err := ParseDigest(line)
		if err != nil {
			b.stat.Invalid()
			b.write(fmt.Sprintf("line %d: invalid hash", n))
			return
		}
		result = b.engine.CheckDigest(b.ctx, d)
	default:
		credential := secret.FromString(line)
		result = b.engine.Check(b.ctx, credential)
		credential.Zero()
	}

	b.stat.Checked(result)
	switch result.Status {
	case Exposed:
		b.write(fmt.Sprintf("line %d: exposed %d times", n, result.Count))
	case Unknown:
		b.write(fmt.Sprintf("line %d: unknown (%s)", n, result.Reason()))
	}
}

func (b *Batch) write(line string) {
	// Synchronize writes, we don't want intersected lines.
	b.wm.Lock()
	defer b.wm.Unlock()

	if _, err := b.writer.WriteString(line + "\n"); err != nil {
		log.Error().Err(err).Msg("error writing batch result")
	}
}

func (b *Batch) flush() error {
	b.wm.Lock()
	defer b.wm.Unlock()
	return b.writer.Flush()
}
