package hibp

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary of a batch run.
type Summary struct {
	Checked uint64
	Exposed uint64
	Clean   uint64
	Unknown uint64
	Invalid uint64
}

type status struct {
	queued      uint64
	checked     uint64
	exposed     uint64
	clean       uint64
	unknown     uint64
	rateLimited uint64
	invalid     uint64
	start       time.Time
	ticker      *time.Ticker
	progress    chan bool
}

func newStatus(interval time.Duration) *status {
	return &status{
		start:    time.Now(),
		ticker:   time.NewTicker(interval),
		progress: make(chan bool),
	}
}

// BeginProgress reports the progress of the batch every tick.
func (s *status) BeginProgress() {
	go func() {
		for {
			select {
			case <-s.progress:
				return
			case <-s.ticker.C:
				checked := atomic.LoadUint64(&s.checked)
				queued := atomic.LoadUint64(&s.queued)
				log.Info().Msgf("%d of %d credentials checked. %.0f checks/s", checked, queued, s.checksPerSecond())
			}
		}
	}()
}

func (s *status) Queued() {
	atomic.AddUint64(&s.queued, 1)
}

func (s *status) Invalid() {
	atomic.AddUint64(&s.invalid, 1)
}

func (s *status) Checked(r Result) {
	atomic.AddUint64(&s.checked, 1)
	switch r.Status {
	case Exposed:
		atomic.AddUint64(&s.exposed, 1)
	case Clean:
		atomic.AddUint64(&s.clean, 1)
	default:
		atomic.AddUint64(&s.unknown, 1)
		if r.RateLimited() {
			atomic.AddUint64(&s.rateLimited, 1)
		}
	}
}

func (s *status) checksPerSecond() float64 {
	elapsed := time.Since(s.start)
	checked := float64(atomic.LoadUint64(&s.checked))
	if elapsed.Seconds() > 0 {
		return checked / elapsed.Seconds()
	}
	return checked
}

func (s *status) Summary() Summary {
	return Summary{
		Checked: atomic.LoadUint64(&s.checked),
		Exposed: atomic.LoadUint64(&s.exposed),
		Clean:   atomic.LoadUint64(&s.clean),
		Unknown: atomic.LoadUint64(&s.unknown),
		Invalid: atomic.LoadUint64(&s.invalid),
	}
}

func (s *status) Done() {
	s.ticker.Stop()
	s.progress <- true

	sum := s.Summary()
	p := message.NewPrinter(language.English)
	log.Info().Msgf("finished checking %s credentials in %v. %.0f checks/s",
		p.Sprintf("%d", sum.Checked), time.Since(s.start), s.checksPerSecond())
	log.Info().Msgf("exposed: %s, clean: %s, unknown: %s, invalid lines: %s",
		p.Sprintf("%d", sum.Exposed), p.Sprintf("%d", sum.Clean), p.Sprintf("%d", sum.Unknown), p.Sprintf("%d", sum.Invalid))
	if rl := atomic.LoadUint64(&s.rateLimited); rl > 0 {
		log.Warn().Msgf("%s checks were rate limited by the range API", p.Sprintf("%d", rl))
	}
}
