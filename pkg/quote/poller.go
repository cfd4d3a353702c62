package quote

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultPollInterval keeps a committed quote fresh against a moving
	// market.
	DefaultPollInterval = 15 * time.Second
	// DefaultDebounce coalesces rapid input edits into one request.
	DefaultDebounce = 400 * time.Millisecond
)

// Source fetches a quote for a set of params. *Engine satisfies it.
type Source interface {
	GetQuote(ctx context.Context, params Params) (*Quote, error)
}

// Result is delivered to the poller's callback for every completed fetch
// that is still relevant to the current inputs.
type Result struct {
	Params Params
	Quote  *Quote
	Err    error
}

// Poller debounces quote input changes, polls the committed request on a
// fixed interval, and discards results whose input tuple has been
// superseded. A later Update always wins over earlier in-flight fetches.
type Poller struct {
	source   Source
	interval time.Duration
	debounce time.Duration
	onResult func(Result)
	log      *logrus.Entry

	mu            sync.Mutex
	currentKey    string
	debounceTimer *time.Timer
	stopPoll      chan struct{}
	stopped       bool
}

// NewPoller creates a poller delivering results to onResult. The callback is
// invoked from background goroutines; it must be safe for that.
func NewPoller(source Source, interval, debounce time.Duration, onResult func(Result), log *logrus.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Poller{
		source:   source,
		interval: interval,
		debounce: debounce,
		onResult: onResult,
		log:      log.WithField("component", "quote-poller"),
	}
}

// Update registers a new input tuple. Edits arriving within the debounce
// window replace the pending one; only the last is committed. Committing a
// new tuple invalidates all in-flight fetches for the previous one.
func (p *Poller) Update(params Params) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	if p.debounceTimer != nil {
		p.debounceTimer.Stop()
	}
	p.debounceTimer = time.AfterFunc(p.debounce, func() {
		p.commit(params)
	})
}

// Stop cancels the pending debounce and the active poll loop. Results from
// fetches already in flight are discarded on arrival.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopped = true
	if p.debounceTimer != nil {
		p.debounceTimer.Stop()
		p.debounceTimer = nil
	}
	if p.stopPoll != nil {
		close(p.stopPoll)
		p.stopPoll = nil
	}
	p.currentKey = ""
}

func (p *Poller) commit(params Params) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	key := params.Key()
	if key == p.currentKey {
		p.mu.Unlock()
		return
	}
	if p.stopPoll != nil {
		close(p.stopPoll)
	}
	stop := make(chan struct{})
	p.stopPoll = stop
	p.currentKey = key
	p.mu.Unlock()

	p.log.WithField("key", key).Debug("committed quote request")
	go p.pollLoop(params, key, stop)
}

func (p *Poller) pollLoop(params Params, key string, stop chan struct{}) {
	p.fetch(params, key)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.fetch(params, key)
		}
	}
}

func (p *Poller) fetch(params Params, key string) {
	q, err := p.source.GetQuote(context.Background(), params)

	// Guard every async completion: deliver only if this key is still the
	// committed input tuple.
	p.mu.Lock()
	relevant := !p.stopped && p.currentKey == key
	p.mu.Unlock()
	if !relevant {
		p.log.WithField("key", key).Debug("discarding superseded quote result")
		return
	}
	p.onResult(Result{Params: params, Quote: q, Err: err})
}
