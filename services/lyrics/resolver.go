// Package lyrics picks a provider order per request and returns the first
// lyrics any platform can supply.
package lyrics

import (
	"context"
	"math/rand"
	"songstory-api-go/logcolors"
	"songstory-api-go/services/providers"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Resolver tries every provider in a freshly shuffled order, stopping at the
// first one that returns lyrics.
type Resolver struct {
	providers []providers.Provider

	mu  sync.Mutex // guards rng; *rand.Rand is not safe for concurrent use
	rng *rand.Rand
}

// NewResolver creates a resolver over the given providers. A nil rng uses a
// time-seeded source.
func NewResolver(ps []providers.Provider, rng *rand.Rand) *Resolver {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	list := make([]providers.Provider, len(ps))
	copy(list, ps)
	return &Resolver{providers: list, rng: rng}
}

// Order returns a uniformly shuffled copy of the provider list
func (r *Resolver) Order() []providers.Provider {
	order := make([]providers.Provider, len(r.providers))
	copy(order, r.providers)

	r.mu.Lock()
	r.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	r.mu.Unlock()
	return order
}

// Resolve returns the first provider's lyrics, or the "not found" result with
// Found == false when every provider came back empty. The error is non-nil
// only when ctx ended before every provider answered; the result is then not
// a real "not found" and must not be kept.
func (r *Resolver) Resolve(ctx context.Context, song, artist string) (providers.LyricsResult, error) {
	q := providers.Query{Song: song, Artist: artist}
	order := r.Order()

	for i, p := range order {
		if err := ctx.Err(); err != nil {
			log.Warnf("%s Stopping after %d providers: %v", logcolors.LogFallback, i, err)
			return providers.NotFound(q), err
		}
		if i > 0 {
			log.Debugf("%s Trying %s (%d/%d)", logcolors.LogFallback, p.Name(), i+1, len(order))
		}
		if result := p.Search(ctx, q); result != nil {
			log.Infof("%s %s matched %s", logcolors.LogLyrics, logcolors.Provider(p.Name()), q)
			return *result, nil
		}
	}

	// the last provider may have given up because ctx ended mid-request
	if err := ctx.Err(); err != nil {
		log.Warnf("%s Lookup for %s interrupted: %v", logcolors.LogFallback, q, err)
		return providers.NotFound(q), err
	}

	log.Infof("%s No provider had lyrics for %s", logcolors.LogNoMatch, q)
	return providers.NotFound(q), nil
}
