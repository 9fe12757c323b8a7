package memory

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"party-quiz-service/internal/app"
	"party-quiz-service/internal/domain"
)

// QuestionCache fronts a question source with a TTL cache to avoid repeated
// backing-store hits when several rooms start from the same filter.
// Shuffling happens per call on a copy, so cached sets stay deterministic.
type QuestionCache struct {
	source app.QuestionSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	// rnd is shared across calls; rand.Rand is not safe for concurrent use,
	// and finish shuffles on every cached read.
	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionCache(source app.QuestionSource, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedSet),
	}
}

func (c *QuestionCache) Questions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	key := filterKey(filter)
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return c.finish(entry.questions, filter), nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.questions, nil
		}
		c.mu.RUnlock()

		unshuffled := filter
		unshuffled.Shuffle = false
		questions, err := c.source.Questions(ctx, unshuffled)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[key] = cachedSet{
			questions: questions,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return c.finish(result.([]domain.Question), filter), nil
}

func (c *QuestionCache) finish(questions []domain.Question, filter domain.QuestionFilter) []domain.Question {
	out := make([]domain.Question, len(questions))
	copy(out, questions)
	if filter.Shuffle {
		c.rndMu.Lock()
		c.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		c.rndMu.Unlock()
	}
	if filter.Count > 0 && len(out) > filter.Count {
		out = out[:filter.Count]
	}
	return out
}

func filterKey(f domain.QuestionFilter) string {
	return strings.Join([]string{
		strings.Join(f.Categories, ","),
		strings.Join(f.Difficulties, ","),
		strings.Join(f.ExcludeIDs, ","),
		strconv.Itoa(f.Count),
	}, "|")
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
