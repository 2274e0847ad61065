package assistant

import (
	"context"

	"caixinha/internal/cache"
	"caixinha/internal/log"
)

const answerKeyPrefix = "caixinha:answer:"

// CachingGenerator memoises non-empty answers per (model, brief, question).
// The brief embeds the roster, so any mutation yields a fresh key.
type CachingGenerator struct {
	next   Generator
	store  cache.Cache[string]
	model  string
	logger *log.Logger
}

func NewCachingGenerator(next Generator, store cache.Cache[string], model string, logger *log.Logger) *CachingGenerator {
	if logger == nil {
		logger = log.Discard()
	}
	return &CachingGenerator{
		next:   next,
		store:  store,
		model:  model,
		logger: logger.WithComponent(log.ComponentCache),
	}
}

func (c *CachingGenerator) Generate(ctx context.Context, systemInstruction, prompt string) (string, error) {
	key := cache.Key(answerKeyPrefix, c.model, systemInstruction, prompt)
	if answer, ok := c.store.Get(key); ok {
		c.logger.DebugContext(ctx, "Answer served from cache", log.FieldCacheHit, true)
		return answer, nil
	}

	answer, err := c.next.Generate(ctx, systemInstruction, prompt)
	if err != nil {
		return "", err
	}
	if answer != "" {
		c.store.Set(key, answer)
	}
	return answer, nil
}
