package nlu

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kapu/interview-teleprompter-go/internal/util"
)

// AnswerCache keeps recent answers keyed by the normalized question. Repeated
// questions are common when the interviewer rephrases or the recognizer re-emits.
type AnswerCache struct {
	lru *expirable.LRU[string, *Answer]
}

func NewAnswerCache(size int, ttl time.Duration) *AnswerCache {
	if size <= 0 {
		size = 1
	}
	return &AnswerCache{
		lru: expirable.NewLRU[string, *Answer](size, nil, ttl),
	}
}

func cacheKey(question string) string {
	return util.Normalize(question)
}

func (c *AnswerCache) Get(question string) (*Answer, bool) {
	if c == nil {
		return nil, false
	}
	return c.lru.Get(cacheKey(question))
}

func (c *AnswerCache) Set(question string, answer *Answer) {
	if c == nil || answer == nil {
		return
	}
	c.lru.Add(cacheKey(question), answer)
}

func (c *AnswerCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

