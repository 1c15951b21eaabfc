package sentiment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	DefaultCacheTTL = 30 * 24 * time.Hour
	cacheKeyPrefix  = "newsprice:sentiment"
)

// CachedClassifier is a read through redis cache in front of another classifier.
// Redis failures are logged and bypassed, they never fail a classification.
type CachedClassifier struct {
	inner Classifier
	rdb   redis.Cmdable
	ttl   time.Duration
}

func NewCachedClassifier(inner Classifier, rdb redis.Cmdable, ttl time.Duration) *CachedClassifier {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedClassifier{inner: inner, rdb: rdb, ttl: ttl}
}

func (cc *CachedClassifier) Name() string {
	return cc.inner.Name()
}

func (cc *CachedClassifier) Classify(ctx context.Context, text string) (int, error) {
	key := CacheKey(cc.inner.Name(), text)

	cached, err := cc.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		score, perr := strconv.Atoi(cached)
		if perr == nil && ValidateScore(score) == nil {
			return score, nil
		}
		log.Warn().Str("key", key).Str("value", cached).Msg("discarding malformed cached sentiment")
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Str("key", key).Msg("sentiment cache read failed")
	}

	score, err := cc.inner.Classify(ctx, text)
	if err != nil {
		return 0, err
	}

	if err := cc.rdb.Set(ctx, key, strconv.Itoa(score), cc.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("sentiment cache write failed")
	}

	return score, nil
}

// CacheKey is scoped by model so switching models never serves another model's scores
func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s:%s:%s", cacheKeyPrefix, model, hex.EncodeToString(sum[:]))
}
