// Package keypool turns the comma separated GROQ_API_KEYS value into a pool
// of bearer tokens and picks one per request.
package keypool

import (
	"errors"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/viper"
)

var (
	ErrNoKeysConfigured = errors.New("no api keys configured")
	ErrNoValidKeys      = errors.New("no valid api keys")
)

// Source yields the raw pool value. ok is false when the value is absent.
type Source interface {
	Lookup() (raw string, ok bool)
}

// Selector picks one key out of a non-empty pool
type Selector interface {
	Pick(pool []string) string
}

// ViperSource reads the pool through viper on every call, so a change to
// the environment is visible to the next request.
type ViperSource struct {
	v   *viper.Viper
	key string
}

func NewViperSource(v *viper.Viper, key string) *ViperSource {
	return &ViperSource{v: v, key: key}
}

func (s *ViperSource) Lookup() (string, bool) {
	if !s.v.IsSet(s.key) {
		return "", false
	}
	raw := s.v.GetString(s.key)
	return raw, raw != ""
}

// StaticSource is a fixed pool value
type StaticSource struct {
	Raw     string
	Present bool
}

func (s StaticSource) Lookup() (string, bool) {
	return s.Raw, s.Present && s.Raw != ""
}

// RandomSelector picks uniformly at random, independently on every call
type RandomSelector struct{}

func (RandomSelector) Pick(pool []string) string {
	return lo.Sample(pool)
}

// ParsePool splits raw on commas, trims each entry and drops empty ones
func ParsePool(raw string) []string {
	keys := lo.Map(strings.Split(raw, ","), func(k string, _ int) string {
		return strings.TrimSpace(k)
	})
	return lo.Compact(keys)
}

// Resolve reads and parses the pool. It distinguishes an absent value from
// one that holds no usable keys.
func Resolve(src Source) ([]string, error) {
	raw, ok := src.Lookup()
	if !ok {
		return nil, ErrNoKeysConfigured
	}
	pool := ParsePool(raw)
	if len(pool) == 0 {
		return nil, ErrNoValidKeys
	}
	return pool, nil
}
