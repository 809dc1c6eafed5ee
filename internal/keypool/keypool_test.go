package keypool

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePool(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "trim and drop empties", raw: "k1, k2 ,,k3", want: []string{"k1", "k2", "k3"}},
		{name: "single", raw: "gsk_only", want: []string{"gsk_only"}},
		{name: "whitespace only", raw: "   ", want: []string{}},
		{name: "commas only", raw: " , ,, ", want: []string{}},
		{name: "tabs and newlines", raw: "\tk1\n,k2\r\n", want: []string{"k1", "k2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePool(tt.raw))
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		src     Source
		want    []string
		wantErr error
	}{
		{name: "absent", src: StaticSource{}, wantErr: ErrNoKeysConfigured},
		{name: "empty string counts as absent", src: StaticSource{Raw: "", Present: true}, wantErr: ErrNoKeysConfigured},
		{name: "whitespace only", src: StaticSource{Raw: "  ", Present: true}, wantErr: ErrNoValidKeys},
		{name: "commas only", src: StaticSource{Raw: ",,", Present: true}, wantErr: ErrNoValidKeys},
		{name: "valid", src: StaticSource{Raw: "a,b", Present: true}, want: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := Resolve(tt.src)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, pool)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, pool)
		})
	}
}

func TestViperSourceReadsEnvironmentPerCall(t *testing.T) {
	v := viper.New()
	v.AutomaticEnv()
	src := NewViperSource(v, "GROQ_API_KEYS")

	t.Setenv("GROQ_API_KEYS", "")
	_, err := Resolve(src)
	assert.ErrorIs(t, err, ErrNoKeysConfigured)

	t.Setenv("GROQ_API_KEYS", " , ")
	_, err = Resolve(src)
	assert.ErrorIs(t, err, ErrNoValidKeys)

	t.Setenv("GROQ_API_KEYS", "k1, k2 ,,k3")
	pool, err := Resolve(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"k1", "k2", "k3"}, pool)

	t.Setenv("GROQ_API_KEYS", "k4")
	pool, err = Resolve(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"k4"}, pool)
}

func TestRandomSelectorIsUniform(t *testing.T) {
	pool := []string{"k1", "k2", "k3", "k4"}
	const trials = 40000
	counts := map[string]int{}

	var sel RandomSelector
	for i := 0; i < trials; i++ {
		counts[sel.Pick(pool)]++
	}

	require.Len(t, counts, len(pool), "every key must be picked")
	expected := trials / len(pool)
	for _, k := range pool {
		// ~10 standard deviations, so the test is not flaky
		assert.InDelta(t, expected, counts[k], 900, "key %s", k)
	}
}

func TestRandomSelectorSingleKey(t *testing.T) {
	var sel RandomSelector
	for i := 0; i < 10; i++ {
		assert.Equal(t, "only", sel.Pick([]string{"only"}))
	}
}
