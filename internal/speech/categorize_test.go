package speech

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		voice Voice
		want  Category
	}{
		{voice: Voice{Name: "Lekha", Lang: "hi-IN"}, want: CategoryHindi},
		{voice: Voice{Name: "Google हिन्दी", Lang: "hi"}, want: CategoryHindi},
		{voice: Voice{Name: "Microsoft Hindi Kalpana", Lang: "en-US"}, want: CategoryHindi},
		{voice: Voice{Name: "Rishi", Lang: "en-IN"}, want: CategoryIndianEnglish},
		{voice: Voice{Name: "English India", Lang: "en-GB"}, want: CategoryIndianEnglish},
		{voice: Voice{Name: "Hindi English", Lang: "en-IN"}, want: CategoryHindi},
		{voice: Voice{Name: "Samantha", Lang: "en-US"}, want: CategoryOthers},
		{voice: Voice{Name: "India", Lang: "fr-FR"}, want: CategoryOthers},
		{voice: Voice{Name: "Amélie", Lang: "fr-CA"}, want: CategoryOthers},
	}

	for _, tt := range tests {
		t.Run(tt.voice.Name+"/"+tt.voice.Lang, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.voice))
		})
	}
}

func TestCategorizeIsPartition(t *testing.T) {
	voices := []Voice{
		{Name: "Lekha", Lang: "hi-IN"},
		{Name: "Rishi", Lang: "en-IN"},
		{Name: "Samantha", Lang: "en-US"},
		{Name: "Veena", Lang: "en-IN"},
		{Name: "India Voice", Lang: "fr-FR"},
		{Name: "Hindi Voice", Lang: "en-IN"},
		{Name: "Daniel", Lang: "en-GB"},
		{Name: "Kyoko", Lang: "ja-JP"},
		{Name: "", Lang: ""},
	}

	c := Categorize(voices)

	assert.Equal(t, []Voice{{Name: "Lekha", Lang: "hi-IN"}, {Name: "Hindi Voice", Lang: "en-IN"}}, c.Hindi)
	assert.Equal(t, []Voice{{Name: "Rishi", Lang: "en-IN"}, {Name: "Veena", Lang: "en-IN"}}, c.IndianEnglish)
	assert.Len(t, c.Others, 5)

	// union equals the input and buckets are disjoint
	assert.ElementsMatch(t, voices, c.All())
	assert.Len(t, c.All(), len(voices))
}

func TestCategorizeEmpty(t *testing.T) {
	c := Categorize(nil)
	assert.NotNil(t, c.Hindi)
	assert.NotNil(t, c.IndianEnglish)
	assert.NotNil(t, c.Others)
	assert.Empty(t, c.All())
}

func TestCategorizedVoicesUsesPlatform(t *testing.T) {
	p := newFakePlatform(Voice{Name: "Lekha", Lang: "hi-IN"}, Voice{Name: "Alex", Lang: "en-US"})
	c := NewSpeaker(p).CategorizedVoices()

	assert.Len(t, c.Hindi, 1)
	assert.Empty(t, c.IndianEnglish)
	assert.Len(t, c.Others, 1)
}
