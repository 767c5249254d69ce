package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckMasksWholeWords(t *testing.T) {
	f := Default()

	res := f.Check("What the HELL, you Jerk. Hello there, classic assassin.")
	assert.True(t, res.HasProfanity)
	assert.Equal(t, "What the ****, you ****. Hello there, classic assassin.", res.Filtered)
	assert.Equal(t, []string{"hell", "jerk"}, res.FlaggedWords)
}

func TestCheckDeduplicates(t *testing.T) {
	res := Default().Check("damn damn DAMN")
	assert.Equal(t, "**** **** ****", res.Filtered)
	assert.Equal(t, []string{"damn"}, res.FlaggedWords)
}

func TestCheckPrefersLongestMatch(t *testing.T) {
	res := Default().Check("asshole")
	assert.Equal(t, "*******", res.Filtered)
	assert.Equal(t, []string{"asshole"}, res.FlaggedWords)
}

func TestCheckClean(t *testing.T) {
	res := Default().Check("Happy birthday, Asha!")
	assert.False(t, res.HasProfanity)
	assert.Equal(t, "Happy birthday, Asha!", res.Filtered)
	assert.Empty(t, res.FlaggedWords)
	assert.False(t, Default().Contains("Happy birthday"))
}

func TestCheckAllMerges(t *testing.T) {
	has, words := Default().CheckAll("hi jerk", "", "crap and jerk")
	assert.True(t, has)
	assert.Equal(t, []string{"jerk", "crap"}, words)
}

func TestEmptyFilter(t *testing.T) {
	f := NewFilter(nil)
	res := f.Check("anything")
	assert.False(t, res.HasProfanity)
	assert.Equal(t, "anything", res.Filtered)
}
