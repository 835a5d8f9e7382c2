package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextRating(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		won      bool
		expected int
	}{
		{"win increments", 10, true, 11},
		{"loss decrements", 10, false, 9},
		{"win at ceiling stays", 20, true, 20},
		{"loss at floor stays", 0, false, 0},
		{"win near ceiling", 19, true, 20},
		{"loss near floor", 1, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NextRating(tt.current, tt.won))
		})
	}
}

func TestNextRating_LongStreaks(t *testing.T) {
	// 연승해도 20을 넘지 않는다
	rating := 15
	for i := 0; i < 50; i++ {
		rating = NextRating(rating, true)
	}
	assert.Equal(t, 20, rating)

	// 연패해도 0 밑으로 내려가지 않는다
	for i := 0; i < 100; i++ {
		rating = NextRating(rating, false)
	}
	assert.Equal(t, 0, rating)
}

func TestClampRating(t *testing.T) {
	assert.Equal(t, 0, ClampRating(-5))
	assert.Equal(t, 0, ClampRating(0))
	assert.Equal(t, 13, ClampRating(13))
	assert.Equal(t, 20, ClampRating(20))
	assert.Equal(t, 20, ClampRating(37))
}

func TestMapSkillLevel(t *testing.T) {
	tests := []struct {
		skillLevel int
		expected   int
	}{
		{1, 2},
		{5, 10},
		{10, 20},
		{0, 0},
		{15, 20}, // 범위 밖 입력도 고정된다
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, MapSkillLevel(tt.skillLevel),
			"skill level %d", tt.skillLevel)
	}
}
