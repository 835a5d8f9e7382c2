package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueConfig_Eligible(t *testing.T) {
	open, ok := GetQueueConfig(QueueTypeOpen)
	require.True(t, ok)
	novice, _ := GetQueueConfig(QueueTypeNovice)
	elite, _ := GetQueueConfig(QueueTypeElite)
	wingman, _ := GetQueueConfig(QueueTypeWingman)

	tests := []struct {
		name     string
		cfg      QueueConfig
		rating   int
		eligible bool
	}{
		{"open accepts floor", open, 0, true},
		{"open accepts ceiling", open, 20, true},
		{"open rejects below floor", open, -1, false},
		{"open rejects above ceiling", open, 21, false},

		{"novice accepts 0", novice, 0, true},
		{"novice accepts boundary 9", novice, 9, true},
		{"novice rejects 10", novice, 10, false},
		{"novice rejects 20", novice, 20, false},

		{"elite rejects 11", elite, 11, false},
		{"elite accepts boundary 12", elite, 12, true},
		{"elite accepts 20", elite, 20, true},
		{"elite rejects 0", elite, 0, false},

		{"wingman skips gate entirely", wingman, 0, true},
		{"wingman accepts any rating", wingman, 20, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.eligible, tt.cfg.Eligible(tt.rating))
		})
	}
}

func TestGetQueueConfig_Unknown(t *testing.T) {
	_, ok := GetQueueConfig("ranked_5v5")
	assert.False(t, ok)
}

func TestQueueConfig_RequiredPlayers(t *testing.T) {
	for _, qt := range AllQueueTypes() {
		cfg, ok := GetQueueConfig(qt)
		require.True(t, ok)

		if qt == QueueTypeWingman {
			assert.Equal(t, 4, cfg.RequiredPlayers)
		} else {
			assert.Equal(t, 10, cfg.RequiredPlayers)
		}
		// 두 팀으로 나누어 떨어져야 한다
		assert.Zero(t, cfg.RequiredPlayers%2)
	}
}
