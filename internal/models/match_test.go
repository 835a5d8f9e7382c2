package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCancelThreshold(t *testing.T) {
	tests := []struct {
		maxPlayers int
		expected   int
	}{
		{10, 6},
		{4, 3},
		{2, 2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, CancelThreshold(tt.maxPlayers),
			"maxPlayers=%d", tt.maxPlayers)
	}
}

func TestMatch_IsOpen(t *testing.T) {
	assert.True(t, (&Match{Status: MatchStatusPending}).IsOpen())
	assert.True(t, (&Match{Status: MatchStatusInProgress}).IsOpen())
	assert.False(t, (&Match{Status: MatchStatusFinished}).IsOpen())
	assert.False(t, (&Match{Status: MatchStatusCancelled}).IsOpen())
}

func TestMatch_TeamCounts(t *testing.T) {
	match := &Match{
		Participants: []Participant{
			{PlayerID: "a", Team: TeamRed},
			{PlayerID: "b", Team: TeamRed},
			{PlayerID: "c", Team: TeamBlue},
		},
	}

	red, blue := match.TeamCounts()
	assert.Equal(t, 2, red)
	assert.Equal(t, 1, blue)

	assert.True(t, match.HasParticipant("a"))
	assert.False(t, match.HasParticipant("z"))
}

func TestValidPlayerRole(t *testing.T) {
	for _, role := range RolePriority {
		assert.True(t, ValidPlayerRole(role))
	}
	assert.False(t, ValidPlayerRole("coach"))
	assert.False(t, ValidPlayerRole(""))
}
