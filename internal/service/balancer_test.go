package service

import (
	"fmt"
	"testing"

	"github.com/strikehub/strikehub-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTeams_EqualSizes(t *testing.T) {
	tests := []struct {
		name  string
		count int
	}{
		{"standard 10", 10},
		{"wingman 4", 4},
		{"two players", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidates := make([]Candidate, tt.count)
			for i := range candidates {
				candidates[i] = Candidate{
					PlayerID: fmt.Sprintf("p%d", i),
					Role:     models.RolePriority[i%len(models.RolePriority)],
					Rating:   i % 21,
				}
			}

			red, blue := SplitTeams(candidates)

			assert.Len(t, red, tt.count/2)
			assert.Len(t, blue, tt.count/2)

			// 모든 후보가 정확히 한 팀에 배정된다
			seen := map[string]int{}
			for _, c := range append(red, blue...) {
				seen[c.PlayerID]++
			}
			require.Len(t, seen, tt.count)
			for id, n := range seen {
				assert.Equal(t, 1, n, "player %s assigned %d times", id, n)
			}
		})
	}
}

func TestSplitTeams_Deterministic(t *testing.T) {
	candidates := []Candidate{
		{PlayerID: "a", Role: models.RoleIGL, Rating: 15},
		{PlayerID: "b", Role: models.RoleIGL, Rating: 8},
		{PlayerID: "c", Role: models.RoleAWPer, Rating: 12},
		{PlayerID: "d", Role: models.RoleEntry, Rating: 12},
		{PlayerID: "e", Role: models.RoleSupport, Rating: 4},
		{PlayerID: "f", Role: models.RoleLurker, Rating: 19},
	}

	red1, blue1 := SplitTeams(candidates)

	// 같은 입력에는 항상 같은 결과
	for i := 0; i < 20; i++ {
		red, blue := SplitTeams(candidates)
		assert.Equal(t, red1, red)
		assert.Equal(t, blue1, blue)
	}
}

func TestSplitTeams_SplitsSameRoleAcrossTeams(t *testing.T) {
	// 같은 포지션의 최상위 두 명은 반드시 다른 팀으로 갈라진다
	candidates := []Candidate{
		{PlayerID: "awp_strong", Role: models.RoleAWPer, Rating: 20},
		{PlayerID: "awp_weak", Role: models.RoleAWPer, Rating: 3},
		{PlayerID: "igl_strong", Role: models.RoleIGL, Rating: 18},
		{PlayerID: "igl_weak", Role: models.RoleIGL, Rating: 5},
	}

	red, blue := SplitTeams(candidates)

	teamOf := map[string]string{}
	for _, c := range red {
		teamOf[c.PlayerID] = "red"
	}
	for _, c := range blue {
		teamOf[c.PlayerID] = "blue"
	}

	assert.NotEqual(t, teamOf["awp_strong"], teamOf["awp_weak"])
	assert.NotEqual(t, teamOf["igl_strong"], teamOf["igl_weak"])
}

func TestSplitTeams_RatingTiesKeepInputOrder(t *testing.T) {
	// 동률이면 입력(큐 FIFO) 순서가 유지된다. 안정 정렬 확인
	candidates := []Candidate{
		{PlayerID: "first", Role: models.RoleEntry, Rating: 10},
		{PlayerID: "second", Role: models.RoleEntry, Rating: 10},
		{PlayerID: "third", Role: models.RoleEntry, Rating: 10},
		{PlayerID: "fourth", Role: models.RoleEntry, Rating: 10},
	}

	red, blue := SplitTeams(candidates)

	require.Len(t, red, 2)
	require.Len(t, blue, 2)
	assert.Equal(t, "first", red[0].PlayerID)
	assert.Equal(t, "second", blue[0].PlayerID)
	assert.Equal(t, "third", red[1].PlayerID)
	assert.Equal(t, "fourth", blue[1].PlayerID)
}

func TestSplitTeams_UnknownRoleFallback(t *testing.T) {
	// 우선순위 목록에 없는 포지션도 빠짐없이 배정된다
	candidates := []Candidate{
		{PlayerID: "p1", Role: models.RoleIGL, Rating: 10},
		{PlayerID: "p2", Role: "flex", Rating: 10},
		{PlayerID: "p3", Role: "flex", Rating: 10},
		{PlayerID: "p4", Role: models.RoleAWPer, Rating: 10},
	}

	red, blue := SplitTeams(candidates)

	assert.Len(t, red, 2)
	assert.Len(t, blue, 2)
}
