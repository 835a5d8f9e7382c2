package service

import (
	"github.com/elliotchance/pie/v2"
	"github.com/strikehub/strikehub-backend/internal/models"
)

// Candidate 팀 배정 입력 (큐 FIFO 순서 유지)
type Candidate struct {
	PlayerID string
	Role     models.PlayerRole
	Rating   int
}

// SplitTeams 후보 목록을 같은 크기의 두 팀으로 나눈다.
// 포지션 우선순위를 고정 순서로 돌며, 포지션 버킷 안에서는 레이팅 내림차순으로
// (동률이면 입력 순서 유지) 양 팀에 번갈아 배정해 실력이 한쪽에 몰리지 않게 한다.
// 남는 후보는 자리가 있는 팀에 레드팀부터 채운다.
// 같은 입력에는 항상 같은 결과. 형성 재시도 시 같은 로스터가 재현되어야 한다.
func SplitTeams(candidates []Candidate) (red, blue []Candidate) {
	capacity := len(candidates) / 2
	red = make([]Candidate, 0, capacity)
	blue = make([]Candidate, 0, capacity)

	assigned := make(map[string]bool, len(candidates))
	nextRed := true

	assign := func(c Candidate) {
		switch {
		case nextRed && len(red) < capacity:
			red = append(red, c)
			nextRed = false
		case len(blue) < capacity:
			blue = append(blue, c)
			nextRed = true
		default:
			red = append(red, c)
		}
		assigned[c.PlayerID] = true
	}

	for _, role := range models.RolePriority {
		bucket := pie.Filter(candidates, func(c Candidate) bool {
			return c.Role == role && !assigned[c.PlayerID]
		})
		bucket = pie.SortStableUsing(bucket, func(a, b Candidate) bool {
			return a.Rating > b.Rating
		})

		for _, c := range bucket {
			assign(c)
		}
	}

	// 우선순위 목록에 없는 포지션의 후보는 자리가 남은 팀에 순서대로 배정
	for _, c := range candidates {
		if assigned[c.PlayerID] {
			continue
		}
		if len(red) < capacity {
			red = append(red, c)
		} else {
			blue = append(blue, c)
		}
		assigned[c.PlayerID] = true
	}

	return red, blue
}
