package models

import "time"

type MatchStatus string

const (
	MatchStatusPending    MatchStatus = "pending"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusFinished   MatchStatus = "finished"
	MatchStatusCancelled  MatchStatus = "cancelled"
)

type Team string

const (
	TeamRed  Team = "red"
	TeamBlue Team = "blue"
)

// PlayerRole 인게임 포지션
type PlayerRole string

const (
	RoleIGL     PlayerRole = "igl"
	RoleAWPer   PlayerRole = "awper"
	RoleEntry   PlayerRole = "entry"
	RoleSupport PlayerRole = "support"
	RoleLurker  PlayerRole = "lurker"
)

// RolePriority 팀 배정 시 포지션 처리 순서 (고정)
var RolePriority = []PlayerRole{RoleIGL, RoleAWPer, RoleEntry, RoleSupport, RoleLurker}

// ValidPlayerRole 정의된 포지션인지 확인
func ValidPlayerRole(r PlayerRole) bool {
	for _, role := range RolePriority {
		if r == role {
			return true
		}
	}
	return false
}

// MapPool 매치 생성 시 배정되는 맵 풀
var MapPool = []string{"harbor", "foundry", "skyline", "dune_city", "overgrown"}

type Match struct {
	ID              string        `json:"id" db:"id"`
	Type            string        `json:"type" db:"type"` // 큐 타입 또는 커스텀 타입
	Status          MatchStatus   `json:"status" db:"status"`
	MaxPlayers      int           `json:"maxPlayers" db:"max_players"`
	CreatorID       string        `json:"creatorId" db:"creator_id"`
	Map             string        `json:"map" db:"map"`
	JoinCode        *string       `json:"joinCode,omitempty" db:"join_code"`
	WinnerTeam      *Team         `json:"winnerTeam,omitempty" db:"winner_team"`
	DurationSeconds *int          `json:"durationSeconds,omitempty" db:"duration_seconds"`
	ExternalMatchID *string       `json:"externalMatchId,omitempty" db:"external_match_id"`
	StartedAt       *time.Time    `json:"startedAt,omitempty" db:"started_at"`
	FinishedAt      *time.Time    `json:"finishedAt,omitempty" db:"finished_at"`
	CreatedAt       time.Time     `json:"createdAt" db:"created_at"`
	Participants    []Participant `json:"participants,omitempty"`
}

// IsOpen 아직 종결되지 않은 매치인지
func (m *Match) IsOpen() bool {
	return m.Status == MatchStatusPending || m.Status == MatchStatusInProgress
}

// HasParticipant 참가자 포함 여부
func (m *Match) HasParticipant(playerID string) bool {
	for _, p := range m.Participants {
		if p.PlayerID == playerID {
			return true
		}
	}
	return false
}

// TeamCounts 팀별 인원 수
func (m *Match) TeamCounts() (red, blue int) {
	for _, p := range m.Participants {
		if p.Team == TeamRed {
			red++
		} else {
			blue++
		}
	}
	return red, blue
}

// CancelThreshold 취소 가결에 필요한 거부권 수 (과반)
func CancelThreshold(maxPlayers int) int {
	return maxPlayers/2 + 1
}

type Participant struct {
	MatchID  string     `json:"matchId" db:"match_id"`
	PlayerID string     `json:"playerId" db:"player_id"`
	Username string     `json:"username" db:"username"`
	Team     Team       `json:"team" db:"team"`
	Role     PlayerRole `json:"role" db:"role"`
	Kills    int        `json:"kills" db:"kills"`
	Deaths   int        `json:"deaths" db:"deaths"`
	Assists  int        `json:"assists" db:"assists"`
	Score    int        `json:"score" db:"score"`
}

type CancelVote struct {
	MatchID   string    `json:"matchId" db:"match_id"`
	PlayerID  string    `json:"playerId" db:"player_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ParticipantStats 종료 시 스탯 덮어쓰기용
type ParticipantStats struct {
	PlayerID string `json:"playerId"`
	Kills    int    `json:"kills"`
	Deaths   int    `json:"deaths"`
	Assists  int    `json:"assists"`
	Score    int    `json:"score"`
}
