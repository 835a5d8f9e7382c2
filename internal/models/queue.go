package models

import "time"

type QueueType string

const (
	QueueTypeOpen    QueueType = "open"
	QueueTypeNovice  QueueType = "novice"
	QueueTypeElite   QueueType = "elite"
	QueueTypeWingman QueueType = "wingman"
)

// 레이팅 정규화 범위 (0-20)
const (
	MinRating = 0
	MaxRating = 20
)

// QueueConfig 큐별 정원 및 레이팅 제한
type QueueConfig struct {
	Type            QueueType `json:"type"`
	RequiredPlayers int       `json:"requiredPlayers"`
	MinRating       int       `json:"minRating"` // -1이면 하한 없음
	MaxRating       int       `json:"maxRating"` // -1이면 상한 없음
	SkipRatingGate  bool      `json:"-"`         // 소규모 특수 큐는 게이트 미적용
}

var queueConfigs = map[QueueType]QueueConfig{
	QueueTypeOpen:    {Type: QueueTypeOpen, RequiredPlayers: 10, MinRating: -1, MaxRating: -1},
	QueueTypeNovice:  {Type: QueueTypeNovice, RequiredPlayers: 10, MinRating: -1, MaxRating: 9},
	QueueTypeElite:   {Type: QueueTypeElite, RequiredPlayers: 10, MinRating: 12, MaxRating: -1},
	QueueTypeWingman: {Type: QueueTypeWingman, RequiredPlayers: 4, SkipRatingGate: true},
}

// GetQueueConfig 큐 설정 조회
func GetQueueConfig(t QueueType) (QueueConfig, bool) {
	cfg, ok := queueConfigs[t]
	return cfg, ok
}

// AllQueueTypes 정의된 모든 큐 타입
func AllQueueTypes() []QueueType {
	return []QueueType{QueueTypeOpen, QueueTypeNovice, QueueTypeElite, QueueTypeWingman}
}

// Eligible 레이팅 기반 참가 자격 판정
func (c QueueConfig) Eligible(rating int) bool {
	if c.SkipRatingGate {
		return true
	}
	if rating < MinRating || rating > MaxRating {
		return false
	}
	if c.MinRating >= 0 && rating < c.MinRating {
		return false
	}
	if c.MaxRating >= 0 && rating > c.MaxRating {
		return false
	}
	return true
}

type QueueEntry struct {
	ID        string    `json:"id" db:"id"`
	PlayerID  string    `json:"playerId" db:"player_id"`
	QueueType QueueType `json:"queueType" db:"queue_type"`
	JoinedAt  time.Time `json:"joinedAt" db:"joined_at"`
}

// QueueWaiter 대기 중인 플레이어 (상태 응답용)
type QueueWaiter struct {
	PlayerID string    `json:"playerId"`
	Username string    `json:"username"`
	Rating   int       `json:"rating"`
	JoinedAt time.Time `json:"joinedAt"`
}

// QueueStatus 큐 집계 뷰 (StatusCache 대상)
type QueueStatus struct {
	QueueType            QueueType     `json:"queueType"`
	Waiting              int           `json:"waiting"`
	Required             int           `json:"required"`
	Players              []QueueWaiter `json:"players"`
	EstimatedWaitSeconds int           `json:"estimatedWaitSeconds"`
}

// PendingAcceptView 호출자 본인의 수락 대기 상태
type PendingAcceptView struct {
	QueueType    QueueType `json:"queueType"`
	Deadline     time.Time `json:"deadline"`
	Accepted     int       `json:"accepted"`
	Required     int       `json:"required"`
	CallerAnswer *bool     `json:"callerAnswer"` // nil이면 미응답
}
