package service

import (
	"time"

	"github.com/strikehub/strikehub-backend/internal/models"
	"github.com/strikehub/strikehub-backend/internal/websocket"
)

// Notifier 플레이어에게 큐/매치 이벤트를 푸시하는 fire-and-forget 싱크.
// 전송 실패는 삼킨다. 알림 유실이 매치 상태를 깨지는 않는다.
type Notifier struct {
	hub *websocket.Hub
}

func NewNotifier(hub *websocket.Hub) *Notifier {
	return &Notifier{hub: hub}
}

// MatchFound 정원 도달, 수락 대기 시작
func (n *Notifier) MatchFound(playerIDs []string, queueType models.QueueType, deadline time.Time) {
	for _, id := range playerIDs {
		n.hub.SendToUser(id, "match_found", map[string]interface{}{
			"queueType": queueType,
			"deadline":  deadline,
		})
	}
}

// MatchFormed 매치 생성 완료
func (n *Notifier) MatchFormed(match *models.Match) {
	for _, p := range match.Participants {
		n.hub.SendToUser(p.PlayerID, "match_formed", map[string]interface{}{
			"matchId":  match.ID,
			"map":      match.Map,
			"joinCode": match.JoinCode,
			"team":     p.Team,
		})
	}
}

// HandshakeExpired 수락 마감 경과로 핸드셰이크 해산
func (n *Notifier) HandshakeExpired(playerIDs []string, queueType models.QueueType) {
	for _, id := range playerIDs {
		n.hub.SendToUser(id, "handshake_expired", map[string]interface{}{
			"queueType": queueType,
		})
	}
}

// MatchCancelled 매치 취소
func (n *Notifier) MatchCancelled(match *models.Match) {
	for _, p := range match.Participants {
		n.hub.SendToUser(p.PlayerID, "match_cancelled", map[string]interface{}{
			"matchId": match.ID,
		})
	}
}

// MatchFinished 매치 종료
func (n *Notifier) MatchFinished(match *models.Match, winner models.Team) {
	for _, p := range match.Participants {
		n.hub.SendToUser(p.PlayerID, "match_finished", map[string]interface{}{
			"matchId":    match.ID,
			"winnerTeam": winner,
			"won":        p.Team == winner,
		})
	}
}
