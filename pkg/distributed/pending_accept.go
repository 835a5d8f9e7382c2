package distributed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNoPendingAccept = errors.New("no pending accept for queue")

// PendingAccept 정원이 찬 큐의 후보 로스터와 각자의 수락 여부.
// 로스터 문서는 생성 후 불변이고, 응답은 별도 해시 키에 플레이어별 필드로 쌓인다.
type PendingAccept struct {
	QueueType    string          `json:"queueType"`
	CandidateIDs []string        `json:"candidateIds"`
	Accepted     map[string]bool `json:"accepted"` // 응답한 플레이어만 포함
	CreatedAt    time.Time       `json:"createdAt"`
	Deadline     time.Time       `json:"deadline"`
}

// Contains 후보 포함 여부
func (p *PendingAccept) Contains(playerID string) bool {
	for _, id := range p.CandidateIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

// AllAccepted 전원 수락 여부
func (p *PendingAccept) AllAccepted() bool {
	for _, id := range p.CandidateIDs {
		if accepted, ok := p.Accepted[id]; !ok || !accepted {
			return false
		}
	}
	return true
}

// Expired 마감 경과 여부
func (p *PendingAccept) Expired(now time.Time) bool {
	return now.After(p.Deadline)
}

// NonAcceptors 마감까지 수락하지 않은 (거부 포함) 후보 목록
func (p *PendingAccept) NonAcceptors() []string {
	var out []string
	for _, id := range p.CandidateIDs {
		if accepted, ok := p.Accepted[id]; !ok || !accepted {
			out = append(out, id)
		}
	}
	return out
}

// AcceptedCount 수락한 후보 수
func (p *PendingAccept) AcceptedCount() int {
	count := 0
	for _, id := range p.CandidateIDs {
		if p.Accepted[id] {
			count++
		}
	}
	return count
}

// PendingAcceptCoordinator 큐 타입당 하나의 수락 핸드셰이크를 관리한다.
// 로스터 문서는 SETNX로 생성되므로 동시에 정원 도달을 관측한 요청 중
// 하나만 핸드셰이크를 연다. TTL은 마감보다 약간 길게 잡아 읽기 측 만료
// 처리가 끝나기 전에 키가 사라지지 않도록 한다.
type PendingAcceptCoordinator struct {
	client    *redis.Client
	keyPrefix string
	graceTTL  time.Duration
}

// NewPendingAcceptCoordinator PendingAcceptCoordinator 생성
func NewPendingAcceptCoordinator(client *redis.Client) *PendingAcceptCoordinator {
	return &PendingAcceptCoordinator{
		client:    client,
		keyPrefix: "pending_accept:",
		graceTTL:  30 * time.Second,
	}
}

func (c *PendingAcceptCoordinator) docKey(queueType string) string {
	return c.keyPrefix + queueType
}

func (c *PendingAcceptCoordinator) responsesKey(queueType string) string {
	return c.keyPrefix + queueType + ":responses"
}

// TryOpen 핸드셰이크 개시 시도 (create-if-absent)
// 이미 열려 있으면 false를 반환하고 호출자는 아무것도 하지 않는다.
func (c *PendingAcceptCoordinator) TryOpen(ctx context.Context, queueType string, candidateIDs []string, deadline time.Duration) (*PendingAccept, bool, error) {
	now := time.Now()
	doc := &PendingAccept{
		QueueType:    queueType,
		CandidateIDs: candidateIDs,
		Accepted:     map[string]bool{},
		CreatedAt:    now,
		Deadline:     now.Add(deadline),
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal pending accept: %w", err)
	}

	created, err := c.client.SetNX(ctx, c.docKey(queueType), data, deadline+c.graceTTL).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to open pending accept: %w", err)
	}
	if !created {
		return nil, false, nil
	}

	// 이전 핸드셰이크의 잔여 응답 제거
	if err := c.client.Del(ctx, c.responsesKey(queueType)).Err(); err != nil {
		return nil, false, fmt.Errorf("failed to clear stale responses: %w", err)
	}

	return doc, true, nil
}

// Get 현재 핸드셰이크 조회 (응답 병합). 없으면 nil을 반환한다.
// 마감 경과 판단은 호출자가 Expired로 수행한다.
func (c *PendingAcceptCoordinator) Get(ctx context.Context, queueType string) (*PendingAccept, error) {
	data, err := c.client.Get(ctx, c.docKey(queueType)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending accept: %w", err)
	}

	doc := &PendingAccept{}
	if err := json.Unmarshal([]byte(data), doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending accept: %w", err)
	}

	responses, err := c.client.HGetAll(ctx, c.responsesKey(queueType)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get responses: %w", err)
	}

	doc.Accepted = make(map[string]bool, len(responses))
	for playerID, v := range responses {
		doc.Accepted[playerID] = v == "1"
	}

	return doc, nil
}

// SetResponse 후보의 수락/거부 기록 (플레이어별 멱등)
// 갱신된 문서를 반환하며, 후보가 아니거나 핸드셰이크가 없으면 ErrNoPendingAccept.
func (c *PendingAcceptCoordinator) SetResponse(ctx context.Context, queueType, playerID string, accepted bool) (*PendingAccept, error) {
	doc, err := c.Get(ctx, queueType)
	if err != nil {
		return nil, err
	}
	if doc == nil || !doc.Contains(playerID) {
		return nil, ErrNoPendingAccept
	}

	value := "0"
	if accepted {
		value = "1"
	}

	if err := c.client.HSet(ctx, c.responsesKey(queueType), playerID, value).Err(); err != nil {
		return nil, fmt.Errorf("failed to record response: %w", err)
	}

	// 응답 해시는 문서와 함께 사라지도록 TTL을 맞춘다
	if ttl, err := c.client.TTL(ctx, c.docKey(queueType)).Result(); err == nil && ttl > 0 {
		c.client.Expire(ctx, c.responsesKey(queueType), ttl)
	}

	return c.Get(ctx, queueType)
}

// Delete 핸드셰이크 제거 (전원 수락, 거부 발생, 마감 경과 시)
func (c *PendingAcceptCoordinator) Delete(ctx context.Context, queueType string) error {
	if err := c.client.Del(ctx, c.docKey(queueType), c.responsesKey(queueType)).Err(); err != nil {
		return fmt.Errorf("failed to delete pending accept: %w", err)
	}
	return nil
}
