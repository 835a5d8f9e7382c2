package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/strikehub/strikehub-backend/internal/models"
	"github.com/strikehub/strikehub-backend/pkg/database"
)

// ErrDuplicatePlayer 플레이어가 이미 큐에 존재 (player_id unique 제약)
var ErrDuplicatePlayer = errors.New("player already has a queue entry")

type QueueRepository struct {
	db *database.DB
}

func NewQueueRepository(db *database.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// Insert 큐 참가 엔트리 생성
// player_id unique 제약으로 플레이어당 큐 엔트리는 전 큐 통틀어 하나만 허용된다.
func (r *QueueRepository) Insert(playerID string, queueType models.QueueType) (*models.QueueEntry, error) {
	query := `
		INSERT INTO queue_entries (player_id, queue_type)
		VALUES ($1, $2)
		RETURNING id, player_id, queue_type, joined_at
	`

	entry := &models.QueueEntry{}
	err := r.db.QueryRow(query, playerID, queueType).Scan(
		&entry.ID,
		&entry.PlayerID,
		&entry.QueueType,
		&entry.JoinedAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicatePlayer
		}
		return nil, fmt.Errorf("failed to insert queue entry: %w", err)
	}

	return entry, nil
}

// FindByPlayer 플레이어의 현재 큐 엔트리 조회
func (r *QueueRepository) FindByPlayer(playerID string) (*models.QueueEntry, error) {
	query := `
		SELECT id, player_id, queue_type, joined_at
		FROM queue_entries
		WHERE player_id = $1
	`

	entry := &models.QueueEntry{}
	err := r.db.QueryRow(query, playerID).Scan(
		&entry.ID,
		&entry.PlayerID,
		&entry.QueueType,
		&entry.JoinedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find queue entry: %w", err)
	}

	return entry, nil
}

// CountFor 큐별 대기 인원
func (r *QueueRepository) CountFor(queueType models.QueueType) (int, error) {
	query := `SELECT COUNT(*) FROM queue_entries WHERE queue_type = $1`

	var count int
	if err := r.db.QueryRow(query, queueType).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count queue entries: %w", err)
	}

	return count, nil
}

// OldestN 참가 순서대로 앞에서 n명 (매치 후보 명단)
// joined_at asc의 FIFO 순서가 곧 후보 순서이며, 레이팅 정렬은 팀 배정 단계에서만 쓰인다.
func (r *QueueRepository) OldestN(queueType models.QueueType, n int) ([]models.QueueEntry, error) {
	query := `
		SELECT id, player_id, queue_type, joined_at
		FROM queue_entries
		WHERE queue_type = $1
		ORDER BY joined_at ASC, id ASC
		LIMIT $2
	`

	rows, err := r.db.Query(query, queueType, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query oldest entries: %w", err)
	}
	defer rows.Close()

	var entries []models.QueueEntry
	for rows.Next() {
		var entry models.QueueEntry
		if err := rows.Scan(&entry.ID, &entry.PlayerID, &entry.QueueType, &entry.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// WaitingPlayers 큐 상태 응답용 대기자 목록 (사용자 정보 포함)
func (r *QueueRepository) WaitingPlayers(queueType models.QueueType) ([]models.QueueWaiter, error) {
	query := `
		SELECT qe.player_id, u.username, u.rating, qe.joined_at
		FROM queue_entries qe
		JOIN users u ON u.id = qe.player_id
		WHERE qe.queue_type = $1
		ORDER BY qe.joined_at ASC
	`

	rows, err := r.db.Query(query, queueType)
	if err != nil {
		return nil, fmt.Errorf("failed to query waiting players: %w", err)
	}
	defer rows.Close()

	waiters := []models.QueueWaiter{}
	for rows.Next() {
		var w models.QueueWaiter
		if err := rows.Scan(&w.PlayerID, &w.Username, &w.Rating, &w.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan waiting player: %w", err)
		}
		waiters = append(waiters, w)
	}

	return waiters, nil
}

// Remove 큐에서 나가기 (엔트리가 없어도 에러 아님)
func (r *QueueRepository) Remove(playerID string) error {
	query := `DELETE FROM queue_entries WHERE player_id = $1`

	if _, err := r.db.Exec(query, playerID); err != nil {
		return fmt.Errorf("failed to remove queue entry: %w", err)
	}

	return nil
}

// RemoveMany 여러 플레이어 일괄 제거 (수락 거부/미응답 퇴출용)
func (r *QueueRepository) RemoveMany(playerIDs []string) error {
	if len(playerIDs) == 0 {
		return nil
	}

	query := `DELETE FROM queue_entries WHERE player_id = ANY($1)`

	if _, err := r.db.Exec(query, pq.Array(playerIDs)); err != nil {
		return fmt.Errorf("failed to remove queue entries: %w", err)
	}

	return nil
}

// DeleteManyTx 매치 생성 트랜잭션 내부에서 큐 엔트리 일괄 삭제
func (r *QueueRepository) DeleteManyTx(tx *sql.Tx, playerIDs []string) (int64, error) {
	if len(playerIDs) == 0 {
		return 0, nil
	}

	query := `DELETE FROM queue_entries WHERE player_id = ANY($1)`

	result, err := tx.Exec(query, pq.Array(playerIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to delete queue entries: %w", err)
	}

	return result.RowsAffected()
}
