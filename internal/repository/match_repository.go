package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/strikehub/strikehub-backend/internal/models"
	"github.com/strikehub/strikehub-backend/pkg/database"
)

type MatchRepository struct {
	db        *database.DB
	queueRepo *QueueRepository
}

func NewMatchRepository(db *database.DB, queueRepo *QueueRepository) *MatchRepository {
	return &MatchRepository{db: db, queueRepo: queueRepo}
}

const matchColumns = `id, type, status, max_players, creator_id, map, join_code,
	winner_team, duration_seconds, external_match_id, started_at, finished_at, created_at`

func scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	match := &models.Match{}
	err := row.Scan(
		&match.ID,
		&match.Type,
		&match.Status,
		&match.MaxPlayers,
		&match.CreatorID,
		&match.Map,
		&match.JoinCode,
		&match.WinnerTeam,
		&match.DurationSeconds,
		&match.ExternalMatchID,
		&match.StartedAt,
		&match.FinishedAt,
		&match.CreatedAt,
	)
	return match, err
}

// CreateFormed 큐에서 매치 생성 (형성 임계 구역)
// 매치/참가자 생성과 큐 엔트리 삭제를 단일 트랜잭션으로 묶어,
// 매칭된 플레이어가 풀에서 원자적으로 제거되도록 한다.
// 큐에서 삭제된 행 수가 참가자 수와 다르면 로스터가 이미 변했다는 뜻이므로 롤백한다.
func (r *MatchRepository) CreateFormed(
	queueType models.QueueType,
	mapName, joinCode, creatorID string,
	participants []models.Participant,
) (*models.Match, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO matches (type, status, max_players, creator_id, map, join_code, started_at)
		VALUES ($1, 'in_progress', $2, $3, $4, $5, NOW())
		RETURNING ` + matchColumns

	match, err := scanMatch(tx.QueryRow(query, queueType, len(participants), creatorID, mapName, joinCode))
	if err != nil {
		return nil, fmt.Errorf("failed to insert match: %w", err)
	}

	playerIDs := make([]string, 0, len(participants))
	for _, p := range participants {
		if _, err := tx.Exec(
			`INSERT INTO participants (match_id, player_id, team, role) VALUES ($1, $2, $3, $4)`,
			match.ID, p.PlayerID, p.Team, p.Role,
		); err != nil {
			return nil, fmt.Errorf("failed to insert participant: %w", err)
		}
		playerIDs = append(playerIDs, p.PlayerID)
	}

	deleted, err := r.queueRepo.DeleteManyTx(tx, playerIDs)
	if err != nil {
		return nil, err
	}
	if deleted != int64(len(playerIDs)) {
		return nil, fmt.Errorf("roster changed during formation: deleted %d of %d entries", deleted, len(playerIDs))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit formation: %w", err)
	}

	match.Participants = participants
	return match, nil
}

// CreateCustom 커스텀 매치 생성 (pending, 정원까지 참가 대기)
func (r *MatchRepository) CreateCustom(matchType string, maxPlayers int, creatorID, mapName, joinCode string, creatorRole models.PlayerRole) (*models.Match, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO matches (type, status, max_players, creator_id, map, join_code)
		VALUES ($1, 'pending', $2, $3, $4, $5)
		RETURNING ` + matchColumns

	match, err := scanMatch(tx.QueryRow(query, matchType, maxPlayers, creatorID, mapName, joinCode))
	if err != nil {
		return nil, fmt.Errorf("failed to insert custom match: %w", err)
	}

	// 생성자는 레드팀으로 자동 참가
	if _, err := tx.Exec(
		`INSERT INTO participants (match_id, player_id, team, role) VALUES ($1, $2, 'red', $3)`,
		match.ID, creatorID, creatorRole,
	); err != nil {
		return nil, fmt.Errorf("failed to insert creator participant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit custom match: %w", err)
	}

	return r.FindByID(match.ID)
}

// FindByID 매치 조회 (참가자 포함)
func (r *MatchRepository) FindByID(id string) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match, err := scanMatch(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find match: %w", err)
	}

	participants, err := r.findParticipants(id)
	if err != nil {
		return nil, err
	}
	match.Participants = participants

	return match, nil
}

func (r *MatchRepository) findParticipants(matchID string) ([]models.Participant, error) {
	query := `
		SELECT p.match_id, p.player_id, u.username, p.team, p.role, p.kills, p.deaths, p.assists, p.score
		FROM participants p
		JOIN users u ON u.id = p.player_id
		WHERE p.match_id = $1
		ORDER BY p.team, u.username
	`

	rows, err := r.db.Query(query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.MatchID, &p.PlayerID, &p.Username, &p.Team, &p.Role, &p.Kills, &p.Deaths, &p.Assists, &p.Score); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}

	return participants, nil
}

// FindActiveByPlayer 플레이어가 참가 중인 미종결 매치
func (r *MatchRepository) FindActiveByPlayer(playerID string) (*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches m
		WHERE m.status IN ('pending', 'in_progress')
		  AND EXISTS (SELECT 1 FROM participants p WHERE p.match_id = m.id AND p.player_id = $1)
		LIMIT 1
	`

	match, err := scanMatch(r.db.QueryRow(query, playerID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active match: %w", err)
	}

	return match, nil
}

// ListRecent 최근 매치 목록
func (r *MatchRepository) ListRecent(limit, offset int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, match)
	}

	return matches, nil
}

// ListOpenOlderThan 외부 결과 대조 대상: 일정 시간 이상 열려 있는 매치
func (r *MatchRepository) ListOpenOlderThan(age time.Duration) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE status IN ('pending', 'in_progress')
		  AND created_at < NOW() - $1::interval
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(query, fmt.Sprintf("%d seconds", int(age.Seconds())))
	if err != nil {
		return nil, fmt.Errorf("failed to query open matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, match)
	}

	return matches, nil
}

// AddParticipant 커스텀 매치 참가
func (r *MatchRepository) AddParticipant(matchID, playerID string, team models.Team, role models.PlayerRole) error {
	query := `INSERT INTO participants (match_id, player_id, team, role) VALUES ($1, $2, $3, $4)`

	if _, err := r.db.Exec(query, matchID, playerID, team, role); err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}

	return nil
}

// RemoveParticipant 커스텀 매치 탈퇴 (pending 상태 전용, 서비스에서 검증)
func (r *MatchRepository) RemoveParticipant(matchID, playerID string) error {
	query := `DELETE FROM participants WHERE match_id = $1 AND player_id = $2`

	if _, err := r.db.Exec(query, matchID, playerID); err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}

	return nil
}

// Cancel 매치 취소. 이미 종결된 매치면 false를 반환한다 (상태 재확인).
func (r *MatchRepository) Cancel(matchID string) (bool, error) {
	query := `
		UPDATE matches
		SET status = 'cancelled', finished_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'in_progress')
	`

	result, err := r.db.Exec(query, matchID)
	if err != nil {
		return false, fmt.Errorf("failed to cancel match: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read cancel result: %w", err)
	}

	return affected > 0, nil
}

// Finish 매치 종료. WHERE 절의 상태 조건이 이중 종료를 막는 유일한 관문이므로
// 레이팅 반영은 반드시 이 호출이 true를 반환한 뒤에만 수행해야 한다.
func (r *MatchRepository) Finish(
	matchID string,
	winner models.Team,
	durationSeconds *int,
	externalMatchID *string,
	stats []models.ParticipantStats,
) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE matches
		SET status = 'finished',
		    winner_team = $1,
		    duration_seconds = $2,
		    external_match_id = COALESCE($3, external_match_id),
		    finished_at = NOW()
		WHERE id = $4 AND status IN ('pending', 'in_progress')
	`

	result, err := tx.Exec(query, winner, durationSeconds, externalMatchID, matchID)
	if err != nil {
		return false, fmt.Errorf("failed to finish match: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read finish result: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	// 스탯 백필 (종료 시에만 허용)
	for _, s := range stats {
		if _, err := tx.Exec(
			`UPDATE participants SET kills = $1, deaths = $2, assists = $3, score = $4
			 WHERE match_id = $5 AND player_id = $6`,
			s.Kills, s.Deaths, s.Assists, s.Score, matchID, s.PlayerID,
		); err != nil {
			return false, fmt.Errorf("failed to backfill participant stats: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit finish: %w", err)
	}

	return true, nil
}

// Restart 매치를 pending으로 되돌리고 거부권 기록을 비운다 (관리자 전용)
func (r *MatchRepository) Restart(matchID, newJoinCode string) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE matches
		SET status = 'pending',
		    winner_team = NULL,
		    duration_seconds = NULL,
		    started_at = NULL,
		    finished_at = NULL,
		    join_code = $1
		WHERE id = $2 AND status IN ('pending', 'in_progress')
	`

	result, err := tx.Exec(query, newJoinCode, matchID)
	if err != nil {
		return false, fmt.Errorf("failed to restart match: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read restart result: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if _, err := tx.Exec(`DELETE FROM cancel_votes WHERE match_id = $1`, matchID); err != nil {
		return false, fmt.Errorf("failed to clear cancel votes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit restart: %w", err)
	}

	return true, nil
}

// AddCancelVote 거부권 기록. 같은 플레이어의 재투표는 무시되고 false를 반환한다.
func (r *MatchRepository) AddCancelVote(matchID, playerID string) (bool, error) {
	query := `
		INSERT INTO cancel_votes (match_id, player_id)
		VALUES ($1, $2)
		ON CONFLICT (match_id, player_id) DO NOTHING
	`

	result, err := r.db.Exec(query, matchID, playerID)
	if err != nil {
		return false, fmt.Errorf("failed to add cancel vote: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read vote result: %w", err)
	}

	return affected > 0, nil
}

// CountCancelVotes 매치의 거부권 수 (중복 없음, unique 제약)
func (r *MatchRepository) CountCancelVotes(matchID string) (int, error) {
	query := `SELECT COUNT(*) FROM cancel_votes WHERE match_id = $1`

	var count int
	if err := r.db.QueryRow(query, matchID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cancel votes: %w", err)
	}

	return count, nil
}

// ExternalIDExists 외부 매치 ID가 이미 어떤 매치에든 기록되었는지 (대조 중복 방지)
func (r *MatchRepository) ExternalIDExists(externalMatchID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM matches WHERE external_match_id = $1)`

	var exists bool
	if err := r.db.QueryRow(query, externalMatchID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check external match id: %w", err)
	}

	return exists, nil
}

// FindByPlayer 플레이어의 매치 이력
func (r *MatchRepository) FindByPlayer(playerID string, limit, offset int) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches m
		WHERE EXISTS (SELECT 1 FROM participants p WHERE p.match_id = m.id AND p.player_id = $1)
		ORDER BY m.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(query, playerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query player matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, match)
	}

	return matches, nil
}
