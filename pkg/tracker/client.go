package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/strikehub/strikehub-backend/pkg/logger"
)

// MatchRecord 외부 전적 제공자가 보고한 완료된 게임
type MatchRecord struct {
	ID              string                 `json:"id"`
	FinishedAt      time.Time              `json:"finishedAt"`
	DurationSeconds int                    `json:"durationSeconds"`
	Won             bool                   `json:"won"` // 조회 대상 플레이어 기준 승패
	PlayerStats     map[string]PlayerStats `json:"playerStats"` // tracker ID 기준
}

// PlayerStats 게임 내 개인 스탯
type PlayerStats struct {
	Kills   int `json:"kills"`
	Deaths  int `json:"deaths"`
	Assists int `json:"assists"`
	Score   int `json:"score"`
}

// PlayerRank 외부 랭크 (동기화용)
type PlayerRank struct {
	TrackerID  string `json:"trackerId"`
	SkillLevel int    `json:"skillLevel"` // 1-10
}

// Client 외부 전적 제공자 HTTP 클라이언트
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient Tracker 클라이언트 생성
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// RecentMatches 플레이어의 최근 완료 게임 조회 (최신순)
func (c *Client) RecentMatches(ctx context.Context, trackerID string, since time.Time) ([]MatchRecord, error) {
	endpoint := fmt.Sprintf("%s/v1/players/%s/matches?since=%s",
		c.baseURL, url.PathEscape(trackerID), url.QueryEscape(since.UTC().Format(time.RFC3339)))

	var result struct {
		Matches []MatchRecord `json:"matches"`
	}
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	return result.Matches, nil
}

// PlayerRank 플레이어의 현재 외부 랭크 조회
func (c *Client) PlayerRank(ctx context.Context, trackerID string) (*PlayerRank, error) {
	endpoint := fmt.Sprintf("%s/v1/players/%s/rank", c.baseURL, url.PathEscape(trackerID))

	rank := &PlayerRank{}
	if err := c.getJSON(ctx, endpoint, rank); err != nil {
		return nil, err
	}

	return rank, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build tracker request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tracker request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		logger.Warn("Tracker rate limited", "endpoint", endpoint)
		return fmt.Errorf("tracker rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tracker returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode tracker response: %w", err)
	}

	return nil
}
