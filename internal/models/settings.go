package models

// Settings 관리자 토글 (고정 키, on/off 값만 허용)
type Settings struct {
	QueuesEnabled        bool `json:"queuesEnabled"`
	CustomMatchesEnabled bool `json:"customMatchesEnabled"`
}

// DefaultSettings 설정 키가 없거나 읽기 실패 시의 안전값
func DefaultSettings() Settings {
	return Settings{
		QueuesEnabled:        true,
		CustomMatchesEnabled: true,
	}
}
