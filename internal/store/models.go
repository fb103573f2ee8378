package store

import (
	"encoding/json"
	"time"
)

// Language is the content language as stored: 1 English, 2 Chinese.
type Language int16

const (
	LanguageEnglish Language = 1
	LanguageChinese Language = 2
)

// ParseLanguage maps "en" and "zh" to a Language.
func ParseLanguage(s string) (Language, bool) {
	switch s {
	case "en":
		return LanguageEnglish, true
	case "zh":
		return LanguageChinese, true
	}
	return 0, false
}

func (l Language) String() string {
	if l == LanguageChinese {
		return "zh"
	}
	return "en"
}

// ContentStatus is the state of a transcript or summary row.
type ContentStatus int16

const (
	StatusProcessing ContentStatus = 1
	StatusDone       ContentStatus = 2
)

// TaskStatus is the step a transcription task is at.
type TaskStatus string

const (
	TaskPending      TaskStatus = "pending"
	TaskDownloading  TaskStatus = "downloading"
	TaskUploading    TaskStatus = "uploading"
	TaskTranscribing TaskStatus = "transcribing"
	TaskCompleted    TaskStatus = "completed"
	TaskFailed       TaskStatus = "failed"
)

// Progress is the percentage reported for s.
func (s TaskStatus) Progress() int {
	switch s {
	case TaskDownloading:
		return 25
	case TaskUploading:
		return 50
	case TaskTranscribing:
		return 75
	case TaskCompleted:
		return 100
	}
	return 0
}

// Finished reports whether s is terminal.
func (s TaskStatus) Finished() bool {
	return s == TaskCompleted || s == TaskFailed
}

type SearchEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	Term        string    `json:"term"`
	Locale      string    `json:"locale"`
	ResultCount int       `json:"result_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type APIKey struct {
	ID         string     `json:"id"`
	UserID     string     `json:"-"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

type NotionToken struct {
	UserID        string    `json:"-"`
	AccessToken   string    `json:"-"`
	WorkspaceID   string    `json:"workspace_id"`
	WorkspaceName string    `json:"workspace_name"`
	WorkspaceIcon string    `json:"workspace_icon,omitempty"`
	BotID         string    `json:"bot_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Transcript content is a JSON array of timed segments.
type Transcript struct {
	EpisodeID    string          `json:"episode_id"`
	Language     Language        `json:"language"`
	Status       ContentStatus   `json:"status"`
	PodcastName  string          `json:"podcast_name"`
	EpisodeTitle string          `json:"episode_title"`
	PubDate      *time.Time      `json:"pub_date,omitempty"`
	UserID       string          `json:"-"`
	Content      json.RawMessage `json:"content"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Summary content is markdown.
type Summary struct {
	EpisodeID       string        `json:"episode_id"`
	Language        Language      `json:"language"`
	Status          ContentStatus `json:"status"`
	Content         string        `json:"content"`
	PodcastName     string        `json:"podcast_name"`
	EpisodeTitle    string        `json:"episode_title"`
	EpisodeDuration int           `json:"episode_duration"`
	PubDate         *time.Time    `json:"pub_date,omitempty"`
	UserID          string        `json:"-"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type Task struct {
	ID        string     `json:"task_id"`
	EpisodeID string     `json:"episode_id"`
	Language  Language   `json:"-"`
	Status    TaskStatus `json:"status"`
	Progress  int        `json:"progress"`
	Message   string     `json:"message"`
	Error     string     `json:"error,omitempty"`
	UserID    string     `json:"-"`
	UserEmail string     `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
