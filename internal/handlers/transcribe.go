package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
	"github.com/tonyc-ship/latios-oss-sub001/internal/store"
	"github.com/tonyc-ship/latios-oss-sub001/internal/tasks"
	"github.com/tonyc-ship/latios-oss-sub001/middlewares"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/i18n"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/job"
)

const (
	existingPrefix = "existing_"
	taskPrefix     = "transcribe_"
	// legacyChinese is the request type older clients send for Chinese.
	legacyChinese = "xyz"

	transcribeAttempts = 3
)

// TranscribeStore is the persistence used by TranscribeHandler.
type TranscribeStore interface {
	GetTranscript(ctx context.Context, episodeID string, lang store.Language) (*store.Transcript, error)
	CreateTask(ctx context.Context, t *store.Task) error
	UpdateTask(ctx context.Context, id string, status store.TaskStatus, message, errText string) error
	GetTask(ctx context.Context, id string) (*store.Task, error)
	ActiveTaskForEpisode(ctx context.Context, episodeID string, lang store.Language, since time.Time) (*store.Task, error)
}

// TranscribeHandler starts transcription tasks and reports on them.
type TranscribeHandler struct {
	store   TranscribeStore
	catalog *i18n.Catalog
	guards  Guards
	now     func() time.Time
}

func NewTranscribe(s TranscribeStore, cat *i18n.Catalog, guards Guards) *TranscribeHandler {
	return &TranscribeHandler{store: s, catalog: cat, guards: guards, now: time.Now}
}

func (h *TranscribeHandler) Routes(r internal.Router) {
	r.Route("/api/transcribe", func(r internal.Router) {
		r.Use(h.guards.optional())
		r.POST("/", h.start)
		r.GET("/{id}/status", h.status)
		r.GET("/{id}/result", h.result)
	})
}

type transcribeRequest struct {
	EpisodeID    string `json:"episode_id"`
	URL          string `json:"url"`
	PodcastName  string `json:"podcast_name"`
	EpisodeTitle string `json:"episode_title"`
	PubDate      string `json:"pub_date"`
	UserEmail    string `json:"user_email"`
	Language     string `json:"language"`
	Type         string `json:"type"`
}

func (r *transcribeRequest) language() (store.Language, error) {
	if r.Type == legacyChinese && r.Language == "" {
		return store.LanguageChinese, nil
	}
	return language(r.Language)
}

type taskResponse struct {
	TaskID    string           `json:"task_id"`
	EpisodeID string           `json:"episode_id"`
	Language  string           `json:"language"`
	Status    store.TaskStatus `json:"status"`
	Progress  int              `json:"progress"`
	Message   string           `json:"message"`
	Error     string           `json:"error,omitempty"`
}

func (h *TranscribeHandler) response(t *store.Task) taskResponse {
	return taskResponse{
		TaskID:    t.ID,
		EpisodeID: t.EpisodeID,
		Language:  t.Language.String(),
		Status:    t.Status,
		Progress:  t.Status.Progress(),
		Message:   tasks.Message(h.catalog, t.Language, t.Status),
		Error:     t.Error,
	}
}

func (h *TranscribeHandler) start(c internal.Context) error {
	var req transcribeRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	req.EpisodeID = strings.TrimSpace(req.EpisodeID)
	if req.EpisodeID == "" {
		return internal.ErrUnprocessable("episode_id is required", internal.WithErrorCode("missing_episode"))
	}
	if u, err := url.Parse(req.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return internal.ErrUnprocessable("url must be an http(s) audio URL", internal.WithErrorCode("invalid_url"))
	}
	lang, err := req.language()
	if err != nil {
		return err
	}

	if tr, err := h.store.GetTranscript(c, req.EpisodeID, lang); err == nil && tr.Status == store.StatusDone {
		return c.JSON(http.StatusOK, h.response(&store.Task{
			ID:        existingPrefix + req.EpisodeID,
			EpisodeID: req.EpisodeID,
			Language:  lang,
			Status:    store.TaskCompleted,
		}))
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if active, err := h.store.ActiveTaskForEpisode(c, req.EpisodeID, lang, h.now().Add(-tasks.StaleTaskAfter)); err == nil {
		return c.JSON(http.StatusOK, h.response(active))
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	email := req.UserEmail
	if email == "" {
		email = middlewares.GetUserEmail(c)
	}
	task := &store.Task{
		ID:        fmt.Sprintf("%s%s_%d", taskPrefix, req.EpisodeID, h.now().Unix()),
		EpisodeID: req.EpisodeID,
		Language:  lang,
		Status:    store.TaskPending,
		Message:   tasks.Message(h.catalog, lang, store.TaskPending),
		UserID:    c.UserID(),
		UserEmail: email,
	}
	if err := h.store.CreateTask(c, task); err != nil {
		return storeError(err, "task")
	}

	_, err = c.Enqueue(tasks.TranscribeTask, tasks.TranscribePayload{
		TaskID:       task.ID,
		EpisodeID:    task.EpisodeID,
		AudioURL:     req.URL,
		Language:     lang,
		PodcastName:  req.PodcastName,
		EpisodeTitle: req.EpisodeTitle,
		PubDate:      ParsePubDate(req.PubDate),
		UserID:       task.UserID,
		UserEmail:    email,
	}, job.MaxAttempts(transcribeAttempts))
	if err != nil {
		if uerr := h.store.UpdateTask(c, task.ID, store.TaskFailed, tasks.Message(h.catalog, lang, store.TaskFailed), err.Error()); uerr != nil {
			c.LogError("mark task failed", "task_id", task.ID, "error", uerr)
		}
		return internal.ErrServiceUnavailable("transcription queue unavailable", internal.WithError(err))
	}

	c.LogInfo("transcription queued", "task_id", task.ID, "episode_id", task.EpisodeID, "language", lang.String())
	return c.JSON(http.StatusAccepted, h.response(task))
}

// lookup resolves a task id. existing_<episode> ids stand for transcripts
// that were already done when requested; they have no task row.
func (h *TranscribeHandler) lookup(c internal.Context) (*store.Task, error) {
	taskID := c.Param("id")
	if episode, ok := strings.CutPrefix(taskID, existingPrefix); ok && episode != "" {
		lang, err := language(c.Query("language"))
		if err != nil {
			return nil, err
		}
		if _, err := h.store.GetTranscript(c, episode, lang); err != nil {
			return nil, storeError(err, "task")
		}
		return &store.Task{ID: taskID, EpisodeID: episode, Language: lang, Status: store.TaskCompleted}, nil
	}

	t, err := h.store.GetTask(c, taskID)
	if err != nil {
		return nil, storeError(err, "task")
	}
	return t, nil
}

func (h *TranscribeHandler) status(c internal.Context) error {
	t, err := h.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.response(t))
}

func (h *TranscribeHandler) result(c internal.Context) error {
	t, err := h.lookup(c)
	if err != nil {
		return err
	}
	if t.Status != store.TaskCompleted {
		return internal.ErrBadRequest("transcription is not completed", internal.WithErrorCode("transcript_not_ready"),
			internal.WithDetail("status is "+string(t.Status)))
	}
	tr, err := h.store.GetTranscript(c, t.EpisodeID, t.Language)
	if err != nil {
		return storeError(err, "transcript")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"task_id":    t.ID,
		"episode_id": tr.EpisodeID,
		"language":   tr.Language.String(),
		"transcript": tr,
	})
}
