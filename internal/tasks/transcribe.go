// Package tasks holds the background jobs run by the job manager.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/tonyc-ship/latios-oss-sub001/internal/store"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/deepgram"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/i18n"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/job"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/mailer"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/storage"
)

// TranscribeTask is the registered task name.
const TranscribeTask = "transcribe"

const (
	// DefaultTranscribeTimeout bounds one attempt: download, archive and
	// the Deepgram call.
	DefaultTranscribeTimeout = 30 * time.Minute

	// StaleTaskAfter is how long an unfinished task may go without an update
	// before it is treated as dead. It outlasts any single attempt.
	StaleTaskAfter = DefaultTranscribeTimeout + 5*time.Minute

	// presignTTL must outlast the longest transcription.
	presignTTL = DefaultTranscribeTimeout

	// failureWriteTimeout bounds recording a failure after the job
	// context is gone.
	failureWriteTimeout = 10 * time.Second
)

// TranscribePayload is enqueued by POST /api/transcribe.
type TranscribePayload struct {
	TaskID       string         `json:"task_id"`
	EpisodeID    string         `json:"episode_id"`
	AudioURL     string         `json:"url"`
	Language     store.Language `json:"language"`
	PodcastName  string         `json:"podcast_name,omitempty"`
	EpisodeTitle string         `json:"episode_title,omitempty"`
	PubDate      *time.Time     `json:"pub_date,omitempty"`
	UserID       string         `json:"user_id,omitempty"`
	UserEmail    string         `json:"user_email,omitempty"`
}

// TranscribeStore is the persistence the task needs.
type TranscribeStore interface {
	UpdateTask(ctx context.Context, id string, status store.TaskStatus, message, errText string) error
	UpsertTranscript(ctx context.Context, t *store.Transcript) error
}

// Transcriber turns audio into segments. *deepgram.Client implements it.
type Transcriber interface {
	TranscribeURL(ctx context.Context, audioURL string, opts deepgram.Options) ([]deepgram.Segment, error)
}

// Notifier sends templated email. *mailer.Mailer implements it.
type Notifier interface {
	Send(ctx context.Context, params mailer.SendParams) error
}

// Transcribe downloads, archives and transcribes one episode, reporting
// each step on the task row.
type Transcribe struct {
	store       TranscribeStore
	transcriber Transcriber
	catalog     *i18n.Catalog
	archive     storage.Storage
	notifier    Notifier
	http        *http.Client
	maxDownload int64
	baseURL     string
	timeout     time.Duration
	logger      *slog.Logger
}

// TranscribeOption configures Transcribe.
type TranscribeOption func(*Transcribe)

// WithArchive stores the audio before transcription and hands Deepgram a
// presigned URL instead of the podcast CDN's.
func WithArchive(s storage.Storage, maxDownload int64) TranscribeOption {
	return func(t *Transcribe) {
		t.archive = s
		t.maxDownload = maxDownload
	}
}

// WithNotifier emails the requester when the transcript is ready.
func WithNotifier(n Notifier, baseURL string) TranscribeOption {
	return func(t *Transcribe) {
		t.notifier = n
		t.baseURL = baseURL
	}
}

func WithHTTPClient(c *http.Client) TranscribeOption {
	return func(t *Transcribe) {
		if c != nil {
			t.http = c
		}
	}
}

// WithTimeout overrides DefaultTranscribeTimeout.
func WithTimeout(d time.Duration) TranscribeOption {
	return func(t *Transcribe) {
		if d > 0 {
			t.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) TranscribeOption {
	return func(t *Transcribe) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTranscribe builds the task.
func NewTranscribe(s TranscribeStore, tr Transcriber, cat *i18n.Catalog, opts ...TranscribeOption) *Transcribe {
	t := &Transcribe{
		store:       s,
		transcriber: tr,
		catalog:     cat,
		http:        &http.Client{Timeout: 10 * time.Minute},
		timeout:     DefaultTranscribeTimeout,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transcribe) Name() string { return TranscribeTask }

// Timeout is the job deadline the job manager applies to each attempt.
func (t *Transcribe) Timeout() time.Duration { return t.timeout }

// Handle runs the task. Failures are written to the task row and the job
// is not retried; only a failure to record the failure is retried.
// The failure is written on a context detached from ctx, so a job that hit
// its deadline still leaves a finished row behind.
func (t *Transcribe) Handle(ctx context.Context, p TranscribePayload) error {
	log := t.logger.With(slog.String("task_id", p.TaskID), slog.String("episode_id", p.EpisodeID))

	if err := t.run(ctx, p); err != nil {
		log.ErrorContext(ctx, "transcription failed", slog.Any("error", err))
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureWriteTimeout)
		defer cancel()
		if uerr := t.step(wctx, p, store.TaskFailed, err.Error()); uerr != nil {
			return errors.Join(err, uerr)
		}
		return job.Permanent(err)
	}

	log.InfoContext(ctx, "transcription completed")
	t.notify(ctx, log, p)
	return nil
}

func (t *Transcribe) run(ctx context.Context, p TranscribePayload) error {
	if err := t.step(ctx, p, store.TaskDownloading, ""); err != nil {
		return err
	}

	audioURL := p.AudioURL
	if t.archive != nil {
		var err error
		if audioURL, err = t.archiveAudio(ctx, p); err != nil {
			return err
		}
	}

	if err := t.step(ctx, p, store.TaskTranscribing, ""); err != nil {
		return err
	}
	segments, err := t.transcriber.TranscribeURL(ctx, audioURL, deepgram.Options{
		Language: p.Language.String(),
		Diarize:  true,
	})
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}

	content, err := json.Marshal(segments)
	if err != nil {
		return err
	}
	if err := t.store.UpsertTranscript(ctx, &store.Transcript{
		EpisodeID:    p.EpisodeID,
		Language:     p.Language,
		Status:       store.StatusDone,
		PodcastName:  p.PodcastName,
		EpisodeTitle: p.EpisodeTitle,
		PubDate:      p.PubDate,
		UserID:       p.UserID,
		Content:      content,
	}); err != nil {
		return err
	}

	return t.step(ctx, p, store.TaskCompleted, "")
}

// archiveAudio copies the episode into the archive once and returns a
// presigned URL for it.
func (t *Transcribe) archiveAudio(ctx context.Context, p TranscribePayload) (string, error) {
	f, err := os.CreateTemp("", "latios-audio-*")
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
		_ = os.Remove(f.Name())
	}()

	size, contentType, err := storage.Download(ctx, t.http, p.AudioURL, f, t.maxDownload)
	if err != nil {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	if err := t.step(ctx, p, store.TaskUploading, ""); err != nil {
		return "", err
	}
	info, err := t.archive.Put(ctx, storage.AudioKey(p.EpisodeID, contentType), f, size, contentType)
	if err != nil {
		return "", err
	}
	return t.archive.URL(ctx, info.Key, presignTTL)
}

func (t *Transcribe) step(ctx context.Context, p TranscribePayload, status store.TaskStatus, errText string) error {
	return t.store.UpdateTask(ctx, p.TaskID, status, Message(t.catalog, p.Language, status), errText)
}

func (t *Transcribe) notify(ctx context.Context, log *slog.Logger, p TranscribePayload) {
	if t.notifier == nil || p.UserEmail == "" {
		return
	}
	err := t.notifier.Send(ctx, mailer.SendParams{
		To:       p.UserEmail,
		Locale:   p.Language.String(),
		Template: "transcript_ready",
		Data: map[string]any{
			"Podcast": p.PodcastName,
			"Episode": p.EpisodeTitle,
			"URL":     fmt.Sprintf("%s/api/transcribe/%s/result", t.baseURL, p.TaskID),
		},
		Tags: map[string]string{"kind": "transcript"},
	})
	if err != nil {
		log.WarnContext(ctx, "transcript email not sent", slog.Any("error", err))
	}
}

// Message is the translated progress text for status, in the task's
// language.
func Message(cat *i18n.Catalog, lang store.Language, status store.TaskStatus) string {
	key := "transcribe." + string(status)
	if cat == nil {
		return key
	}
	return cat.T(lang.String(), "tasks", key)
}
