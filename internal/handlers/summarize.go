package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
	"github.com/tonyc-ship/latios-oss-sub001/internal/store"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/deepgram"
	"github.com/tonyc-ship/latios-oss-sub001/pkg/llm"
)

// SummarizePath is exempt from the request timeout; the handler bounds the
// generation itself.
const SummarizePath = "/api/summarize"

const (
	defaultSummarizeTimeout = 10 * time.Minute
	persistTimeout          = 10 * time.Second
)

var systemPrompts = map[store.Language]string{
	store.LanguageEnglish: "You summarize podcast episodes. Write a concise markdown summary: " +
		"a short overview paragraph, then the key points as a bulleted list, then notable quotes if there are any.",
	store.LanguageChinese: "你负责总结播客节目。请用简体中文撰写简洁的 Markdown 摘要：" +
		"先用一段话概述，再用列表列出要点，如有精彩语录请附在最后。",
}

// SummarizeStore reads transcripts and persists generated summaries.
type SummarizeStore interface {
	GetTranscript(ctx context.Context, episodeID string, lang store.Language) (*store.Transcript, error)
	GetSummary(ctx context.Context, episodeID string, lang store.Language) (*store.Summary, error)
	UpsertSummary(ctx context.Context, s *store.Summary) error
}

// SummarizeHandler streams an LLM summary of an episode transcript back as
// plain text and stores the finished summary.
type SummarizeHandler struct {
	llm     llm.Provider
	store   SummarizeStore
	guards  Guards
	timeout time.Duration
}

// NewSummarize builds the handler. A nil provider answers 503 so clients
// can tell a disabled feature from a failure.
func NewSummarize(p llm.Provider, s SummarizeStore, guards Guards, timeout time.Duration) *SummarizeHandler {
	if timeout <= 0 {
		timeout = defaultSummarizeTimeout
	}
	return &SummarizeHandler{llm: p, store: s, guards: guards, timeout: timeout}
}

func (h *SummarizeHandler) Routes(r internal.Router) {
	r.POST(SummarizePath, h.summarize, h.guards.required())
}

type summarizeRequest struct {
	EpisodeID       string `json:"episode_id"`
	Language        string `json:"language"`
	PodcastName     string `json:"podcast_name"`
	EpisodeTitle    string `json:"episode_title"`
	EpisodeDuration int    `json:"episode_duration"`
	PubDate         string `json:"pub_date"`
	// Transcript is used as is; when empty the stored transcript is loaded.
	Transcript   string `json:"transcript"`
	SystemPrompt string `json:"system_prompt"`
	UserPrompt   string `json:"user_prompt"`
	// NoPersist streams without saving, for ad hoc questions.
	NoPersist bool `json:"no_persist"`
}

func (h *SummarizeHandler) summarize(c internal.Context) error {
	if h.llm == nil {
		return internal.ErrServiceUnavailable("summarization is not configured", internal.WithErrorCode("llm_disabled"))
	}

	var req summarizeRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	req.EpisodeID = strings.TrimSpace(req.EpisodeID)
	if req.EpisodeID == "" && !req.NoPersist {
		return internal.ErrUnprocessable("episode_id is required", internal.WithErrorCode("missing_episode"))
	}
	lang, err := language(req.Language)
	if err != nil {
		return err
	}

	if !req.NoPersist {
		existing, err := h.store.GetSummary(c, req.EpisodeID, lang)
		switch {
		case err == nil && existing.UserID != "" && existing.UserID != c.UserID():
			return storeError(store.ErrNotOwner, "summary")
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return err
		}
	}

	prompt, err := h.prompt(c, &req, lang)
	if err != nil {
		return err
	}
	system := req.SystemPrompt
	if strings.TrimSpace(system) == "" {
		system = systemPrompts[lang]
	}

	ctx, cancel := context.WithTimeout(c, h.timeout)
	defer cancel()

	w := c.Response()
	rc := http.NewResponseController(w)
	// The server write timeout is shorter than a long generation.
	_ = rc.SetWriteDeadline(time.Now().Add(h.timeout))

	var (
		full    strings.Builder
		started bool
	)
	err = h.llm.Stream(ctx, llm.Request{System: system, Prompt: prompt}, func(chunk string) error {
		if !started {
			started = true
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.WriteHeader(http.StatusOK)
		}
		full.WriteString(chunk)
		if _, err := io.WriteString(w, chunk); err != nil {
			return err
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		return nil
	})
	if err != nil {
		if !started {
			return internal.NewHTTPError(http.StatusBadGateway, "summary generation failed",
				internal.WithError(err), internal.WithErrorCode("llm_error"))
		}
		c.LogError("summary stream interrupted", "error", err, "episode_id", req.EpisodeID, "provider", h.llm.Name())
		_, _ = io.WriteString(w, "\n\nError: summary generation was interrupted")
		return nil
	}
	if !started {
		return internal.NewHTTPError(http.StatusBadGateway, "summary generation returned no text", internal.WithErrorCode("llm_empty"))
	}

	if !req.NoPersist {
		h.persist(c, &req, lang, full.String())
	}
	return nil
}

// persist runs after the stream so a client that hung up still gets the
// summary saved.
func (h *SummarizeHandler) persist(c internal.Context, req *summarizeRequest, lang store.Language, content string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c), persistTimeout)
	defer cancel()

	sm := &store.Summary{
		EpisodeID:       req.EpisodeID,
		Language:        lang,
		Status:          store.StatusDone,
		Content:         content,
		PodcastName:     req.PodcastName,
		EpisodeTitle:    req.EpisodeTitle,
		EpisodeDuration: max(req.EpisodeDuration, 0),
		PubDate:         ParsePubDate(req.PubDate),
		UserID:          c.UserID(),
	}
	if err := h.store.UpsertSummary(ctx, sm); err != nil {
		c.LogError("save generated summary", "error", err, "episode_id", req.EpisodeID)
		return
	}
	c.LogInfo("summary generated", "episode_id", req.EpisodeID, "language", lang.String(),
		"provider", h.llm.Name(), "model", h.llm.Model(), "bytes", len(content))
}

// prompt is the caller's user prompt, or one built around the transcript.
func (h *SummarizeHandler) prompt(c internal.Context, req *summarizeRequest, lang store.Language) (string, error) {
	if strings.TrimSpace(req.UserPrompt) != "" {
		return req.UserPrompt, nil
	}

	transcript := strings.TrimSpace(req.Transcript)
	if transcript == "" && req.EpisodeID != "" {
		tr, err := h.store.GetTranscript(c, req.EpisodeID, lang)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			return "", err
		default:
			transcript = TranscriptText(tr.Content)
		}
	}
	if transcript == "" {
		return "", internal.ErrUnprocessable("a transcript is required to summarize",
			internal.WithErrorCode("missing_transcript"))
	}

	var b strings.Builder
	if req.PodcastName != "" {
		fmt.Fprintf(&b, "Podcast: %s\n", req.PodcastName)
	}
	if req.EpisodeTitle != "" {
		fmt.Fprintf(&b, "Episode: %s\n", req.EpisodeTitle)
	}
	if d := ParsePubDate(req.PubDate); d != nil {
		fmt.Fprintf(&b, "Published: %s\n", d.Format(time.DateOnly))
	}
	if req.EpisodeDuration > 0 {
		fmt.Fprintf(&b, "Duration: %s\n", time.Duration(req.EpisodeDuration)*time.Second)
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString("Transcript:\n")
	b.WriteString(transcript)
	return b.String(), nil
}

// TranscriptText flattens stored transcript segments into speaker-labelled
// lines. Content that is not a segment list is returned as is.
func TranscriptText(content json.RawMessage) string {
	var segs []deepgram.Segment
	if err := json.Unmarshal(content, &segs); err != nil {
		return strings.TrimSpace(string(content))
	}
	var b strings.Builder
	for _, s := range segs {
		text := strings.TrimSpace(s.FinalSentence)
		if text == "" {
			continue
		}
		if s.SpeakerID != "" {
			b.WriteString(s.SpeakerID)
			b.WriteString(": ")
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
