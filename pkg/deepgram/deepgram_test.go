package deepgram_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonyc-ship/latios-oss-sub001/pkg/deepgram"
)

const utterancesBody = `{"results":{"utterances":[
 {"start":0.08,"end":2.5,"transcript":"Welcome to the show.","speaker":0},
 {"start":2.6,"end":4.25,"transcript":"Thanks for having me.","speaker":1}
],"channels":[]}}`

const wordsBody = `{"results":{"channels":[{"alternatives":[{"transcript":"hi there. how are you","words":[
 {"word":"hi","punctuated_word":"Hi","start":0.0,"end":0.2,"speaker":0},
 {"word":"there","punctuated_word":"there.","start":0.2,"end":0.5,"speaker":0},
 {"word":"how","punctuated_word":"How","start":0.7,"end":0.8,"speaker":1},
 {"word":"are","punctuated_word":"are","start":0.8,"end":0.9,"speaker":1},
 {"word":"you","punctuated_word":"you","start":0.9,"end":1.1,"speaker":1}
]}]}]}}`

func newClient(t *testing.T, h http.HandlerFunc) *deepgram.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := deepgram.New(deepgram.Config{APIKey: "dg-key", BaseURL: srv.URL}, nil)
	require.NoError(t, err)
	return c
}

func TestNewRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := deepgram.New(deepgram.Config{}, nil)
	require.ErrorIs(t, err, deepgram.ErrNotConfigured)
}

func TestTranscribeURL(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/listen", r.URL.Path)
		assert.Equal(t, "Token dg-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		q := r.URL.Query()
		assert.Equal(t, "nova-3", q.Get("model"))
		assert.Equal(t, "zh-CN", q.Get("language"))
		assert.Equal(t, "true", q.Get("diarize"))
		assert.Equal(t, "true", q.Get("utterances"))
		assert.Equal(t, "true", q.Get("smart_format"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://cdn.example.com/ep.mp3", body["url"])

		_, _ = w.Write([]byte(utterancesBody))
	})

	segs, err := c.TranscribeURL(context.Background(), "https://cdn.example.com/ep.mp3", deepgram.Options{Language: "zh", Diarize: true})
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, deepgram.Segment{StartMs: 80, EndMs: 2500, FinalSentence: "Welcome to the show.", SpeakerID: "Speaker 0"}, segs[0])
	assert.Equal(t, "Speaker 1", segs[1].SpeakerID)
}

func TestTranscribeReaderWithoutDiarization(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "audio/mp4", r.Header.Get("Content-Type"))
		assert.Equal(t, "en-US", r.URL.Query().Get("language"))
		data, _ := io.ReadAll(r.Body)
		assert.Equal(t, "RIFF....", string(data))
		_, _ = w.Write([]byte(utterancesBody))
	})

	segs, err := c.TranscribeReader(context.Background(), strings.NewReader("RIFF...."), "audio/mp4", deepgram.Options{Language: "en"})
	require.NoError(t, err)
	for _, s := range segs {
		assert.Equal(t, "Speaker 1", s.SpeakerID)
	}
}

func TestWordFallback(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(wordsBody))
	})

	segs, err := c.TranscribeURL(context.Background(), "https://cdn.example.com/ep.mp3", deepgram.Options{Diarize: true})
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, "Hi there.", segs[0].FinalSentence)
	assert.Equal(t, int64(500), segs[0].EndMs)
	assert.Equal(t, "How are you", segs[1].FinalSentence)
	assert.Equal(t, "Speaker 2", segs[1].SpeakerID)
	assert.Equal(t, int64(1100), segs[1].EndMs)
}

func TestTranscribeErrors(t *testing.T) {
	t.Parallel()

	t.Run("upstream status", func(t *testing.T) {
		t.Parallel()
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"err_msg":"bad key"}`, http.StatusUnauthorized)
		})
		_, err := c.TranscribeURL(context.Background(), "https://x", deepgram.Options{})
		require.ErrorIs(t, err, deepgram.ErrRequest)
		assert.Contains(t, err.Error(), "bad key")
	})

	t.Run("no speech", func(t *testing.T) {
		t.Parallel()
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"results":{"channels":[{"alternatives":[{"transcript":"","words":[]}]}]}}`))
		})
		_, err := c.TranscribeURL(context.Background(), "https://x", deepgram.Options{})
		require.ErrorIs(t, err, deepgram.ErrNoSpeech)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("nope"))
		})
		_, err := c.TranscribeURL(context.Background(), "https://x", deepgram.Options{})
		require.ErrorIs(t, err, deepgram.ErrDecode)
	})
}

func TestLanguageCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "en-US", deepgram.LanguageCode("en"))
	assert.Equal(t, "zh-CN", deepgram.LanguageCode("zh"))
	assert.Equal(t, "ko", deepgram.LanguageCode("ko"))
	assert.Equal(t, "en-US", deepgram.LanguageCode("xx"))
}

func TestCleanChineseText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"你 好 世 界", "你好世界"},
		{"今天 天气 很好 。 我们 出去 吧 ！", "今天天气很好。我们出去吧！"},
		{"我们 用 Go 写 服务", "我们用 Go 写服务"},
		{"  hello   world  ", "hello world"},
		{"first , second .  third", "first, second. third"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, deepgram.CleanChineseText(tt.in), "input %q", tt.in)
	}
}

func TestChineseSegmentsAreCleaned(t *testing.T) {
	t.Parallel()

	const body = `{"results":{"utterances":[
 {"start":0,"end":1.5,"transcript":"欢迎 收听 本期 节目 。","speaker":0}
]}}`
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	segs, err := c.TranscribeURL(context.Background(), "https://cdn.example.com/ep.mp3", deepgram.Options{Language: "zh"})
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, "欢迎收听本期节目。", segs[0].FinalSentence)

	segs, err = c.TranscribeURL(context.Background(), "https://cdn.example.com/ep.mp3", deepgram.Options{Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, "欢迎 收听 本期 节目 。", segs[0].FinalSentence)
}
