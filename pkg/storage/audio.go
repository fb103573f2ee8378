package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
)

var audioExt = map[string]string{
	"audio/mpeg":  ".mp3",
	"audio/mp3":   ".mp3",
	"audio/mp4":   ".m4a",
	"audio/x-m4a": ".m4a",
	"audio/aac":   ".aac",
	"audio/ogg":   ".ogg",
	"audio/opus":  ".opus",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/webm":  ".webm",
	"video/mp4":   ".mp4",
}

// AudioExt returns the file extension for an audio content type, ".bin"
// when unknown.
func AudioExt(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".bin"
	}
	if ext, ok := audioExt[mt]; ok {
		return ext
	}
	return ".bin"
}

// AudioKey is the archive key of an episode: audio/{episode}{ext}.
func AudioKey(episodeID, contentType string) string {
	return path.Join("audio", sanitizePathSegment(episodeID)+AudioExt(contentType))
}

var unsafeSegment = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func sanitizePathSegment(segment string) string {
	segment = strings.Trim(segment, " /\\")
	segment = strings.ReplaceAll(segment, "..", "")
	segment = unsafeSegment.ReplaceAllString(segment, "_")
	if segment == "" {
		return "_"
	}
	return segment
}

// Download streams srcURL into w, refusing bodies larger than maxSize. It
// returns the number of bytes written and the response content type.
func Download(ctx context.Context, client *http.Client, srcURL string, w io.Writer, maxSize int64) (int64, string, error) {
	u, err := url.Parse(srcURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return 0, "", ErrInvalidURL
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxDownloadSize
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	// Some podcast CDNs reject requests without a browser-like agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; latios/1.0)")

	resp, err := client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, "", fmt.Errorf("%w: status %d", ErrDownloadFailed, resp.StatusCode)
	}
	if resp.ContentLength > maxSize {
		return 0, "", ErrDownloadTooLarge
	}

	n, err := io.Copy(w, io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return n, "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	if n > maxSize {
		return n, "", ErrDownloadTooLarge
	}
	if n == 0 {
		return 0, "", ErrEmptyFile
	}

	return n, resp.Header.Get("Content-Type"), nil
}
