package mailer

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

var frontmatterFence = []byte("---")

// parseTemplate splits a file into YAML front matter and Markdown body.
// Files without a leading fence have no metadata.
func parseTemplate(content []byte) (map[string]any, string, error) {
	meta := make(map[string]any)

	rest, ok := bytes.CutPrefix(content, frontmatterFence)
	if !ok {
		return meta, string(content), nil
	}
	rest = bytes.TrimLeft(rest, "\r\n")

	head, body, found := bytes.Cut(rest, frontmatterFence)
	if !found {
		return nil, "", fmt.Errorf("%w: closing fence not found", ErrInvalidFrontmatter)
	}
	body = bytes.TrimPrefix(bytes.TrimPrefix(body, []byte("\r")), []byte("\n"))

	if len(bytes.TrimSpace(head)) > 0 {
		if err := yaml.Unmarshal(head, &meta); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
		}
	}
	return meta, string(body), nil
}
