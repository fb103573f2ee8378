package i18n

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// WithYAMLFS loads {locale}/{namespace}.yaml (or .yml) files from fsys.
func WithYAMLFS(fsys fs.FS) Option {
	return func(c *Catalog) error {
		return c.load(fsys, []string{".yaml", ".yml"}, yaml.Unmarshal)
	}
}

// WithJSONFS loads {locale}/{namespace}.json files from fsys.
func WithJSONFS(fsys fs.FS) Option {
	return func(c *Catalog) error {
		return c.load(fsys, []string{".json"}, json.Unmarshal)
	}
}

func (c *Catalog) load(fsys fs.FS, exts []string, unmarshal func([]byte, any) error) error {
	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(path.Ext(p))
		if !slices.Contains(exts, ext) {
			return nil
		}

		dir := path.Dir(p)
		if dir == "." {
			return fmt.Errorf("%w: %q is not inside a locale directory", ErrInvalidFile, p)
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("i18n: read %q: %w", p, err)
		}

		var messages map[string]any
		if err := unmarshal(data, &messages); err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidFile, p, err)
		}

		namespace := strings.TrimSuffix(path.Base(p), path.Ext(p))
		return c.add(path.Base(dir), namespace, messages)
	})
}
