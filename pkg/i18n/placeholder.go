package i18n

import (
	"fmt"
	"maps"
	"strings"
)

// Replace substitutes {{name}} placeholders in msg. Later maps win on
// duplicate names. Unknown placeholders are left as they are.
func Replace(msg string, placeholders ...M) string {
	if len(placeholders) == 0 || !strings.Contains(msg, "{{") {
		return msg
	}

	vars := make(M)
	for _, p := range placeholders {
		maps.Copy(vars, p)
	}
	if len(vars) == 0 {
		return msg
	}

	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}
