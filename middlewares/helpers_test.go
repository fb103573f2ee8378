package middlewares_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tonyc-ship/latios-oss-sub001/internal"
)

type routes func(r internal.Router)

func (f routes) Routes(r internal.Router) { f(r) }

// serve builds an App with global middleware mw and a single GET route at
// path, then sends req through it.
func serve(t *testing.T, req *http.Request, path string, h internal.HandlerFunc, mw ...internal.Middleware) *httptest.ResponseRecorder {
	t.Helper()

	app := internal.New(
		internal.WithMiddleware(mw...),
		internal.WithHandlers(routes(func(r internal.Router) {
			r.GET(path, h)
		})),
	)
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func okHandler(c internal.Context) error {
	return c.String(http.StatusOK, "ok")
}

func decodeError(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var out struct {
		Error map[string]any `json:"error"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out.Error
}
