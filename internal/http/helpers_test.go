package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/config"
	httpapi "storefront/internal/http"
	"storefront/internal/http/handlers"
	"storefront/internal/media"
	"storefront/internal/repos"
)

const adminToken = "s3cret-admin"

type testEnv struct {
	app  *fiber.App
	db   *sqlx.DB
	deps *handlers.Deps
	inv  *repos.InventoryRepo
}

// newTestApp builds the full application on an in-memory database holding
// the demo catalog (variants 101:5, 102:3, 201:4, 301:10, 302:0).
func newTestApp(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminToken), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := config.Config{
		DBDriver:       "sqlite",
		DBDSN:          ":memory:",
		BaseURL:        "http://shop.test",
		AdminTokenHash: string(hash),
		StoreTimeout:   time.Second,
		BodyLimit:      1 << 20,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repos.SeedIfEmpty(context.Background(), db))

	images, err := media.New(t.TempDir())
	require.NoError(t, err)
	files, err := media.New(t.TempDir())
	require.NoError(t, err)

	deps := handlers.NewDeps(db, cfg, images, files)
	return &testEnv{
		app:  httpapi.NewApp(cfg, db, deps),
		db:   db,
		deps: deps,
		inv:  repos.NewInventoryRepo(db),
	}
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func (e *testEnv) stock(t *testing.T, id int64) int {
	t.Helper()
	v, err := e.inv.Variant(context.Background(), id)
	require.NoError(t, err)
	return v.Stock
}

func jsonReq(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func asAdmin(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+adminToken)
	return req
}

type apiResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func result(t *testing.T, body []byte) apiResult {
	t.Helper()
	var r apiResult
	require.NoError(t, json.Unmarshal(body, &r), string(body))
	return r
}

type part struct {
	field, filename, contentType string
	content                      []byte
}

func multipartReq(t *testing.T, method, target string, values map[string]string, files ...part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{`form-data; name="` + f.field + `"; filename="` + f.filename + `"`}
		h["Content-Type"] = []string{f.contentType}
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

type logEntry struct {
	Level  string         `json:"level"`
	ReqID  string         `json:"req_id"`
	Action string         `json:"action"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	b  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedBuf{b: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findAction(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
