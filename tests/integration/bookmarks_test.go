package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marque-app/marque/internal/auth"
	"github.com/marque-app/marque/internal/blob"
	"github.com/marque-app/marque/internal/domain"
	"github.com/marque-app/marque/internal/fetch"
	"github.com/marque-app/marque/internal/httpserver/deps"
	"github.com/marque-app/marque/internal/httpserver/routes"
	"github.com/marque-app/marque/internal/logger"
	"github.com/marque-app/marque/internal/store"
)

var jwtSecret = []byte("integration-test-secret")

// memStore is an in-memory store.BookmarkStore + store.TagStore.
type memStore struct {
	bookmarks map[string]*domain.Bookmark
	tags      map[string]domain.Tag
	nextID    int
}

func newMemStore() *memStore {
	return &memStore{
		bookmarks: map[string]*domain.Bookmark{},
		tags:      map[string]domain.Tag{},
	}
}

func (m *memStore) expand(b *domain.Bookmark) *domain.Bookmark {
	cp := *b
	cp.Tags = nil
	for _, id := range cp.TagIDs {
		if tag, ok := m.tags[id]; ok {
			cp.Tags = append(cp.Tags, tag)
		}
	}
	return &cp
}

func (m *memStore) List(ctx context.Context, ownerID string, ids []string) ([]*domain.Bookmark, error) {
	wanted := map[string]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	var out []*domain.Bookmark
	for _, b := range m.bookmarks {
		if b.OwnerID != ownerID {
			continue
		}
		if len(wanted) > 0 && !wanted[b.ID] {
			continue
		}
		out = append(out, m.expand(b))
	}
	return out, nil
}

func (m *memStore) Get(ctx context.Context, id string) (*domain.Bookmark, error) {
	b, ok := m.bookmarks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return m.expand(b), nil
}

func (m *memStore) Create(ctx context.Context, b *domain.Bookmark) (string, error) {
	m.nextID++
	id := fmt.Sprintf("bm-%d", m.nextID)
	cp := *b
	cp.ID = id
	m.bookmarks[id] = &cp
	return id, nil
}

func (m *memStore) Update(ctx context.Context, ownerID string, b *domain.Bookmark) error {
	existing, ok := m.bookmarks[b.ID]
	if !ok || existing.OwnerID != ownerID {
		return store.ErrNoRowsAffected
	}
	cp := *b
	cp.MainImageKey = existing.MainImageKey
	cp.IconKey = existing.IconKey
	m.bookmarks[b.ID] = &cp
	return nil
}

func (m *memStore) Delete(ctx context.Context, ownerID, id string) error {
	existing, ok := m.bookmarks[id]
	if !ok || existing.OwnerID != ownerID {
		return store.ErrNotFound
	}
	delete(m.bookmarks, id)
	return nil
}

func (m *memStore) SetAttachment(ctx context.Context, ownerID, id, field, key string) error {
	existing, ok := m.bookmarks[id]
	if !ok || existing.OwnerID != ownerID {
		return store.ErrNoRowsAffected
	}
	switch field {
	case store.AttachmentMainImage:
		existing.MainImageKey = key
	case store.AttachmentIcon:
		existing.IconKey = key
	}
	return nil
}

func (m *memStore) Resolve(ctx context.Context, ownerID string, tags []domain.TagInput) ([]string, error) {
	var ids []string
	for _, input := range tags {
		value := input.Value
		if value == "" {
			value = input.Label
		}
		id := "tag-" + ownerID + "-" + value
		m.tags[id] = domain.Tag{ID: id, OwnerID: ownerID, Label: input.Label, Value: value}
		ids = append(ids, id)
	}
	return ids, nil
}

type memBlob struct {
	objects map[string][]byte
}

func (m *memBlob) Put(ctx context.Context, key string, data []byte, contentType string) error {
	m.objects[key] = data
	return nil
}

func (m *memBlob) PresignGet(ctx context.Context, key string) (string, error) {
	return "https://files.test/" + key, nil
}

type memFetcher struct {
	content map[string]*fetch.Attachment
}

func (m *memFetcher) Fetch(ctx context.Context, url string) (*fetch.Attachment, error) {
	att, ok := m.content[url]
	if !ok {
		return nil, fmt.Errorf("failed to fetch %s: status 404", url)
	}
	return att, nil
}

// newRouter assembles the live route registry over in-memory backends,
// mirroring what httpserver.New wires minus the process-level middlewares.
func newRouter(ms *memStore, fetcher fetch.Fetcher) chi.Router {
	log := logger.New("error", false)
	bl := &memBlob{objects: map[string][]byte{}}

	d := deps.Deps{
		Logger:          log,
		TimeNow:         time.Now,
		JWTSecret:       jwtSecret,
		Bookmarks:       ms,
		Tags:            ms,
		Blobs:           bl,
		Resolver:        blob.NewURLResolver(bl, nil, 15*time.Minute, log),
		Fetcher:         fetcher,
		RateLimitBurst:  1000,
		RateLimitPerMin: 1000,
	}

	r := chi.NewRouter()
	routes.RegisterAll(r, d)
	return r
}

func bearerFor(t *testing.T, owner string) string {
	t.Helper()
	token, err := auth.GenerateToken(owner, jwtSecret, time.Hour)
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	return "Bearer " + token
}

func do(t *testing.T, r chi.Router, method, target, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

// TestBookmarkLifecycle drives a full create -> list -> update -> delete
// round through the real router, auth middleware included.
func TestBookmarkLifecycle(t *testing.T) {
	ms := newMemStore()
	fetcher := &memFetcher{content: map[string]*fetch.Attachment{
		"https://cdn.example.com/icon.png": {Data: []byte("png"), ContentType: "image/png"},
	}}
	router := newRouter(ms, fetcher)
	bearer := bearerFor(t, "owner-1")

	// create
	rec := do(t, router, http.MethodPost, "/api/bookmarks", bearer, map[string]any{
		"url":      "https://blog.example.com/go-generics",
		"title":    "Generics in practice",
		"category": "cat-prog",
		"icon_url": "https://cdn.example.com/icon.png",
		"tags":     []map[string]string{{"label": "Go", "value": "go"}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decode(t, rec)["bookmark"].(map[string]any)
	id := created["id"].(string)
	if created["domain"] != "blog.example.com" {
		t.Errorf("create: expected derived domain blog.example.com, got %v", created["domain"])
	}
	if icon, _ := created["icon"].(string); icon == "" {
		t.Error("create: expected a resolved icon URL after ingestion")
	}

	// list
	rec = do(t, router, http.MethodGet, "/api/bookmarks", bearer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	listed := decode(t, rec)["bookmarks"].([]any)
	if len(listed) != 1 {
		t.Fatalf("list: expected 1 bookmark, got %d", len(listed))
	}
	tags := listed[0].(map[string]any)["tags"].([]any)
	if len(tags) != 1 || tags[0].(map[string]any)["value"] != "go" {
		t.Errorf("list: expected the go tag expanded, got %v", tags)
	}

	// update
	rec = do(t, router, http.MethodPatch, "/api/bookmarks", bearer, map[string]any{
		"id":    id,
		"title": "Generics in practice, revisited",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	updated := decode(t, rec)["bookmark"].(map[string]any)
	if updated["title"] != "Generics in practice, revisited" {
		t.Errorf("update: title not applied, got %v", updated["title"])
	}
	if updated["url"] != "https://blog.example.com/go-generics" {
		t.Errorf("update: absent url must survive, got %v", updated["url"])
	}

	// delete
	rec = do(t, router, http.MethodDelete, "/api/bookmarks?id="+id, bearer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, "/api/bookmarks", bearer, nil)
	if got := decode(t, rec)["bookmarks"].([]any); len(got) != 0 {
		t.Errorf("list after delete: expected empty, got %d", len(got))
	}
}

// TestOwnerIsolation verifies one owner can neither see nor touch
// another owner's bookmarks, and that probing leaks no existence signal.
func TestOwnerIsolation(t *testing.T) {
	ms := newMemStore()
	router := newRouter(ms, &memFetcher{content: map[string]*fetch.Attachment{}})

	alice := bearerFor(t, "alice")
	bob := bearerFor(t, "bob")

	rec := do(t, router, http.MethodPost, "/api/bookmarks", alice, map[string]any{
		"url":      "https://example.com/private",
		"title":    "Alice only",
		"category": "cat-1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	id := decode(t, rec)["bookmark"].(map[string]any)["id"].(string)

	// Bob sees nothing, even when asking for the id directly.
	rec = do(t, router, http.MethodGet, "/api/bookmarks?ids="+id, bob, nil)
	if got := decode(t, rec)["bookmarks"].([]any); len(got) != 0 {
		t.Errorf("list: bob must not see alice's bookmark, got %d", len(got))
	}

	// Bob's update and delete probes look exactly like a missing record.
	patchReal := do(t, router, http.MethodPatch, "/api/bookmarks", bob, map[string]any{"id": id, "title": "x"})
	patchFake := do(t, router, http.MethodPatch, "/api/bookmarks", bob, map[string]any{"id": "no-such-id", "title": "x"})
	if patchReal.Code != http.StatusNotFound || patchFake.Code != http.StatusNotFound {
		t.Fatalf("patch probes: expected 404/404, got %d/%d", patchReal.Code, patchFake.Code)
	}
	if patchReal.Body.String() != patchFake.Body.String() {
		t.Error("patch probes: responses must be indistinguishable")
	}

	delReal := do(t, router, http.MethodDelete, "/api/bookmarks?id="+id, bob, nil)
	delFake := do(t, router, http.MethodDelete, "/api/bookmarks?id=no-such-id", bob, nil)
	if delReal.Code != http.StatusNotFound || delFake.Code != http.StatusNotFound {
		t.Fatalf("delete probes: expected 404/404, got %d/%d", delReal.Code, delFake.Code)
	}
	if delReal.Body.String() != delFake.Body.String() {
		t.Error("delete probes: responses must be indistinguishable")
	}

	// Alice still has her record.
	rec = do(t, router, http.MethodGet, "/api/bookmarks", alice, nil)
	if got := decode(t, rec)["bookmarks"].([]any); len(got) != 1 {
		t.Errorf("alice's bookmark must survive bob's probes, got %d", len(got))
	}
}

// TestAuthRequired verifies the guard chain rejects unauthenticated and
// badly authenticated requests with the standard error envelope.
func TestAuthRequired(t *testing.T) {
	router := newRouter(newMemStore(), &memFetcher{content: map[string]*fetch.Attachment{}})

	tests := []struct {
		name   string
		bearer string
	}{
		{name: "no token", bearer: ""},
		{name: "malformed header", bearer: "Token abc"},
		{name: "garbage token", bearer: "Bearer not.a.jwt"},
		{name: "wrong secret", bearer: func() string {
			token, _ := auth.GenerateToken("owner-1", []byte("wrong"), time.Hour)
			return "Bearer " + token
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, "/api/bookmarks", tt.bearer, nil)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
			}
			body := decode(t, rec)
			if body["success"] != false {
				t.Errorf("expected success:false envelope, got %v", body)
			}
		})
	}
}
