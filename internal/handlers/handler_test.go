// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests:
// in-memory fakes for every store the handlers depend on, and a testEnv
// that wires them together the way main does.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"undangan/internal/cache"
	"undangan/internal/content"
	"undangan/internal/engine"
	"undangan/internal/models"
	"undangan/internal/render"
	"undangan/internal/session"
	"undangan/internal/store"
)

// --- Fakes ---

type fakeTemplates struct {
	byID map[uuid.UUID]*models.Template
	// inUse marks templates that invoices reference.
	inUse func(id uuid.UUID) bool
}

func (f *fakeTemplates) List(_ context.Context, tier string) ([]models.Template, error) {
	var out []models.Template
	for _, t := range f.byID {
		if tier == "" || (t.Tier != nil && strings.EqualFold(*t.Tier, tier)) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeTemplates) FindByID(_ context.Context, id uuid.UUID) (*models.Template, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (f *fakeTemplates) Create(_ context.Context, t *models.Template) (*models.Template, error) {
	c := *t
	c.ID = uuid.New()
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	f.byID[c.ID] = &c
	out := c
	return &out, nil
}

func (f *fakeTemplates) UpdateMeta(_ context.Context, t *models.Template) error {
	cur, ok := f.byID[t.ID]
	if !ok {
		return store.ErrNotFound
	}
	cur.Name, cur.Description, cur.Thumbnail, cur.Price, cur.Tier = t.Name, t.Description, t.Thumbnail, t.Price, t.Tier
	return nil
}

func (f *fakeTemplates) SaveContent(_ context.Context, id uuid.UUID, content, html string) error {
	cur, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	cur.Content, cur.HTMLContent = content, html
	return nil
}

func (f *fakeTemplates) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return store.ErrNotFound
	}
	if f.inUse != nil && f.inUse(id) {
		return store.ErrTemplateInUse
	}
	delete(f.byID, id)
	return nil
}

// fakeTiers keeps the templates' tier names in step the way the foreign
// key does: renames follow, deletes clear.
type fakeTiers struct {
	templates *fakeTemplates
	byID      map[uuid.UUID]*models.Tier
}

func (f *fakeTiers) add(name string, lo, hi int64) *models.Tier {
	t := &models.Tier{ID: uuid.New(), Name: name, PriceMin: lo, PriceMax: hi, SortOrder: len(f.byID) + 1}
	f.byID[t.ID] = t
	return t
}

func (f *fakeTiers) List(context.Context) ([]models.Tier, error) {
	var out []models.Tier
	for _, t := range f.byID {
		c := *t
		for _, tpl := range f.templates.byID {
			if tpl.Tier != nil && *tpl.Tier == c.Name {
				c.Templates++
			}
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (f *fakeTiers) FindByID(_ context.Context, id uuid.UUID) (*models.Tier, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (f *fakeTiers) FindByName(_ context.Context, name string) (*models.Tier, error) {
	for _, t := range f.byID {
		if strings.EqualFold(t.Name, name) {
			c := *t
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeTiers) nameTaken(name string, except uuid.UUID) bool {
	for _, t := range f.byID {
		if t.ID != except && strings.EqualFold(t.Name, name) {
			return true
		}
	}
	return false
}

func (f *fakeTiers) Create(_ context.Context, t *models.Tier) (*models.Tier, error) {
	if f.nameTaken(t.Name, uuid.Nil) {
		return nil, store.ErrTierNameTaken
	}
	c := *t
	c.ID = uuid.New()
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	f.byID[c.ID] = &c
	out := c
	return &out, nil
}

func (f *fakeTiers) Update(_ context.Context, t *models.Tier) error {
	cur, ok := f.byID[t.ID]
	if !ok {
		return store.ErrNotFound
	}
	if f.nameTaken(t.Name, t.ID) {
		return store.ErrTierNameTaken
	}
	f.retag(cur.Name, &t.Name)
	c := *t
	c.CreatedAt, c.UpdatedAt = cur.CreatedAt, time.Now()
	f.byID[t.ID] = &c
	return nil
}

func (f *fakeTiers) Delete(_ context.Context, id uuid.UUID) error {
	cur, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	f.retag(cur.Name, nil)
	delete(f.byID, id)
	return nil
}

func (f *fakeTiers) retag(from string, to *string) {
	for _, tpl := range f.templates.byID {
		if tpl.Tier != nil && *tpl.Tier == from {
			if to == nil {
				tpl.Tier = nil
				continue
			}
			name := *to
			tpl.Tier = &name
		}
	}
}

type fakeInvoices struct {
	templates *fakeTemplates
	byID      map[uuid.UUID]*models.Invoice
}

// load copies an invoice and joins the template like the SQL store does.
func (f *fakeInvoices) load(inv *models.Invoice) *models.Invoice {
	c := *inv
	if t, ok := f.templates.byID[c.TemplateID]; ok {
		c.TemplateName, c.BaseContent = t.Name, t.Content
	}
	return &c
}

func (f *fakeInvoices) List(context.Context) ([]models.Invoice, error) {
	var out []models.Invoice
	for _, inv := range f.byID {
		out = append(out, *f.load(inv))
	}
	return out, nil
}

func (f *fakeInvoices) FindByID(_ context.Context, id uuid.UUID) (*models.Invoice, error) {
	inv, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	return f.load(inv), nil
}

func (f *fakeInvoices) FindBySubdomain(_ context.Context, sub string) (*models.Invoice, error) {
	for _, inv := range f.byID {
		if inv.Subdomain == sub {
			return f.load(inv), nil
		}
	}
	return nil, nil
}

func (f *fakeInvoices) taken(sub string, except uuid.UUID) bool {
	for id, inv := range f.byID {
		if inv.Subdomain == sub && id != except {
			return true
		}
	}
	return false
}

func (f *fakeInvoices) Create(_ context.Context, inv *models.Invoice) (*models.Invoice, error) {
	if f.taken(inv.Subdomain, uuid.Nil) {
		return nil, store.ErrSubdomainTaken
	}
	c := *inv
	c.ID = uuid.New()
	c.Status = models.InvoiceActive
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	f.byID[c.ID] = &c
	return f.load(&c), nil
}

func (f *fakeInvoices) Update(_ context.Context, inv *models.Invoice) error {
	cur, ok := f.byID[inv.ID]
	if !ok {
		return store.ErrNotFound
	}
	if f.taken(inv.Subdomain, inv.ID) {
		return store.ErrSubdomainTaken
	}
	cur.CustomerName, cur.Subdomain, cur.SubdomainMode, cur.AgreedPrice = inv.CustomerName, inv.Subdomain, inv.SubdomainMode, inv.AgreedPrice
	return nil
}

func (f *fakeInvoices) SetStatus(_ context.Context, id uuid.UUID, status models.InvoiceStatus) error {
	cur, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	cur.Status = status
	return nil
}

func (f *fakeInvoices) SaveContent(_ context.Context, id uuid.UUID, content, html string) error {
	cur, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	cur.TemplateContent, cur.HTMLContent = content, html
	return nil
}

func (f *fakeInvoices) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeGuests struct {
	list []models.Guest
}

func (f *fakeGuests) ListByInvoice(_ context.Context, invoiceID uuid.UUID) ([]models.Guest, error) {
	var out []models.Guest
	for _, g := range f.list {
		if g.InvoiceID == invoiceID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGuests) FindBySlug(_ context.Context, invoiceID uuid.UUID, slug string) (*models.Guest, error) {
	for _, g := range f.list {
		if g.InvoiceID == invoiceID && g.Slug == slug {
			c := g
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeGuests) SlugExists(ctx context.Context, invoiceID uuid.UUID, slug string) (bool, error) {
	g, _ := f.FindBySlug(ctx, invoiceID, slug)
	return g != nil, nil
}

func (f *fakeGuests) Create(_ context.Context, g *models.Guest) (*models.Guest, error) {
	c := *g
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	f.list = append(f.list, c)
	return &c, nil
}

func (f *fakeGuests) Delete(_ context.Context, invoiceID, id uuid.UUID) error {
	for i, g := range f.list {
		if g.InvoiceID == invoiceID && g.ID == id {
			f.list = append(f.list[:i], f.list[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type fakeRSVPs struct {
	list []models.RSVPSubmission
}

func (f *fakeRSVPs) Create(_ context.Context, s *models.RSVPSubmission) (*models.RSVPSubmission, error) {
	c := *s
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	f.list = append(f.list, c)
	return &c, nil
}

func (f *fakeRSVPs) ListByInvoice(_ context.Context, invoiceID uuid.UUID) ([]models.RSVPSubmission, error) {
	var out []models.RSVPSubmission
	for _, s := range f.list {
		if s.InvoiceID == invoiceID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRSVPs) RecentWishes(_ context.Context, invoiceID uuid.UUID, limit int) ([]models.Wish, error) {
	var out []models.Wish
	for i := len(f.list) - 1; i >= 0 && len(out) < limit; i-- {
		if f.list[i].InvoiceID != invoiceID {
			continue
		}
		if w, ok := f.list[i].Wish(); ok {
			out = append(out, w)
		}
	}
	return out, nil
}

type fakeUsers struct {
	users map[string]*models.User
	// passwords maps username to the accepted password.
	passwords map[string]string
}

func (f *fakeUsers) Authenticate(_ context.Context, username, password string) (*models.User, error) {
	u := f.users[username]
	if u == nil || f.passwords[username] != password {
		return nil, nil
	}
	return u, nil
}

func (f *fakeUsers) ChangePassword(_ context.Context, id uuid.UUID, current, next string) error {
	for name, u := range f.users {
		if u.ID != id {
			continue
		}
		if f.passwords[name] != current {
			return store.ErrWrongPassword
		}
		f.passwords[name] = next
		return nil
	}
	return store.ErrNotFound
}

type fakeCacheLog struct {
	entries []store.CacheLogEntry
}

func (f *fakeCacheLog) Record(_ context.Context, ev store.CacheEvent) {
	f.entries = append(f.entries, store.CacheLogEntry{
		ID: int64(len(f.entries) + 1), EntityType: ev.EntityType, EntityID: ev.EntityID,
		Action: ev.Action, KeysRemoved: ev.KeysRemoved, InvalidatedAt: time.Now(),
	})
}

func (f *fakeCacheLog) Recent(_ context.Context, entityType string, limit int) ([]store.CacheLogEntry, error) {
	var out []store.CacheLogEntry
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if entityType == "" || f.entries[i].EntityType == entityType {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

func (f *fakeCacheLog) actions() []string {
	var out []string
	for _, e := range f.entries {
		out = append(out, e.EntityType+":"+e.Action)
	}
	return out
}

// fakePageCache stores pages in a map and matches invalidation prefixes
// the way the Valkey patterns do.
type fakePageCache struct {
	pages map[string][]byte
}

func (f *fakePageCache) Get(_ context.Context, key string) ([]byte, bool) {
	b, ok := f.pages[key]
	return b, ok
}

func (f *fakePageCache) Set(_ context.Context, key string, html []byte) {
	f.pages[key] = html
}

func (f *fakePageCache) InvalidateTenant(_ context.Context, scope cache.Scope, tenant string) int {
	prefix := string(scope) + ":" + tenant + ":"
	n := 0
	for k := range f.pages {
		if strings.HasPrefix(k, prefix) {
			delete(f.pages, k)
			n++
		}
	}
	return n
}

func (f *fakePageCache) InvalidateAll(context.Context) int {
	n := len(f.pages)
	f.pages = make(map[string][]byte)
	return n
}

type fakeSessions struct {
	created   []*session.Data
	destroyed int
}

func (f *fakeSessions) Create(_ context.Context, w http.ResponseWriter, data *session.Data) (string, error) {
	f.created = append(f.created, data)
	http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: "test-session"})
	return "test-session", nil
}

func (f *fakeSessions) Destroy(_ context.Context, w http.ResponseWriter, _ *http.Request) error {
	f.destroyed++
	return nil
}

type fakeFeed struct {
	mu        sync.Mutex
	published map[string][]models.Wish
	served    []string
}

func (f *fakeFeed) Publish(room string, wish models.Wish) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published[room] = append(f.published[room], wish)
}

func (f *fakeFeed) Serve(w http.ResponseWriter, _ *http.Request, room string) {
	f.mu.Lock()
	f.served = append(f.served, room)
	f.mu.Unlock()
	w.WriteHeader(http.StatusSwitchingProtocols)
}

type fakeMedia struct {
	items []models.Media
}

func (f *fakeMedia) Create(_ context.Context, m *models.Media) (*models.Media, error) {
	c := *m
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	f.items = append(f.items, c)
	return &c, nil
}

func (f *fakeMedia) List(_ context.Context, kind string, limit, offset int) ([]models.Media, int, error) {
	var match []models.Media
	for _, m := range f.items {
		if kind == "" || m.Kind() == kind {
			match = append(match, m)
		}
	}
	if offset >= len(match) {
		return nil, len(match), nil
	}
	end := min(offset+limit, len(match))
	return match[offset:end], len(match), nil
}

func (f *fakeMedia) Delete(_ context.Context, id uuid.UUID) (*models.Media, error) {
	for i, m := range f.items {
		if m.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return &m, nil
		}
	}
	return nil, nil
}

// fakeBackend keeps uploaded objects in memory.
type fakeBackend struct {
	objects map[string][]byte
	deleted []string
}

func (f *fakeBackend) Name() string { return "local" }

func (f *fakeBackend) Put(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.objects[key] = b
	return "/uploads/" + key, nil
}

func (f *fakeBackend) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

// --- Environment ---

// testEnv holds all dependencies for handler tests.
type testEnv struct {
	Templates *fakeTemplates
	Tiers     *fakeTiers
	Invoices  *fakeInvoices
	Guests    *fakeGuests
	RSVPs     *fakeRSVPs
	Users     *fakeUsers
	CacheLog  *fakeCacheLog
	PageCache *fakePageCache
	Sessions  *fakeSessions
	Feed      *fakeFeed
	MediaDB   *fakeMedia
	Backend   *fakeBackend
	Engine    *engine.Engine

	Public   *Public
	GuestAPI *GuestAPI
	Auth     *Auth
	Admin    *Admin
	Media    *Media
}

// newTestEnv creates a complete test environment backed by fakes.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	templates := &fakeTemplates{byID: make(map[uuid.UUID]*models.Template)}
	invoices := &fakeInvoices{templates: templates, byID: make(map[uuid.UUID]*models.Invoice)}
	templates.inUse = func(id uuid.UUID) bool {
		for _, inv := range invoices.byID {
			if inv.TemplateID == id {
				return true
			}
		}
		return false
	}

	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	tiers := &fakeTiers{templates: templates, byID: make(map[uuid.UUID]*models.Tier)}
	tiers.add("Basic", 0, 250_000)
	tiers.add("Premium", 250_000, 750_000)

	env := &testEnv{
		Templates: templates,
		Tiers:     tiers,
		Invoices:  invoices,
		Guests:    &fakeGuests{},
		RSVPs:     &fakeRSVPs{},
		Users:     &fakeUsers{users: make(map[string]*models.User), passwords: make(map[string]string)},
		CacheLog:  &fakeCacheLog{},
		PageCache: &fakePageCache{pages: make(map[string][]byte)},
		Sessions:  &fakeSessions{},
		Feed:      &fakeFeed{published: make(map[string][]models.Wish)},
		MediaDB:   &fakeMedia{},
		Backend:   &fakeBackend{objects: make(map[string][]byte)},
		Engine:    engine.New(content.NewSelector(templates, invoices)),
	}
	env.Public = NewPublic(env.Engine, env.Guests, env.RSVPs, renderer, env.PageCache, 60)
	env.GuestAPI = NewGuestAPI(invoices, env.RSVPs, env.Feed, renderer, env.PageCache)
	env.Auth = NewAuth(env.Sessions, env.Users)
	env.Admin = NewAdmin(templates, tiers, invoices, env.Guests, env.Engine, env.Public, env.PageCache, env.CacheLog, "undangan.test", "https")
	env.Media = NewMedia(env.MediaDB, env.Backend)
	return env
}

// addTemplate stores a template with the given raw file tree.
func (e *testEnv) addTemplate(name, content string) *models.Template {
	t := &models.Template{ID: uuid.New(), Name: name, Content: content}
	e.Templates.byID[t.ID] = t
	return t
}

// addInvoice stores an active invoice on tpl with its own raw file tree.
func (e *testEnv) addInvoice(tpl *models.Template, sub, content string) *models.Invoice {
	inv := &models.Invoice{
		ID:              uuid.New(),
		CustomerName:    "Alex & Sam",
		TemplateID:      tpl.ID,
		Subdomain:       sub,
		SubdomainMode:   models.ModeBasic,
		AccessToken:     "123456",
		Status:          models.InvoiceActive,
		TemplateContent: content,
	}
	e.Invoices.byID[inv.ID] = inv
	return inv
}

// --- Request helpers ---

// withChiURLParam adds a chi URL parameter to the request context.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	r := httptest.NewRequest(method, target, bytes.NewReader(b))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// decodeBody decodes a JSON response body into a generic map.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}
