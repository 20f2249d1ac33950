package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"

	"tabletap/internal/api"
	"tabletap/internal/auth"
	"tabletap/internal/database"
	"tabletap/internal/model"
	"tabletap/internal/seal"
	"tabletap/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// testRenderer parses the real templates so handler tests catch drift between
// handler data maps and template field references.
func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	tmpl, err := template.New("").Funcs(templateFuncs).ParseGlob("../../web/templates/*.html")
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}
	return &Renderer{templates: tmpl, logger: testLogger()}
}

type fixture struct {
	api       *api.Client
	sessions  *store.SessionStore
	carts     *store.CartStore
	menus     *store.MenuCache
	orders    *store.OrderCache
	tables    *store.TableCache
	renderer  *Renderer
	sessionID string
}

// newFixture wires handlers against a stub backend and an in-memory session
// database. The browser session is pre-registered so handlers can attach
// identities to it.
func newFixture(t *testing.T, backend http.Handler) *fixture {
	t.Helper()

	if backend == nil {
		backend = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("unexpected backend call: %s %s", r.Method, r.URL.Path)
			http.Error(w, "unexpected", http.StatusInternalServerError)
		})
	}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sessions := store.NewSessionStore(db, seal.New("test-secret"))
	sessionID := uuid.NewString()
	if err := sessions.Ensure(sessionID); err != nil {
		t.Fatalf("ensure session: %v", err)
	}

	return &fixture{
		api:       api.NewClient(srv.URL, testLogger()),
		sessions:  sessions,
		carts:     store.NewCartStore(db),
		menus:     store.NewMenuCache(),
		orders:    store.NewOrderCache(),
		tables:    store.NewTableCache(),
		renderer:  testRenderer(t),
		sessionID: sessionID,
	}
}

// request builds a form request carrying the fixture's browser session.
func (f *fixture) request(method, target string, form url.Values) *http.Request {
	var r *http.Request
	if form != nil {
		r = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	return r.WithContext(auth.WithSession(r.Context(), f.sessionID))
}

// staffRequest additionally carries an authenticated staff context.
func (f *fixture) staffRequest(method, target string, form url.Values, role string) *http.Request {
	r := f.request(method, target, form)
	sess := &model.StaffSession{Token: "staff-token"}
	sess.User.ID = "u1"
	sess.User.Role = role
	sess.User.RestaurantID = "r1"
	sess.User.Restaurant.Name = "Test Kitchen"
	return r.WithContext(auth.WithStaff(r.Context(), sess))
}

func testMenu() []model.Category {
	return []model.Category{
		{
			ID: "c1", RestaurantID: "r1", Name: "Mains", IsActive: true,
			MenuItems: []model.MenuItem{
				{
					ID: "m1", RestaurantID: "r1", CategoryID: "c1",
					Name: "Paneer Tikka", Price: 100, Dietary: model.DietaryVeg,
					IsCustomizable: true, IsActive: true,
					Variations: []model.Variation{
						{ID: "v1", MenuItemID: "m1", Name: "Large", Price: 150, IsActive: true},
					},
					Addons: []model.Addon{
						{ID: "a1", MenuItemID: "m1", Name: "Extra cheese", Price: 20, IsActive: true},
					},
				},
				{
					ID: "m2", RestaurantID: "r1", CategoryID: "c1",
					Name: "Chicken Curry", Price: 220, Dietary: model.DietaryNonVeg, IsActive: true,
				},
			},
		},
	}
}
