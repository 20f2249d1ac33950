package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"tabletap/internal/api"
	"tabletap/internal/config"
	"tabletap/internal/events"
	"tabletap/internal/handler"
	"tabletap/internal/middleware"
	"tabletap/internal/seal"
	"tabletap/internal/store"
	"tabletap/internal/ws"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	relay        *ws.Relay
	events       *events.Client
	authH        *handler.AuthHandler
	customerH    *handler.CustomerHandler
	staffH       *handler.StaffHandler
	tableH       *handler.TableHandler
	menuH        *handler.MenuHandler
	sessionStore *store.SessionStore
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	apiClient := api.NewClient(cfg.APIURL, logger.With("component", "api"))
	eventsClient := events.NewClient(cfg.SocketURL, logger.With("component", "events"))
	hub := ws.NewHub(logger.With("component", "ws"))

	sealer := seal.New(cfg.SessionSecret)
	sessionStore := store.NewSessionStore(db, sealer)
	cartStore := store.NewCartStore(db)
	menuCache := store.NewMenuCache()
	orderCache := store.NewOrderCache()
	tableCache := store.NewTableCache()

	relay := ws.NewRelay(eventsClient, hub, orderCache, tableCache, logger)
	relay.Start()

	renderer := handler.NewRenderer(logger.With("component", "template"))

	return &Server{
		db:           db,
		hub:          hub,
		relay:        relay,
		events:       eventsClient,
		authH:        handler.NewAuthHandler(apiClient, sessionStore, renderer, logger.With("component", "auth")),
		customerH:    handler.NewCustomerHandler(apiClient, sessionStore, cartStore, menuCache, orderCache, eventsClient, renderer, logger.With("component", "customer")),
		staffH:       handler.NewStaffHandler(apiClient, sessionStore, tableCache, orderCache, renderer, logger.With("component", "staff")),
		tableH:       handler.NewTableHandler(apiClient, sessionStore, tableCache, renderer, logger.With("component", "tables")),
		menuH:        handler.NewMenuHandler(apiClient, sessionStore, menuCache, renderer, logger.With("component", "menu")),
		sessionStore: sessionStore,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// Events returns the backend event channel client for lifecycle management.
func (s *Server) Events() *events.Client {
	return s.events
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Staff login (rate limited, no staff session required)
	mux.HandleFunc("GET /restaurant/login", s.authH.StaffLoginPage)
	mux.HandleFunc("POST /restaurant/login", s.rateLimited(s.authH.StaffLogin))

	// Customer surface: reachable straight from a QR scan, no login gate
	mux.HandleFunc("GET /order/{restaurantId}/{tableId}", s.customerH.MenuPage)
	mux.HandleFunc("GET /order/{restaurantId}/{tableId}/menu", s.customerH.MenuPartial)
	mux.HandleFunc("GET /order/{restaurantId}/{tableId}/items/{itemId}", s.customerH.ItemModal)
	mux.HandleFunc("POST /order/{restaurantId}/{tableId}/cart/items", s.customerH.CartAdd)
	mux.HandleFunc("POST /order/{restaurantId}/{tableId}/cart/quantity", s.customerH.CartUpdateQuantity)
	mux.HandleFunc("DELETE /order/{restaurantId}/{tableId}/cart/items", s.customerH.CartRemove)
	mux.HandleFunc("POST /order/{restaurantId}/{tableId}/cart/clear", s.customerH.CartClear)
	mux.HandleFunc("POST /order/{restaurantId}/{tableId}/otp/request", s.rateLimited(s.authH.RequestOTP))
	mux.HandleFunc("POST /order/{restaurantId}/{tableId}/otp/verify", s.rateLimited(s.authH.VerifyOTP))
	mux.HandleFunc("POST /order/{restaurantId}/{tableId}/order", s.customerH.PlaceOrder)
	mux.HandleFunc("GET /order/{restaurantId}/{tableId}/orders", s.customerH.OrdersPage)
	mux.HandleFunc("GET /order/{restaurantId}/{tableId}/orders/list", s.customerH.OrderListPartial)
	mux.HandleFunc("GET /order/{restaurantId}/{tableId}/bill", s.customerH.BillPage)
	mux.HandleFunc("POST /order/{restaurantId}/{tableId}/bill/request", s.customerH.RequestBill)

	// Staff surface behind RequireStaff
	staffMux := http.NewServeMux()
	s.registerStaffRoutes(staffMux)
	mux.Handle("/restaurant/", middleware.RequireStaff(s.sessionStore)(staffMux))

	// Browser push channel
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "ws")))

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))
	mux.HandleFunc("GET /health", s.healthHandler)

	sessionMiddleware := middleware.BrowserSession(s.sessionStore, s.logger.With("component", "session"))
	return middleware.RequestLogger(s.logger.With("component", "http"))(sessionMiddleware(mux))
}

func (s *Server) registerStaffRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /restaurant/logout", s.authH.StaffLogout)

	mux.HandleFunc("GET /restaurant/dashboard", s.staffH.Dashboard)
	mux.HandleFunc("GET /restaurant/partials/tables", s.staffH.TablesPartial)
	mux.HandleFunc("GET /restaurant/partials/orders", s.staffH.ActiveOrdersPartial)
	mux.HandleFunc("GET /restaurant/partials/analytics", s.staffH.AnalyticsPartial)

	mux.HandleFunc("GET /restaurant/table/{tableId}", s.staffH.TableDetailPage)
	mux.HandleFunc("GET /restaurant/table/{tableId}/orders", s.staffH.TableOrdersPartial)

	mux.HandleFunc("GET /restaurant/orders/history", s.staffH.HistoryPage)
	mux.HandleFunc("GET /restaurant/orders/{id}", s.staffH.OrderDetailPage)
	mux.HandleFunc("GET /restaurant/orders/{id}/detail", s.staffH.OrderDetailPartial)
	mux.HandleFunc("POST /restaurant/orders/{id}/status", s.staffH.UpdateOrderStatus)
	mux.HandleFunc("POST /restaurant/orders/{id}/kot", s.staffH.CreateKOT)

	mux.HandleFunc("GET /restaurant/billing/{tableId}", s.staffH.BillingPage)
	mux.HandleFunc("POST /restaurant/billing/orders/{id}/discount", s.staffH.ApplyDiscount)
	mux.HandleFunc("POST /restaurant/billing/orders/{id}/payment", s.staffH.RecordPayment)

	mux.HandleFunc("GET /restaurant/tables", s.tableH.ManagePage)
	mux.HandleFunc("GET /restaurant/tables/list", s.tableH.ListPartial)
	mux.HandleFunc("POST /restaurant/tables", s.tableH.Create)
	mux.HandleFunc("GET /restaurant/tables/{id}/edit", s.tableH.EditForm)
	mux.HandleFunc("PUT /restaurant/tables/{id}", s.tableH.Update)
	mux.HandleFunc("POST /restaurant/tables/{id}/status", s.tableH.SetStatus)
	mux.HandleFunc("DELETE /restaurant/tables/{id}", s.tableH.Delete)
	mux.HandleFunc("GET /restaurant/tables/{id}/qr", s.tableH.QRCode)

	mux.HandleFunc("GET /restaurant/menu", s.menuH.ManagePage)
	mux.HandleFunc("GET /restaurant/menu/list", s.menuH.ListPartial)
	mux.HandleFunc("POST /restaurant/menu/categories", s.menuH.CategoryCreate)
	mux.HandleFunc("PUT /restaurant/menu/categories/{id}", s.menuH.CategoryUpdate)
	mux.HandleFunc("GET /restaurant/menu/items/new", s.menuH.ItemForm)
	mux.HandleFunc("GET /restaurant/menu/items/{id}/edit", s.menuH.ItemForm)
	mux.HandleFunc("POST /restaurant/menu/items", s.menuH.ItemCreate)
	mux.HandleFunc("PUT /restaurant/menu/items/{id}", s.menuH.ItemUpdate)
	mux.HandleFunc("POST /restaurant/menu/items/{id}/toggle", s.menuH.ToggleItem)
	mux.HandleFunc("DELETE /restaurant/menu/items/{id}", s.menuH.ItemDelete)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
