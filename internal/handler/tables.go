package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"tabletap/internal/api"
	"tabletap/internal/auth"
	"tabletap/internal/model"
	"tabletap/internal/store"
)

// TableHandler serves floor management: table CRUD, manual status changes,
// and the QR codes customers scan.
type TableHandler struct {
	api      *api.Client
	sessions *store.SessionStore
	tables   *store.TableCache
	renderer *Renderer
	logger   *slog.Logger
}

func NewTableHandler(apiClient *api.Client, sessions *store.SessionStore, tables *store.TableCache, renderer *Renderer, logger *slog.Logger) *TableHandler {
	return &TableHandler{
		api:      apiClient,
		sessions: sessions,
		tables:   tables,
		renderer: renderer,
		logger:   logger,
	}
}

func (h *TableHandler) ManagePage(w http.ResponseWriter, r *http.Request) {
	restaurantID := auth.RestaurantID(r.Context())
	tables, err := h.api.Tables(r.Context(), auth.StaffToken(r.Context()), restaurantID)
	if err != nil {
		staffError(w, r, err, h.sessions, h.logger, "load tables")
		return
	}
	h.tables.Set(restaurantID, tables)

	h.renderer.Render(w, "staff_tables.html", map[string]any{
		"Title":     "Tables",
		"Tables":    tables,
		"Statuses":  tableStatuses(),
		"CanManage": auth.CanManageMenu(r.Context()),
	})
}

func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !auth.CanManageMenu(r.Context()) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	number := strings.TrimSpace(r.FormValue("table_number"))
	if number == "" {
		h.renderer.RenderPartial(w, "form-error", map[string]string{"Error": "Table number is required"})
		return
	}
	capacity, err := strconv.Atoi(r.FormValue("capacity"))
	if err != nil || capacity < 1 {
		capacity = 2
	}

	if _, err := h.api.CreateTable(r.Context(), auth.StaffToken(r.Context()), api.TableInput{
		RestaurantID: auth.RestaurantID(r.Context()),
		TableNumber:  number,
		Capacity:     capacity,
	}); err != nil {
		staffError(w, r, err, h.sessions, h.logger, "create table")
		return
	}

	h.logger.Info("table created", "number", number)
	h.renderTableList(w, r)
}

func (h *TableHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	table, err := h.api.Table(r.Context(), auth.StaffToken(r.Context()), r.PathValue("id"))
	if err != nil {
		if api.IsNotFound(err) {
			http.Error(w, "table not found", http.StatusNotFound)
			return
		}
		staffError(w, r, err, h.sessions, h.logger, "load table")
		return
	}
	h.renderer.RenderPartial(w, "table-edit-form", map[string]any{
		"Table":    table,
		"Statuses": tableStatuses(),
	})
}

func (h *TableHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !auth.CanManageMenu(r.Context()) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	capacity, err := strconv.Atoi(r.FormValue("capacity"))
	if err != nil || capacity < 1 {
		h.renderer.RenderPartial(w, "form-error", map[string]string{"Error": "Capacity must be a positive number"})
		return
	}

	in := api.TableInput{
		TableNumber: strings.TrimSpace(r.FormValue("table_number")),
		Capacity:    capacity,
		Status:      r.FormValue("status"),
	}
	if _, err := h.api.UpdateTable(r.Context(), auth.StaffToken(r.Context()), r.PathValue("id"), in); err != nil {
		staffError(w, r, err, h.sessions, h.logger, "update table")
		return
	}

	h.renderTableList(w, r)
}

// SetStatus is the quick status flip from the floor view, open to all roles.
func (h *TableHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	tableID := r.PathValue("id")
	status := r.FormValue("status")
	if !validTableStatus(status) {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	table, err := h.api.Table(r.Context(), auth.StaffToken(r.Context()), tableID)
	if err != nil {
		staffError(w, r, err, h.sessions, h.logger, "load table")
		return
	}

	in := api.TableInput{TableNumber: table.TableNumber, Capacity: table.Capacity, Status: status}
	if _, err := h.api.UpdateTable(r.Context(), auth.StaffToken(r.Context()), tableID, in); err != nil {
		staffError(w, r, err, h.sessions, h.logger, "update table status")
		return
	}
	h.tables.PatchStatus(tableID, status)

	h.renderTableList(w, r)
}

func (h *TableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !auth.CanManageMenu(r.Context()) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if err := h.api.DeleteTable(r.Context(), auth.StaffToken(r.Context()), r.PathValue("id")); err != nil {
		staffError(w, r, err, h.sessions, h.logger, "delete table")
		return
	}

	h.logger.Info("table deleted", "table", r.PathValue("id"))
	h.renderTableList(w, r)
}

// QRCode shows the scannable code that opens the table's ordering page.
func (h *TableHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	tableID := r.PathValue("id")

	qr, err := h.api.TableQR(r.Context(), auth.StaffToken(r.Context()), tableID)
	if err != nil {
		staffError(w, r, err, h.sessions, h.logger, "load qr code")
		return
	}

	h.renderer.RenderPartial(w, "table-qr", map[string]any{
		"TableID": tableID,
		"QRCode":  qr,
	})
}

func (h *TableHandler) ListPartial(w http.ResponseWriter, r *http.Request) {
	h.renderTableList(w, r)
}

func (h *TableHandler) renderTableList(w http.ResponseWriter, r *http.Request) {
	restaurantID := auth.RestaurantID(r.Context())
	tables, err := h.api.Tables(r.Context(), auth.StaffToken(r.Context()), restaurantID)
	if err != nil {
		staffError(w, r, err, h.sessions, h.logger, "load tables")
		return
	}
	h.tables.Set(restaurantID, tables)

	h.renderer.RenderPartial(w, "table-list", map[string]any{
		"Tables":    tables,
		"Statuses":  tableStatuses(),
		"CanManage": auth.CanManageMenu(r.Context()),
	})
}

func tableStatuses() []string {
	return []string{model.TableAvailable, model.TableOccupied, model.TableReserved, model.TableCleaning}
}

func validTableStatus(status string) bool {
	switch status {
	case model.TableAvailable, model.TableOccupied, model.TableReserved, model.TableCleaning:
		return true
	}
	return false
}
