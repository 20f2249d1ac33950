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

// MenuHandler serves back-office menu management. Mutations are restricted to
// managers and admins; waiters get the read-only view.
type MenuHandler struct {
	api      *api.Client
	sessions *store.SessionStore
	menus    *store.MenuCache
	renderer *Renderer
	logger   *slog.Logger
}

func NewMenuHandler(apiClient *api.Client, sessions *store.SessionStore, menus *store.MenuCache, renderer *Renderer, logger *slog.Logger) *MenuHandler {
	return &MenuHandler{
		api:      apiClient,
		sessions: sessions,
		menus:    menus,
		renderer: renderer,
		logger:   logger,
	}
}

func (h *MenuHandler) ManagePage(w http.ResponseWriter, r *http.Request) {
	categories, err := h.fetchMenu(r)
	if err != nil {
		staffError(w, r, err, h.sessions, h.logger, "load menu")
		return
	}

	h.renderer.Render(w, "staff_menu.html", map[string]any{
		"Title":      "Menu",
		"Categories": categories,
		"Dietaries":  dietaries(),
		"CanManage":  auth.CanManageMenu(r.Context()),
	})
}

func (h *MenuHandler) ListPartial(w http.ResponseWriter, r *http.Request) {
	h.renderMenuList(w, r)
}

func (h *MenuHandler) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	if !auth.CanManageMenu(r.Context()) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		h.renderer.RenderPartial(w, "form-error", map[string]string{"Error": "Category name is required"})
		return
	}

	in := api.CategoryInput{
		RestaurantID: auth.RestaurantID(r.Context()),
		Name:         name,
		Icon:         r.FormValue("icon"),
		IsActive:     true,
	}
	if _, err := h.api.CreateCategory(r.Context(), auth.StaffToken(r.Context()), in); err != nil {
		staffError(w, r, err, h.sessions, h.logger, "create category")
		return
	}

	h.logger.Info("category created", "name", name)
	h.renderMenuList(w, r)
}

func (h *MenuHandler) CategoryUpdate(w http.ResponseWriter, r *http.Request) {
	if !auth.CanManageMenu(r.Context()) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	in := api.CategoryInput{
		Name:     strings.TrimSpace(r.FormValue("name")),
		Icon:     r.FormValue("icon"),
		IsActive: r.FormValue("is_active") != "false",
	}
	if _, err := h.api.UpdateCategory(r.Context(), auth.StaffToken(r.Context()), r.PathValue("id"), in); err != nil {
		staffError(w, r, err, h.sessions, h.logger, "update category")
		return
	}

	h.renderMenuList(w, r)
}

func (h *MenuHandler) ItemForm(w http.ResponseWriter, r *http.Request) {
	categories, err := h.fetchMenu(r)
	if err != nil {
		staffError(w, r, err, h.sessions, h.logger, "load menu")
		return
	}

	data := map[string]any{
		"Categories": categories,
		"Dietaries":  dietaries(),
	}
	if itemID := r.PathValue("id"); itemID != "" {
		item, ok := h.menus.FindItem(auth.RestaurantID(r.Context()), itemID)
		if !ok {
			http.Error(w, "menu item not found", http.StatusNotFound)
			return
		}
		data["Item"] = item
	}
	h.renderer.RenderPartial(w, "menu-item-form", data)
}

func (h *MenuHandler) ItemCreate(w http.ResponseWriter, r *http.Request) {
	if !auth.CanManageMenu(r.Context()) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	in, ok := h.itemInput(w, r)
	if !ok {
		return
	}
	in.RestaurantID = auth.RestaurantID(r.Context())

	if _, err := h.api.CreateMenuItem(r.Context(), auth.StaffToken(r.Context()), in); err != nil {
		staffError(w, r, err, h.sessions, h.logger, "create menu item")
		return
	}

	h.logger.Info("menu item created", "name", in.Name)
	h.renderMenuList(w, r)
}

func (h *MenuHandler) ItemUpdate(w http.ResponseWriter, r *http.Request) {
	if !auth.CanManageMenu(r.Context()) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	in, ok := h.itemInput(w, r)
	if !ok {
		return
	}

	if _, err := h.api.UpdateMenuItem(r.Context(), auth.StaffToken(r.Context()), r.PathValue("id"), in); err != nil {
		staffError(w, r, err, h.sessions, h.logger, "update menu item")
		return
	}

	h.renderMenuList(w, r)
}

func (h *MenuHandler) ItemDelete(w http.ResponseWriter, r *http.Request) {
	if !auth.CanManageMenu(r.Context()) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if err := h.api.DeleteMenuItem(r.Context(), auth.StaffToken(r.Context()), r.PathValue("id")); err != nil {
		staffError(w, r, err, h.sessions, h.logger, "delete menu item")
		return
	}

	h.logger.Info("menu item deleted", "item", r.PathValue("id"))
	h.renderMenuList(w, r)
}

// ToggleItem flips an item's availability without touching the rest of it.
func (h *MenuHandler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	if !auth.CanManageMenu(r.Context()) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	item, ok := h.menus.FindItem(auth.RestaurantID(r.Context()), r.PathValue("id"))
	if !ok {
		if _, err := h.fetchMenu(r); err == nil {
			item, ok = h.menus.FindItem(auth.RestaurantID(r.Context()), r.PathValue("id"))
		}
	}
	if !ok {
		http.Error(w, "menu item not found", http.StatusNotFound)
		return
	}

	in := api.MenuItemInput{
		CategoryID:     item.CategoryID,
		Name:           item.Name,
		Description:    item.Description,
		Price:          item.Price,
		Dietary:        item.Dietary,
		IsCustomizable: item.IsCustomizable,
		IsActive:       !item.IsActive,
	}
	if _, err := h.api.UpdateMenuItem(r.Context(), auth.StaffToken(r.Context()), item.ID, in); err != nil {
		staffError(w, r, err, h.sessions, h.logger, "toggle menu item")
		return
	}

	h.renderMenuList(w, r)
}

func (h *MenuHandler) itemInput(w http.ResponseWriter, r *http.Request) (api.MenuItemInput, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return api.MenuItemInput{}, false
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		h.renderer.RenderPartial(w, "form-error", map[string]string{"Error": "Item name is required"})
		return api.MenuItemInput{}, false
	}
	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil || price < 0 {
		h.renderer.RenderPartial(w, "form-error", map[string]string{"Error": "Price must be a non-negative number"})
		return api.MenuItemInput{}, false
	}
	dietary := r.FormValue("dietary")
	if dietary == "" {
		dietary = model.DietaryVeg
	}

	return api.MenuItemInput{
		CategoryID:     r.FormValue("category_id"),
		Name:           name,
		Description:    strings.TrimSpace(r.FormValue("description")),
		Price:          price,
		Dietary:        dietary,
		IsCustomizable: r.FormValue("is_customizable") == "true",
		IsActive:       r.FormValue("is_active") != "false",
	}, true
}

func (h *MenuHandler) fetchMenu(r *http.Request) ([]model.Category, error) {
	restaurantID := auth.RestaurantID(r.Context())
	categories, err := h.api.RestaurantMenu(r.Context(), auth.StaffToken(r.Context()), restaurantID)
	if err != nil {
		return nil, err
	}
	h.menus.SetCategories(restaurantID, categories)
	return categories, nil
}

func (h *MenuHandler) renderMenuList(w http.ResponseWriter, r *http.Request) {
	categories, err := h.fetchMenu(r)
	if err != nil {
		staffError(w, r, err, h.sessions, h.logger, "load menu")
		return
	}
	h.renderer.RenderPartial(w, "manage-menu", map[string]any{
		"Categories": categories,
		"Dietaries":  dietaries(),
		"CanManage":  auth.CanManageMenu(r.Context()),
	})
}

func dietaries() []string {
	return []string{model.DietaryVeg, model.DietaryNonVeg, model.DietaryVegan}
}
