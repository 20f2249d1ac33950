package ws

import (
	"log/slog"

	"tabletap/internal/events"
	"tabletap/internal/model"
	"tabletap/internal/store"
)

// Relay bridges the backend event channel to connected browsers. Each backend
// push first patches the local caches, then fans out to the rooms that care,
// so a page re-render after the push sees the updated state.
//
// Room membership is mirrored upstream lazily: the backend room is joined
// when the first browser joins the local room and left when the last one
// leaves.
type Relay struct {
	events *events.Client
	hub    *Hub
	orders *store.OrderCache
	tables *store.TableCache
	logger *slog.Logger
}

func NewRelay(ev *events.Client, hub *Hub, orders *store.OrderCache, tables *store.TableCache, logger *slog.Logger) *Relay {
	return &Relay{
		events: ev,
		hub:    hub,
		orders: orders,
		tables: tables,
		logger: logger.With("component", "relay"),
	}
}

// Start wires the hub's membership callbacks and subscribes to every backend
// event the views consume. Call once before serving connections.
func (r *Relay) Start() {
	r.hub.OnFirstJoin = r.joinUpstream
	r.hub.OnLastLeave = r.leaveUpstream

	r.events.OnNewOrder(r.handleNewOrder)
	r.events.OnOrderStatus(r.handleOrderStatus)
	r.events.OnKOTStatus(r.handleKOTStatus)
	r.events.OnTableStatus(r.handleTableStatus)
	r.events.OnBillRequest(r.handleBillRequest)
}

func (r *Relay) joinUpstream(room string) {
	kind, id := SplitRoom(room)
	var err error
	switch kind {
	case "restaurant":
		err = r.events.JoinRestaurant(id)
	case "table":
		err = r.events.JoinTable(id)
	default:
		r.logger.Warn("unknown room kind", "room", room)
		return
	}
	if err != nil {
		r.logger.Warn("join upstream room", "room", room, "error", err)
	}
}

func (r *Relay) leaveUpstream(room string) {
	kind, id := SplitRoom(room)
	var err error
	switch kind {
	case "restaurant":
		err = r.events.LeaveRestaurant(id)
	case "table":
		err = r.events.LeaveTable(id)
	default:
		return
	}
	if err != nil {
		r.logger.Warn("leave upstream room", "room", room, "error", err)
	}
}

func (r *Relay) handleNewOrder(order model.Order) {
	r.orders.Prepend(order)
	r.hub.Broadcast(Message{Event: model.EventNewOrder, Data: order},
		RestaurantRoom(order.RestaurantID), TableRoom(order.TableID))
}

func (r *Relay) handleOrderStatus(ev model.OrderStatusEvent) {
	r.orders.PatchStatus(ev.OrderID, ev.Status)
	r.hub.Broadcast(Message{Event: model.EventOrderStatusUpdated, Data: ev}, r.orderRooms(ev.OrderID)...)
}

func (r *Relay) handleKOTStatus(ev model.KOTStatusEvent) {
	order, known := r.orders.FindByKOT(ev.KOTID)
	r.orders.PatchKOTStatus(ev.KOTID, ev.Status)

	msg := Message{Event: model.EventKOTStatusUpdated, Data: ev}
	if known {
		r.hub.Broadcast(msg, RestaurantRoom(order.RestaurantID), TableRoom(order.TableID))
		return
	}
	r.hub.Broadcast(msg)
}

func (r *Relay) handleTableStatus(ev model.TableStatusEvent) {
	r.tables.PatchStatus(ev.TableID, ev.Status)

	rooms := []string{TableRoom(ev.TableID)}
	if table, ok := r.tables.Get(ev.TableID); ok {
		rooms = append(rooms, RestaurantRoom(table.RestaurantID))
	}
	r.hub.Broadcast(Message{Event: model.EventTableStatusUpdated, Data: ev}, rooms...)
}

func (r *Relay) handleBillRequest(ev model.BillRequestEvent) {
	msg := Message{Event: model.EventBillRequested, Data: ev}
	if table, ok := r.tables.Get(ev.TableID); ok {
		r.hub.Broadcast(msg, RestaurantRoom(table.RestaurantID))
		return
	}
	r.hub.Broadcast(msg)
}

// orderRooms resolves the rooms an order's updates belong to. When the order
// is not cached the update goes to every client rather than nobody.
func (r *Relay) orderRooms(orderID string) []string {
	order, ok := r.orders.Get(orderID)
	if !ok {
		return nil
	}
	return []string{RestaurantRoom(order.RestaurantID), TableRoom(order.TableID)}
}
