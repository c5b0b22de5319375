package websocket

import (
	"encoding/json"
	"sync"
)

// BalanceUpdate is the snapshot pushed to a user's dashboard whenever any of
// their balances change (accrual credit, withdrawal request, resolution).
type BalanceUpdate struct {
	Deposit   string `json:"deposit_balance"`
	Available string `json:"available_balance"`
	Locked    string `json:"locked_balance"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	// Last broadcast per user, replayed on connect so a freshly opened
	// dashboard shows current balances without waiting for the next tick.
	latest map[string]BalanceUpdate
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		latest:  make(map[string]BalanceUpdate),
	}
}

func (h *Hub) Register(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][client] = struct{}{}
	if update, ok := h.latest[userID]; ok {
		payload, _ := json.Marshal(update)
		select {
		case client.send <- payload:
		default:
		}
	}
}

func (h *Hub) Unregister(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		return
	}
	delete(h.clients[userID], client)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

func (h *Hub) BroadcastBalances(userID string, update BalanceUpdate) {
	payload, _ := json.Marshal(update)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest[userID] = update
	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
		}
	}
}
