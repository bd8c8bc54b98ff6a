// Package apitest fornece um backend em memória que cumpre o contrato HTTP de itens e armazéns,
// para testes dos repositórios e da CLI.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/skip2/go-qrcode"
)

type item struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Quantity    *string   `json:"quantity"`
	WarehouseID *int64    `json:"warehouse_id"`
	CreatedAt   time.Time `json:"created_at"`
	IsActive    bool      `json:"is_active"`
}

type warehouse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Location  *string   `json:"location"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}

// Backend é um servidor httptest com estado em memória.
type Backend struct {
	*httptest.Server

	mu         sync.Mutex
	items      map[string]*item
	warehouses map[int64]*warehouse
	nextItem   int64
	nextWH     int64
	requests   int
	clock      time.Time
}

// NewBackend inicia o servidor; o chamador deve chamar Close.
func NewBackend() *Backend {
	b := &Backend{
		items:      map[string]*item{},
		warehouses: map[int64]*warehouse{},
		clock:      time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /items", b.createItem)
	mux.HandleFunc("GET /items", b.listItems)
	mux.HandleFunc("GET /items/{code}", b.getItem)
	mux.HandleFunc("DELETE /items/{id}", b.deleteItem)
	mux.HandleFunc("POST /items/{code}/checkout", b.checkout)
	mux.HandleFunc("POST /items/{code}/move", b.move)
	mux.HandleFunc("GET /qrcode/{code}", b.qrcode)
	mux.HandleFunc("GET /warehouses", b.listWarehouses)
	mux.HandleFunc("POST /warehouses", b.createWarehouse)
	mux.HandleFunc("GET /warehouses/{id}", b.getWarehouse)
	mux.HandleFunc("PATCH /warehouses/{id}", b.updateWarehouse)
	mux.HandleFunc("DELETE /warehouses/{id}", b.deleteWarehouse)
	mux.HandleFunc("GET /warehouses/{id}/items", b.listWarehouseItems)

	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests++
		b.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	return b
}

// Requests devolve quantas requisições o backend recebeu.
func (b *Backend) Requests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests
}

// SeedWarehouse cria um armazém diretamente no estado.
func (b *Backend) SeedWarehouse(name string, active bool) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addWarehouse(name, nil, active).ID
}

// SeedItem cria um item diretamente no estado e devolve seu código.
func (b *Backend) SeedItem(name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addItem(name, nil, nil).Code
}

func (b *Backend) tick() time.Time {
	b.clock = b.clock.Add(time.Minute)
	return b.clock
}

func (b *Backend) addWarehouse(name string, location *string, active bool) *warehouse {
	b.nextWH++
	wh := &warehouse{ID: b.nextWH, Name: name, Location: location, CreatedAt: b.tick(), IsActive: active}
	b.warehouses[wh.ID] = wh
	return wh
}

func (b *Backend) addItem(name string, quantity *string, whID *int64) *item {
	b.nextItem++
	it := &item{
		ID:          b.nextItem,
		Code:        fmt.Sprintf("c%07d", b.nextItem),
		Name:        name,
		Quantity:    quantity,
		WarehouseID: whID,
		CreatedAt:   b.tick(),
		IsActive:    true,
	}
	b.items[it.Code] = it
	return it
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil
}

func (b *Backend) createItem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string  `json:"name"`
		Quantity    *string `json:"quantity"`
		WarehouseID *int64  `json:"warehouse_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if body.WarehouseID != nil {
		wh, ok := b.warehouses[*body.WarehouseID]
		if !ok || !wh.IsActive {
			writeDetail(w, http.StatusNotFound, "Warehouse not found or inactive")
			return
		}
	}
	it := b.addItem(body.Name, body.Quantity, body.WarehouseID)
	writeJSON(w, http.StatusCreated, it)
}

func (b *Backend) listItems(w http.ResponseWriter, r *http.Request) {
	search := strings.ToLower(r.URL.Query().Get("search"))
	activeOnly := r.URL.Query().Get("active_only") != "false"

	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.filterItems(func(it *item) bool {
		if activeOnly && !it.IsActive {
			return false
		}
		return search == "" || strings.Contains(strings.ToLower(it.Name), search)
	})
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) filterItems(keep func(*item) bool) []item {
	out := []item{}
	for _, it := range b.items {
		if keep(it) {
			out = append(out, *it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (b *Backend) getItem(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	it, ok := b.items[r.PathValue("code")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Item not found")
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (b *Backend) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	if ok {
		for code, it := range b.items {
			if it.ID == id {
				delete(b.items, code)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
	}
	writeDetail(w, http.StatusNotFound, "Item not found")
}

func (b *Backend) checkout(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	b.mu.Lock()
	defer b.mu.Unlock()
	it, ok := b.items[code]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Item not found")
		return
	}
	if !it.IsActive {
		writeDetail(w, http.StatusConflict, "Item already checked out")
		return
	}
	it.IsActive = false
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Item %s checked out", code)})
}

func (b *Backend) move(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	it, ok := b.items[r.PathValue("code")]
	if !ok || !it.IsActive {
		writeDetail(w, http.StatusNotFound, "Item not found or inactive")
		return
	}

	var target *int64
	if raw := r.URL.Query().Get("warehouse_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		wh, exists := b.warehouses[id]
		if err != nil || !exists || !wh.IsActive {
			writeDetail(w, http.StatusNotFound, "Warehouse not found or inactive")
			return
		}
		target = &id
	}
	it.WarehouseID = target
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": it.ID, "code": it.Code, "warehouse_id": it.WarehouseID})
}

func (b *Backend) qrcode(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	b.mu.Lock()
	_, ok := b.items[code]
	b.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "QR Code not found")
		return
	}

	png, err := qrcode.Encode(code, qrcode.Medium, 128)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (b *Backend) listWarehouses(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active_only") != "false"

	b.mu.Lock()
	defer b.mu.Unlock()
	out := []warehouse{}
	for _, wh := range b.warehouses {
		if activeOnly && !wh.IsActive {
			continue
		}
		out = append(out, *wh)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createWarehouse(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string  `json:"name"`
		Location *string `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, wh := range b.warehouses {
		if wh.Name == body.Name {
			writeDetail(w, http.StatusBadRequest, "Warehouse with this name already exists")
			return
		}
	}
	writeJSON(w, http.StatusOK, b.addWarehouse(body.Name, body.Location, true))
}

func (b *Backend) getWarehouse(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	wh, ok := b.warehouses[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Warehouse not found")
		return
	}
	writeJSON(w, http.StatusOK, wh)
}

func (b *Backend) updateWarehouse(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	var body struct {
		Name     *string `json:"name"`
		Location *string `json:"location"`
		IsActive *bool   `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	wh, ok := b.warehouses[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Warehouse not found")
		return
	}
	if body.Name != nil {
		for _, other := range b.warehouses {
			if other.ID != id && other.Name == *body.Name {
				writeDetail(w, http.StatusBadRequest, "Another warehouse with this name exists")
				return
			}
		}
		wh.Name = *body.Name
	}
	if body.Location != nil {
		wh.Location = body.Location
	}
	if body.IsActive != nil {
		wh.IsActive = *body.IsActive
	}
	writeJSON(w, http.StatusOK, wh)
}

func (b *Backend) deleteWarehouse(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.warehouses[id]; !ok {
		writeDetail(w, http.StatusNotFound, "Warehouse not found")
		return
	}
	for _, it := range b.items {
		if it.WarehouseID != nil && *it.WarehouseID == id {
			it.WarehouseID = nil
		}
	}
	delete(b.warehouses, id)
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Warehouse deleted", "id": id})
}

func (b *Backend) listWarehouseItems(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	activeOnly := r.URL.Query().Get("active_only") != "false"

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.warehouses[id]; !ok {
		writeDetail(w, http.StatusNotFound, "Warehouse not found")
		return
	}
	out := b.filterItems(func(it *item) bool {
		if activeOnly && !it.IsActive {
			return false
		}
		return it.WarehouseID != nil && *it.WarehouseID == id
	})
	writeJSON(w, http.StatusOK, out)
}
