package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/mensahq/mensa/internal/campus"
	"github.com/mensahq/mensa/internal/customer"
	"github.com/mensahq/mensa/internal/menuindex"
	"github.com/mensahq/mensa/internal/order"
)

// App binds HTTP handlers to a campus.
type App struct {
	Campus  *campus.Campus
	started time.Time
}

// NewApp wires the handler set over the given campus.
func NewApp(c *campus.Campus) *App {
	return &App{Campus: c, started: time.Now()}
}

type menuEntry struct {
	Item        string `json:"item"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Quantity    int64  `json:"quantity"`
	Cafeteria   string `json:"cafeteria"`
}

type orderView struct {
	ID        uint64 `json:"id"`
	Cafeteria string `json:"cafeteria"`
	Customer  string `json:"customer_id"`
	Item      string `json:"item"`
	Quantity  int64  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Discount  int64  `json:"discount_percent"`
	Total     string `json:"total"`
	Status    string `json:"status"`
	Advisory  string `json:"advisory,omitempty"`
}

func viewOf(ord order.Order, advisory string) orderView {
	return orderView{
		ID:        ord.ID,
		Cafeteria: ord.Cafeteria,
		Customer:  ord.CustomerID,
		Item:      ord.Item,
		Quantity:  ord.Quantity,
		UnitPrice: ord.UnitPrice.String(),
		Discount:  ord.Discount,
		Total:     ord.Total.String(),
		Status:    string(ord.Status),
		Advisory:  advisory,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, into any) bool {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		WriteJSONError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "expected application/json")
		return false
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

func (a *App) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) menuHandler(w http.ResponseWriter, _ *http.Request) {
	entries := a.Campus.SortedMenu()
	out := make([]menuEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, menuEntry{
			Item:        e.Item,
			Description: e.Description,
			Price:       e.Price.String(),
			Quantity:    e.Quantity,
			Cafeteria:   e.Cafeteria,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) searchHandler(w http.ResponseWriter, r *http.Request) {
	item := strings.TrimSpace(r.URL.Query().Get("item"))
	if item == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "item query parameter is required")
		return
	}
	customerID := strings.TrimSpace(r.URL.Query().Get("customer_id"))

	var (
		entries []menuindex.Entry
		err     error
	)
	if customerID != "" {
		entries, err = a.Campus.SearchFor(customerID, item)
	} else {
		entries, err = a.Campus.Search(item)
	}
	if err != nil {
		WriteError(w, err)
		return
	}
	out := make([]menuEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, menuEntry{
			Item:        e.Item,
			Description: e.Description,
			Price:       e.Price.String(),
			Quantity:    e.Quantity,
			Cafeteria:   e.Cafeteria,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) createCafeteriaHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "name is required")
		return
	}
	caf, err := a.Campus.AddCafeteria(req.Name)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": caf.Name()})
}

func (a *App) listCafeteriasHandler(w http.ResponseWriter, _ *http.Request) {
	type cafView struct {
		Name    string `json:"name"`
		Items   int    `json:"items"`
		Revenue string `json:"revenue"`
	}
	cafeterias := a.Campus.Cafeterias()
	out := make([]cafView, 0, len(cafeterias))
	for _, caf := range cafeterias {
		out = append(out, cafView{
			Name:    caf.Name(),
			Items:   caf.Catalog().Len(),
			Revenue: caf.Revenue().String(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type itemPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Quantity    int64  `json:"quantity"`
	NewName     string `json:"new_name,omitempty"`
}

func (a *App) addItemHandler(w http.ResponseWriter, r *http.Request) {
	caf, err := a.Campus.Cafeteria(r.PathValue("cafeteria"))
	if err != nil {
		WriteError(w, err)
		return
	}
	var req itemPayload
	if !decodeJSON(w, r, &req) {
		return
	}
	price, perr := decimal.NewFromString(req.Price)
	if perr != nil {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "price must be a decimal string")
		return
	}
	if err := caf.Catalog().Add(req.Name, req.Description, price, req.Quantity); err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"item": req.Name})
}

func (a *App) updateItemHandler(w http.ResponseWriter, r *http.Request) {
	caf, err := a.Campus.Cafeteria(r.PathValue("cafeteria"))
	if err != nil {
		WriteError(w, err)
		return
	}
	var req itemPayload
	if !decodeJSON(w, r, &req) {
		return
	}
	price, perr := decimal.NewFromString(req.Price)
	if perr != nil {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "price must be a decimal string")
		return
	}
	name := r.PathValue("item")
	if err := caf.Catalog().Update(name, req.Description, price, req.Quantity, req.NewName); err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"item": name})
}

func (a *App) removeItemHandler(w http.ResponseWriter, r *http.Request) {
	caf, err := a.Campus.Cafeteria(r.PathValue("cafeteria"))
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := caf.Catalog().Remove(r.PathValue("item")); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) restockHandler(w http.ResponseWriter, r *http.Request) {
	caf, err := a.Campus.Cafeteria(r.PathValue("cafeteria"))
	if err != nil {
		WriteError(w, err)
		return
	}
	var req struct {
		Quantity int64 `json:"quantity"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	total, err := caf.Catalog().Restock(r.PathValue("item"), req.Quantity)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"quantity": total})
}

func (a *App) popularHandler(w http.ResponseWriter, r *http.Request) {
	caf, err := a.Campus.Cafeteria(r.PathValue("cafeteria"))
	if err != nil {
		WriteError(w, err)
		return
	}
	n := 5
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, perr := strconv.Atoi(raw)
		if perr != nil || parsed <= 0 {
			WriteJSONError(w, http.StatusBadRequest, "validation_error", "n must be a positive integer")
			return
		}
		n = parsed
	}
	popular, err := caf.PopularItems(n)
	if err != nil {
		WriteError(w, err)
		return
	}
	type popView struct {
		Item  string `json:"item"`
		Count int64  `json:"count"`
	}
	out := make([]popView, 0, len(popular))
	for _, entry := range popular {
		out = append(out, popView{Item: entry.Item, Count: entry.Count})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) cafeteriaMenuHandler(w http.ResponseWriter, r *http.Request) {
	customerID := strings.TrimSpace(r.URL.Query().Get("customer_id"))
	if customerID == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "customer_id query parameter is required")
		return
	}
	items, err := a.Campus.ViewDetailedMenu(customerID, r.PathValue("cafeteria"))
	if err != nil {
		WriteError(w, err)
		return
	}
	type line struct {
		Description string `json:"description"`
		Price       string `json:"price"`
		Quantity    int64  `json:"quantity"`
	}
	out := make(map[string]line, len(items))
	for name, item := range items {
		out[name] = line{Description: item.Description, Price: item.Price.String(), Quantity: item.Quantity}
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) createCustomerHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name"`
		Kind string `json:"kind"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	var (
		cust *customer.Customer
		err  error
	)
	switch customer.Kind(strings.ToLower(req.Kind)) {
	case customer.KindStudent:
		cust, err = a.Campus.AddStudent(req.ID, req.Name)
	case customer.KindStaff:
		cust, err = a.Campus.AddStaff(req.ID, req.Name)
	case customer.KindGuest:
		cust, err = a.Campus.AddGuest(req.Name)
	default:
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "kind must be student, staff, or guest")
		return
	}
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":   cust.ID(),
		"name": cust.Name(),
		"kind": string(cust.Kind()),
	})
}

func (a *App) balanceHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount string `json:"amount"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, perr := decimal.NewFromString(req.Amount)
	if perr != nil {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "amount must be a decimal string")
		return
	}
	balance, err := a.Campus.AddBalance(r.PathValue("customer"), amount)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"balance": balance.String()})
}

func (a *App) customerOrdersHandler(w http.ResponseWriter, r *http.Request) {
	orders, err := a.Campus.CustomerOrders(r.PathValue("customer"))
	if err != nil {
		WriteError(w, err)
		return
	}
	out := make([]orderView, 0, len(orders))
	for _, ord := range orders {
		out = append(out, viewOf(ord, ""))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) placeOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID string `json:"customer_id"`
		Cafeteria  string `json:"cafeteria"`
		Item       string `json:"item"`
		Quantity   int64  `json:"quantity"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	advisory, ord, err := a.Campus.PlaceOrder(req.CustomerID, req.Cafeteria, req.Item, req.Quantity)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(ord, advisory))
}

func (a *App) orderHandler(w http.ResponseWriter, r *http.Request) {
	id, perr := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if perr != nil {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "order id must be a positive integer")
		return
	}
	ord, err := a.Campus.Order(id)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(ord, ""))
}

func (a *App) completeOrderHandler(w http.ResponseWriter, r *http.Request) {
	a.transitionOrder(w, r, func(cafeteriaName string, id uint64) (order.Order, error) {
		return a.Campus.CompleteOrder(cafeteriaName, id)
	})
}

func (a *App) cancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	a.transitionOrder(w, r, func(cafeteriaName string, id uint64) (order.Order, error) {
		return a.Campus.CancelOrder(cafeteriaName, id)
	})
}

func (a *App) transitionOrder(w http.ResponseWriter, r *http.Request, apply func(string, uint64) (order.Order, error)) {
	id, perr := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if perr != nil {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "order id must be a positive integer")
		return
	}
	ord, err := a.Campus.Order(id)
	if err != nil {
		WriteError(w, err)
		return
	}
	ord, err = apply(ord.Cafeteria, id)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(ord, ""))
}

func (a *App) pickUpOrderHandler(w http.ResponseWriter, r *http.Request) {
	id, perr := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if perr != nil {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "order id must be a positive integer")
		return
	}
	var req struct {
		CustomerID string `json:"customer_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	ord, err := a.Campus.PickUpOrder(req.CustomerID, id)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(ord, ""))
}

func (a *App) closeCafeteriaHandler(w http.ResponseWriter, r *http.Request) {
	revenue, err := a.Campus.CloseCafeteria(r.PathValue("cafeteria"))
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"revenue": revenue.String()})
}

func (a *App) closeAllHandler(w http.ResponseWriter, _ *http.Request) {
	total, breakdown := a.Campus.CloseAll()
	byCafeteria := make(map[string]string, len(breakdown))
	for name, revenue := range breakdown {
		byCafeteria[name] = revenue.String()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":        total.String(),
		"by_cafeteria": byCafeteria,
	})
}

func (a *App) statusHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"campus":     a.Campus.Name(),
		"cafeterias": len(a.Campus.Cafeterias()),
		"customers":  a.Campus.Directory().Len(),
		"uptime_sec": time.Since(a.started).Seconds(),
	})
}
