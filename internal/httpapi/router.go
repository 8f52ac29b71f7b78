package httpapi

import "net/http"

// NewRouter registers HTTP routes and returns the handler with middleware.
func NewRouter(app *App) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", app.healthHandler)
	mux.HandleFunc("GET /status", app.statusHandler)

	mux.HandleFunc("GET /menu", app.menuHandler)
	mux.HandleFunc("GET /search", app.searchHandler)

	mux.HandleFunc("POST /cafeterias", app.createCafeteriaHandler)
	mux.HandleFunc("GET /cafeterias", app.listCafeteriasHandler)
	mux.HandleFunc("GET /cafeterias/{cafeteria}/menu", app.cafeteriaMenuHandler)
	mux.HandleFunc("GET /cafeterias/{cafeteria}/popular", app.popularHandler)
	mux.HandleFunc("POST /cafeterias/{cafeteria}/items", app.addItemHandler)
	mux.HandleFunc("PUT /cafeterias/{cafeteria}/items/{item}", app.updateItemHandler)
	mux.HandleFunc("DELETE /cafeterias/{cafeteria}/items/{item}", app.removeItemHandler)
	mux.HandleFunc("POST /cafeterias/{cafeteria}/items/{item}/restock", app.restockHandler)
	mux.HandleFunc("POST /cafeterias/{cafeteria}/close", app.closeCafeteriaHandler)
	mux.HandleFunc("POST /close", app.closeAllHandler)

	mux.HandleFunc("POST /customers", app.createCustomerHandler)
	mux.HandleFunc("POST /customers/{customer}/balance", app.balanceHandler)
	mux.HandleFunc("GET /customers/{customer}/orders", app.customerOrdersHandler)

	mux.HandleFunc("POST /orders", app.placeOrderHandler)
	mux.HandleFunc("GET /orders/{id}", app.orderHandler)
	mux.HandleFunc("POST /orders/{id}/complete", app.completeOrderHandler)
	mux.HandleFunc("POST /orders/{id}/cancel", app.cancelOrderHandler)
	mux.HandleFunc("POST /orders/{id}/pickup", app.pickUpOrderHandler)

	return WithRequestID(WithLogging(mux))
}
