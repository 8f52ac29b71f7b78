package integration

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mensahq/mensa/internal/campus"
	"github.com/mensahq/mensa/internal/httpapi"
)

func startServer(t *testing.T) (*httptest.Server, *campus.Campus) {
	t.Helper()
	c := campus.New("integration-campus")
	caf, err := c.AddCafeteria("riverside")
	require.NoError(t, err)
	require.NoError(t, caf.Catalog().Add("Soup", "tomato", decimal.NewFromFloat(3.5), 10))

	srv := httptest.NewServer(httpapi.NewRouter(httpapi.NewApp(c)))
	t.Cleanup(srv.Close)
	return srv, c
}

func post(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	var body bytes.Buffer
	require.NoError(t, json.NewEncoder(&body).Encode(payload))
	resp, err := http.Post(url, "application/json", &body)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestEndToEndOrderFlow(t *testing.T) {
	srv, c := startServer(t)

	resp := post(t, srv.URL+"/customers", map[string]string{"name": "Alice", "kind": "student"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[map[string]string](t, resp)
	customerID := created["id"]
	require.NotEmpty(t, customerID)

	resp = post(t, srv.URL+"/customers/"+customerID+"/balance", map[string]string{"amount": "50"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = decode[map[string]string](t, resp)

	resp = post(t, srv.URL+"/orders", map[string]any{
		"customer_id": customerID,
		"cafeteria":   "riverside",
		"item":        "Soup",
		"quantity":    2,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	placed := decode[struct {
		ID     uint64 `json:"id"`
		Total  string `json:"total"`
		Status string `json:"status"`
	}](t, resp)
	require.Equal(t, "5.6", placed.Total)
	require.Equal(t, "accepted", placed.Status)

	resp = post(t, srv.URL+fmt.Sprintf("/orders/%d/complete", placed.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = decode[map[string]any](t, resp)

	resp = post(t, srv.URL+fmt.Sprintf("/orders/%d/pickup", placed.ID), map[string]string{"customer_id": customerID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	picked := decode[struct {
		Status string `json:"status"`
	}](t, resp)
	require.Equal(t, "picked_up", picked.Status)

	// The HTTP surface and the in-process registry agree.
	caf, err := c.Cafeteria("riverside")
	require.NoError(t, err)
	require.Equal(t, "5.6", caf.Revenue().String())
	item, _ := caf.Catalog().Get("Soup")
	require.EqualValues(t, 8, item.Quantity)

	balance, err := c.BalanceOf(customerID)
	require.NoError(t, err)
	require.Equal(t, "44.4", balance.String())
}

func TestRequestIDPropagation(t *testing.T) {
	srv, _ := startServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/menu", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "req-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, "req-123", resp.Header.Get("X-Request-Id"))
}

func TestErrorPayloadShape(t *testing.T) {
	srv, _ := startServer(t)

	resp, err := http.Get(srv.URL + "/search?item=Pizza")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	payload := decode[struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}](t, resp)
	require.Equal(t, "not_found", payload.Error)
	require.Contains(t, payload.Details, "Pizza")
}
