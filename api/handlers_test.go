package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TLArrow401/ProyTray4-Recaudacion-sub000/api"
	"github.com/TLArrow401/ProyTray4-Recaudacion-sub000/engine"
	enginestore "github.com/TLArrow401/ProyTray4-Recaudacion-sub000/engine/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// newTestServer wires the router onto an in-memory store seeded with
// one contract (id 1, multiplier 5) and rates for early 2024. The
// contract range spans last year through next year so the planning
// endpoints, which run against the real clock, always see it.
func newTestServer(t *testing.T) (*httptest.Server, *enginestore.Memory) {
	t.Helper()
	store := enginestore.NewMemory()

	year := time.Now().Year()
	store.PutFiscalYear(engine.FiscalYear{ID: 1, Year: year,
		Start: engine.NewDate(year-1, time.January, 1),
		End:   engine.NewDate(year+1, time.December, 31)})
	store.PutCategory(engine.BusinessCategory{
		ID: 1, Catalog: engine.CatalogExternal, Name: "Verduras", Weight: decimal.NewFromInt(5)})
	store.PutAwardee(engine.Awardee{ID: 1, Name: "María Contreras", IDNumber: "V-12345678"})
	store.PutStall(engine.Stall{ID: 1, Code: "A-01", SectorID: 1, SectorName: "Sector A",
		ZoneID: 1, ZoneName: "Zona Norte"})
	store.PutContract(engine.Contract{
		ID: 1, AwardeeID: 1, FiscalYearID: 1,
		StartDate:  engine.NewDate(year-1, time.January, 1),
		EndDate:    engine.NewDate(year+1, time.December, 31),
		Type:       engine.ContractSimultaneous,
		Mode:       engine.BillingMonthly,
		Categories: []engine.CategoryRef{{Catalog: engine.CatalogExternal, CategoryID: 1}},
		Stalls:     []engine.StallID{1},
	})

	for i, month := range []engine.MonthKey{engine.Enero, engine.Febrero, engine.Marzo} {
		_, err := store.SaveRate(context.Background(), engine.EuroRate{
			Month: month, Year: 2024,
			Value: decimal.NewFromInt(int64(38 + i)),
		})
		require.NoError(t, err)
	}

	handler := api.NewHandler(store, nil)
	server := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(server.Close)
	return server, store
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// =============================================================================
// SCHEDULE ENDPOINTS
// =============================================================================

func TestAPI_GenerateSchedule(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/contracts/1/schedule",
		`{"start_date":"2024-01-15","end_date":"2024-03-15","mode":"monthly"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody[api.ScheduleResponse](t, resp)
	assert.Equal(t, int64(1), body.ContractID)
	assert.Equal(t, 3, body.Count)
	require.Len(t, body.Payments, 3)
	assert.Equal(t, "PAY-1-001", body.Payments[0].Reference)
	assert.Equal(t, "2024-01-15", body.Payments[0].Date)
	assert.Equal(t, "190", body.Payments[0].Amount, "5 x enero rate 38")
	assert.Equal(t, "pending", body.Payments[0].Status)
}

func TestAPI_GenerateSchedule_UnknownContract(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/contracts/404/schedule",
		`{"start_date":"2024-01-15","end_date":"2024-03-15","mode":"monthly"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_GenerateSchedule_BadInput(t *testing.T) {
	server, _ := newTestServer(t)

	cases := []string{
		`{"start_date":"15/01/2024","end_date":"2024-03-15","mode":"monthly"}`,
		`{"start_date":"2024-03-15","end_date":"2024-01-15","mode":"monthly"}`,
		`{"start_date":"2024-01-15","end_date":"2024-03-15","mode":"quarterly"}`,
	}
	for _, body := range cases {
		resp := postJSON(t, server.URL+"/api/contracts/1/schedule", body)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body: %s", body)
	}
}

func TestAPI_GenerateSchedule_MissingFiscalYear(t *testing.T) {
	// GIVEN: A contract pointing at a fiscal year the store never saw
	// WHEN: Generating its schedule
	// THEN: 400, not 404; the contract exists, its configuration is bad

	server, store := newTestServer(t)
	store.PutContract(engine.Contract{
		ID: 2, AwardeeID: 1, FiscalYearID: 99,
		StartDate:  engine.NewDate(2024, time.January, 1),
		EndDate:    engine.NewDate(2024, time.December, 31),
		Type:       engine.ContractSimultaneous,
		Mode:       engine.BillingMonthly,
		Categories: []engine.CategoryRef{{Catalog: engine.CatalogExternal, CategoryID: 1}},
	})

	resp := postJSON(t, server.URL+"/api/contracts/2/schedule",
		`{"start_date":"2024-01-15","end_date":"2024-03-15","mode":"monthly"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_RegenerateSchedule(t *testing.T) {
	server, store := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/contracts/1/schedule",
		`{"start_date":"2024-01-15","end_date":"2024-03-15","mode":"monthly"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, server.URL+"/api/contracts/1/schedule/regenerate",
		`{"start_date":"2024-02-01","end_date":"2024-02-29","mode":"weekly"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody[api.ScheduleResponse](t, resp)
	assert.Equal(t, 5, body.Count)

	persisted, err := store.PaymentsByContract(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, persisted, 5, "old pending schedule replaced")
}

func TestAPI_ListPayments(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/contracts/1/schedule",
		`{"start_date":"2024-01-15","end_date":"2024-03-15","mode":"monthly"}`)
	resp.Body.Close()

	resp, err := http.Get(server.URL + "/api/contracts/1/payments")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payments := decodeBody[[]api.PaymentDTO](t, resp)
	assert.Len(t, payments, 3)

	resp, err = http.Get(server.URL + "/api/contracts/404/payments")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_UpdatePaymentStatus(t *testing.T) {
	server, store := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/contracts/1/schedule",
		`{"start_date":"2024-01-15","end_date":"2024-01-15","mode":"monthly"}`)
	body := decodeBody[api.ScheduleResponse](t, resp)
	require.Len(t, body.Payments, 1)
	paymentID := body.Payments[0].ID

	req, err := http.NewRequest(http.MethodPut,
		server.URL+"/api/payments/"+paymentID+"/status",
		bytes.NewReader([]byte(`{"status":"paid"}`)))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	persisted, err := store.PaymentsByContract(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, engine.PaymentPaid, persisted[0].Status)

	// Unknown status value
	req, err = http.NewRequest(http.MethodPut,
		server.URL+"/api/payments/"+paymentID+"/status",
		bytes.NewReader([]byte(`{"status":"settled"}`)))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// RATE ENDPOINTS
// =============================================================================

func TestAPI_Rates_CRUD(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/rates", `{"month":"abril","year":2024,"value":"41.00"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[api.RateDTO](t, resp)
	assert.Equal(t, "abril", created.Month)
	assert.NotZero(t, created.ID)

	// Duplicate period conflicts
	resp = postJSON(t, server.URL+"/api/rates", `{"month":"abril","year":2024,"value":"42.00"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Month without year is incomplete
	resp = postJSON(t, server.URL+"/api/rates", `{"month":"mayo","value":"42.00"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err := http.Get(server.URL + "/api/rates")
	require.NoError(t, err)
	rates := decodeBody[[]api.RateDTO](t, resp)
	assert.Len(t, rates, 4)
	assert.Equal(t, "abril", rates[0].Month, "newest period first")

	req, err := http.NewRequest(http.MethodDelete,
		server.URL+"/api/rates/"+strconv.FormatInt(created.ID, 10), nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

// =============================================================================
// PLANNING ENDPOINTS
// =============================================================================

func TestAPI_Planning_Report(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/planning")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rows := decodeBody[[]api.PlanningRowDTO](t, resp)
	require.Len(t, rows, 1)
	assert.Equal(t, "María Contreras", rows[0].AwardeeName)
	assert.Equal(t, "Zona Norte", rows[0].ZoneName)
	assert.True(t, rows[0].Projected, "no schedule generated yet")
	assert.Equal(t, "Pago no programado", rows[0].StatusText)
}

func TestAPI_Planning_Filters(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/planning?zone_id=99")
	require.NoError(t, err)
	rows := decodeBody[[]api.PlanningRowDTO](t, resp)
	assert.Empty(t, rows)

	resp, err = http.Get(server.URL + "/api/planning?zone_id=abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Planning_CSV(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/planning/csv")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "planificacion_mensual.csv")

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	out := buf.Bytes()
	assert.True(t, bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, string(out), "Contrato;Adjudicatario;Cédula")
}

func TestAPI_Planning_Statistics(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/planning/statistics")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stats := decodeBody[api.StatisticsDTO](t, resp)
	assert.Equal(t, 1, stats.TotalContracts)
	assert.NotEmpty(t, stats.Period)
}
