package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"courier-backoffice-service/internal/adapters/repositories"
	"courier-backoffice-service/internal/adapters/sessions"
	"courier-backoffice-service/internal/api/dto"
	"courier-backoffice-service/internal/domain"
	"courier-backoffice-service/internal/services"
)

var adminPerms = []string{
	domain.PermOrdersCreate,
	domain.PermOrdersEdit,
	domain.PermOrdersDelete,
	domain.PermOrdersViewAll,
	domain.PermOrdersViewAmounts,
	domain.PermOrdersAssignWorker,
	domain.PermOrdersGenerateInvoice,
}

var workerPerms = []string{
	domain.PermOrdersViewAssigned,
	domain.PermOrdersUpdateStatus,
}

type testEnv struct {
	handler http.Handler
	store   *repositories.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := repositories.NewMemoryStore()
	if err := store.AddUser("Yovani", "admin-pass", domain.RoleAdmin, adminPerms); err != nil {
		t.Fatalf("add admin: %v", err)
	}
	if err := store.AddUser("Karen", "worker-pass", domain.RoleWorker, workerPerms); err != nil {
		t.Fatalf("add worker: %v", err)
	}

	svc := Services{
		Clients: services.NewClientRegistry(store),
		Orders:  services.NewOrderLedger(store, store),
		Auth:    services.NewAuthenticator(store, sessions.NewMemorySessionStore(), time.Hour),
	}
	return &testEnv{handler: NewRouter(svc), store: store}
}

func (e *testEnv) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T, user, pass string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/login", `{"usuario":"`+user+`","contrasena":"`+pass+`"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", user, rec.Code, rec.Body.String())
	}
	var res dto.LoginResponse
	decode(t, rec, &res)
	return res.Token
}

func (e *testEnv) seedClient(t *testing.T, taxID, name string) *domain.Client {
	t.Helper()
	c := &domain.Client{TaxID: taxID, BusinessName: name, City: "Lima", RegisteredAt: time.Now().UTC()}
	if err := e.store.CreateClient(context.Background(), c); err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return c
}

func (e *testEnv) seedOrder(t *testing.T, senderID int64, worker string) *domain.Order {
	t.Helper()
	o := &domain.Order{
		SenderID:       senderID,
		CargoDetail:    "Cajas",
		Status:         domain.StatusPending,
		PaymentStatus:  domain.PaymentPending,
		AssignedWorker: worker,
		CreatedAt:      time.Now().UTC(),
	}
	if err := e.store.CreateOrder(context.Background(), o); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return o
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/health", "", "")
	expectStatus(t, rec, http.StatusOK)

	rec = e.do(t, http.MethodPost, "/health", "", "")
	expectStatus(t, rec, http.StatusMethodNotAllowed)
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/api/login", `{"usuario":"Yovani","contrasena":"admin-pass"}`, "")
	expectStatus(t, rec, http.StatusOK)
	var ok dto.LoginResponse
	decode(t, rec, &ok)
	if !ok.Success || ok.Token == "" || ok.User == nil {
		t.Fatalf("unexpected login response: %+v", ok)
	}
	if ok.User.Username != "Yovani" || ok.User.Role != "ADMIN" || len(ok.User.Permissions) != len(adminPerms) {
		t.Fatalf("unexpected user: %+v", ok.User)
	}

	rec = e.do(t, http.MethodPost, "/api/login", `{"usuario":"Karen","contrasena":"wrongpass"}`, "")
	expectStatus(t, rec, http.StatusUnauthorized)
	var bad dto.LoginResponse
	decode(t, rec, &bad)
	if bad.Success || bad.Error == "" || bad.Token != "" {
		t.Fatalf("unexpected rejection body: %+v", bad)
	}

	rec = e.do(t, http.MethodGet, "/api/login", "", "")
	expectStatus(t, rec, http.StatusMethodNotAllowed)

	rec = e.do(t, http.MethodPost, "/api/login", `{"usuario":`, "")
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestLogout(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "Yovani", "admin-pass")

	rec := e.do(t, http.MethodPost, "/api/logout", "", token)
	expectStatus(t, rec, http.StatusNoContent)

	rec = e.do(t, http.MethodGet, "/api/clients", "", token)
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestClientsCreateAndList(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "12345678901", "Empresa Ejemplo")

	for _, body := range []string{
		`{"ruc_dni":"12345678","razon_social":"Juan Pérez","ciudad":"Lima"}`,
		`{"ruc_dni":"87654321","razon_social":"María García","ciudad":"Cusco","email":"maria@ejemplo.com"}`,
	} {
		rec := e.do(t, http.MethodPost, "/api/clients", body, "")
		expectStatus(t, rec, http.StatusCreated)
	}

	rec := e.do(t, http.MethodGet, "/api/clients", "", "")
	expectStatus(t, rec, http.StatusOK)
	var all []dto.ClientResponse
	decode(t, rec, &all)
	if len(all) != 3 {
		t.Fatalf("clients = %d, want 3", len(all))
	}
	wantOrder := []string{"12345678901", "12345678", "87654321"}
	for i, c := range all {
		if c.TaxID != wantOrder[i] {
			t.Fatalf("client #%d tax id = %q, want %q (creation order)", i, c.TaxID, wantOrder[i])
		}
		if i > 0 && c.ID <= all[i-1].ID {
			t.Fatalf("ids not increasing: %d after %d", c.ID, all[i-1].ID)
		}
	}

	rec = e.do(t, http.MethodGet, "/api/clients/?ciudad=cusco", "", "")
	expectStatus(t, rec, http.StatusOK)
	var cusco []dto.ClientResponse
	decode(t, rec, &cusco)
	if len(cusco) != 1 || cusco[0].TaxID != "87654321" {
		t.Fatalf("unexpected city filter result: %+v", cusco)
	}

	rec = e.do(t, http.MethodGet, "/api/clients/"+itoa(all[1].ID), "", "")
	expectStatus(t, rec, http.StatusOK)

	rec = e.do(t, http.MethodGet, "/api/clients/999", "", "")
	expectStatus(t, rec, http.StatusNotFound)

	rec = e.do(t, http.MethodPut, "/api/clients", `{}`, "")
	expectStatus(t, rec, http.StatusMethodNotAllowed)
}

func TestClientsCreateErrors(t *testing.T) {
	e := newTestEnv(t)
	e.seedClient(t, "12345678", "Existente")

	cases := []struct {
		name string
		body string
		want int
	}{
		{"duplicate tax id", `{"ruc_dni":"12345678","razon_social":"Otro"}`, http.StatusConflict},
		{"malformed json", `{"ruc_dni":`, http.StatusBadRequest},
		{"unknown field", `{"ruc_dni":"87654321","razon_social":"X","foo":1}`, http.StatusBadRequest},
		{"trailing data", `{"ruc_dni":"87654321","razon_social":"X"} {}`, http.StatusBadRequest},
		{"invalid tax id", `{"ruc_dni":"12AB","razon_social":"X"}`, http.StatusBadRequest},
	}

	for _, tc := range cases {
		rec := e.do(t, http.MethodPost, "/api/clients", tc.body, "")
		if rec.Code != tc.want {
			t.Fatalf("%s: status = %d, want %d (body %s)", tc.name, rec.Code, tc.want, rec.Body.String())
		}
	}

	rec := e.do(t, http.MethodPost, "/api/clients", `{"ruc_dni":"","razon_social":""}`, "")
	expectStatus(t, rec, http.StatusBadRequest)
	var res struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	decode(t, rec, &res)
	if res.Fields["ruc_dni"] == "" || res.Fields["razon_social"] == "" {
		t.Fatalf("expected field errors, got %+v", res)
	}

	rec = e.do(t, http.MethodGet, "/api/clients", "", "")
	var all []dto.ClientResponse
	decode(t, rec, &all)
	if len(all) != 1 {
		t.Fatalf("registry changed on failed creates: %d clients", len(all))
	}
}

func TestOrdersCreateForcesPending(t *testing.T) {
	e := newTestEnv(t)
	sender := e.seedClient(t, "12345678901", "Empresa Ejemplo")

	body := `{"remitente_id":` + itoa(sender.ID) + `,"lugar_origen":"Lima","lugar_destino":"Arequipa",` +
		`"detalle_carga":"Cajas","importe_total":"100.00","forma_pago":"Efectivo","estado":"Completada","estado_pago":"Pagado"}`
	rec := e.do(t, http.MethodPost, "/api/orders", body, "")
	expectStatus(t, rec, http.StatusCreated)
	var o dto.OrderResponse
	decode(t, rec, &o)
	if o.Status != "Pendiente" || o.PaymentStatus != "Pendiente" {
		t.Fatalf("statuses = %q/%q, want Pendiente/Pendiente", o.Status, o.PaymentStatus)
	}
	if o.SenderName != "Empresa Ejemplo" || o.Total == nil || *o.Total != "100.00" {
		t.Fatalf("unexpected order: %+v", o)
	}

	rec = e.do(t, http.MethodPost, "/api/orders", `{"remitente_id":`+itoa(sender.ID)+`,"importe_total":25.5}`, "")
	expectStatus(t, rec, http.StatusCreated)
	decode(t, rec, &o)
	if o.Status != "Pendiente" || *o.Total != "25.50" {
		t.Fatalf("unexpected default order: %+v", o)
	}

	rec = e.do(t, http.MethodPost, "/api/orders", `{"remitente_id":999}`, "")
	expectStatus(t, rec, http.StatusUnprocessableEntity)

	rec = e.do(t, http.MethodPost, "/api/orders", `{"remitente_id":`+itoa(sender.ID)+`,"importe_total":-5}`, "")
	expectStatus(t, rec, http.StatusBadRequest)

	rec = e.do(t, http.MethodGet, "/api/orders", "", "")
	expectStatus(t, rec, http.StatusOK)
	var all []dto.OrderResponse
	decode(t, rec, &all)
	if len(all) != 2 {
		t.Fatalf("orders = %d, want 2", len(all))
	}
}

func TestOrdersListFilters(t *testing.T) {
	e := newTestEnv(t)
	a := e.seedClient(t, "12345678", "Uno")
	b := e.seedClient(t, "87654321", "Dos")
	e.seedOrder(t, a.ID, "")
	e.seedOrder(t, b.ID, "")

	rec := e.do(t, http.MethodGet, "/api/orders?cliente_id="+itoa(b.ID), "", "")
	expectStatus(t, rec, http.StatusOK)
	var got []dto.OrderResponse
	decode(t, rec, &got)
	if len(got) != 1 || got[0].SenderID != b.ID {
		t.Fatalf("unexpected client filter result: %+v", got)
	}

	for _, q := range []string{"estado=Perdido", "facturado=quizas", "cliente_id=abc"} {
		rec := e.do(t, http.MethodGet, "/api/orders?"+q, "", "")
		expectStatus(t, rec, http.StatusBadRequest)
	}

	rec = e.do(t, http.MethodGet, "/api/orders?estado="+url.QueryEscape("pendiente"), "", "")
	expectStatus(t, rec, http.StatusOK)
	decode(t, rec, &got)
	if len(got) != 2 {
		t.Fatalf("status filter = %d orders, want 2", len(got))
	}
}

func TestOrderUpdatePermissions(t *testing.T) {
	e := newTestEnv(t)
	c := e.seedClient(t, "12345678", "Uno")
	mine := e.seedOrder(t, c.ID, "Karen")
	other := e.seedOrder(t, c.ID, "Otro")

	admin := e.login(t, "Yovani", "admin-pass")
	worker := e.login(t, "Karen", "worker-pass")

	rec := e.do(t, http.MethodPatch, "/api/orders/"+itoa(mine.ID), `{"estado":"En Tránsito"}`, "")
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = e.do(t, http.MethodPatch, "/api/orders/"+itoa(mine.ID), `{"estado":"en transito"}`, worker)
	expectStatus(t, rec, http.StatusOK)
	var o dto.OrderResponse
	decode(t, rec, &o)
	if o.Status != string(domain.StatusInTransit) {
		t.Fatalf("status = %q, want %q", o.Status, domain.StatusInTransit)
	}
	if o.Total != nil {
		t.Fatalf("worker should not see amounts")
	}

	rec = e.do(t, http.MethodPatch, "/api/orders/"+itoa(mine.ID), `{"notas":"hola"}`, worker)
	expectStatus(t, rec, http.StatusForbidden)

	rec = e.do(t, http.MethodPatch, "/api/orders/"+itoa(other.ID), `{"estado":"Cancelada"}`, worker)
	expectStatus(t, rec, http.StatusForbidden)

	rec = e.do(t, http.MethodPatch, "/api/orders/"+itoa(mine.ID), `{"estado":"Pendiente"}`, admin)
	expectStatus(t, rec, http.StatusConflict)

	rec = e.do(t, http.MethodPatch, "/api/orders/"+itoa(mine.ID), `{"estado_pago":"Pagado","facturado":true,"trabajador_asignado":"Luis"}`, admin)
	expectStatus(t, rec, http.StatusOK)
	decode(t, rec, &o)
	if o.PaymentStatus != "Pagado" || !o.Billed || o.AssignedWorker != "Luis" {
		t.Fatalf("unexpected admin update: %+v", o)
	}

	rec = e.do(t, http.MethodPatch, "/api/orders/999", `{"facturado":true}`, admin)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestWorkerSeesOnlyAssignedOrders(t *testing.T) {
	e := newTestEnv(t)
	c := e.seedClient(t, "12345678", "Uno")
	mine := e.seedOrder(t, c.ID, "Karen")
	other := e.seedOrder(t, c.ID, "Otro")

	worker := e.login(t, "Karen", "worker-pass")

	rec := e.do(t, http.MethodGet, "/api/orders", "", worker)
	expectStatus(t, rec, http.StatusOK)
	var got []dto.OrderResponse
	decode(t, rec, &got)
	if len(got) != 1 || got[0].ID != mine.ID {
		t.Fatalf("worker listing = %+v", got)
	}

	rec = e.do(t, http.MethodGet, "/api/orders/"+itoa(other.ID), "", worker)
	expectStatus(t, rec, http.StatusForbidden)

	rec = e.do(t, http.MethodGet, "/api/orders/summary", "", worker)
	expectStatus(t, rec, http.StatusOK)
	var sum dto.SummaryResponse
	decode(t, rec, &sum)
	if sum.Total != 1 || sum.Revenue != "" {
		t.Fatalf("worker summary = %+v", sum)
	}

	rec = e.do(t, http.MethodPost, "/api/orders", `{"remitente_id":`+itoa(c.ID)+`}`, worker)
	expectStatus(t, rec, http.StatusForbidden)
}

func TestDeletePermissions(t *testing.T) {
	e := newTestEnv(t)
	a := e.seedClient(t, "12345678", "Uno")
	b := e.seedClient(t, "87654321", "Dos")
	e.seedOrder(t, a.ID, "")
	kept := e.seedOrder(t, b.ID, "")

	admin := e.login(t, "Yovani", "admin-pass")
	worker := e.login(t, "Karen", "worker-pass")

	rec := e.do(t, http.MethodDelete, "/api/clients/"+itoa(a.ID), "", "")
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = e.do(t, http.MethodDelete, "/api/clients/"+itoa(a.ID), "", worker)
	expectStatus(t, rec, http.StatusForbidden)

	rec = e.do(t, http.MethodDelete, "/api/clients/"+itoa(a.ID), "", admin)
	expectStatus(t, rec, http.StatusOK)
	var del dto.DeleteClientResponse
	decode(t, rec, &del)
	if del.DeletedOrders != 1 {
		t.Fatalf("deleted_orders = %d, want 1", del.DeletedOrders)
	}

	rec = e.do(t, http.MethodDelete, "/api/orders/"+itoa(kept.ID), "", worker)
	expectStatus(t, rec, http.StatusForbidden)

	rec = e.do(t, http.MethodDelete, "/api/orders/"+itoa(kept.ID), "", admin)
	expectStatus(t, rec, http.StatusNoContent)

	rec = e.do(t, http.MethodGet, "/api/orders", "", admin)
	var left []dto.OrderResponse
	decode(t, rec, &left)
	if len(left) != 0 {
		t.Fatalf("orders left = %d, want 0", len(left))
	}
}

func TestInvalidTokenRejected(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/api/orders", "", "not-a-session")
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestAdminPanel(t *testing.T) {
	e := newTestEnv(t)
	c := e.seedClient(t, "12345678", "Empresa Panel")
	e.seedOrder(t, c.ID, "Karen")

	rec := e.do(t, http.MethodGet, "/admin/orders", "", "")
	expectStatus(t, rec, http.StatusSeeOther)
	if loc := rec.Header().Get("Location"); loc != "/admin/login" {
		t.Fatalf("redirect to %q, want /admin/login", loc)
	}

	rec = e.do(t, http.MethodGet, "/admin/login", "", "")
	expectStatus(t, rec, http.StatusOK)

	form := url.Values{"usuario": {"Yovani"}, "contrasena": {"mal"}}
	rec = postForm(e, "/admin/login", form)
	expectStatus(t, rec, http.StatusUnauthorized)

	form.Set("contrasena", "admin-pass")
	rec = postForm(e, "/admin/login", form)
	expectStatus(t, rec, http.StatusSeeOther)
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 || cookies[0].Name != "session" || !cookies[0].HttpOnly {
		t.Fatalf("expected HttpOnly session cookie, got %+v", cookies)
	}

	for _, path := range []string{"/admin/orders", "/admin/clients?ciudad=lima"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(cookies[0])
		rec = httptest.NewRecorder()
		e.handler.ServeHTTP(rec, req)
		expectStatus(t, rec, http.StatusOK)
		if !strings.Contains(rec.Body.String(), "Empresa Panel") {
			t.Fatalf("%s: page does not list the seeded client", path)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/clients?desde=ayer", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodGet, "/health", "", "")

	rec := e.do(t, http.MethodGet, "/metrics", "", "")
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "backoffice_http_requests_total") {
		t.Fatalf("request counter missing from /metrics")
	}
}

func postForm(e *testEnv, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
