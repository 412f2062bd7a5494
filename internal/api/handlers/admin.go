package handlers

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"courier-backoffice-service/internal/domain"
	"courier-backoffice-service/internal/services"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

var adminTemplates = template.Must(template.New("admin").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date":  func(t time.Time) string { return t.Format("2006-01-02") },
}).ParseFS(templateFS, "templates/*.html"))

const (
	adminLoginPath = "/admin/login"
	adminHomePath  = "/admin/orders"
)

// AdminHandler serves the server-rendered back-office panel. It shares the
// session store with the JSON API; the token travels in a cookie.
type AdminHandler struct {
	Auth    *services.Authenticator
	Clients *services.ClientRegistry
	Orders  *services.OrderLedger
}

type loginPage struct {
	Username string
	Error    string
}

type clientsPage struct {
	User    domain.Principal
	Clients []*domain.Client
	Query   map[string]string
	Error   string
}

type ordersPage struct {
	User            domain.Principal
	Orders          []*domain.Order
	Summary         domain.OrderSummary
	Statuses        []domain.OrderStatus
	PaymentStatuses []domain.PaymentStatus
	ShowAmounts     bool
	Query           map[string]string
	Error           string
}

func (h *AdminHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := adminTemplates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "render failed", "template", name, "err", err)
	}
}

func (h *AdminHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if _, err := h.session(r); err == nil {
		http.Redirect(w, r, adminHomePath, http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "login.html", loginPage{})
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "login.html", loginPage{Error: "Formulario inválido"})
		return
	}
	username := r.PostForm.Get("usuario")

	s, err := h.Auth.Login(r.Context(), username, r.PostForm.Get("contrasena"))
	if errors.Is(err, domain.ErrUnauthorized) {
		h.render(w, r, http.StatusUnauthorized, "login.html", loginPage{Username: username, Error: "Credenciales inválidas"})
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "admin login failed", "err", err)
		h.render(w, r, http.StatusInternalServerError, "login.html", loginPage{Username: username, Error: "Error interno"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, adminHomePath, http.StatusSeeOther)
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if err := h.Auth.Logout(r.Context(), c.Value); err != nil {
			slog.ErrorContext(r.Context(), "admin logout failed", "err", err)
		}
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	http.Redirect(w, r, adminLoginPath, http.StatusSeeOther)
}

func (h *AdminHandler) session(r *http.Request) (domain.Session, error) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return domain.Session{}, domain.ErrUnauthorized
	}
	return h.Auth.Resolve(r.Context(), c.Value)
}

// RequireSession sends anonymous or expired visitors to the login form.
func (h *AdminHandler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := h.session(r)
		if err != nil {
			if !errors.Is(err, domain.ErrUnauthorized) {
				slog.ErrorContext(r.Context(), "resolve admin session", "err", err)
			}
			http.Redirect(w, r, adminLoginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

func (h *AdminHandler) ClientsPage(w http.ResponseWriter, r *http.Request) {
	s, _ := SessionFrom(r.Context())
	q := r.URL.Query()
	page := clientsPage{
		User:  s.Principal,
		Query: formValues(q, "q", "ciudad", "desde", "hasta"),
	}

	f, err := parseClientFilter(q)
	if err != nil {
		page.Error = err.Error()
		h.render(w, r, http.StatusBadRequest, "clients.html", page)
		return
	}

	page.Clients, err = h.Clients.List(r.Context(), f)
	if err != nil {
		slog.ErrorContext(r.Context(), "admin list clients", "err", err)
		page.Error = "No se pudo cargar la lista de clientes"
		h.render(w, r, http.StatusInternalServerError, "clients.html", page)
		return
	}

	h.render(w, r, http.StatusOK, "clients.html", page)
}

func (h *AdminHandler) OrdersPage(w http.ResponseWriter, r *http.Request) {
	s, ok := SessionFrom(r.Context())
	q := r.URL.Query()
	page := ordersPage{
		User:            s.Principal,
		Statuses:        domain.OrderStatuses(),
		PaymentStatuses: domain.PaymentStatuses(),
		ShowAmounts:     s.HasPermission(domain.PermOrdersViewAmounts),
		Query:           formValues(q, "q", "estado", "estado_pago", "forma_pago", "facturado"),
	}

	f, err := parseOrderFilter(q)
	if err != nil {
		page.Error = err.Error()
		h.render(w, r, http.StatusBadRequest, "orders.html", page)
		return
	}
	f = scopeOrders(f, s, ok)

	page.Orders, err = h.Orders.List(r.Context(), f)
	if err != nil {
		slog.ErrorContext(r.Context(), "admin list orders", "err", err)
		page.Error = "No se pudo cargar la lista de órdenes"
		h.render(w, r, http.StatusInternalServerError, "orders.html", page)
		return
	}
	page.Summary = domain.Summarize(page.Orders)

	h.render(w, r, http.StatusOK, "orders.html", page)
}

func formValues(v map[string][]string, keys ...string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if vals := v[k]; len(vals) > 0 {
			out[k] = vals[0]
		}
	}
	return out
}
