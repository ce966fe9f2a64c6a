package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/vendorbill/backend/internal/interfaces/http/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterRegister(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("test", "/test")
	r.Register(group)

	assert.Len(t, r.registrars, 1)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.Register(group)
	r.Setup()

	req := httptest.NewRequest("GET", "/api/v1/test/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("receivables", "/receivables")
		assert.Equal(t, "receivables", g.Name())
		assert.Equal(t, "/receivables", g.Prefix())
	})

	t.Run("registers GET route", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.GET("/items", func(c *gin.Context) {
			c.String(http.StatusOK, "items")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("GET", "/api/v1/test/items", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("registers POST route", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.POST("/items", func(c *gin.Context) {
			c.String(http.StatusCreated, "created")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("POST", "/api/v1/test/items", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("registers PUT route", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.PUT("/items/:id", func(c *gin.Context) {
			c.String(http.StatusOK, "updated")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("PUT", "/api/v1/test/items/123", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("only registered methods are routed", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.PUT("/items/:id", func(c *gin.Context) {
			c.String(http.StatusOK, "updated")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("PATCH", "/api/v1/test/items/123", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("registers DELETE route", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.DELETE("/items/:id", func(c *gin.Context) {
			c.String(http.StatusNoContent, "")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("DELETE", "/api/v1/test/items/123", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("applies middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")

		g.Use(func(c *gin.Context) {
			c.Header("X-Test-Middleware", "applied")
			c.Next()
		})

		g.GET("/items", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("GET", "/api/v1/test/items", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, "applied", w.Header().Get("X-Test-Middleware"))
	})
}

func TestMultipleDomainGroups(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	receivables := NewDomainGroup("receivables", "/receivables")
	receivables.GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "receivables")
	})

	payments := NewDomainGroup("payments", "/payments")
	payments.GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "payments")
	})

	r.Register(receivables).Register(payments)
	r.Setup()

	req1 := httptest.NewRequest("GET", "/api/v1/receivables", nil)
	w1 := httptest.NewRecorder()
	engine.ServeHTTP(w1, req1)
	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, "receivables", w1.Body.String())

	req2 := httptest.NewRequest("GET", "/api/v1/payments", nil)
	w2 := httptest.NewRecorder()
	engine.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, "payments", w2.Body.String())
}

func TestChainedMethodCalls(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	g := NewDomainGroup("test", "/test")
	g.GET("/a", func(c *gin.Context) { c.String(http.StatusOK, "a") }).
		POST("/b", func(c *gin.Context) { c.String(http.StatusOK, "b") }).
		PUT("/c", func(c *gin.Context) { c.String(http.StatusOK, "c") })

	r.Register(g).Setup()

	tests := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/test/a"},
		{"POST", "/api/v1/test/b"},
		{"PUT", "/api/v1/test/c"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "Route %s %s should work", tt.method, tt.path)
	}
}

func TestRouterUse(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine).Use(func(c *gin.Context) {
		c.Header("X-Vendor-Scope", "checked")
		c.Next()
	})

	g := NewDomainGroup("payments", "/payments")
	g.GET("", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.Register(g).Setup()
	engine.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/payments", nil))
	assert.Equal(t, "checked", w.Header().Get("X-Vendor-Scope"))

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Empty(t, w.Header().Get("X-Vendor-Scope"), "routes outside the API group skip API middleware")
}

func TestRouterAPIPath(t *testing.T) {
	assert.Equal(t, "/api/v1/vendors", NewRouter(gin.New()).APIPath("/vendors"))
	assert.Equal(t, "/api/v2/vendors", NewRouter(gin.New(), WithAPIVersion("v2")).APIPath("/vendors"))
}

func TestRegisterBilling(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	RegisterBilling(r, Handlers{
		Vendor:       &handler.VendorHandler{},
		Customer:     &handler.CustomerHandler{},
		Ledger:       &handler.LedgerHandler{},
		Settings:     &handler.SettingsHandler{},
		Receivable:   &handler.ReceivableHandler{},
		Payment:      &handler.PaymentHandler{},
		Notification: &handler.NotificationHandler{},
		Outbox:       &handler.OutboxHandler{},
	}).Setup()

	registered := make(map[string]bool)
	for _, route := range engine.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	expected := []string{
		"POST /api/v1/vendors",
		"GET /api/v1/vendors/me",
		"POST /api/v1/customers",
		"GET /api/v1/customers",
		"GET /api/v1/customers/:id",
		"GET /api/v1/customers/:id/outstanding",
		"GET /api/v1/customers/:id/pending-receivables",
		"GET /api/v1/customers/:id/ledger",
		"GET /api/v1/settings/invoice",
		"PUT /api/v1/settings/invoice",
		"GET /api/v1/settings/invoice/next-number",
		"GET /api/v1/settings/invoice/check-number",
		"POST /api/v1/receivables",
		"GET /api/v1/receivables",
		"GET /api/v1/receivables/pending-total",
		"GET /api/v1/receivables/:id",
		"DELETE /api/v1/receivables/:id",
		"POST /api/v1/receivables/:id/mark-paid",
		"POST /api/v1/payments",
		"GET /api/v1/payments",
		"GET /api/v1/payments/stats",
		"POST /api/v1/payments/suggest-allocation",
		"GET /api/v1/payments/:id",
		"GET /api/v1/notifications",
		"GET /api/v1/notifications/unread-count",
		"PUT /api/v1/notifications/read-all",
		"PUT /api/v1/notifications/:id/read",
		"GET /api/v1/events/stats",
		"GET /api/v1/events/dead",
		"POST /api/v1/events/dead/retry-all",
		"POST /api/v1/events/dead/:id/retry",
	}
	for _, route := range expected {
		assert.True(t, registered[route], "missing route %s", route)
	}
	assert.Len(t, engine.Routes(), len(expected))
}
