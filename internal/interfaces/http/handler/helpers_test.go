package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	billingapp "github.com/vendorbill/backend/internal/application/billing"
	eventapp "github.com/vendorbill/backend/internal/application/event"
	"github.com/vendorbill/backend/internal/infrastructure/cache"
	"github.com/vendorbill/backend/internal/infrastructure/event"
	"github.com/vendorbill/backend/internal/infrastructure/persistence"
	"github.com/vendorbill/backend/internal/infrastructure/persistence/models"
	"github.com/vendorbill/backend/internal/interfaces/http/dto"
	"github.com/vendorbill/backend/internal/interfaces/http/handler"
	"github.com/vendorbill/backend/internal/interfaces/http/middleware"
	"github.com/vendorbill/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	engine        *gin.Engine
	db            *gorm.DB
	notifications *persistence.GormNotificationRepository
}

// envelope mirrors dto.Response with a typed data payload
type envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
	Meta    *dto.Meta      `json:"meta"`
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	vendorRepo := persistence.NewGormVendorRepository(db)
	customerRepo := persistence.NewGormCustomerRepository(db)
	receivableRepo := persistence.NewGormReceivableRepository(db)
	sequenceRepo := persistence.NewGormSequenceRepository(db)
	paymentRepo := persistence.NewGormPaymentRepository(db)
	notificationRepo := persistence.NewGormNotificationRepository(db)
	outboxRepo := event.NewGormOutboxRepository(db)

	txScope := persistence.NewGormTransactionScope(db, event.NewOutboxPublisher(event.NewBillingEventSerializer()))

	idempotency := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = idempotency.Close() })

	paymentService := billingapp.NewPaymentService(paymentRepo, receivableRepo, customerRepo, txScope,
		billingapp.WithIdempotencyStore(idempotency))
	receivableService := billingapp.NewReceivableService(receivableRepo, txScope, paymentService)
	sequenceService := billingapp.NewSequenceService(vendorRepo, sequenceRepo, txScope)
	ledgerService := billingapp.NewLedgerService(customerRepo, receivableRepo, txScope)

	middleware.SetupValidator()
	engine := gin.New()
	engine.Use(middleware.RequestID())

	health := handler.NewHealthHandler(sqlDB, "test")
	engine.GET("/health", health.Health)

	r := router.NewRouter(engine)
	r.Use(middleware.VendorAuth(middleware.VendorAuthConfig{
		SkipPaths: []string{r.APIPath("/vendors")},
		Logger:    zap.NewNop(),
	}))
	router.RegisterBilling(r, router.Handlers{
		Vendor:       handler.NewVendorHandler(billingapp.NewVendorService(vendorRepo), nil),
		Customer:     handler.NewCustomerHandler(billingapp.NewCustomerService(vendorRepo, customerRepo)),
		Ledger:       handler.NewLedgerHandler(ledgerService, paymentService),
		Settings:     handler.NewSettingsHandler(sequenceService),
		Receivable:   handler.NewReceivableHandler(receivableService),
		Payment:      handler.NewPaymentHandler(paymentService),
		Notification: handler.NewNotificationHandler(billingapp.NewNotificationService(notificationRepo)),
		Outbox:       handler.NewOutboxHandler(eventapp.NewOutboxService(outboxRepo, zap.NewNop())),
	}).Setup()

	return &testAPI{engine: engine, db: db, notifications: notificationRepo}
}

// do sends a request as the given vendor. A nil vendor sends no vendor header.
func (a *testAPI) do(t *testing.T, method, path string, vendorID *uuid.UUID, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if vendorID != nil {
		req.Header.Set(middleware.VendorIDHeader, vendorID.String())
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func requireErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	env := decode[json.RawMessage](t, w)
	require.False(t, env.Success)
	require.NotNil(t, env.Error)
	require.Equal(t, code, env.Error.Code)
}

func (a *testAPI) createVendor(t *testing.T) uuid.UUID {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/vendors", nil, map[string]any{
		"name":  gofakeit.Company(),
		"phone": "9800000000",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	env := decode[handler.VendorRegistrationResponse](t, w)
	require.NotNil(t, env.Data.Vendor)
	return env.Data.Vendor.ID
}

func (a *testAPI) createCustomer(t *testing.T, vendorID uuid.UUID) uuid.UUID {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/customers", &vendorID, map[string]any{
		"name":    gofakeit.Name(),
		"phone":   gofakeit.Phone(),
		"address": gofakeit.Street(),
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[billingapp.CustomerResponse](t, w).Data.ID
}

func (a *testAPI) createReceivable(t *testing.T, vendorID, customerID uuid.UUID, total string) billingapp.ReceivableResponse {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/receivables", &vendorID, map[string]any{
		"customer_id":  customerID,
		"total_amount": total,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[billingapp.ReceivableResponse](t, w).Data
}
