package router

import "github.com/vendorbill/backend/internal/interfaces/http/handler"

// PublicPaths are the API routes served without a vendor
var PublicPaths = []string{"/vendors"}

// Handlers are the HTTP handlers mounted under the versioned API
type Handlers struct {
	Vendor       *handler.VendorHandler
	Customer     *handler.CustomerHandler
	Ledger       *handler.LedgerHandler
	Settings     *handler.SettingsHandler
	Receivable   *handler.ReceivableHandler
	Payment      *handler.PaymentHandler
	Notification *handler.NotificationHandler
	Outbox       *handler.OutboxHandler
}

// RegisterBilling registers the billing domain groups
func RegisterBilling(r *Router, h Handlers) *Router {
	vendors := NewDomainGroup("vendors", "/vendors")
	vendors.POST("", h.Vendor.Create)
	vendors.GET("/me", h.Vendor.Me)

	customers := NewDomainGroup("customers", "/customers")
	customers.POST("", h.Customer.Create)
	customers.GET("", h.Customer.List)
	customers.GET("/:id", h.Customer.GetByID)
	customers.GET("/:id/outstanding", h.Ledger.Outstanding)
	customers.GET("/:id/pending-receivables", h.Ledger.PendingReceivables)
	customers.GET("/:id/ledger", h.Ledger.Summary)

	settings := NewDomainGroup("settings", "/settings")
	settings.GET("/invoice", h.Settings.GetInvoiceSettings)
	settings.PUT("/invoice", h.Settings.UpdateInvoiceSettings)
	settings.GET("/invoice/next-number", h.Settings.NextNumber)
	settings.GET("/invoice/check-number", h.Settings.CheckNumber)

	receivables := NewDomainGroup("receivables", "/receivables")
	receivables.POST("", h.Receivable.Create)
	receivables.GET("", h.Receivable.List)
	receivables.GET("/pending-total", h.Receivable.PendingTotal)
	receivables.GET("/:id", h.Receivable.GetByID)
	receivables.DELETE("/:id", h.Receivable.Delete)
	receivables.POST("/:id/mark-paid", h.Receivable.MarkPaid)

	payments := NewDomainGroup("payments", "/payments")
	payments.POST("", h.Payment.Apply)
	payments.GET("", h.Payment.List)
	payments.GET("/stats", h.Payment.Stats)
	payments.POST("/suggest-allocation", h.Payment.SuggestAllocation)
	payments.GET("/:id", h.Payment.GetByID)

	notifications := NewDomainGroup("notifications", "/notifications")
	notifications.GET("", h.Notification.List)
	notifications.GET("/unread-count", h.Notification.UnreadCount)
	notifications.PUT("/read-all", h.Notification.MarkAllRead)
	notifications.PUT("/:id/read", h.Notification.MarkRead)

	events := NewDomainGroup("events", "/events")
	events.GET("/stats", h.Outbox.GetStats)
	events.GET("/dead", h.Outbox.GetDeadLetterEntries)
	events.POST("/dead/retry-all", h.Outbox.RetryAllDeadEntries)
	events.POST("/dead/:id/retry", h.Outbox.RetryDeadEntry)

	return r.Register(vendors).
		Register(customers).
		Register(settings).
		Register(receivables).
		Register(payments).
		Register(notifications).
		Register(events)
}
