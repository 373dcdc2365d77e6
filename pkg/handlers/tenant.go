package handlers

import "net/http"

// TenantMiddleware is a function that wraps a handler with a firm-scoped
// database connection. database.WithTenantContext is the production one.
type TenantMiddleware func(http.HandlerFunc) http.HandlerFunc
