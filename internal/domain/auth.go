package domain

// Permission names a fine-grained capability in "resource:action" form.
type Permission string

const (
	PermUsersCreate     Permission = "users:create"
	PermUsersRead       Permission = "users:read"
	PermUsersUpdate     Permission = "users:update"
	PermUsersDelete     Permission = "users:delete"
	PermOrdersRead      Permission = "orders:read"
	PermOrdersUpdate    Permission = "orders:update"
	PermMerchantsRead   Permission = "merchants:read"
	PermMerchantsUpdate Permission = "merchants:update"
	PermDriversRead     Permission = "drivers:read"
	PermDriversUpdate   Permission = "drivers:update"
	PermCustomersRead   Permission = "customers:read"
	PermAnalyticsRead   Permission = "analytics:read"
	PermSettingsRead    Permission = "settings:read"
	PermSettingsUpdate  Permission = "settings:update"
)

// Authentication providers stamped on an identity.
const (
	ProviderLocal   = "local"
	ProviderCognito = "cognito"
)
