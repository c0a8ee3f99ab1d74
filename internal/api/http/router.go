package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/api/http/handlers"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/auth"
	"github.com/ghaythalijarad/entralized-delivery-platform/internal/domain"
)

// RouteConfig bundles dependencies for route registration. Users is set in
// local mode and ProviderAdmin in provider mode.
type RouteConfig struct {
	Gate          *auth.Gate
	Health        *handlers.HealthHandler
	Auth          *handlers.AuthHandler
	Users         *handlers.UsersHandler
	ProviderAdmin *handlers.ProviderAdminHandler
	Delivery      *handlers.DeliveryHandler
	Metrics       nethttp.Handler
	LoginLimiter  fiber.Handler
}

// Route is one row of the route table. Public routes skip the auth gate;
// the zero Policy admits any authenticated, active caller.
type Route struct {
	Method     string
	Path       string
	Public     bool
	Policy     auth.Policy
	Middleware []fiber.Handler
	Handler    fiber.Handler
}

var adminOnly = auth.RequireRoles(auth.AdminOnly...)

// Routes builds the route table for the configured handlers.
func Routes(cfg RouteConfig) []Route {
	var routes []Route

	if cfg.Health != nil {
		routes = append(routes,
			Route{Method: fiber.MethodGet, Path: "/health/live", Public: true, Handler: cfg.Health.Live},
			Route{Method: fiber.MethodGet, Path: "/health/ready", Public: true, Handler: cfg.Health.Ready},
		)
	}
	if cfg.Metrics != nil {
		routes = append(routes, Route{Method: fiber.MethodGet, Path: "/metrics", Public: true, Handler: adaptor.HTTPHandler(cfg.Metrics)})
	}

	if h := cfg.Auth; h != nil {
		var throttle []fiber.Handler
		if cfg.LoginLimiter != nil {
			throttle = []fiber.Handler{cfg.LoginLimiter}
		}
		routes = append(routes,
			Route{Method: fiber.MethodPost, Path: "/api/auth/login", Public: true, Middleware: throttle, Handler: h.Login},
			Route{Method: fiber.MethodPost, Path: "/api/auth/refresh", Public: true, Middleware: throttle, Handler: h.Refresh},
			Route{Method: fiber.MethodPost, Path: "/api/auth/logout", Policy: auth.Authenticated, Handler: h.Logout},
			Route{Method: fiber.MethodGet, Path: "/api/auth/me", Policy: auth.Authenticated, Handler: h.Me},
		)
		if h.SupportsPasswordChange() {
			routes = append(routes, Route{Method: fiber.MethodPost, Path: "/api/auth/password/change", Policy: auth.Authenticated, Handler: h.ChangePassword})
		}
	}

	if h := cfg.Users; h != nil {
		routes = append(routes,
			Route{Method: fiber.MethodGet, Path: "/api/users", Policy: auth.RequirePermission(domain.PermUsersRead), Handler: h.List},
			Route{Method: fiber.MethodPost, Path: "/api/users", Policy: auth.RequirePermission(domain.PermUsersCreate), Handler: h.Create},
			Route{Method: fiber.MethodGet, Path: "/api/users/:id", Policy: auth.RequirePermission(domain.PermUsersRead), Handler: h.Get},
			Route{Method: fiber.MethodPatch, Path: "/api/users/:id", Policy: auth.RequirePermission(domain.PermUsersUpdate), Handler: h.Update},
			Route{Method: fiber.MethodDelete, Path: "/api/users/:id", Policy: auth.RequirePermission(domain.PermUsersDelete), Handler: h.Delete},
		)
	}

	if h := cfg.ProviderAdmin; h != nil {
		const base = "/api/admin/cognito/users"
		routes = append(routes,
			Route{Method: fiber.MethodGet, Path: base, Policy: adminOnly, Handler: h.ListUsers},
			Route{Method: fiber.MethodPost, Path: base, Policy: adminOnly, Handler: h.CreateUser},
			Route{Method: fiber.MethodDelete, Path: base + "/:username", Policy: adminOnly, Handler: h.DeleteUser},
			Route{Method: fiber.MethodPost, Path: base + "/:username/enable", Policy: adminOnly, Handler: h.EnableUser},
			Route{Method: fiber.MethodPost, Path: base + "/:username/disable", Policy: adminOnly, Handler: h.DisableUser},
			Route{Method: fiber.MethodPost, Path: base + "/:username/password", Policy: adminOnly, Handler: h.SetPassword},
			Route{Method: fiber.MethodGet, Path: base + "/:username/groups", Policy: adminOnly, Handler: h.ListGroups},
			Route{Method: fiber.MethodPost, Path: base + "/:username/groups/:group", Policy: adminOnly, Handler: h.AddToGroup},
			Route{Method: fiber.MethodDelete, Path: base + "/:username/groups/:group", Policy: adminOnly, Handler: h.RemoveFromGroup},
		)
	}

	if h := cfg.Delivery; h != nil {
		routes = append(routes,
			Route{Method: fiber.MethodGet, Path: "/api/merchants", Policy: auth.RequirePermission(domain.PermMerchantsRead), Handler: h.ListMerchants},
			Route{Method: fiber.MethodGet, Path: "/api/merchants/:id", Policy: auth.RequirePermission(domain.PermMerchantsRead), Handler: h.GetMerchant},
			Route{Method: fiber.MethodPatch, Path: "/api/merchants/:id/status", Policy: auth.RequirePermission(domain.PermMerchantsUpdate), Handler: h.UpdateMerchantStatus},
			Route{Method: fiber.MethodGet, Path: "/api/drivers", Policy: auth.RequirePermission(domain.PermDriversRead), Handler: h.ListDrivers},
			Route{Method: fiber.MethodGet, Path: "/api/drivers/:id", Policy: auth.RequirePermission(domain.PermDriversRead), Handler: h.GetDriver},
			Route{Method: fiber.MethodPatch, Path: "/api/drivers/:id/status", Policy: auth.RequirePermission(domain.PermDriversUpdate), Handler: h.UpdateDriverStatus},
			Route{Method: fiber.MethodGet, Path: "/api/customers", Policy: auth.RequirePermission(domain.PermCustomersRead), Handler: h.ListCustomers},
			Route{Method: fiber.MethodGet, Path: "/api/customers/:id", Policy: auth.RequirePermission(domain.PermCustomersRead), Handler: h.GetCustomer},
			Route{Method: fiber.MethodGet, Path: "/api/orders", Policy: auth.RequirePermission(domain.PermOrdersRead), Handler: h.ListOrders},
			Route{Method: fiber.MethodGet, Path: "/api/orders/:id", Policy: auth.RequirePermission(domain.PermOrdersRead), Handler: h.GetOrder},
			Route{Method: fiber.MethodGet, Path: "/api/orders/:id/history", Policy: auth.RequirePermission(domain.PermOrdersRead), Handler: h.OrderHistory},
			Route{Method: fiber.MethodPatch, Path: "/api/orders/:id/status", Policy: auth.RequirePermission(domain.PermOrdersUpdate), Handler: h.UpdateOrderStatus},
		)
	}

	return routes
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	for _, route := range Routes(cfg) {
		chain := make([]fiber.Handler, 0, len(route.Middleware)+2)
		chain = append(chain, route.Middleware...)
		if !route.Public {
			chain = append(chain, cfg.Gate.Require(route.Policy))
		}
		chain = append(chain, route.Handler)
		app.Add(route.Method, route.Path, chain...)
	}
}
