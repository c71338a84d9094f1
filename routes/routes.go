package routes

// Package routes wires every HTTP route of the Unit Selector Service.
//
// Layout:
// - api.go: API routes (/api/v1/*), health probes, middleware
// - web.go: Web routes (/, /docs, /status)
//
// Usage:
// routes.SetupAllRoutes(router, selectorController, adminController)
