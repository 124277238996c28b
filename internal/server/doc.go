// Package server provides the gateway's HTTP surface and shared context.
//
// ServerContext carries the token service and lazily built, per-user Google
// API clients. Authenticator validates the gateway's HS256 bearer tokens
// and puts the user id on the request context. ConnectHandler serves the
// OAuth connect flow that mints credentials for the Google-family
// providers. HealthChecker and MetricsServer expose the operational
// endpoints, with metrics isolated on their own port.
package server
