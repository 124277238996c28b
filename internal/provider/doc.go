// Package provider implements per-provider OAuth token refresh behind a
// uniform interface.
//
// Providers form a closed set registered in a Registry at startup. The
// Google-family provider is the only one with live refresh mechanics; the
// static providers cover integrations whose tokens never expire.
package provider
