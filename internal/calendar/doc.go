// Package calendar provides a Google Calendar client scoped to one user.
// Clients authenticate through an oauth2.TokenSource backed by the token
// service, so expired access tokens are refreshed before every API call.
package calendar
