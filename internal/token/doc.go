// Package token orchestrates the OAuth credential lifecycle: it hands out
// decrypted access tokens that are guaranteed fresh, refreshing them just in
// time against the provider's token endpoint and persisting the result.
//
// The Service is the only path tool handlers take to a token. The Sweeper
// runs the same refresh cycle proactively in the background so interactive
// requests rarely block on a provider round trip.
package token
