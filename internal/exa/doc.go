// Package exa is a minimal client for the Exa web-search API.
package exa
