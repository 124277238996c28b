// Package crypto provides authenticated encryption for OAuth token material
// stored at rest.
//
// A single process-wide AES-256 key is loaded at startup from configuration
// and never changes during process lifetime. All credential writes encrypt
// through this package and all reads decrypt through it; plaintext tokens
// exist only transiently in memory.
package crypto
