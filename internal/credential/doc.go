// Package credential defines the stored OAuth credential model and the
// persistence layer for it.
//
// Each user/provider pair owns exactly one credential row. The Store
// implementations encrypt token material on every write and decrypt on every
// read, so ciphertext is the only form that reaches storage.
package credential
