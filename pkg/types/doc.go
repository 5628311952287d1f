// Package types defines the library entities (books, loans, borrow requests,
// users, sessions), the Store capability interface that persists them as
// whole collections, configuration, and the standard error values shared by
// every stacks package.
package types
