// Package utils provides general-purpose helper utilities
// used across different parts of the engine.
// Includes tools for working with context, type-safe keys, canonical JSON
// comparison, HTTP client initialization, bearer-token parsing,
// and other common operations.
package utils

import (
	"context"
)

// contextKey is a private type for context keys.
// Using a dedicated type instead of a plain string prevents key collisions
// with other packages that may use string-based keys in the context.
type contextKey string

// String returns the string representation of the context key.
// Implements the fmt.Stringer interface.
func (c contextKey) String() string {
	return string(c)
}

// SubjectCtxKey is the key used to store the sync subject in the context.
// Used together with GetSubjectFromContext for type-safe retrieval of the
// subject identifier from context.Context.
//
// Example of writing a value to the context:
//
//	ctx := context.WithValue(ctx, utils.SubjectCtxKey, "u1")
var SubjectCtxKey = contextKey("syncSubject")

// GetSubjectFromContext retrieves the sync subject from the context.
//
// Returns the subject identifier and an ok flag:
//   - ok == true  — value is found and has the correct string type
//   - ok == false — value is missing or has an unexpected type
func GetSubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(SubjectCtxKey).(string)
	return subject, ok
}
