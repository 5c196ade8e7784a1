// Package types defines the record types, query filters, aggregate result
// shapes, configuration, and standard errors for the statsdb storage engine.
package types
