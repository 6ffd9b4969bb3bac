// Package domain contains the core business entities and rules for Scholia.
// It has no dependencies on adapters or infrastructure.
package domain
