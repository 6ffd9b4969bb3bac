// Package driving provides interfaces consumed by external actors (primary/inbound ports).
package driving
