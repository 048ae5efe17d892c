// Package store defines the persistence interfaces consumed by the service
// and worker layers, together with the common error values those interfaces
// return. Concrete implementations live under internal/platform; callers
// depend only on the interfaces here.
package store
