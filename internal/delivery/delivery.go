// Package delivery defines the common contract implemented by every inbound
// adapter: HTTP servers, the queue push worker, and the file watcher.
package delivery

import "context"

// Delivery is a long-running inbound adapter. Serve blocks until the adapter
// stops; shutdown happens through the lifecycle hooks registered at build
// time.
type Delivery interface {
	Serve(ctx context.Context) error
}
