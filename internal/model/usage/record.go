package usage

import "time"

// Record tracks how many messages a non-entitled caller has sent in
// the current quota window. Created lazily on the caller's first
// message; the window restarts once it elapses.
type Record struct {
	CallerID    string    `json:"callerId"`
	Count       int       `json:"count"`
	WindowStart time.Time `json:"windowStart"`
}
