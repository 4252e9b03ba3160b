package kafka

import "time"

// Message is the transport-neutral shape producers accept. Key selects
// the partition; booking events key on professional id so one
// professional's events stay ordered.
type Message struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}
