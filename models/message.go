package models

import "time"

// Message is one immutable entry of a friendship thread. The same value is
// stored on both sides of the edge.
type Message struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Body      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Equal compares every field, using time equality for the timestamp.
func (m Message) Equal(o Message) bool {
	return m.ID == o.ID && m.From == o.From && m.To == o.To &&
		m.Body == o.Body && m.Timestamp.Equal(o.Timestamp)
}
