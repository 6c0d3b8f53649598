package models

import "time"

// ChatSession is a named conversation thread owned by one user.
// Seq is assigned by the store and reflects creation order.
type ChatSession struct {
	ID        string
	UserID    string
	Name      string
	Seq       int64
	CreatedAt time.Time
}
