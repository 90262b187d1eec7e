package domain

import "time"

// Category labels transaction splits. Categories may form a hierarchy
// via ParentID; they carry no balance of their own.
type Category struct {
	ID        string
	Name      string
	ParentID  *string
	CreatedAt time.Time
}
