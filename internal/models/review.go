package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Review struct {
	ID        gocql.UUID `json:"id"`
	UserID    gocql.UUID `json:"user"`
	UserName  string     `json:"userName,omitempty"`
	ProductID gocql.UUID `json:"product"`
	Rating    int        `json:"rating"` // 1-5
	Title     string     `json:"title"`
	Comment   string     `json:"comment"`
	CreatedAt time.Time  `json:"createdAt"`
}
