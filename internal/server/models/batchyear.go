package models

import "time"

type BatchYear struct {
	ID        string
	Year      int
	CreatedAt time.Time
}
