package models

import "time"

// User представляет пользователя магазина
type User struct {
	ID          int64
	Username    string
	PassHash    []byte
	IsSuperuser bool
	CreatedAt   time.Time
}
