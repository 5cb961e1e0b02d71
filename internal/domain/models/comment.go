package models

import "time"

// Comment - отзыв пользователя о товаре
type Comment struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"` // заполняется через JOIN с таблицей users
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"date"`
}

// OwnedBy сообщает, является ли пользователь автором отзыва
func (c *Comment) OwnedBy(userID int64) bool {
	return c.UserID == userID
}
