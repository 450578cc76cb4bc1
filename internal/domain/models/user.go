package models

import "time"

// User представляет участника чата, у которого есть кошелёк с монетами
type User struct {
	ID        string    `json:"id"`         // идентификатор пользователя на платформе чата
	Balance   int64     `json:"balance"`    // текущий баланс, никогда не бывает отрицательным
	Disabled  bool      `json:"disabled"`   // отключённый пользователь не может получать и тратить монеты
	CreatedAt time.Time `json:"created_at"` // момент ленивого создания записи
}
