package models

// Leaderboard - одна страница рейтинга по балансу
type Leaderboard struct {
	Users      []User `json:"users"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	Total      int64  `json:"total"`      // количество пользователей в рейтинге (не отключённых)
	TotalCoins int64  `json:"totalCoins"` // сумма балансов не отключённых пользователей
}

// Pages возвращает общее количество страниц рейтинга
func (l *Leaderboard) Pages() int {
	if l.PageSize <= 0 || l.Total == 0 {
		return 1
	}
	return int((l.Total + int64(l.PageSize) - 1) / int64(l.PageSize))
}
