package models

import "slices"

// Config - единственная строка настроек бота
type Config struct {
	CoinsPerMessage int64    `json:"coins_per_message"`
	AdminIDs        []string `json:"admin_ids"`
}

// IsAdmin проверяет, входит ли id в список администраторов
func (c *Config) IsAdmin(id string) bool {
	return slices.Contains(c.AdminIDs, id)
}
