package service

import "github.com/linemk/pizza-coin/internal/domain/models"

// RequireAdmin пропускает только администраторов из свежепрочитанного конфига
func RequireAdmin(actorID string, cfg *models.Config) error {
	if cfg == nil || !cfg.IsAdmin(actorID) {
		return ErrUnauthorized
	}
	return nil
}
