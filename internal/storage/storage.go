package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/linemk/pizza-coin/internal/domain/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrConfigMissing = errors.New("config row is missing")
)

// Repository описывает доступ к данным леджера: пользователи, настройки и журналы.
// Каждый метод - один запрос к БД, бизнес-логики здесь нет.
type Repository interface {
	// GetUser возвращает пользователя или ErrUserNotFound.
	// Внутри транзакции строка пользователя блокируется до конца транзакции.
	GetUser(ctx context.Context, id string) (*models.User, error)
	// CreateUser создаёт пользователя с нулевым балансом, повторный вызов ничего не делает.
	CreateUser(ctx context.Context, id string) error
	SetUserBalance(ctx context.Context, id string, balance int64) error
	SetUserDisabled(ctx context.Context, id string, disabled bool) error
	// ResetAllBalances обнуляет все ненулевые балансы и возвращает количество изменённых строк.
	ResetAllBalances(ctx context.Context) (int64, error)

	AppendTransaction(ctx context.Context, rec *models.TransactionRecord) error
	AppendConfiscation(ctx context.Context, rec *models.ConfiscationRecord) error

	// GetConfig возвращает ErrConfigMissing, если строки настроек нет.
	GetConfig(ctx context.Context) (*models.Config, error)
	SetCoinsPerMessage(ctx context.Context, amount int64) error

	GetLeaderboard(ctx context.Context, page, pageSize int) (*models.Leaderboard, error)
}

// Store - репозиторий, который умеет выполнять группу операций в одной транзакции.
type Store interface {
	Repository
	// WithTx выполняет fn внутри транзакции: коммит, если fn вернула nil, иначе откат.
	WithTx(ctx context.Context, fn func(repo Repository) error) error
}

// querier - общее подмножество *sql.DB и *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// repository - реализация Repository поверх PostgreSQL
type repository struct {
	q    querier
	inTx bool
}

// PostgresStore - реализация Store поверх *sql.DB
type PostgresStore struct {
	repository
	db *sql.DB
}

// NewPostgresStore создаёт хранилище леджера.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		repository: repository{q: db},
		db:         db,
	}
}

var _ Store = (*PostgresStore)(nil)
