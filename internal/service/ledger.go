package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linemk/pizza-coin/internal/domain/models"
	"github.com/linemk/pizza-coin/internal/events"
	"github.com/linemk/pizza-coin/internal/storage"
)

const (
	LeaderboardPageSize       = 10
	DefaultConfiscationReason = "No reason provided"
)

// TransferRequest - перевод монет от одного пользователя другому.
// ReceiverIsBot заполняет платформа чата.
type TransferRequest struct {
	SenderID      string
	ReceiverID    string
	ReceiverIsBot bool
	Amount        int64
}

// Ledger определяет операции с монетами, по одной на каждое действие пользователя.
type Ledger interface {
	Balance(ctx context.Context, userID string) (int64, error)
	CoinsPerMessage(ctx context.Context) (int64, error)
	EarnOnMessage(ctx context.Context, userID string, amount int64) error
	Transfer(ctx context.Context, req TransferRequest) error
	Leaderboard(ctx context.Context, page int) (*models.Leaderboard, error)

	// операции администратора
	SetCoinsPerMessage(ctx context.Context, adminID string, amount int64) error
	DisableUser(ctx context.Context, adminID, targetID string) error
	EnableUser(ctx context.Context, adminID, targetID string) error
	ResetAllBalances(ctx context.Context, adminID string) (int64, error)
	Confiscate(ctx context.Context, adminID, targetID, reason string) (int64, error)
}

type ledgerService struct {
	log    *slog.Logger
	store  storage.Store
	events events.Publisher
	now    func() time.Time
}

func NewLedgerService(log *slog.Logger, store storage.Store, pub events.Publisher) Ledger {
	if pub == nil {
		pub = events.Nop{}
	}
	return &ledgerService{
		log:    log,
		store:  store,
		events: pub,
		now:    time.Now,
	}
}

// ensureUser читает пользователя и создаёт его при первом обращении.
// Вставка идемпотентна, поэтому параллельное создание одного id безопасно.
func ensureUser(ctx context.Context, repo storage.Repository, id string) (*models.User, error) {
	user, err := repo.GetUser(ctx, id)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, err
	}

	if err := repo.CreateUser(ctx, id); err != nil {
		return nil, err
	}

	user, err = repo.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProvisioningFailed, id)
		}
		return nil, err
	}
	return user, nil
}

// authorize читает конфиг заново при каждом вызове, кэша нет
func authorize(ctx context.Context, repo storage.Repository, adminID string) error {
	cfg, err := repo.GetConfig(ctx)
	if err != nil {
		return err
	}
	return RequireAdmin(adminID, cfg)
}

func (s *ledgerService) Balance(ctx context.Context, userID string) (int64, error) {
	const op = "service.Ledger.Balance"

	user, err := ensureUser(ctx, s.store, userID)
	if err != nil {
		return 0, s.fail(s.log.With(slog.String("op", op), slog.String("userID", userID)), op, err)
	}
	return user.Balance, nil
}

func (s *ledgerService) CoinsPerMessage(ctx context.Context) (int64, error) {
	const op = "service.Ledger.CoinsPerMessage"

	cfg, err := s.store.GetConfig(ctx)
	if err != nil {
		return 0, s.fail(s.log.With(slog.String("op", op)), op, err)
	}
	return cfg.CoinsPerMessage, nil
}

// EarnOnMessage начисляет монеты за сообщение. В журнал переводов не пишется.
func (s *ledgerService) EarnOnMessage(ctx context.Context, userID string, amount int64) error {
	const op = "service.Ledger.EarnOnMessage"
	logger := s.log.With(slog.String("op", op), slog.String("userID", userID), slog.Int64("amount", amount))

	err := s.store.WithTx(ctx, func(repo storage.Repository) error {
		user, err := ensureUser(ctx, repo, userID)
		if err != nil {
			return err
		}
		if user.Disabled {
			return &UserDisabledError{UserID: userID}
		}
		if amount < 0 {
			return fmt.Errorf("%w: earn amount must not be negative", ErrInvalidAmount)
		}
		return repo.SetUserBalance(ctx, userID, user.Balance+amount)
	})
	if err != nil {
		return s.fail(logger, op, err)
	}

	logger.Debug("coins earned")
	return nil
}

// Transfer переводит монеты в одной транзакции.
// Порядок записи: списание у отправителя, зачисление получателю, запись в журнал.
// Любая ошибка на этом пути откатывает все три записи.
func (s *ledgerService) Transfer(ctx context.Context, req TransferRequest) error {
	const op = "service.Ledger.Transfer"
	logger := s.log.With(
		slog.String("op", op),
		slog.String("senderID", req.SenderID),
		slog.String("receiverID", req.ReceiverID),
		slog.Int64("amount", req.Amount),
	)
	logger.Info("starting coin transfer")

	// проверки до любых изменений
	if err := ValidateDistinctActors(req.SenderID, req.ReceiverID); err != nil {
		return s.fail(logger, op, err)
	}
	if err := ValidateNotBot(req.ReceiverIsBot); err != nil {
		return s.fail(logger, op, err)
	}
	if err := ValidateAmount(req.Amount); err != nil {
		return s.fail(logger, op, err)
	}

	now := s.now()
	err := s.store.WithTx(ctx, func(repo storage.Repository) error {
		sender, receiver, err := ensurePair(ctx, repo, req.SenderID, req.ReceiverID)
		if err != nil {
			return err
		}

		if sender.Disabled {
			return &UserDisabledError{UserID: sender.ID}
		}
		if receiver.Disabled {
			return &UserDisabledError{UserID: receiver.ID}
		}
		if sender.Balance < req.Amount {
			return &InsufficientFundsError{Required: req.Amount, Current: sender.Balance}
		}

		if err := repo.SetUserBalance(ctx, sender.ID, sender.Balance-req.Amount); err != nil {
			return fmt.Errorf("debit sender: %w", err)
		}
		if err := repo.SetUserBalance(ctx, receiver.ID, receiver.Balance+req.Amount); err != nil {
			return fmt.Errorf("credit receiver: %w", err)
		}

		rec := &models.TransactionRecord{
			ID:         uuid.New(),
			SenderID:   sender.ID,
			ReceiverID: receiver.ID,
			Amount:     req.Amount,
			Timestamp:  now,
		}
		if err := repo.AppendTransaction(ctx, rec); err != nil {
			return fmt.Errorf("record transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.fail(logger, op, err)
	}

	ev := events.New(events.TypeTransfer, req.SenderID, now)
	ev.TargetID = req.ReceiverID
	ev.Amount = req.Amount
	s.publish(ctx, logger, ev)

	logger.Info("coin transfer completed successfully")
	return nil
}

// ensurePair создаёт и блокирует двух пользователей в порядке возрастания id,
// чтобы встречные переводы не блокировали друг друга
func ensurePair(ctx context.Context, repo storage.Repository, senderID, receiverID string) (*models.User, *models.User, error) {
	firstID, secondID := senderID, receiverID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}

	first, err := ensureUser(ctx, repo, firstID)
	if err != nil {
		return nil, nil, err
	}
	second, err := ensureUser(ctx, repo, secondID)
	if err != nil {
		return nil, nil, err
	}

	if first.ID == senderID {
		return first, second, nil
	}
	return second, first, nil
}

func (s *ledgerService) Leaderboard(ctx context.Context, page int) (*models.Leaderboard, error) {
	const op = "service.Ledger.Leaderboard"
	logger := s.log.With(slog.String("op", op), slog.Int("page", page))

	if page < 1 {
		return nil, s.fail(logger, op, ErrInvalidPage)
	}

	board, err := s.store.GetLeaderboard(ctx, page, LeaderboardPageSize)
	if err != nil {
		return nil, s.fail(logger, op, err)
	}
	return board, nil
}

func (s *ledgerService) SetCoinsPerMessage(ctx context.Context, adminID string, amount int64) error {
	const op = "service.Ledger.SetCoinsPerMessage"
	logger := s.log.With(slog.String("op", op), slog.String("adminID", adminID), slog.Int64("amount", amount))

	err := s.store.WithTx(ctx, func(repo storage.Repository) error {
		if err := authorize(ctx, repo, adminID); err != nil {
			return err
		}
		if amount < 0 {
			return fmt.Errorf("%w: coins per message must not be negative", ErrInvalidAmount)
		}
		return repo.SetCoinsPerMessage(ctx, amount)
	})
	if err != nil {
		return s.fail(logger, op, err)
	}

	ev := events.New(events.TypeRateChanged, adminID, s.now())
	ev.Amount = amount
	s.publish(ctx, logger, ev)

	logger.Info("coins per message updated")
	return nil
}

// DisableUser и EnableUser не проверяют self/bot - это делает вызывающая сторона
func (s *ledgerService) DisableUser(ctx context.Context, adminID, targetID string) error {
	return s.setDisabled(ctx, "service.Ledger.DisableUser", adminID, targetID, true)
}

func (s *ledgerService) EnableUser(ctx context.Context, adminID, targetID string) error {
	return s.setDisabled(ctx, "service.Ledger.EnableUser", adminID, targetID, false)
}

func (s *ledgerService) setDisabled(ctx context.Context, op, adminID, targetID string, disabled bool) error {
	logger := s.log.With(slog.String("op", op), slog.String("adminID", adminID), slog.String("targetID", targetID))

	err := s.store.WithTx(ctx, func(repo storage.Repository) error {
		if err := authorize(ctx, repo, adminID); err != nil {
			return err
		}
		if _, err := ensureUser(ctx, repo, targetID); err != nil {
			return err
		}
		return repo.SetUserDisabled(ctx, targetID, disabled)
	})
	if err != nil {
		return s.fail(logger, op, err)
	}

	evType := events.TypeUserEnabled
	if disabled {
		evType = events.TypeUserDisabled
	}
	ev := events.New(evType, adminID, s.now())
	ev.TargetID = targetID
	s.publish(ctx, logger, ev)

	logger.Info("user status changed", slog.Bool("disabled", disabled))
	return nil
}

// ResetAllBalances обнуляет все балансы. Код подтверждения проверяет вызывающая сторона.
func (s *ledgerService) ResetAllBalances(ctx context.Context, adminID string) (int64, error) {
	const op = "service.Ledger.ResetAllBalances"
	logger := s.log.With(slog.String("op", op), slog.String("adminID", adminID))

	var affected int64
	err := s.store.WithTx(ctx, func(repo storage.Repository) error {
		if err := authorize(ctx, repo, adminID); err != nil {
			return err
		}
		n, err := repo.ResetAllBalances(ctx)
		if err != nil {
			return err
		}
		affected = n
		return nil
	})
	if err != nil {
		return 0, s.fail(logger, op, err)
	}

	ev := events.New(events.TypeReset, adminID, s.now())
	ev.Affected = affected
	s.publish(ctx, logger, ev)

	logger.Warn("all balances reset", slog.Int64("affectedUsers", affected))
	return affected, nil
}

// Confiscate обнуляет баланс пользователя и возвращает изъятую сумму.
// Нулевой баланс тоже изымается и попадает в журнал.
func (s *ledgerService) Confiscate(ctx context.Context, adminID, targetID, reason string) (int64, error) {
	const op = "service.Ledger.Confiscate"
	if strings.TrimSpace(reason) == "" {
		reason = DefaultConfiscationReason
	}
	logger := s.log.With(
		slog.String("op", op),
		slog.String("adminID", adminID),
		slog.String("targetID", targetID),
		slog.String("reason", reason),
	)

	now := s.now()
	var amount int64
	err := s.store.WithTx(ctx, func(repo storage.Repository) error {
		if err := authorize(ctx, repo, adminID); err != nil {
			return err
		}
		target, err := ensureUser(ctx, repo, targetID)
		if err != nil {
			return err
		}
		amount = target.Balance

		if err := repo.SetUserBalance(ctx, targetID, 0); err != nil {
			return fmt.Errorf("zero balance: %w", err)
		}
		rec := &models.ConfiscationRecord{
			ID:           uuid.New(),
			AdminID:      adminID,
			TargetUserID: targetID,
			Amount:       amount,
			Reason:       reason,
			Timestamp:    now,
		}
		if err := repo.AppendConfiscation(ctx, rec); err != nil {
			return fmt.Errorf("record confiscation: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, s.fail(logger, op, err)
	}

	ev := events.New(events.TypeConfiscation, adminID, now)
	ev.TargetID = targetID
	ev.Amount = amount
	ev.Reason = reason
	s.publish(ctx, logger, ev)

	logger.Info("coins confiscated", slog.Int64("amount", amount))
	return amount, nil
}

// fail классифицирует ошибку и пишет её в лог: отказы бизнес-правил - warn, сбои хранилища - error
func (s *ledgerService) fail(logger *slog.Logger, op string, err error) error {
	err = classify(op, err)
	if errors.Is(err, ErrStore) || errors.Is(err, ErrProvisioningFailed) {
		logger.Error("operation failed", slog.Any("error", err))
	} else {
		logger.Warn("operation rejected", slog.Any("error", err))
	}
	return err
}

func (s *ledgerService) publish(ctx context.Context, logger *slog.Logger, ev events.Event) {
	if err := s.events.Publish(ctx, ev); err != nil {
		logger.Warn("failed to publish ledger event", slog.String("type", string(ev.Type)), slog.Any("error", err))
	}
}
