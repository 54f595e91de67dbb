package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"love-sim-server/internal/models"
	"love-sim-server/internal/repository"
)

// AccessInfo — результат проверки доступа к истории.
type AccessInfo struct {
	StoryID       int64 `json:"storyId"`
	HasAccess     bool  `json:"hasAccess"`
	IsPremium     bool  `json:"isPremium"`
	PriceDiamonds int   `json:"priceDiamonds"`
	IsPurchased   bool  `json:"isPurchased"`
}

// ProgressSummary — сводка прогресса пользователя.
type ProgressSummary struct {
	Saves        []models.SaveState   `json:"saves"`
	Stats        []models.GameStat    `json:"stats"`
	Achievements []models.Achievement `json:"achievements"`
}

// EconomyService управляет доступом к историям, покупками, кодами
// пополнения, профилем и сводкой прогресса.
type EconomyService interface {
	CanAccess(ctx context.Context, userID uuid.UUID, storyID int64) (*AccessInfo, error)
	PurchaseStory(ctx context.Context, userID uuid.UUID, storyID int64) error
	RedeemDiamondCode(ctx context.Context, userID uuid.UUID, code uuid.UUID) (int, error)
	CreateDiamondCode(ctx context.Context, value, uses int) (*models.DiamondCode, error)

	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, displayName, theme, avatarURL string) error
	GetProgress(ctx context.Context, userID uuid.UUID) (*ProgressSummary, error)

	// Админские операции
	GrantDiamonds(ctx context.Context, userID uuid.UUID, amount int) error
	ResetProgress(ctx context.Context, userID uuid.UUID) error
}

// Compile-time check to ensure implementation satisfies the interface.
var _ EconomyService = (*economyServiceImpl)(nil)

type economyServiceImpl struct {
	db          repository.DBTX
	txRunner    repository.TxRunner
	userRepo    repository.UserRepository
	storyRepo   repository.StoryRepository
	saveRepo    repository.SaveStateRepository
	historyRepo repository.ChoiceHistoryRepository
	economyRepo repository.EconomyRepository
	logger      *zap.Logger
}

// NewEconomyService создает сервис экономики.
func NewEconomyService(
	db repository.DBTX,
	txRunner repository.TxRunner,
	userRepo repository.UserRepository,
	storyRepo repository.StoryRepository,
	saveRepo repository.SaveStateRepository,
	historyRepo repository.ChoiceHistoryRepository,
	economyRepo repository.EconomyRepository,
	logger *zap.Logger,
) EconomyService {
	return &economyServiceImpl{
		db:          db,
		txRunner:    txRunner,
		userRepo:    userRepo,
		storyRepo:   storyRepo,
		saveRepo:    saveRepo,
		historyRepo: historyRepo,
		economyRepo: economyRepo,
		logger:      logger.Named("EconomyService"),
	}
}

// CanAccess проверяет, может ли пользователь играть историю: история должна
// быть опубликована, премиум-история — куплена (или бесплатна).
func (s *economyServiceImpl) CanAccess(ctx context.Context, userID uuid.UUID, storyID int64) (*AccessInfo, error) {
	story, err := s.storyRepo.GetStoryByID(ctx, storyID)
	if err != nil {
		return nil, err
	}

	info := &AccessInfo{
		StoryID:       story.ID,
		IsPremium:     story.IsPremium,
		PriceDiamonds: story.PriceDiamonds,
	}

	if !story.IsPublished {
		return info, nil
	}
	if !story.IsPremium || story.PriceDiamonds == 0 {
		info.HasAccess = true
		return info, nil
	}

	purchased, err := s.economyRepo.HasPurchase(ctx, userID, storyID)
	if err != nil {
		return nil, err
	}
	info.IsPurchased = purchased
	info.HasAccess = purchased
	return info, nil
}

// PurchaseStory списывает стоимость истории и записывает покупку в одной
// транзакции. Повторная покупка не проходит по первичному ключу purchases.
func (s *economyServiceImpl) PurchaseStory(ctx context.Context, userID uuid.UUID, storyID int64) error {
	log := s.logger.With(zap.Stringer("userID", userID), zap.Int64("storyID", storyID))

	story, err := s.storyRepo.GetStoryByID(ctx, storyID)
	if err != nil {
		return err
	}
	if !story.IsPublished || !story.IsPremium {
		return ErrInvalidOperation
	}

	purchased, err := s.economyRepo.HasPurchase(ctx, userID, storyID)
	if err != nil {
		return err
	}
	if purchased {
		return models.ErrAlreadyPurchased
	}

	err = s.txRunner.WithinTx(ctx, func(ctx context.Context, q repository.DBTX) error {
		if story.PriceDiamonds > 0 {
			if err := s.userRepo.AdjustDiamonds(ctx, q, userID, -story.PriceDiamonds); err != nil {
				return err
			}
		}
		return s.economyRepo.RecordPurchase(ctx, q, &models.Purchase{
			UserID:    userID,
			StoryID:   storyID,
			PricePaid: story.PriceDiamonds,
		})
	})
	if err != nil {
		log.Warn("Story purchase failed", zap.Error(err))
		return err
	}

	log.Info("Story purchased", zap.Int("pricePaid", story.PriceDiamonds))
	return nil
}

// RedeemDiamondCode активирует код пополнения: списывает одно использование
// и зачисляет алмазы в одной транзакции. Возвращает номинал кода.
func (s *economyServiceImpl) RedeemDiamondCode(ctx context.Context, userID uuid.UUID, code uuid.UUID) (int, error) {
	log := s.logger.With(zap.Stringer("userID", userID), zap.Stringer("code", code))

	dc, err := s.economyRepo.GetDiamondCode(ctx, code)
	if err != nil {
		return 0, err
	}

	err = s.txRunner.WithinTx(ctx, func(ctx context.Context, q repository.DBTX) error {
		if err := s.economyRepo.ConsumeDiamondCode(ctx, q, code); err != nil {
			return err
		}
		return s.userRepo.AdjustDiamonds(ctx, q, userID, dc.Value)
	})
	if err != nil {
		if errors.Is(err, models.ErrCodeExhausted) {
			log.Warn("Diamond code redemption rejected: no uses left")
		} else {
			log.Error("Failed to redeem diamond code", zap.Error(err))
		}
		return 0, err
	}

	log.Info("Diamond code redeemed", zap.Int("value", dc.Value))
	return dc.Value, nil
}

func (s *economyServiceImpl) CreateDiamondCode(ctx context.Context, value, uses int) (*models.DiamondCode, error) {
	if value <= 0 || uses <= 0 {
		return nil, models.ErrInvalidInput
	}
	dc := &models.DiamondCode{
		Value:         value,
		RemainingUses: uses,
	}
	if err := s.economyRepo.CreateDiamondCode(ctx, dc); err != nil {
		return nil, err
	}
	s.logger.Info("Diamond code created", zap.Stringer("code", dc.Code), zap.Int("value", value), zap.Int("uses", uses))
	return dc, nil
}

func (s *economyServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

func (s *economyServiceImpl) UpdateProfile(ctx context.Context, userID uuid.UUID, displayName, theme, avatarURL string) error {
	if displayName == "" {
		return models.ErrInvalidInput
	}
	return s.userRepo.UpdateProfile(ctx, userID, displayName, theme, avatarURL)
}

// GetProgress собирает сводку: сохранения, статистику и достижения.
func (s *economyServiceImpl) GetProgress(ctx context.Context, userID uuid.UUID) (*ProgressSummary, error) {
	saves, err := s.saveRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.economyRepo.ListGameStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	achievements, err := s.economyRepo.ListAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProgressSummary{
		Saves:        saves,
		Stats:        stats,
		Achievements: achievements,
	}, nil
}

// GrantDiamonds зачисляет алмазы пользователю (админская операция).
func (s *economyServiceImpl) GrantDiamonds(ctx context.Context, userID uuid.UUID, amount int) error {
	if amount <= 0 {
		return models.ErrInvalidInput
	}
	if err := s.userRepo.AdjustDiamonds(ctx, s.db, userID, amount); err != nil {
		return err
	}
	s.logger.Info("Diamonds granted", zap.Stringer("userID", userID), zap.Int("amount", amount))
	return nil
}

// ResetProgress удаляет сохранения, журнал выборов и статистику пользователя
// в одной транзакции (админская операция).
func (s *economyServiceImpl) ResetProgress(ctx context.Context, userID uuid.UUID) error {
	log := s.logger.With(zap.Stringer("userID", userID))

	if _, err := s.userRepo.GetUserByID(ctx, userID); err != nil {
		return err
	}

	err := s.txRunner.WithinTx(ctx, func(ctx context.Context, q repository.DBTX) error {
		savesDeleted, err := s.saveRepo.DeleteByUser(ctx, q, userID)
		if err != nil {
			return err
		}
		historyDeleted, err := s.historyRepo.DeleteByUser(ctx, q, userID)
		if err != nil {
			return err
		}
		statsDeleted, err := s.economyRepo.DeleteStatsByUser(ctx, q, userID)
		if err != nil {
			return err
		}
		log.Info("Progress reset",
			zap.Int64("savesDeleted", savesDeleted),
			zap.Int64("historyDeleted", historyDeleted),
			zap.Int64("statsDeleted", statsDeleted))
		return nil
	})
	if err != nil {
		log.Error("Failed to reset progress", zap.Error(err))
		return err
	}
	return nil
}
