package repository

import (
	"context"
	"errors"
	"time"

	"easyble/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InviteRepository struct {
	db *gorm.DB
}

func NewInviteRepository(db *gorm.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

func (r *InviteRepository) Create(ctx context.Context, invite *model.BoardInvite) error {
	return r.db.WithContext(ctx).Create(invite).Error
}

func (r *InviteRepository) GetByBoardID(ctx context.Context, boardID uuid.UUID) ([]model.BoardInvite, error) {
	var invites []model.BoardInvite
	err := r.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("created_at DESC").
		Find(&invites).Error
	return invites, err
}

// Accept flips a PENDING, unexpired invite to ACCEPTED and adds the accepting
// user to the board, all in one transaction. ACCEPTED is terminal: a second
// call with the same token fails with ErrInviteInvalid, and the member upsert
// does nothing on conflict, so no duplicate membership can appear.
func (r *InviteRepository) Accept(ctx context.Context, token string, userID uuid.UUID) (*model.BoardInvite, error) {
	var invite model.BoardInvite
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("token = ?", token).First(&invite).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInviteInvalid
			}
			return err
		}

		if invite.Status != model.InviteStatusPending || !invite.ExpiresAt.After(time.Now()) {
			return ErrInviteInvalid
		}

		invite.Status = model.InviteStatusAccepted
		if err := tx.Save(&invite).Error; err != nil {
			return err
		}

		member := model.BoardMember{
			BoardID: invite.BoardID,
			UserID:  userID,
			Role:    model.RoleEditor,
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&member).Error
	})
	if err != nil {
		return nil, err
	}
	return &invite, nil
}
