package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"sushibar/waitline/internal/model"
)

type gormPartyRepository struct {
	db *gorm.DB
}

func NewGormPartyRepository(db *gorm.DB) PartyRepository {
	return &gormPartyRepository{db: db}
}

func (r *gormPartyRepository) Create(ctx context.Context, party *model.Party) error {
	if err := r.db.WithContext(ctx).Create(party).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateCode
		}
		return err
	}
	return nil
}

func (r *gormPartyRepository) GetByCode(ctx context.Context, code string) (*model.Party, error) {
	var party model.Party
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&party).Error; err != nil {
		return nil, err
	}
	return &party, nil
}

func (r *gormPartyRepository) ActiveQueue(ctx context.Context) ([]model.Party, error) {
	var parties []model.Party
	err := r.db.WithContext(ctx).
		Where("status IN ?", []model.PartyStatus{model.PartyStatusWaiting, model.PartyStatusCalled}).
		Order("id ASC").
		Find(&parties).Error
	if err != nil {
		return nil, err
	}
	return parties, nil
}

func (r *gormPartyRepository) OldestWaiting(ctx context.Context) (*model.Party, error) {
	var party model.Party
	err := r.db.WithContext(ctx).
		Where("status = ?", model.PartyStatusWaiting).
		Order("id ASC").
		First(&party).Error
	if err != nil {
		return nil, err
	}
	return &party, nil
}

func (r *gormPartyRepository) OldestCalled(ctx context.Context) (*model.Party, error) {
	var party model.Party
	err := r.db.WithContext(ctx).
		Where("status = ?", model.PartyStatusCalled).
		Order("called_at ASC, id ASC").
		First(&party).Error
	if err != nil {
		return nil, err
	}
	return &party, nil
}

func (r *gormPartyRepository) CountByStatus(ctx context.Context, status model.PartyStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Party{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (r *gormPartyRepository) Transition(ctx context.Context, id uint, from, to model.PartyStatus) (*model.Party, error) {
	updates := map[string]interface{}{"status": to}
	now := time.Now()
	switch to {
	case model.PartyStatusCalled:
		updates["called_at"] = &now
	case model.PartyStatusServed:
		updates["served_at"] = &now
	}

	res := r.db.WithContext(ctx).
		Model(&model.Party{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrStaleTransition
	}

	var party model.Party
	if err := r.db.WithContext(ctx).First(&party, id).Error; err != nil {
		return nil, err
	}
	return &party, nil
}
