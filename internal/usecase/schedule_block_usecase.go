package usecase

import (
	"context"
	"errors"

	"go-clinic-agenda/internal/converter"
	"go-clinic-agenda/internal/delivery/dto"
	"go-clinic-agenda/internal/domain/entity"
	"go-clinic-agenda/internal/domain/repository"
	"go-clinic-agenda/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrBlockNotFound = errors.New("schedule block not found")

type ScheduleBlockUsecase interface {
	CreateBlock(ctx context.Context, req *dto.CreateBlockRequest) (*dto.BlockResponse, error)
	GetBlock(ctx context.Context, id uuid.UUID) (*dto.BlockResponse, error)
	GetBlocks(ctx context.Context, req *dto.BlockListRequest) (*dto.BlockListResponse, error)
	UpdateBlock(ctx context.Context, id uuid.UUID, req *dto.UpdateBlockRequest) (*dto.BlockResponse, error)
	DeleteBlock(ctx context.Context, id uuid.UUID) error
}

type scheduleBlockUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	blockRepo    repository.ScheduleBlockRepository
	auditService service.AuditService
	cache        service.AvailabilityCache
}

func NewScheduleBlockUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	blockRepo repository.ScheduleBlockRepository,
	auditService service.AuditService,
	cache service.AvailabilityCache,
) ScheduleBlockUsecase {
	return &scheduleBlockUsecase{
		db:           db,
		log:          log,
		blockRepo:    blockRepo,
		auditService: auditService,
		cache:        cache,
	}
}

func (u *scheduleBlockUsecase) CreateBlock(ctx context.Context, req *dto.CreateBlockRequest) (*dto.BlockResponse, error) {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	startDate, err := entity.ParseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := entity.ParseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	startTime, err := parseOptionalTime(req.StartTime)
	if err != nil {
		return nil, err
	}
	endTime, err := parseOptionalTime(req.EndTime)
	if err != nil {
		return nil, err
	}

	block := &entity.ScheduleBlock{
		Owner:      owner,
		ProviderID: req.ProviderID,
		StartDate:  startDate,
		EndDate:    endDate,
		StartTime:  startTime,
		EndTime:    endTime,
		AllDay:     req.AllDay,
		BlockType:  entity.BlockType(req.BlockType),
		Reason:     req.Reason,
		IsActive:   true,
	}
	normalizeBlock(block)
	if err := block.Validate(); err != nil {
		return nil, err
	}

	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := u.blockRepo.Create(tx, block); err != nil {
			return err
		}
		return u.auditService.LogCreate(ctx, tx, owner, entity.AuditActionBlockCreate, "schedule_block", block.ID.String(), converter.BlockToResponse(block))
	})
	if err != nil {
		u.log.Warnf("Failed to create schedule block: %+v", err)
		return nil, err
	}

	u.cache.Invalidate(ctx, owner, block.ProviderID)
	u.log.Infof("Schedule block created: id=%s, provider=%s, %s..%s", block.ID, block.ProviderID, req.StartDate, req.EndDate)
	return converter.BlockToResponse(block), nil
}

// normalizeBlock drops the time window of all-day blocks.
func normalizeBlock(b *entity.ScheduleBlock) {
	if b.AllDay {
		b.StartTime, b.EndTime = nil, nil
	}
}

func (u *scheduleBlockUsecase) GetBlock(ctx context.Context, id uuid.UUID) (*dto.BlockResponse, error) {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	block, err := u.blockRepo.FindByID(u.db.WithContext(ctx), owner, id)
	if err != nil {
		u.log.Warnf("Failed to find schedule block: %+v", err)
		return nil, err
	}
	if block == nil {
		return nil, ErrBlockNotFound
	}
	return converter.BlockToResponse(block), nil
}

func (u *scheduleBlockUsecase) GetBlocks(ctx context.Context, req *dto.BlockListRequest) (*dto.BlockListResponse, error) {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	filter := &entity.BlockFilter{ProviderID: req.ProviderID, ActiveOnly: req.ActiveOnly}
	if req.From != "" {
		if filter.From, err = parseOptionalDate(&req.From); err != nil {
			return nil, err
		}
	}
	if req.To != "" {
		if filter.To, err = parseOptionalDate(&req.To); err != nil {
			return nil, err
		}
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, ErrInvalidDateRange
	}

	blocks, err := u.blockRepo.FindAll(u.db.WithContext(ctx), owner, filter)
	if err != nil {
		u.log.Warnf("Failed to find schedule blocks: %+v", err)
		return nil, err
	}

	return &dto.BlockListResponse{
		Blocks: converter.BlocksToResponses(blocks),
		Total:  len(blocks),
	}, nil
}

func (u *scheduleBlockUsecase) UpdateBlock(ctx context.Context, id uuid.UUID, req *dto.UpdateBlockRequest) (*dto.BlockResponse, error) {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var updated *entity.ScheduleBlock
	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		block, err := u.blockRepo.FindByID(tx, owner, id)
		if err != nil {
			return err
		}
		if block == nil {
			return ErrBlockNotFound
		}
		before := converter.BlockToResponse(block)

		if err := applyBlockUpdate(block, req); err != nil {
			return err
		}
		normalizeBlock(block)
		if err := block.Validate(); err != nil {
			return err
		}

		if err := u.blockRepo.Update(tx, block); err != nil {
			return err
		}
		updated = block
		return u.auditService.LogUpdate(ctx, tx, owner, entity.AuditActionBlockUpdate, "schedule_block", id.String(), before, converter.BlockToResponse(block))
	})
	if err != nil {
		if !errors.Is(err, ErrBlockNotFound) {
			u.log.Warnf("Failed to update schedule block %s: %+v", id, err)
		}
		return nil, err
	}

	u.cache.Invalidate(ctx, owner, updated.ProviderID)
	u.log.Infof("Schedule block updated: id=%s", id)
	return converter.BlockToResponse(updated), nil
}

func applyBlockUpdate(b *entity.ScheduleBlock, req *dto.UpdateBlockRequest) error {
	var err error
	if req.StartDate != nil {
		if b.StartDate, err = entity.ParseDate(*req.StartDate); err != nil {
			return err
		}
	}
	if req.EndDate != nil {
		if b.EndDate, err = entity.ParseDate(*req.EndDate); err != nil {
			return err
		}
	}
	if req.StartTime != nil {
		if b.StartTime, err = parseOptionalTime(req.StartTime); err != nil {
			return err
		}
	}
	if req.EndTime != nil {
		if b.EndTime, err = parseOptionalTime(req.EndTime); err != nil {
			return err
		}
	}
	if req.AllDay != nil {
		b.AllDay = *req.AllDay
	}
	if req.BlockType != nil {
		b.BlockType = entity.BlockType(*req.BlockType)
	}
	if req.Reason != nil {
		b.Reason = *req.Reason
	}
	if req.IsActive != nil {
		b.IsActive = *req.IsActive
	}
	return nil
}

func (u *scheduleBlockUsecase) DeleteBlock(ctx context.Context, id uuid.UUID) error {
	_, owner, err := ownerFromContext(ctx)
	if err != nil {
		return err
	}

	var providerID uuid.UUID
	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		block, err := u.blockRepo.FindByID(tx, owner, id)
		if err != nil {
			return err
		}
		if block == nil {
			return ErrBlockNotFound
		}
		providerID = block.ProviderID

		if _, err := u.blockRepo.Delete(tx, owner, id); err != nil {
			return err
		}
		return u.auditService.LogDelete(ctx, tx, owner, entity.AuditActionBlockDelete, "schedule_block", id.String(), converter.BlockToResponse(block))
	})
	if err != nil {
		if !errors.Is(err, ErrBlockNotFound) {
			u.log.Warnf("Failed to delete schedule block %s: %+v", id, err)
		}
		return err
	}

	u.cache.Invalidate(ctx, owner, providerID)
	u.log.Infof("Schedule block deleted: id=%s", id)
	return nil
}
