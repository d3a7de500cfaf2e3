package converter

import (
	"go-clinic-agenda/internal/delivery/dto"
	"go-clinic-agenda/internal/domain/entity"
)

func BlockToResponse(b *entity.ScheduleBlock) *dto.BlockResponse {
	if b == nil {
		return nil
	}

	return &dto.BlockResponse{
		ID:         b.ID,
		ClinicID:   b.ClinicID,
		UserID:     b.UserID,
		ProviderID: b.ProviderID,
		StartDate:  b.StartDate.Format(entity.DateLayout),
		EndDate:    b.EndDate.Format(entity.DateLayout),
		StartTime:  timeOfDayPtr(b.StartTime),
		EndTime:    timeOfDayPtr(b.EndTime),
		AllDay:     b.IsWholeDay(),
		BlockType:  string(b.BlockType),
		Reason:     b.Reason,
		IsActive:   b.IsActive,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func BlocksToResponses(blocks []entity.ScheduleBlock) []dto.BlockResponse {
	responses := make([]dto.BlockResponse, len(blocks))
	for i := range blocks {
		responses[i] = *BlockToResponse(&blocks[i])
	}
	return responses
}
