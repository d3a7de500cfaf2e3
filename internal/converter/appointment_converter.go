package converter

import (
	"go-clinic-agenda/internal/delivery/dto"
	"go-clinic-agenda/internal/domain/entity"
	"go-clinic-agenda/internal/scheduling"
)

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO
func AppointmentToResponse(a *entity.Appointment) *dto.AppointmentResponse {
	if a == nil {
		return nil
	}

	return &dto.AppointmentResponse{
		ID:                 a.ID,
		ClinicID:           a.ClinicID,
		UserID:             a.UserID,
		PatientID:          a.PatientID,
		ProfessionalID:     a.ProfessionalID,
		AppointmentDate:    a.AppointmentDate.Format(entity.DateLayout),
		StartTime:          a.StartTime.String(),
		EndTime:            a.EndTime.String(),
		DurationMinutes:    a.DurationMinutes(),
		AppointmentType:    string(a.AppointmentType),
		Status:             string(a.Status),
		Notes:              a.Notes,
		Price:              a.Price,
		CancellationReason: a.CancellationReason,
		ConfirmedAt:        a.ConfirmedAt,
		CancelledAt:        a.CancelledAt,
		RescheduledFromID:  a.RescheduledFromID,
		CreatedBy:          a.CreatedBy,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *AppointmentToResponse(&appointments[i])
	}
	return responses
}

func ConflictResultToResponse(r scheduling.Result) *dto.ConflictCheckResponse {
	return &dto.ConflictCheckResponse{
		IsValid:  r.IsValid(),
		Errors:   r.Errors,
		Warnings: r.Warnings,
	}
}

func SlotsToResponses(slots []scheduling.Slot) []dto.SlotResponse {
	responses := make([]dto.SlotResponse, len(slots))
	for i, s := range slots {
		responses[i] = dto.SlotResponse{
			StartTime: s.Start.String(),
			EndTime:   s.End.String(),
		}
	}
	return responses
}
