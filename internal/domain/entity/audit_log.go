package entity

import (
	"time"
)

// AuditLog represents a system audit trail entry
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Owner
	Action    string    `gorm:"type:varchar(100);not null;index" json:"action"`
	Metadata  JSON      `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// Common audit actions
const (
	AuditActionScheduleCreate      = "schedule.create"
	AuditActionScheduleUpdate      = "schedule.update"
	AuditActionScheduleDelete      = "schedule.delete"
	AuditActionBlockCreate         = "block.create"
	AuditActionBlockUpdate         = "block.update"
	AuditActionBlockDelete         = "block.delete"
	AuditActionAppointmentCreate   = "appointment.create"
	AuditActionAppointmentUpdate   = "appointment.update"
	AuditActionAppointmentDelete   = "appointment.delete"
	AuditActionAppointmentStatus   = "appointment.status"
	AuditActionAppointmentConfirm  = "appointment.confirm"
	AuditActionAppointmentCancel   = "appointment.cancel"
	AuditActionAppointmentResched  = "appointment.reschedule"
	AuditActionWaitingListCreate   = "waiting_list.create"
	AuditActionWaitingListUpdate   = "waiting_list.update"
	AuditActionWaitingListDelete   = "waiting_list.delete"
	AuditActionWaitingListSchedule = "waiting_list.schedule"
)
