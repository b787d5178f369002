package models

import (
	"time"

	"gorm.io/datatypes"
)

type WebhookEventLogStatus string

const (
	WebhookEventLogStatusReceived     WebhookEventLogStatus = "received"
	WebhookEventLogStatusHandled      WebhookEventLogStatus = "handled"
	WebhookEventLogStatusHandleFailed WebhookEventLogStatus = "handle_failed"
)

// WebhookEventLog journals every webhook delivery: one "received" row when
// the payload arrives and one "handled"/"handle_failed" row with the
// dispatch result. Kept for manual investigation of reconciliation failures.
type WebhookEventLog struct {
	ID          string                `gorm:"column:id;type:uuid;primary_key" json:"id"`
	EventID     string                `gorm:"column:event_id;type:varchar(128);index" json:"event_id"`
	EventType   string                `gorm:"column:event_type;type:varchar(64);not null" json:"event_type"`
	ProductType string                `gorm:"column:product_type;type:varchar(32)" json:"product_type"`
	TraceID     string                `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	Payload     datatypes.JSON        `gorm:"column:payload;type:jsonb" json:"payload"`
	Result      *datatypes.JSON       `gorm:"column:result;type:jsonb" json:"result"`
	Status      WebhookEventLogStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

func (WebhookEventLog) TableName() string {
	return "webhook_event_log"
}
