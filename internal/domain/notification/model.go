package notification

import "time"

type Type string

const (
	TypeReminder Type = "REMINDER"
	TypeGuidance Type = "GUIDANCE"
)

type Channel string

const (
	ChannelApp   Channel = "APP"
	ChannelSMS   Channel = "SMS"
	ChannelEmail Channel = "EMAIL"
)

// Notification maps to the notification table.
type Notification struct {
	ID        int64     `json:"id"`
	PatientID int64     `json:"patient_id"`
	Type      Type      `json:"type"`
	Message   string    `json:"message"`
	Channel   Channel   `json:"channel"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateRequest struct {
	PatientID int64  `json:"patient_id" validate:"required,gt=0"`
	Type      string `json:"type" validate:"required,oneof=REMINDER GUIDANCE"`
	Message   string `json:"message" validate:"required,min=2,max=2000"`
	Channel   string `json:"channel" validate:"required,oneof=APP SMS EMAIL"`
}
