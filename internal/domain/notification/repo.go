package notification

import "context"

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]*Notification, int, error)
}
