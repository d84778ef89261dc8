package domain

import "time"

// NotificationCategory identifies the kind of event a notification
// reports. Users subscribe per category.
type NotificationCategory string

const (
	CategoryTicketCreated        NotificationCategory = "TICKET_CREADO"
	CategoryStatusChanged        NotificationCategory = "CAMBIO_ESTADO_TICKET"
	CategoryUserReassigned       NotificationCategory = "REASIGNACION_USUARIO_TICKET"
	CategoryDepartmentReassigned NotificationCategory = "REASIGNACION_DEPARTAMENTO_TICKET"
	CategoryCommitmentDateSet    NotificationCategory = "FECHA_COMPROMISO_ASIGNADA"
)

// AllCategories lists every category a user can subscribe to.
func AllCategories() []NotificationCategory {
	return []NotificationCategory{
		CategoryTicketCreated,
		CategoryStatusChanged,
		CategoryUserReassigned,
		CategoryDepartmentReassigned,
		CategoryCommitmentDateSet,
	}
}

// Notification is a unit of push communication to one principal. Seen
// only ever moves false to true.
type Notification struct {
	ID          string               `json:"id"`
	RecipientID int64                `json:"recipientId"`
	Category    NotificationCategory `json:"category"`
	Title       string               `json:"title"`
	Body        string               `json:"body"`
	URL         string               `json:"url"`
	Seen        bool                 `json:"readed"`
	CreatedAt   time.Time            `json:"timestamp"`
}
