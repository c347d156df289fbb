package outbox

// Event is the envelope written to outbox_events in the same transaction as the change it
// describes. The Kafka topic equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	AggregateAppointment = "appointment"

	EventAppointmentCreated   = "booking.appointment.created.v1"
	EventAppointmentUpdated   = "booking.appointment.updated.v1"
	EventAppointmentCancelled = "booking.appointment.cancelled.v1"
)
