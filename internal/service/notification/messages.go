package notification

import (
	"fmt"
	"time"
)

const dateLayout = "2 Jan 2006, 15:04"

// NewAppointmentMessage builds the creation SMS text for the given recipient.
func NewAppointmentMessage(recipient Recipient, recipientName, patientName, doctorName string, date time.Time) (string, error) {
	formatted := date.Format(dateLayout)

	switch recipient {
	case RecipientPatient:
		return fmt.Sprintf(
			"Hello %s, your appointment with Dr. %s has been scheduled for %s. Please arrive 15 minutes early.",
			recipientName, doctorName, formatted), nil
	case RecipientSpecialist:
		return fmt.Sprintf(
			"Hello Dr. %s, you have a new appointment with patient %s scheduled for %s.",
			recipientName, patientName, formatted), nil
	case RecipientGP:
		return fmt.Sprintf(
			"Hello Dr. %s, an appointment has been created under your supervision for patient %s scheduled for %s.",
			recipientName, patientName, formatted), nil
	default:
		return "", fmt.Errorf("unknown recipient: %s", recipient)
	}
}

// RescheduleMessage builds the update SMS text for the given recipient.
func RescheduleMessage(recipient Recipient, recipientName, patientName, doctorName string, date time.Time) (string, error) {
	formatted := date.Format(dateLayout)

	switch recipient {
	case RecipientPatient:
		return fmt.Sprintf(
			"Hello %s, your appointment with Dr. %s has been rescheduled to %s.",
			recipientName, doctorName, formatted), nil
	case RecipientSpecialist:
		return fmt.Sprintf(
			"Hello Dr. %s, your appointment with patient %s has been rescheduled to %s.",
			recipientName, patientName, formatted), nil
	case RecipientGP:
		return fmt.Sprintf(
			"Hello Dr. %s, the appointment for patient %s has been rescheduled to %s.",
			recipientName, patientName, formatted), nil
	default:
		return "", fmt.Errorf("unknown recipient: %s", recipient)
	}
}
