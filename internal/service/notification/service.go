package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/ubuzima-connect/api/pkg/metrics"
)

// Recipient tags who an appointment SMS is addressed to. The wording of the
// message depends on it.
type Recipient string

const (
	RecipientPatient    Recipient = "patient"
	RecipientSpecialist Recipient = "specialist"
	RecipientGP         Recipient = "gp"
)

// Sender dispatches a single SMS. The production implementation posts to the
// Pindo HTTP gateway; tests substitute a fake.
type Sender interface {
	Send(ctx context.Context, to, text string) error
}

// Service formats and dispatches appointment SMS notifications.
type Service interface {
	SendNewAppointmentNotification(ctx context.Context, phone, recipientName, patientName, doctorName string, date time.Time, recipient Recipient) error
	SendAppointmentUpdateNotification(ctx context.Context, phone, recipientName, patientName, doctorName string, date time.Time, recipient Recipient) error
}

type service struct {
	sender  Sender
	metrics *metrics.Metrics
}

func NewService(sender Sender, m *metrics.Metrics) Service {
	return &service{sender: sender, metrics: m}
}

func (s *service) SendNewAppointmentNotification(ctx context.Context, phone, recipientName, patientName, doctorName string, date time.Time, recipient Recipient) error {
	text, err := NewAppointmentMessage(recipient, recipientName, patientName, doctorName, date)
	if err != nil {
		return err
	}
	return s.dispatch(ctx, "new_appointment", phone, text)
}

func (s *service) SendAppointmentUpdateNotification(ctx context.Context, phone, recipientName, patientName, doctorName string, date time.Time, recipient Recipient) error {
	text, err := RescheduleMessage(recipient, recipientName, patientName, doctorName, date)
	if err != nil {
		return err
	}
	return s.dispatch(ctx, "reschedule", phone, text)
}

func (s *service) dispatch(ctx context.Context, kind, phone, text string) error {
	if err := s.sender.Send(ctx, phone, text); err != nil {
		if s.metrics != nil {
			s.metrics.SMSFailed.WithLabelValues(kind).Inc()
		}
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	if s.metrics != nil {
		s.metrics.SMSSent.WithLabelValues(kind).Inc()
	}
	return nil
}
