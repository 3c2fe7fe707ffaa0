package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/carelink/telemedicine/internal/core/domain"
	"github.com/carelink/telemedicine/internal/core/ports"
)

func newAppointmentSvc(appts *stubAppointments, users *stubUsers, sink *stubSink) *AppointmentService {
	return NewAppointmentService(appts, users, &stubIdempotency{values: map[string]string{}}, sink, zerolog.Nop())
}

func TestAppointmentService_Book_PendingWithDoctorName(t *testing.T) {
	appts := &stubAppointments{}
	sink := &stubSink{}
	svc := newAppointmentSvc(appts, seededUsers(), sink)

	res, err := svc.Book(context.Background(), patientActor, ports.BookAppointmentInput{
		DoctorID: domain.SeedDoctorID,
		Date:     "2024-05-01",
		Time:     "10:00",
		Reason:   "checkup",
	})
	if err != nil {
		t.Fatalf("Book returned error: %v", err)
	}

	a := res.Appointment
	if a.Status != domain.StatusPending {
		t.Errorf("expected pending, got %s", a.Status)
	}
	if a.DoctorName != "Dr. Smith" || a.PatientName != "Jane Doe" || a.PatientID != "patient-1" {
		t.Errorf("unexpected denormalized fields %+v", a)
	}
	if !strings.HasPrefix(a.ID, "apt-") {
		t.Errorf("unexpected id %q", a.ID)
	}
	if len(appts.list) != 1 {
		t.Fatalf("expected 1 stored appointment, got %d", len(appts.list))
	}
	if len(sink.events) != 1 || sink.events[0].AppointmentID != a.ID {
		t.Errorf("expected change event, got %+v", sink.events)
	}
}

func TestAppointmentService_Book_UnknownDoctor(t *testing.T) {
	svc := newAppointmentSvc(&stubAppointments{}, seededUsers(), &stubSink{})

	// An admin ID is not a doctor.
	res, err := svc.Book(context.Background(), patientActor, ports.BookAppointmentInput{DoctorID: domain.SeedAdminID})
	if err != nil {
		t.Fatalf("Book returned error: %v", err)
	}
	if res.Appointment.DoctorName != "Unknown" {
		t.Fatalf("expected Unknown, got %q", res.Appointment.DoctorName)
	}
}

func TestAppointmentService_Book_OnlyPatients(t *testing.T) {
	svc := newAppointmentSvc(&stubAppointments{}, seededUsers(), &stubSink{})

	_, err := svc.Book(context.Background(), doctorActor, ports.BookAppointmentInput{DoctorID: domain.SeedDoctorID})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAppointmentService_Book_IdempotentReplay(t *testing.T) {
	appts := &stubAppointments{}
	svc := newAppointmentSvc(appts, seededUsers(), &stubSink{})
	in := ports.BookAppointmentInput{DoctorID: domain.SeedDoctorID, Date: "2024-05-01", Time: "10:00", IdempotencyKey: "key-1"}

	first, err := svc.Book(context.Background(), patientActor, in)
	if err != nil {
		t.Fatalf("first Book: %v", err)
	}
	second, err := svc.Book(context.Background(), patientActor, in)
	if err != nil {
		t.Fatalf("second Book: %v", err)
	}
	if !second.AlreadyExisted || second.Appointment.ID != first.Appointment.ID {
		t.Fatalf("expected replay of %s, got %+v", first.Appointment.ID, second)
	}
	if len(appts.list) != 1 {
		t.Fatalf("expected one stored appointment, got %d", len(appts.list))
	}
}

func TestAppointmentService_UpdateStatus(t *testing.T) {
	otherDoctor := ports.Actor{ID: "doctor-002", Role: domain.RoleDoctor, Name: "Dr. Who"}

	cases := []struct {
		name    string
		actor   ports.Actor
		from    domain.AppointmentStatus
		to      domain.AppointmentStatus
		wantErr error
	}{
		{"doctor confirms", doctorActor, domain.StatusPending, domain.StatusConfirmed, nil},
		{"doctor cancels pending", doctorActor, domain.StatusPending, domain.StatusCancelled, nil},
		{"doctor completes confirmed", doctorActor, domain.StatusConfirmed, domain.StatusCompleted, nil},
		{"doctor cancels confirmed", doctorActor, domain.StatusConfirmed, domain.StatusCancelled, nil},
		{"doctor cannot complete pending", doctorActor, domain.StatusPending, domain.StatusCompleted, domain.ErrInvalidTransition},
		{"completed is terminal", doctorActor, domain.StatusCompleted, domain.StatusCancelled, domain.ErrInvalidTransition},
		{"other doctor", otherDoctor, domain.StatusPending, domain.StatusConfirmed, domain.ErrForbidden},
		{"admin confirms pending", adminActor, domain.StatusPending, domain.StatusConfirmed, nil},
		{"admin cannot act on confirmed", adminActor, domain.StatusConfirmed, domain.StatusCancelled, domain.ErrInvalidTransition},
		{"patient cannot act", patientActor, domain.StatusPending, domain.StatusCancelled, domain.ErrForbidden},
		{"unknown status", doctorActor, domain.StatusPending, domain.AppointmentStatus("archived"), domain.ErrInvalidTransition},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			appts := &stubAppointments{list: []domain.Appointment{appointmentFixture("apt-1", domain.SeedDoctorID, tc.from)}}
			svc := newAppointmentSvc(appts, seededUsers(), &stubSink{})

			updated, err := svc.UpdateStatus(context.Background(), tc.actor, "apt-1", tc.to)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				if got := appts.get("apt-1").Status; got != tc.from {
					t.Fatalf("status changed to %s on failure", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if updated.Status != tc.to || appts.get("apt-1").Status != tc.to {
				t.Fatalf("status not applied: %+v", updated)
			}
		})
	}
}

func TestAppointmentService_UpdateStatus_NotFound(t *testing.T) {
	svc := newAppointmentSvc(&stubAppointments{}, seededUsers(), &stubSink{})

	_, err := svc.UpdateStatus(context.Background(), doctorActor, "apt-404", domain.StatusConfirmed)
	if !errors.Is(err, domain.ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestAppointmentService_Doctors(t *testing.T) {
	svc := newAppointmentSvc(&stubAppointments{}, seededUsers(), &stubSink{})

	doctors, err := svc.Doctors(context.Background())
	if err != nil {
		t.Fatalf("Doctors returned error: %v", err)
	}
	if len(doctors) != 1 || doctors[0].ID != domain.SeedDoctorID {
		t.Fatalf("unexpected doctors %+v", doctors)
	}
}
