package service

import (
	"context"
	"sync"

	"github.com/carelink/telemedicine/internal/core/domain"
	"github.com/carelink/telemedicine/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUsers struct {
	mu     sync.Mutex
	users  []domain.User
	getErr error
}

func (r *stubUsers) GetAll(context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	return append([]domain.User{}, r.users...), nil
}

func (r *stubUsers) Add(_ context.Context, u domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, u)
	return nil
}

func (r *stubUsers) SaveAll(_ context.Context, users []domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append([]domain.User{}, users...)
	return nil
}

func (r *stubUsers) Create(_ context.Context, u domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return domain.ErrEmailExists
		}
	}
	r.users = append(r.users, u)
	return nil
}

func (r *stubUsers) SeedIfEmpty(_ context.Context, seed []domain.User) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.users) > 0 {
		return false, nil
	}
	r.users = append(r.users, seed...)
	return true, nil
}

type stubAppointments struct {
	mu   sync.Mutex
	list []domain.Appointment
}

func (r *stubAppointments) GetAll(context.Context) ([]domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Appointment{}, r.list...), nil
}

func (r *stubAppointments) Add(_ context.Context, a domain.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, a)
	return nil
}

func (r *stubAppointments) Update(_ context.Context, id string, patch domain.AppointmentPatch) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.list {
		if r.list[i].ID == id {
			if patch.Status != nil {
				r.list[i].Status = *patch.Status
			}
			return true, nil
		}
	}
	return false, nil
}

// Transition mirrors the store: check runs against the current record and
// nothing is written when it fails.
func (r *stubAppointments) Transition(_ context.Context, id string, next domain.AppointmentStatus, check func(domain.Appointment) error) (*domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.list {
		if r.list[i].ID != id {
			continue
		}
		if check != nil {
			if err := check(r.list[i]); err != nil {
				return nil, err
			}
		}
		r.list[i].Status = next
		updated := r.list[i]
		return &updated, nil
	}
	return nil, domain.ErrAppointmentNotFound
}

func (r *stubAppointments) get(id string) domain.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.list {
		if a.ID == id {
			return a
		}
	}
	return domain.Appointment{}
}

type stubMessages struct {
	mu    sync.Mutex
	list  []domain.Message
	reads int
}

func (r *stubMessages) GetAll(context.Context) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	return append([]domain.Message{}, r.list...), nil
}

func (r *stubMessages) Add(_ context.Context, m domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, m)
	return nil
}

func (r *stubMessages) readCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads
}

type stubPrescriptions struct {
	list []domain.Prescription
}

func (r *stubPrescriptions) GetAll(context.Context) ([]domain.Prescription, error) {
	return append([]domain.Prescription{}, r.list...), nil
}

func (r *stubPrescriptions) Add(_ context.Context, p domain.Prescription) error {
	r.list = append(r.list, p)
	return nil
}

type stubAvailability struct {
	list []domain.DoctorAvailability
}

func (r *stubAvailability) GetAll(context.Context) ([]domain.DoctorAvailability, error) {
	return append([]domain.DoctorAvailability{}, r.list...), nil
}

func (r *stubAvailability) Upsert(_ context.Context, doctorID string, a domain.DoctorAvailability) error {
	for i := range r.list {
		if r.list[i].DoctorID == doctorID {
			r.list[i] = a
			return nil
		}
	}
	r.list = append(r.list, a)
	return nil
}

type stubSession struct {
	current *domain.User
}

func (s *stubSession) Current(context.Context) (*domain.User, error) {
	return s.current, nil
}

func (s *stubSession) SetCurrent(_ context.Context, u *domain.User) error {
	s.current = u
	return nil
}

type stubIdempotency struct {
	values map[string]string
}

func (s *stubIdempotency) Lookup(_ context.Context, key string) (string, bool, error) {
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *stubIdempotency) Remember(_ context.Context, key, value string) error {
	if _, ok := s.values[key]; !ok {
		s.values[key] = value
	}
	return nil
}

type stubSink struct {
	mu     sync.Mutex
	events []ports.ChangeEvent
}

func (s *stubSink) Enqueue(ev ports.ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

// stubNotifier hands out a single channel per topic that tests push into.
type stubNotifier struct {
	mu        sync.Mutex
	channels  map[string]chan string
	published []string
}

func newStubNotifier() *stubNotifier {
	return &stubNotifier{channels: make(map[string]chan string)}
}

func (n *stubNotifier) Publish(_ context.Context, topic, payload string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, topic+"="+payload)
	if ch, ok := n.channels[topic]; ok {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

func (n *stubNotifier) Subscribe(_ context.Context, topic string) (<-chan string, func(), error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ch := make(chan string, 4)
	n.channels[topic] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.channels, topic)
			n.mu.Unlock()
		})
	}, nil
}

func (n *stubNotifier) Close() error { return nil }

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

var (
	patientActor = ports.Actor{ID: "patient-1", Role: domain.RolePatient, Name: "Jane Doe"}
	doctorActor  = ports.Actor{ID: domain.SeedDoctorID, Role: domain.RoleDoctor, Name: "Dr. Smith"}
	adminActor   = ports.Actor{ID: domain.SeedAdminID, Role: domain.RoleAdmin, Name: "Admin"}
)

func seededUsers() *stubUsers {
	users := &stubUsers{users: domain.DefaultUsers(domain.Now())}
	users.users = append(users.users, domain.User{ID: "patient-1", Email: "jane@example.com", Password: "pw", Role: domain.RolePatient, Name: "Jane Doe"})
	return users
}

func appointmentFixture(id, doctorID string, status domain.AppointmentStatus) domain.Appointment {
	return domain.Appointment{
		ID:          id,
		PatientID:   patientActor.ID,
		PatientName: patientActor.Name,
		DoctorID:    doctorID,
		DoctorName:  "Dr. Smith",
		Date:        "2024-05-01",
		Time:        "10:00",
		Status:      status,
		CreatedAt:   domain.Now(),
	}
}
