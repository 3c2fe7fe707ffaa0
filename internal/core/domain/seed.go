package domain

// Seeded account identifiers.
const (
	SeedAdminID  = "admin-001"
	SeedDoctorID = "doctor-001"
)

// DefaultUsers returns the accounts written into an empty user collection.
func DefaultUsers(now Timestamp) []User {
	return []User{
		{
			ID:        SeedAdminID,
			Email:     "admin@hospital.com",
			Password:  "admin123",
			Role:      RoleAdmin,
			Name:      "Admin",
			CreatedAt: now,
		},
		{
			ID:             SeedDoctorID,
			Email:          "doctor@hospital.com",
			Password:       "doctor123",
			Role:           RoleDoctor,
			Name:           "Dr. Smith",
			Specialization: "General Physician",
			Phone:          "+1234567890",
			CreatedAt:      now,
		},
	}
}
