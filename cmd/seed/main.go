package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"gatepass/internal/config"
	"gatepass/internal/identity"
	"gatepass/internal/store"
)

// Seed provisions an idempotent demo dataset: one account per role plus a
// day scholar and a hosteller with profiles. Safe to rerun; accounts are
// upserted by email.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := store.EnsureSchema(ctx, db.Client); err != nil {
		log.Fatalf("ensure schema failed: %v", err)
	}

	repo := identity.NewRepository(db.Client)

	users := []struct {
		user     identity.User
		password string
		profile  *identity.StudentProfile
	}{
		{
			user:     identity.User{Email: "admin@college.edu", FirstName: "Site", LastName: "Admin", Role: identity.RoleAdmin},
			password: "admin123",
		},
		{
			user:     identity.User{Email: "principal@college.edu", FirstName: "Padma", LastName: "Rao", Role: identity.RolePrincipal},
			password: "principal123",
		},
		{
			user:     identity.User{Email: "hod.cse@college.edu", FirstName: "Hari", LastName: "Kumar", Role: identity.RoleHOD, Department: "CSE"},
			password: "hod123",
		},
		{
			user:     identity.User{Email: "incharge.cse@college.edu", FirstName: "Indra", LastName: "Devi", Role: identity.RoleClassIncharge, Department: "CSE"},
			password: "incharge123",
		},
		{
			user:     identity.User{Email: "faculty.cse@college.edu", FirstName: "Farid", LastName: "Khan", Role: identity.RoleFaculty, Department: "CSE"},
			password: "faculty123",
		},
		{
			user:     identity.User{Email: "gate@college.edu", FirstName: "Gate", LastName: "Security", Role: identity.RoleSecurity},
			password: "security123",
		},
		{
			user:     identity.User{Email: "dayscholar@college.edu", FirstName: "Divya", LastName: "S", Role: identity.RoleStudent, Department: "CSE"},
			password: "student123",
			profile: &identity.StudentProfile{
				RollNumber:  "21CSE042",
				ClassName:   "CSE-A",
				Section:     "A",
				Year:        3,
				Residency:   identity.ResidencyDayScholar,
				ParentPhone: "+919800000001",
				ParentEmail: "parent.divya@example.com",
			},
		},
		{
			user:     identity.User{Email: "hosteller@college.edu", FirstName: "Hemanth", LastName: "R", Role: identity.RoleStudent, Department: "ECE"},
			password: "student123",
			profile: &identity.StudentProfile{
				RollNumber:  "21ECE017",
				ClassName:   "ECE-B",
				Section:     "B",
				Year:        3,
				Residency:   identity.ResidencyHosteller,
				ParentPhone: "+919800000002",
				ParentEmail: "parent.hemanth@example.com",
			},
		},
	}

	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hash password for %s: %v", u.user.Email, err)
		}
		u.user.PasswordHash = string(hash)

		id, err := repo.UpsertUser(ctx, u.user)
		if err != nil {
			log.Fatalf("upsert %s: %v", u.user.Email, err)
		}
		if u.profile != nil {
			u.profile.UserID = id
			if err := repo.UpsertStudentProfile(ctx, *u.profile); err != nil {
				log.Fatalf("upsert profile for %s: %v", u.user.Email, err)
			}
		}
		log.Printf("seeded %-10s %s", u.user.Role, u.user.Email)
	}

	log.Println("done")
}
