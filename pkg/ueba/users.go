package ueba

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials covers both unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountBlocked is returned when a blocked account authenticates with
	// valid credentials.
	ErrAccountBlocked = errors.New("access denied: account has been blocked")
)

// User is one entry in the user directory.
type User struct {
	ID           string `json:"user_id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	Department   string `json:"department"`
	passwordHash []byte
}

// Directory holds the known users. The directory is read-only after
// construction.
type Directory struct {
	users []User
}

// Seed describes one user to load, with a plaintext password that is hashed
// at construction time.
type Seed struct {
	ID         string
	Email      string
	Name       string
	Role       string
	Department string
	Password   string
}

// NewDirectory builds a Directory from seeds, hashing every password with
// bcrypt.
func NewDirectory(seeds []Seed) (*Directory, error) {
	d := &Directory{}
	for _, s := range seeds {
		hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", s.ID, err)
		}
		d.users = append(d.users, User{
			ID:           s.ID,
			Email:        s.Email,
			Name:         s.Name,
			Role:         s.Role,
			Department:   s.Department,
			passwordHash: hash,
		})
	}
	return d, nil
}

// DefaultSeeds returns the demo fleet-operations staff plus one external
// account used to exercise the unauthorized-access rule.
func DefaultSeeds() []Seed {
	return []Seed{
		{ID: "U001", Email: "alice.manager@autoguard.com", Name: "Alice Manager", Role: "fleet_manager", Department: "Operations", Password: "password"},
		{ID: "U002", Email: "bob.mechanic@autoguard.com", Name: "Bob Mechanic", Role: "mechanic", Department: "Maintenance", Password: "password"},
		{ID: "U003", Email: "charlie.admin@autoguard.com", Name: "Charlie Admin", Role: "admin", Department: "IT", Password: "password"},
		{ID: "U004", Email: "eve.hacker@external.com", Name: "Eve Hacker", Role: "external", Department: "External", Password: "password"},
	}
}

// Users returns a copy of all users.
func (d *Directory) Users() []User {
	return append([]User(nil), d.users...)
}

func (d *Directory) byID(userID string) *User {
	for i := range d.users {
		if d.users[i].ID == userID {
			return &d.users[i]
		}
	}
	return nil
}

func (d *Directory) byEmail(email string) *User {
	for i := range d.users {
		if d.users[i].Email == email {
			return &d.users[i]
		}
	}
	return nil
}

// Authenticate validates credentials against the directory and the blocked
// set. Wrong passwords are logged as failed_login so the brute-force rule
// sees them; blocked accounts are logged as blocked_login_attempt and fail
// with ErrAccountBlocked rather than a credential error.
func (d *Detector) Authenticate(email, password string) (*User, error) {
	user := d.users.byEmail(email)
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.passwordHash, []byte(password)); err != nil {
		d.LogActivity(user.ID, "failed_login", map[string]any{"email": email})
		return nil, ErrInvalidCredentials
	}
	if d.IsBlocked(user.ID) {
		d.LogActivity(user.ID, "blocked_login_attempt", map[string]any{"email": email})
		return nil, ErrAccountBlocked
	}
	u := *user
	return &u, nil
}
