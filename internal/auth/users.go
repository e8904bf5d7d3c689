package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// User is a dashboard account with a bcrypt password hash.
type User struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	Role         Role   `yaml:"role"`
}

type usersFile struct {
	Users []User `yaml:"users"`
}

// Users authenticates dashboard accounts.
type Users struct {
	byName map[string]User
	dummy  []byte
}

// NewUsers validates accounts and indexes them by lower-cased username.
func NewUsers(users []User) (*Users, error) {
	byName := make(map[string]User, len(users))
	for _, user := range users {
		name := strings.ToLower(strings.TrimSpace(user.Username))
		if name == "" {
			return nil, errors.New("auth: user without username")
		}
		if _, ok := NormalizeRole(string(user.Role)); !ok {
			return nil, fmt.Errorf("auth: user %q has invalid role %q", user.Username, user.Role)
		}
		if _, err := bcrypt.Cost([]byte(user.PasswordHash)); err != nil {
			return nil, fmt.Errorf("auth: user %q: %w", user.Username, err)
		}
		if _, dup := byName[name]; dup {
			return nil, fmt.Errorf("auth: duplicate user %q", user.Username)
		}
		user.Username = name
		byName[name] = user
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("dstech-dashboard"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	return &Users{byName: byName, dummy: dummy}, nil
}

// LoadUsers reads accounts from a YAML file with a top-level users list.
func LoadUsers(path string) (*Users, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("auth: read users: %w", err)
	}
	var file usersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("auth: parse users: %w", err)
	}
	return NewUsers(file.Users)
}

// Authenticate verifies a password. Unknown users still pay a bcrypt
// comparison.
func (u *Users) Authenticate(username, password string) (User, error) {
	if u == nil {
		return User{}, ErrInvalidCredentials
	}
	user, ok := u.byName[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(u.dummy, []byte(password))
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Len reports the number of accounts.
func (u *Users) Len() int {
	if u == nil {
		return 0
	}
	return len(u.byName)
}

// HashPassword produces a bcrypt hash for a users file.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
