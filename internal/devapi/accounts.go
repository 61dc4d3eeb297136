package devapi

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Roles known to the book-library API
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

var ErrAccountNotFound = errors.New("account not found")

// Account is a user of the development API
type Account struct {
	ID           string
	Name         string
	Email        string
	Roles        []string
	PasswordHash string
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Accounts is an in-memory account directory keyed by login name (case insensitive)
type Accounts struct {
	accounts map[string]*Account
	lock     sync.RWMutex
}

func NewAccounts() *Accounts {
	return &Accounts{accounts: make(map[string]*Account)}
}

// Add registers an account. login is what the user types as username; it doubles as the email.
func (a *Accounts) Add(login, name, password string, roles ...string) (*Account, error) {
	if strings.TrimSpace(login) == "" {
		return nil, errors.New("[Accounts.Add] login is required")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		roles = []string{RoleUser}
	}
	if name == "" {
		name = login
	}

	account := &Account{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        login,
		Roles:        roles,
		PasswordHash: hash,
	}

	a.lock.Lock()
	defer a.lock.Unlock()
	a.accounts[strings.ToLower(login)] = account
	return account, nil
}

// Authenticate returns the account when the password matches
func (a *Accounts) Authenticate(login, password string) (*Account, error) {
	a.lock.RLock()
	account, ok := a.accounts[strings.ToLower(login)]
	a.lock.RUnlock()
	if !ok {
		return nil, ErrAccountNotFound
	}
	if !CheckPasswordHash(password, account.PasswordHash) {
		return nil, errors.New("password mismatch")
	}
	return account, nil
}

func (a *Accounts) GetByID(id string) (*Account, error) {
	a.lock.RLock()
	defer a.lock.RUnlock()
	for _, account := range a.accounts {
		if account.ID == id {
			return account, nil
		}
	}
	return nil, ErrAccountNotFound
}
