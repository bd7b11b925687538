// Package auth authenticates staff accounts and issues bearer tokens that
// carry the resulting principal.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"venueflow/pkg/domain"
)

// ErrInvalidCredentials is returned for an unknown account or a wrong password.
var ErrInvalidCredentials = errors.New("invalid account or password")

// DefaultPassword is the password of the built-in demo accounts.
const DefaultPassword = "123456"

// Account is one login with its bcrypt password hash.
type Account struct {
	Username     string
	PasswordHash []byte
	Principal    domain.Principal
}

// NewAccount hashes password and returns the account for principal.
func NewAccount(username, password string, principal domain.Principal) (Account, error) {
	if strings.TrimSpace(username) == "" {
		return Account{}, errors.New("username required")
	}
	if !principal.Role.Valid() || principal.StaffNo == "" {
		return Account{}, fmt.Errorf("account %s: invalid principal", username)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, fmt.Errorf("hash password for %s: %w", username, err)
	}
	return Account{Username: username, PasswordHash: hash, Principal: principal}, nil
}

// DefaultAccounts returns the demo logins: two sales staff and their leader.
func DefaultAccounts() ([]Account, error) {
	seeds := []struct {
		username  string
		principal domain.Principal
	}{
		{"sales001", domain.Principal{StaffNo: "S0000001", Name: "张三", Role: domain.RoleSales}},
		{"sales002", domain.Principal{StaffNo: "S0000002", Name: "李四", Role: domain.RoleSales}},
		{"leader001", domain.Principal{StaffNo: "L0000001", Name: "王队长", Role: domain.RoleLeader}},
	}
	accounts := make([]Account, 0, len(seeds))
	for _, s := range seeds {
		account, err := NewAccount(s.username, DefaultPassword, s.principal)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// Directory resolves logins to principals. It is read-only after construction.
type Directory struct {
	accounts map[string]Account
}

// NewDirectory indexes accounts by username.
func NewDirectory(accounts []Account) (*Directory, error) {
	d := &Directory{accounts: make(map[string]Account, len(accounts))}
	for _, a := range accounts {
		if _, dup := d.accounts[a.Username]; dup {
			return nil, fmt.Errorf("duplicate account %s", a.Username)
		}
		d.accounts[a.Username] = a
	}
	return d, nil
}

// Authenticate checks the password of account and returns its principal.
func (d *Directory) Authenticate(account, password string) (domain.Principal, error) {
	a, ok := d.accounts[strings.TrimSpace(account)]
	if !ok {
		return domain.Principal{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)); err != nil {
		return domain.Principal{}, ErrInvalidCredentials
	}
	return a.Principal, nil
}
