// Package keyring keeps the PostgreSQL connection string in the OS keyring
// so it never has to be written to config.yaml.
package keyring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/cadence/internal/constants"
)

var (
	ErrNotFound           = errors.New("credentials not found in keyring")
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Secret is one keyring entry.
type Secret struct {
	Service string
	Account string
}

var (
	connection = Secret{Service: constants.AppName, Account: constants.DefaultKeyringUser}
	probe      = Secret{Service: constants.AppName, Account: "availability-probe"}
)

// translate maps go-keyring errors onto this package's sentinels.
func (s Secret) translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, keyring.ErrNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("%w: %s %s/%s: %v", ErrKeyringUnavailable, op, s.Service, s.Account, err)
	}
}

func (s Secret) Get() (string, error) {
	v, err := keyring.Get(s.Service, s.Account)
	return v, s.translate("read", err)
}

func (s Secret) Set(value string) error {
	return s.translate("write", keyring.Set(s.Service, s.Account, value))
}

func (s Secret) Delete() error {
	return s.translate("delete", keyring.Delete(s.Service, s.Account))
}

// GetConnectionString returns the stored connection string or ErrNotFound.
func GetConnectionString() (string, error) {
	return connection.Get()
}

// SetConnectionString stores connStr, trimmed of surrounding whitespace.
func SetConnectionString(connStr string) error {
	connStr = strings.TrimSpace(connStr)
	if connStr == "" {
		return errors.New("connection string cannot be empty")
	}
	return connection.Set(connStr)
}

func DeleteConnectionString() error {
	return connection.Delete()
}

// IsAvailable reports whether the keyring answers reads. An empty keyring
// counts as available.
func IsAvailable() bool {
	_, err := probe.Get()
	return err == nil || errors.Is(err, ErrNotFound)
}
