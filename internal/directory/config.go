package directory

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPort           = 389
	DefaultTLSPort        = 636
	DefaultConnectTimeout = 30 * time.Second
	DefaultReadTimeout    = 30 * time.Second
	DefaultMaxRetries     = 3
	DefaultRetryDelay     = 5 * time.Second
)

// Config describes how to reach and authenticate against the directory.
type Config struct {
	Host                  string
	Port                  int
	UseTLS                bool
	TLSInsecureSkipVerify bool
	Domain                string
	BindUser              string
	BindPassword          string
	BaseDN                string
	ConnectTimeout        time.Duration
	ReadTimeout           time.Duration
	MaxRetries            int
	RetryDelay            time.Duration
	// ModifyRate caps modify operations per second; zero means unlimited.
	ModifyRate float64
}

// WithDefaults fills zero values with the documented defaults.
func (c Config) WithDefaults() Config {
	if c.Port == 0 {
		c.Port = DefaultPort
		if c.UseTLS {
			c.Port = DefaultTLSPort
		}
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	return c
}

// Validate reports missing settings that make a session impossible.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Host) == "" {
		errs = append(errs, errors.New("directory host is required"))
	}
	if strings.TrimSpace(c.BaseDN) == "" {
		errs = append(errs, errors.New("directory base DN is required"))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("directory port %d out of range", c.Port))
	}
	return errors.Join(errs...)
}

// Address is host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// URL is the LDAP URL for the configured endpoint.
func (c Config) URL() string {
	scheme := "ldap"
	if c.UseTLS {
		scheme = "ldaps"
	}
	return scheme + "://" + c.Address()
}

// BindName is the principal used for the simple bind. A bare user name is
// qualified with the domain as a UPN (user@domain).
func (c Config) BindName() string {
	user := strings.TrimSpace(c.BindUser)
	if c.Domain == "" || strings.ContainsAny(user, `@\=`) {
		return user
	}
	return user + "@" + c.Domain
}
