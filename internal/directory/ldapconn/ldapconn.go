// Package ldapconn implements directory.Dialer on top of go-ldap.
package ldapconn

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/go-ldap/ldap/v3"

	"github.com/bellsc7/hrsyncad/internal/directory"
)

// Dialer dials LDAP or LDAPS using the directory configuration.
type Dialer struct {
	// TLSConfig overrides the client TLS settings for LDAPS.
	TLSConfig *tls.Config
}

// Dial opens a connection with the configured connect timeout and applies
// the read timeout to every subsequent request.
func (d Dialer) Dial(ctx context.Context, cfg directory.Config) (directory.Conn, error) {
	netDialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	if deadline, ok := ctx.Deadline(); ok {
		netDialer.Deadline = deadline
	}
	opts := []ldap.DialOpt{ldap.DialWithDialer(netDialer)}
	if cfg.UseTLS {
		tlsConfig := d.TLSConfig
		if tlsConfig == nil {
			tlsConfig = &tls.Config{
				ServerName:         cfg.Host,
				InsecureSkipVerify: cfg.TLSInsecureSkipVerify, //nolint:gosec // opt-in for lab directories
				MinVersion:         tls.VersionTLS12,
			}
		}
		opts = append(opts, ldap.DialWithTLSConfig(tlsConfig))
	}

	conn, err := ldap.DialURL(cfg.URL(), opts...)
	if err != nil {
		return nil, translate("dial", err)
	}
	if cfg.ReadTimeout > 0 {
		conn.SetTimeout(cfg.ReadTimeout)
	}
	return &Conn{conn: conn}, nil
}

// Conn adapts *ldap.Conn to directory.Conn.
type Conn struct {
	conn *ldap.Conn
}

func (c *Conn) Bind(username, password string) error {
	if err := c.conn.Bind(username, password); err != nil {
		return translate("bind", err)
	}
	return nil
}

func (c *Conn) Search(_ context.Context, baseDN, filter string, attrs []string) ([]directory.Entry, error) {
	req := ldap.NewSearchRequest(
		baseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		filter,
		attrs,
		nil,
	)
	res, err := c.conn.Search(req)
	if err != nil {
		return nil, translate("search", err)
	}
	entries := make([]directory.Entry, 0, len(res.Entries))
	for _, e := range res.Entries {
		entry, err := toEntry(e)
		if err != nil {
			return nil, &directory.ProtocolError{Op: "search", Err: err}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (c *Conn) Modify(_ context.Context, dn string, changes []directory.AttributeChange) error {
	req := ldap.NewModifyRequest(dn, nil)
	for _, ch := range changes {
		req.Replace(ch.Name, ch.Values)
	}
	if err := c.conn.Modify(req); err != nil {
		return translate("modify", err)
	}
	return nil
}

func (c *Conn) Close() error {
	if err := c.conn.Unbind(); err != nil && !ldap.IsErrorWithCode(err, ldap.ErrorNetwork) {
		_ = c.conn.Close()
		return fmt.Errorf("unbind: %w", err)
	}
	return c.conn.Close()
}

func toEntry(e *ldap.Entry) (directory.Entry, error) {
	out := directory.Entry{
		DN:         e.DN,
		Phone:      e.GetAttributeValue(directory.AttrPhone),
		Department: e.GetAttributeValue(directory.AttrDepartment),
		Title:      e.GetAttributeValue(directory.AttrTitle),
		EmployeeID: e.GetAttributeValue(directory.AttrEmployeeID),
	}
	if dn := e.GetAttributeValue(directory.AttrDistinguishedName); dn != "" {
		out.DN = dn
	}
	if raw := e.GetAttributeValue(directory.AttrControlFlags); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return directory.Entry{}, fmt.Errorf("parse %s of %s: %w", directory.AttrControlFlags, out.DN, err)
		}
		out.ControlFlags = v
	}
	if raw := e.GetAttributeValue(directory.AttrAccountExpires); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return directory.Entry{}, fmt.Errorf("parse %s of %s: %w", directory.AttrAccountExpires, out.DN, err)
		}
		out.AccountExpires = &v
	}
	return out, nil
}

// translate maps go-ldap failures onto the directory error taxonomy.
func translate(op string, err error) error {
	var lerr *ldap.Error
	if errors.As(err, &lerr) {
		switch lerr.ResultCode {
		case ldap.ErrorNetwork, ldap.LDAPResultUnavailable, ldap.LDAPResultBusy:
			return &directory.SessionLostError{Op: op, Err: err}
		}
		return &directory.ProtocolError{
			Op:         op,
			ResultCode: lerr.ResultCode,
			Message:    ldap.LDAPResultCodeMap[lerr.ResultCode],
			Err:        err,
		}
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return &directory.SessionLostError{Op: op, Err: err}
	}
	return err
}
