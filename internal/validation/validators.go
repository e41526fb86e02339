// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package validation holds small, dependency-light validators shared by
// the option-set, filter, and proxyspec packages.
package validation

import (
	"net"
	"strconv"
	"strings"

	"github.com/miekg/dns"

	"sslproxy.dev/core/internal/errors"
)

// userTokenForbidden are the characters user/pass list values are
// split on; a literal containing any of them cannot be represented
// and is rejected rather than given a quoting syntax.
const userTokenForbidden = " \t,"

// ValidateIdentifier validates a macro name, user name, or keyword
// token: non-empty and free of the list-tokenizer split characters.
func ValidateIdentifier(id string) error {
	if id == "" {
		return errors.New(errors.KindConfigSyntax, "identifier cannot be empty")
	}
	if strings.ContainsAny(id, userTokenForbidden) {
		return errors.Errorf(errors.KindConfigSyntax, "identifier %q contains a space, tab, or comma", id)
	}
	return nil
}

// ValidateIPOrCIDR validates an IP address or CIDR range given for a
// proxyspec address field (listen, target, divert, or return address).
func ValidateIPOrCIDR(s string) error {
	if s == "" {
		return errors.New(errors.KindConfigValue, "IP/CIDR cannot be empty")
	}
	if strings.Contains(s, "/") {
		if _, _, err := net.ParseCIDR(s); err != nil {
			return errors.Wrap(err, errors.KindConfigValue, "invalid CIDR")
		}
		return nil
	}
	if net.ParseIP(s) == nil {
		return errors.Errorf(errors.KindConfigValue, "invalid IP address: %s", s)
	}
	return nil
}

// ValidatePortNumber validates a port literal and returns its numeric value.
func ValidatePortNumber(raw string) (int, error) {
	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, errors.KindConfigValue, "invalid port %q", raw)
	}
	if port < 1 || port > 65535 {
		return 0, errors.Errorf(errors.KindConfigValue, "port %d out of range (1-65535)", port)
	}
	return port, nil
}

// ValidateHostname validates a non-wildcard site selector literal
// (SNI/CN/Host) as a syntactically well-formed DNS name. This never
// performs DNS I/O; it is a pure syntax check run once at rule-compile
// time.
func ValidateHostname(name string) error {
	if name == "" {
		return errors.New(errors.KindConfigValue, "hostname cannot be empty")
	}
	if _, ok := dns.IsDomainName(name); !ok {
		return errors.Errorf(errors.KindConfigValue, "invalid hostname: %s", name)
	}
	return nil
}

// ValidateRange validates that lo <= value <= hi, returning a precise
// out-of-range message naming both the offending value and the bound.
func ValidateRange(option string, value, lo, hi int) error {
	if value < lo || value > hi {
		return errors.Attr(
			errors.Errorf(errors.KindConfigValue, "%s=%d out of range [%d,%d]", option, value, lo, hi),
			"option", option,
		)
	}
	return nil
}
