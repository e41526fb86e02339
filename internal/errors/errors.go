// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package errors provides the structured error kinds surfaced by the
// proxyspec/option-set/filter core.
package errors

import (
	"errors"
	"fmt"
)

// Kind categorizes a startup failure. The core never recovers silently
// from any of these: they propagate to the startup driver, which prints
// one diagnostic and exits non-zero.
type Kind int

const (
	KindUnknown Kind = iota
	KindInternal
	// KindConfigSyntax: unrecognized directive or malformed name/value. Attributes: line.
	KindConfigSyntax
	// KindConfigValue: value out of range or of wrong shape. Attributes: line, option.
	KindConfigValue
	// KindProxySpecIncomplete: block spec missing a required address/port. Attributes: line.
	KindProxySpecIncomplete
	// KindMacroUndefined: rule references an undefined macro. Attributes: line, name.
	KindMacroUndefined
	// KindMacroRedefined: a macro name was defined twice. Attributes: line, name.
	KindMacroRedefined
	// KindUserAuthRequired: user/keyword rule on an OptionSet without user-auth. Attributes: line.
	KindUserAuthRequired
	// KindUnknownProtocol: proxyspec proto token not in the recognized set. Attributes: token.
	KindUnknownProtocol
	// KindUnknownNatEngine: NAT engine token not recognized. Attributes: token.
	KindUnknownNatEngine
	// KindIncludeRecursion: Include directive found inside an included file. Attributes: line.
	KindIncludeRecursion
	// KindResourceExhausted: allocation or setrlimit failure.
	KindResourceExhausted
	// KindCryptoLoad: certificate/key/DH material could not be loaded. Attributes: path.
	KindCryptoLoad
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindConfigSyntax:
		return "config_syntax"
	case KindConfigValue:
		return "config_value"
	case KindProxySpecIncomplete:
		return "proxyspec_incomplete"
	case KindMacroUndefined:
		return "macro_undefined"
	case KindMacroRedefined:
		return "macro_redefined"
	case KindUserAuthRequired:
		return "user_auth_required"
	case KindUnknownProtocol:
		return "unknown_protocol"
	case KindUnknownNatEngine:
		return "unknown_nat_engine"
	case KindIncludeRecursion:
		return "include_recursion"
	case KindResourceExhausted:
		return "resource_exhausted"
	case KindCryptoLoad:
		return "crypto_load"
	default:
		return "unknown"
	}
}

// Error is the structured error type used throughout the core.
type Error struct {
	Kind       Kind
	Message    string
	Underlying error
	Attributes map[string]any
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Underlying)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// New creates a new Error of the specified kind.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// Errorf creates a new Error of the specified kind with a formatted message.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error as a new Error of the specified kind.
func Wrap(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: msg, Underlying: err}
}

// Wrapf wraps an existing error as a new Error of the specified kind with a formatted message.
func Wrapf(err error, kind Kind, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Underlying: err}
}

// Attr attaches an attribute to an error, wrapping it as KindInternal if
// it isn't already a *Error.
func Attr(err error, key string, val any) error {
	if err == nil {
		return nil
	}

	var e *Error
	if !errors.As(err, &e) {
		e = &Error{Kind: KindInternal, Message: err.Error(), Underlying: err}
	}

	if e.Attributes == nil {
		e.Attributes = make(map[string]any)
	}
	e.Attributes[key] = val
	return e
}

// WithLine is a convenience wrapper for the common line-numbered kinds.
func WithLine(kind Kind, line int, msg string) error {
	return Attr(New(kind, msg), "line", line)
}

// GetKind returns the Kind of the error, or KindUnknown if it isn't ours.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// GetAttributes returns all attributes associated with the error and its chain.
func GetAttributes(err error) map[string]any {
	attrs := make(map[string]any)
	var e *Error

	tempErr := err
	for tempErr != nil {
		if errors.As(tempErr, &e) {
			for k, v := range e.Attributes {
				if _, ok := attrs[k]; !ok {
					attrs[k] = v
				}
			}
			tempErr = e.Underlying
		} else {
			break
		}
	}

	return attrs
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling Unwrap on err, if it has one.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}
