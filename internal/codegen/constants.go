// Package codegen provides code generation helpers and constants.
package codegen

import (
	"go/token"
	"unicode"
	"unicode/utf8"
)

// RuntimePath is the import path of the package generated code links against.
const RuntimePath = "github.com/trre-go/trre/pkg/trre"

// RuntimeName is the package name generated code uses for RuntimePath.
const RuntimeName = "trre"

// Variable names used in generated code
const (
	InputName     = "input"
	ReferenceName = "reference"
	InputsName    = "inputs"
)

// TableName returns the unexported name of the transition table for name.
func TableName(name string) string {
	return LowerFirst(name) + "Table"
}

// IsIdentifier reports whether name can prefix exported Go identifiers.
func IsIdentifier(name string) bool {
	return token.IsIdentifier(name) && name != "_"
}

// LowerFirst converts the first character of a string to lowercase.
func LowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToLower(r)) + s[n:]
}

// UpperFirst converts the first character of a string to uppercase.
func UpperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}
