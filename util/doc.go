// Package util provides small generic helpers used across fnkit,
// currently pointer construction and dereferencing for optional
// configuration fields.
package util
