package pipe

import (
	"reflect"
	"strings"
	"testing"

	"github.com/fnkit/fnkit/errors"
)

func TestOpAppliesRegisteredOperation(t *testing.T) {
	ext := NewExtensions()
	ext.RegisterOp("scale", func(v any, args ...any) (any, error) {
		return v.(int) * args[0].(int), nil
	})

	got := mustList(t, From([]any{1, 2, 3}, WithExtensions(ext)).Op("scale", 10))
	want := []any{10, 20, 30}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Op(scale) = %v, want %v", got, want)
	}
}

func TestOpUnknownName(t *testing.T) {
	ext := NewExtensions()
	_, err := From([]any{1}, WithExtensions(ext)).Op("nope").ToList()
	if !errors.IsCode(err, errors.ErrCodeUnsupportedOp) {
		t.Fatalf("Op(nope) error = %v, want UNSUPPORTED_OP", err)
	}
}

func TestOpRegisteredAfterChaining(t *testing.T) {
	// Registration is read at materialization, so an op registered after
	// the chain was built still resolves.
	ext := NewExtensions()
	p := From([]any{2}, WithExtensions(ext)).Op("double")
	ext.RegisterOp("double", func(v any, args ...any) (any, error) {
		return v.(int) * 2, nil
	})

	got := mustList(t, p)
	if !reflect.DeepEqual(got, []any{4}) {
		t.Errorf("Op(double) = %v, want [4]", got)
	}
}

func TestApplyTypeOpPerElement(t *testing.T) {
	ext := NewExtensions()
	ext.RegisterTypeOp(reflect.TypeOf(""), "upper", func(v any, args ...any) (any, error) {
		return strings.ToUpper(v.(string)), nil
	})

	got := mustList(t, From([]any{"ab", "cd"}, WithExtensions(ext)).Apply("upper"))
	want := []any{"AB", "CD"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply(upper) = %v, want %v", got, want)
	}
}

func TestApplyOnScalarKeepsShape(t *testing.T) {
	ext := NewExtensions()
	ext.RegisterTypeOp(reflect.TypeOf(""), "surround", func(v any, args ...any) (any, error) {
		wrap := args[0].(string)
		return wrap + v.(string) + wrap, nil
	})

	got, err := From("abc", WithExtensions(ext)).Apply("surround", "*").Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "*abc*" {
		t.Errorf("Get() = %v, want *abc*", got)
	}
}

func TestApplyUnregisteredType(t *testing.T) {
	ext := NewExtensions()
	ext.RegisterTypeOp(reflect.TypeOf(""), "upper", func(v any, args ...any) (any, error) {
		return strings.ToUpper(v.(string)), nil
	})

	_, err := From([]any{1}, WithExtensions(ext)).Apply("upper").ToList()
	if !errors.IsCode(err, errors.ErrCodeUnsupportedOp) {
		t.Fatalf("Apply(upper) on int error = %v, want UNSUPPORTED_OP", err)
	}
}

func TestDefaultExtensionsShared(t *testing.T) {
	if DefaultExtensions() != DefaultExtensions() {
		t.Error("DefaultExtensions() is not a singleton")
	}
}
