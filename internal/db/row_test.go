package db

import (
	"errors"
	"math"
	"testing"
)

func TestSchema_Decode(t *testing.T) {
	s := Schema{
		"lang":     FieldTag,
		"title":    FieldText,
		"quality":  FieldNumeric,
		"page_id":  FieldInteger,
		"bin":      FieldInteger,
		"is_float": FieldNumeric,
	}

	tests := []struct {
		field, raw string
		want       any
	}{
		{"lang", "en", "en"},
		{"title", "1984", "1984"},
		{"quality", "87.5", 87.5},
		{"quality", "oops", nil},
		{"page_id", "12", int64(12)},
		{"page_id", "12.0", int64(12)},
		{"bin", "12.5", nil},
		{"unknown", "42", "42"},
	}
	for _, tc := range tests {
		got := s.Decode(tc.field, tc.raw)
		if got != tc.want {
			t.Errorf("Decode(%q, %q) = %#v, want %#v", tc.field, tc.raw, got, tc.want)
		}
	}
}

func TestSchema_DecodeHash(t *testing.T) {
	s := Schema{"quality": FieldNumeric}
	row := s.DecodeHash(map[string]string{"quality": "50", "lang": "fr"})
	if row["quality"] != 50.0 || row["lang"] != "fr" {
		t.Errorf("unexpected row: %v", row)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{int(3), int64(3)},
		{int32(-1), int64(-1)},
		{float32(0.5), 0.5},
		{true, int64(1)},
		{false, int64(0)},
		{"x", "x"},
		{nil, nil},
		{math.NaN(), nil},
		{math.Inf(1), nil},
		{float32(math.Inf(-1)), nil},
	}
	for _, tc := range tests {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%#v) = %#v, want %#v", tc.in, got, tc.want)
		}
	}
}

func TestAsFloat(t *testing.T) {
	if f, ok := AsFloat(int32(2)); !ok || f != 2 {
		t.Errorf("AsFloat(int32) = %v, %v", f, ok)
	}
	if _, ok := AsFloat("2"); ok {
		t.Error("strings are not numeric")
	}
	if _, ok := AsFloat(math.NaN()); ok {
		t.Error("NaN is not a usable number")
	}
}

func TestIndexConflictError(t *testing.T) {
	err := NewIndexConflict("lang_1",
		[]IndexKey{{"lang", Descending}},
		[]IndexKey{{"lang", Ascending}},
	)
	if !errors.Is(err, ErrIndexConflict) {
		t.Fatal("expected errors.Is ErrIndexConflict")
	}
	want := `db: index conflict: "lang_1" exists with keys {lang: -1}, requested {lang: 1}`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestUnavailable(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Unavailable(OpPing, cause)

	if !errors.Is(err, ErrStorageUnavailable) {
		t.Error("expected ErrStorageUnavailable")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be preserved")
	}
	var dbErr *Error
	if !errors.As(err, &dbErr) || dbErr.Op != OpPing {
		t.Errorf("expected *db.Error with op PING, got %v", err)
	}
	if !errors.Is(ErrCollectionNotFound, ErrStorageUnavailable) {
		t.Error("collection not found must be a storage unavailable condition")
	}
}
