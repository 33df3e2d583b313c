package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      ErrorClass
		retryable bool
	}{
		{"nil", nil, ErrorClassPermanent, false},
		{"serialization", &pq.Error{Code: "40001"}, ErrorClassSerialization, true},
		{"deadlock", &pq.Error{Code: "40P01"}, ErrorClassDeadlock, true},
		{"lock not available", &pq.Error{Code: "55P03"}, ErrorClassTransient, true},
		{"wrapped serialization", fmt.Errorf("update order: %w", &pq.Error{Code: "40001"}), ErrorClassSerialization, true},
		{"unique violation", &pq.Error{Code: "23505"}, ErrorClassPermanent, false},
		{"sentinel", ErrOrderNotFound, ErrorClassPermanent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError() = %v, want %v", got, tt.want)
			}
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	if !IsForeignKeyViolation(fmt.Errorf("insert item: %w", &pq.Error{Code: "23503"})) {
		t.Error("expected wrapped 23503 to be a foreign key violation")
	}
	if IsForeignKeyViolation(errors.New("boom")) {
		t.Error("plain error should not be a foreign key violation")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(fmt.Errorf("create product: %w", &pq.Error{Code: "23505"})) {
		t.Error("expected wrapped 23505 to be a unique violation")
	}
	if IsUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Error("foreign key violation should not be a unique violation")
	}
}
