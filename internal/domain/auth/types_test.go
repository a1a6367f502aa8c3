package auth

import (
	"context"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"admin", RoleAdmin},
		{"ADMIN", RoleAdmin},
		{"Profesor", RoleInstructor},
		{" profesor ", RoleInstructor},
		{"secretaria", Role("secretaria")},
		{"", Role("")},
	}
	for _, tt := range tests {
		if got := ParseRole(tt.in); got != tt.want {
			t.Fatalf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRole_IsIgnoresCase(t *testing.T) {
	if !Role("Profesor").Is(RoleInstructor) {
		t.Fatalf("expected Profesor to match instructor role")
	}
	if Role("profesora").Is(RoleInstructor) {
		t.Fatalf("did not expect partial match")
	}
	if Role("otro").Known() {
		t.Fatalf("unexpected known role")
	}
}

func TestSnapshot_State(t *testing.T) {
	if got := (Snapshot{}).State(); got != StateUnauthenticated {
		t.Fatalf("got %v", got)
	}
	if got := (Snapshot{Authenticated: true}).State(); got != StateAuthenticatedNoProfile {
		t.Fatalf("got %v", got)
	}
	s := Snapshot{Authenticated: true, User: &CurrentUser{ID: "u1", Role: "ADMIN"}}
	if got := s.State(); got != StateAuthenticatedWithProfile {
		t.Fatalf("got %v", got)
	}
	if !s.HasRole(RoleAdmin) || s.HasRole(RoleInstructor) {
		t.Fatalf("unexpected role match for %+v", s.User)
	}
	// A user without authentication never satisfies a role check.
	if (Snapshot{User: &CurrentUser{Role: RoleAdmin}}).HasRole(RoleAdmin) {
		t.Fatalf("role matched on unauthenticated snapshot")
	}
}

func TestClientIDContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := ClientIDFromContext(ctx); ok {
		t.Fatalf("expected no client id")
	}
	if got := WithClientID(ctx, ""); got != ctx {
		t.Fatalf("empty id should return the same context")
	}
	id, ok := ClientIDFromContext(WithClientID(ctx, "c-1"))
	if !ok || id != "c-1" {
		t.Fatalf("got %q %v", id, ok)
	}
}
