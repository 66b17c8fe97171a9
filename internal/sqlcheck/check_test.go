package sqlcheck

import (
	"strings"
	"testing"
)

func TestValidateAcceptsWellFormedStatements(t *testing.T) {
	statements := []string{
		"SELECT 1;",
		"SELECT id, email FROM users WHERE active = true ORDER BY id LIMIT 10;",
		"SELECT u.id, count(o.id) FROM users u JOIN orders o ON o.user_id = u.id GROUP BY u.id;",
	}
	for _, stmt := range statements {
		ok, reason := Validate(stmt)
		if !ok {
			t.Errorf("Validate(%q) rejected: %s", stmt, reason)
		}
	}
}

func TestValidateRejectsBrokenStatements(t *testing.T) {
	cases := []struct {
		stmt string
	}{
		{"SELEKT * FORM users;"},
		{"SELECT FROM WHERE;"},
		{""},
		{"   "},
	}
	for _, tc := range cases {
		ok, reason := Validate(tc.stmt)
		if ok {
			t.Errorf("Validate(%q) accepted", tc.stmt)
		}
		if reason == "" {
			t.Errorf("Validate(%q) returned empty reason", tc.stmt)
		}
	}
}

func TestValidateEmptyReason(t *testing.T) {
	ok, reason := Validate("SELECT now();")
	if !ok || reason != "" {
		t.Fatalf("Validate() = %v, %q", ok, reason)
	}
}

func TestValidateReasonMentionsSyntax(t *testing.T) {
	ok, reason := Validate("SELECT * FROM users WHERE;")
	if ok {
		t.Fatal("expected rejection")
	}
	if !strings.Contains(strings.ToLower(reason), "syntax") {
		t.Fatalf("reason = %q", reason)
	}
}
