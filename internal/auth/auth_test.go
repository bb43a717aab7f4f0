package auth

import (
	"testing"
	"time"
)

func setTestSecret(t *testing.T) {
	t.Helper()
	ResetSecretForTests()
	t.Setenv(secretEnvVariable, "test-secret")
	t.Cleanup(ResetSecretForTests)
}

func TestGenerateAndValidateToken(t *testing.T) {
	setTestSecret(t)

	token, err := GenerateToken("user-42", []string{"Admin", "admin", " "}, 30*time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseAndValidate(token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.Subject != "user-42" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != RoleAdmin {
		t.Fatalf("roles should be deduplicated and normalized: %v", claims.Roles)
	}

	id := claims.Identity()
	if !id.Authenticated || !id.Superuser || id.UserID != "user-42" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestMemberTokenHasNoSuperuser(t *testing.T) {
	setTestSecret(t)

	token, err := GenerateToken("member-7", nil, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := ParseAndValidate(token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	id := claims.Identity()
	if !id.Authenticated || id.Superuser {
		t.Fatalf("member identity should not be superuser: %+v", id)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	setTestSecret(t)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := ParseAndValidate(token); err == nil {
			t.Fatalf("token %q should fail validation", token)
		}
	}
}

func TestGenerateTokenRequiresSecret(t *testing.T) {
	ResetSecretForTests()
	t.Setenv(secretEnvVariable, "")
	t.Cleanup(ResetSecretForTests)

	if _, err := GenerateToken("user-42", nil, time.Minute); err == nil {
		t.Fatalf("expected error without configured secret")
	}
}

func TestGenerateTokenRejectsBadInput(t *testing.T) {
	setTestSecret(t)

	if _, err := GenerateToken("", nil, time.Minute); err == nil {
		t.Fatalf("expected error for empty user id")
	}
	if _, err := GenerateToken("user-42", nil, 0); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}
