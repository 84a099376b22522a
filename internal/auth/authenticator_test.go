package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/consultly/gateway/internal/tenant"
	"github.com/consultly/gateway/internal/user"
)

const (
	testKeyT1 = "t1-signing-key"
	testKeyT2 = "t2-signing-key"
)

// fakeDirectory serves canned users keyed by tenant+subject.
type fakeDirectory struct {
	users map[string]*user.User
	err   error
}

func (d *fakeDirectory) FindBySubject(_ context.Context, tenantID, subjectID string) (*user.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	u, ok := d.users[tenantID+"/"+subjectID]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func signToken(t *testing.T, key, subject string, expiresIn time.Duration) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	signed, err := token.SignedString([]byte(key))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return signed
}

func newTestAuthenticator(t *testing.T, dir user.Directory) *Authenticator {
	t.Helper()

	registry, err := tenant.NewRegistry([]tenant.Config{
		{ID: "t1", Name: "Acme", AuthServiceKey: testKeyT1},
		{ID: "t2", Name: "Globex", AuthServiceKey: testKeyT2},
	})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(registry, dir, "t1", logger)
}

func activeUser() *user.User {
	return &user.User{
		ID:            "u1",
		AuthSubjectID: "sub-1",
		Email:         "pat@acme.example",
		Name:          "Pat",
		Role:          user.RoleConsultant,
		TenantID:      "t1",
		Active:        true,
	}
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "valid bearer", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "case-insensitive scheme", header: "bearer abc", want: "abc"},
		{name: "missing header", header: "", wantErr: ErrMissingAuthHeader},
		{name: "no scheme", header: "abc.def.ghi", wantErr: ErrMalformedAuthHeader},
		{name: "wrong scheme", header: "Basic abc", wantErr: ErrMalformedAuthHeader},
		{name: "empty token", header: "Bearer ", wantErr: ErrMalformedAuthHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractBearer(tt.header)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ExtractBearer() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractBearer() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthenticate_Success(t *testing.T) {
	dir := &fakeDirectory{users: map[string]*user.User{"t1/sub-1": activeUser()}}
	a := newTestAuthenticator(t, dir)

	token := signToken(t, testKeyT1, "sub-1", time.Hour)

	id, err := a.Authenticate(context.Background(), token, "")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if id.UserID != "u1" || id.TenantID != "t1" || id.Role != user.RoleConsultant {
		t.Errorf("Authenticate() identity = %+v", id)
	}
	if id.Anonymous() {
		t.Error("Anonymous() = true for an authenticated identity")
	}
}

func TestAuthenticate_ExplicitMatchingHeader(t *testing.T) {
	dir := &fakeDirectory{users: map[string]*user.User{"t1/sub-1": activeUser()}}
	a := newTestAuthenticator(t, dir)

	token := signToken(t, testKeyT1, "sub-1", time.Hour)

	id, err := a.Authenticate(context.Background(), token, "t1")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if id.TenantID != "t1" {
		t.Errorf("TenantID = %q, want t1", id.TenantID)
	}
}

func TestAuthenticate_TenantMismatch(t *testing.T) {
	// A user whose record claims tenant t1 while the caller addressed t2.
	// The lookup is scoped to the header tenant, so the record's tenant id
	// disagreeing with the header is exactly the spoofing case.
	crossUser := activeUser()
	dir := &fakeDirectory{users: map[string]*user.User{"t2/sub-1": crossUser}}
	a := newTestAuthenticator(t, dir)

	token := signToken(t, testKeyT2, "sub-1", time.Hour)

	_, err := a.Authenticate(context.Background(), token, "t2")
	if !errors.Is(err, ErrTenantMismatch) {
		t.Fatalf("Authenticate() error = %v, want ErrTenantMismatch", err)
	}
}

func TestAuthenticate_NoHeaderSkipsIsolationCheck(t *testing.T) {
	// Same cross-tenant record, but without an explicit header the default
	// tenant is trusted implicitly and no mismatch is raised.
	u := activeUser()
	u.TenantID = "t-other"
	dir := &fakeDirectory{users: map[string]*user.User{"t1/sub-1": u}}
	a := newTestAuthenticator(t, dir)

	token := signToken(t, testKeyT1, "sub-1", time.Hour)

	id, err := a.Authenticate(context.Background(), token, "")
	if err != nil {
		t.Fatalf("Authenticate() error = %v, want success", err)
	}
	if id.TenantID != "t-other" {
		t.Errorf("TenantID = %q, want t-other", id.TenantID)
	}
}

func TestAuthenticate_Failures(t *testing.T) {
	dir := &fakeDirectory{users: map[string]*user.User{
		"t1/sub-1": activeUser(),
		"t1/sub-off": {
			ID: "u2", AuthSubjectID: "sub-off", TenantID: "t1",
			Role: user.RoleConsultant, Active: false,
		},
	}}
	a := newTestAuthenticator(t, dir)

	tests := []struct {
		name         string
		token        string
		headerTenant string
		wantErr      error
	}{
		{
			name:    "expired token",
			token:   signToken(t, testKeyT1, "sub-1", -time.Minute),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "wrong signing key",
			token:   signToken(t, "not-the-key", "sub-1", time.Hour),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "garbage token",
			token:   "not.a.jwt",
			wantErr: ErrInvalidToken,
		},
		{
			name:    "missing subject claim",
			token:   signToken(t, testKeyT1, "", time.Hour),
			wantErr: ErrInvalidTokenPayload,
		},
		{
			name:    "unknown user",
			token:   signToken(t, testKeyT1, "sub-ghost", time.Hour),
			wantErr: ErrUserNotFound,
		},
		{
			name:    "deactivated user",
			token:   signToken(t, testKeyT1, "sub-off", time.Hour),
			wantErr: ErrUserDeactivated,
		},
		{
			name:         "unknown tenant",
			token:        signToken(t, testKeyT1, "sub-1", time.Hour),
			headerTenant: "nope",
			wantErr:      tenant.ErrUnknownTenant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Authenticate(context.Background(), tt.token, tt.headerTenant)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Authenticate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthenticate_TokenSignedForOtherTenantKey(t *testing.T) {
	// A token minted with tenant t2's key must not verify under t1.
	dir := &fakeDirectory{users: map[string]*user.User{"t1/sub-1": activeUser()}}
	a := newTestAuthenticator(t, dir)

	token := signToken(t, testKeyT2, "sub-1", time.Hour)

	_, err := a.Authenticate(context.Background(), token, "t1")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Authenticate() error = %v, want ErrInvalidToken", err)
	}
}
