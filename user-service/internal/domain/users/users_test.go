package users

import (
	"errors"
	"testing"

	"forumhub/internal/auth/claims"
)

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

func rolePtr(r claims.Role) *claims.Role { return &r }

func TestResolveTarget(t *testing.T) {
	cases := []struct {
		name     string
		p        claims.Principal
		explicit *int64
		want     int64
		wantErr  error
	}{
		{"basic self implicit", claims.Principal{UserID: 40, Role: claims.RoleBasic}, nil, 40, nil},
		{"basic naming other id", claims.Principal{UserID: 40, Role: claims.RoleBasic}, int64Ptr(41), 0, ErrMalformedUserParameter},
		{"basic naming own id", claims.Principal{UserID: 40, Role: claims.RoleBasic}, int64Ptr(40), 0, ErrMalformedUserParameter},
		{"mod explicit", claims.Principal{UserID: 30, Role: claims.RoleMOD}, int64Ptr(41), 41, nil},
		{"mod implicit self", claims.Principal{UserID: 30, Role: claims.RoleMOD}, nil, 30, nil},
		{"adm explicit", claims.Principal{UserID: 1, Role: claims.RoleADM}, int64Ptr(99), 99, nil},
		{"adm implicit self", claims.Principal{UserID: 1, Role: claims.RoleADM}, nil, 1, nil},
		{"adm non-positive id", claims.Principal{UserID: 1, Role: claims.RoleADM}, int64Ptr(0), 0, ErrMalformedUserParameter},
		{"anonymous", claims.Principal{UserID: 0, Role: claims.RoleAnonymous}, nil, 0, ErrMalformedUserParameter},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveTarget(tc.p, tc.explicit)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Fatalf("target = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestApplyUpdatePrivilegedFieldsRequireADM(t *testing.T) {
	user := User{ID: 40, Name: "Ana", Username: "ana", Email: "ana@example.com", Role: claims.RoleBasic, Enabled: true}

	for _, in := range []UpdateInput{
		{Role: rolePtr(claims.RoleADM)},
		{Profile: strPtr("MOD")},
		{AccountNonExpired: boolPtr(false)},
		{AccountNonLocked: boolPtr(false)},
		{CredentialsNonExpired: boolPtr(false)},
		{Enabled: boolPtr(false)},
	} {
		if _, err := ApplyUpdate(claims.Principal{UserID: 40, Role: claims.RoleBasic}, user, in); !errors.Is(err, ErrPrivilegedField) {
			t.Fatalf("basic touching privileged field: err = %v, want ErrPrivilegedField", err)
		}
		if _, err := ApplyUpdate(claims.Principal{UserID: 30, Role: claims.RoleMOD}, user, in); !errors.Is(err, ErrPrivilegedField) {
			t.Fatalf("mod touching privileged field: err = %v, want ErrPrivilegedField", err)
		}
		if _, err := ApplyUpdate(claims.Principal{UserID: 1, Role: claims.RoleADM}, user, in); err != nil {
			t.Fatalf("adm touching privileged field: %v", err)
		}
	}
}

func TestApplyUpdateBasicFields(t *testing.T) {
	user := User{ID: 40, Name: "Ana", Username: "ana", Email: "ana@example.com", Role: claims.RoleBasic, Enabled: true}

	updated, err := ApplyUpdate(claims.Principal{UserID: 40, Role: claims.RoleBasic}, user, UpdateInput{
		Name:  strPtr("Ana Souza"),
		Email: strPtr("ana.souza@example.com"),
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if updated.Name != "Ana Souza" || updated.Email != "ana.souza@example.com" {
		t.Fatalf("fields not applied: %+v", updated)
	}
	if updated.Username != "ana" || updated.Role != claims.RoleBasic || !updated.Enabled {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
}

func TestApplyUpdateADMChangesRoleAndFlags(t *testing.T) {
	user := User{ID: 40, Role: claims.RoleBasic, Enabled: true, AccountNonLocked: true}

	updated, err := ApplyUpdate(claims.Principal{UserID: 1, Role: claims.RoleADM}, user, UpdateInput{
		Role:             rolePtr(claims.RoleMOD),
		Profile:          strPtr("MOD"),
		Enabled:          boolPtr(false),
		AccountNonLocked: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if updated.Role != claims.RoleMOD || updated.Profile != "MOD" || updated.Enabled || updated.AccountNonLocked {
		t.Fatalf("privileged fields not applied: %+v", updated)
	}
}

func TestApplyUpdateRejectsUnknownRole(t *testing.T) {
	user := User{ID: 40, Role: claims.RoleBasic}
	adm := claims.Principal{UserID: 1, Role: claims.RoleADM}

	for _, role := range []claims.Role{"SUPER", claims.RoleAnonymous, ""} {
		if _, err := ApplyUpdate(adm, user, UpdateInput{Role: rolePtr(role)}); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("role %q: err = %v, want ErrInvalidArgument", role, err)
		}
	}
}
