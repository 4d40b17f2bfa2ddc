package authz

import "testing"

func TestRankOrdering(t *testing.T) {
	ordered := []Role{RoleUser, RoleSupervisor, RoleAdmin, RoleSuperAdmin, RoleDeveloper}
	for i := 1; i < len(ordered); i++ {
		if Rank(ordered[i-1]) >= Rank(ordered[i]) {
			t.Fatalf("esperava rank(%s) < rank(%s)", ordered[i-1], ordered[i])
		}
	}

	if Rank(Role("GERENTE")) != 0 {
		t.Fatalf("papel desconhecido deveria valer 0")
	}
}

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"admin", RoleAdmin, true},
		{"  SUPER_ADMIN ", RoleSuperAdmin, true},
		{"developer", RoleDeveloper, true},
		{"gerente", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := ParseRole(tc.in)
		if ok != tc.ok {
			t.Fatalf("ParseRole(%q): ok=%v, esperava %v", tc.in, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("ParseRole(%q)=%s, esperava %s", tc.in, got, tc.want)
		}
	}
}

func TestSatisfiesOverride(t *testing.T) {
	// SUPER_ADMIN e DEVELOPER satisfazem qualquer requisito, inclusive
	// entre si, independentemente da comparação numérica.
	for _, top := range []Role{RoleSuperAdmin, RoleDeveloper} {
		for _, required := range []Role{RoleUser, RoleSupervisor, RoleAdmin, RoleSuperAdmin, RoleDeveloper} {
			if !Satisfies(top, required) {
				t.Fatalf("%s deveria satisfazer %s", top, required)
			}
		}
	}

	if Satisfies(RoleSuperAdmin, RoleDeveloper) != true {
		t.Fatal("SUPER_ADMIN deveria satisfazer DEVELOPER pelo override")
	}
}

func TestSatisfiesByRank(t *testing.T) {
	if !Satisfies(RoleAdmin, RoleSupervisor) {
		t.Fatal("ADMIN deveria satisfazer SUPERVISOR")
	}
	if Satisfies(RoleSupervisor, RoleAdmin) {
		t.Fatal("SUPERVISOR não deveria satisfazer ADMIN")
	}
	if Satisfies(RoleUser, RoleSupervisor) {
		t.Fatal("USER não deveria satisfazer SUPERVISOR")
	}
	if !Satisfies(RoleUser, RoleUser) {
		t.Fatal("papel deveria satisfazer a si mesmo")
	}
	if Satisfies(Role("GERENTE"), RoleUser) {
		t.Fatal("papel desconhecido não deveria satisfazer USER")
	}
}
