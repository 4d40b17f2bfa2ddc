package authz

import "strings"

// Role é um papel fechado do sistema. A ordem dos ranks é fixa e nunca
// muda em tempo de execução.
type Role string

const (
	RoleUser       Role = "USER"
	RoleSupervisor Role = "SUPERVISOR"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleDeveloper  Role = "DEVELOPER"
)

// rankTable é a única fonte de verdade da hierarquia de papéis.
var rankTable = map[Role]int{
	RoleUser:       1,
	RoleSupervisor: 2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
	RoleDeveloper:  5,
}

// Rank devolve a posição numérica do papel. Papéis desconhecidos valem 0,
// abaixo de qualquer papel conhecido.
func Rank(r Role) int {
	return rankTable[r]
}

// Known informa se o papel faz parte da tabela fixa.
func (r Role) Known() bool {
	_, ok := rankTable[r]
	return ok
}

// ParseRole normaliza uma string vinda do banco ou de um token.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Known()
}

// Satisfies compara ranks. SUPER_ADMIN e DEVELOPER satisfazem qualquer
// requisito, inclusive papéis futuros com rank numérico maior; o override
// é explícito e não depende da comparação numérica.
func Satisfies(r, required Role) bool {
	if r == RoleSuperAdmin || r == RoleDeveloper {
		return true
	}
	return Rank(r) >= Rank(required)
}
