package authz

import "github.com/google/uuid"

// ResourceKind identifica o tipo de recurso escopado.
type ResourceKind string

const (
	KindMeta         ResourceKind = "meta"
	KindRelatorio    ResourceKind = "relatorio"
	KindArquivo      ResourceKind = "arquivo"
	KindUsuario      ResourceKind = "usuario"
	KindDepartamento ResourceKind = "departamento"
	KindSucursal     ResourceKind = "sucursal"
)

// kinds que só fazem sentido dentro de um departamento. Principal sem
// departamento resolve para ScopeNone nesses casos (gatilho de
// "complete seu perfil", não erro).
var departmentScopedKinds = map[ResourceKind]bool{
	KindMeta:      true,
	KindRelatorio: true,
}

// kinds organizacionais são o diretório da sucursal: departamentos e a
// própria sucursal não têm dono nem responsáveis, então qualquer
// principal enumera os da sua sucursal. A tabela de regras continua
// decidindo quem pode agir sobre eles.
var branchVisibleKinds = map[ResourceKind]bool{
	KindDepartamento: true,
	KindSucursal:     true,
}

// Principal é a identidade autenticada. Nunca há "usuário corrente"
// implícito: todo ponto de decisão recebe o Principal explicitamente.
type Principal struct {
	ID             uuid.UUID
	Role           Role
	SucursalID     uuid.UUID
	DepartamentoID *uuid.UUID
}

// Resource é o snapshot mínimo de qualquer recurso escopável (meta,
// relatório, arquivo, usuário, departamento, sucursal). SucursalID é
// imutável após a criação; toda decisão é sucursal-primeiro.
type Resource struct {
	Kind           ResourceKind
	ID             uuid.UUID
	SucursalID     uuid.UUID
	OwnerID        uuid.UUID
	DepartamentoID *uuid.UUID
	AssigneeIDs    []uuid.UUID
}

// ScopeKind enumera as variantes de escopo de enumeração.
type ScopeKind int

const (
	// ScopeNone não contém recurso algum.
	ScopeNone ScopeKind = iota
	// ScopeOwnedOrAssigned contém recursos cujo dono ou responsável é o principal.
	ScopeOwnedOrAssigned
	// ScopeDepartment contém o departamento do principal mais o que ele
	// possui ou lhe foi atribuído fora dele.
	ScopeDepartment
	// ScopeBranch contém toda a sucursal do principal.
	ScopeBranch
)

// Scope é o conjunto de recursos que um principal pode enumerar para um
// ResourceKind, antes de qualquer checagem por instância.
type Scope struct {
	Kind           ScopeKind
	PrincipalID    uuid.UUID
	SucursalID     uuid.UUID
	DepartamentoID *uuid.UUID
}

// ResolveScope calcula o escopo de enumeração por (principal, kind).
// Nunca falha: na ausência de acesso devolve o escopo não vazio mais
// restrito (OwnedOrAssigned), deixando a negação por instância para
// Evaluate. DEVELOPER resolve para a própria sucursal: onipotência
// escopada por sucursal, não global.
func ResolveScope(p Principal, kind ResourceKind) Scope {
	scope := Scope{
		PrincipalID:    p.ID,
		SucursalID:     p.SucursalID,
		DepartamentoID: p.DepartamentoID,
	}

	if branchVisibleKinds[kind] {
		scope.Kind = ScopeBranch
		return scope
	}

	switch {
	case Satisfies(p.Role, RoleAdmin):
		scope.Kind = ScopeBranch
	case p.Role == RoleSupervisor:
		if p.DepartamentoID == nil && departmentScopedKinds[kind] {
			scope.Kind = ScopeNone
			return scope
		}
		if p.DepartamentoID == nil {
			scope.Kind = ScopeOwnedOrAssigned
			return scope
		}
		scope.Kind = ScopeDepartment
	default:
		scope.Kind = ScopeOwnedOrAssigned
	}

	return scope
}

// Contains verifica se o recurso cai dentro do escopo. A checagem é
// sucursal-primeiro em todas as variantes.
func (s Scope) Contains(r Resource) bool {
	if r.SucursalID != s.SucursalID {
		return false
	}

	switch s.Kind {
	case ScopeBranch:
		return true
	case ScopeDepartment:
		if s.DepartamentoID != nil && r.DepartamentoID != nil && *r.DepartamentoID == *s.DepartamentoID {
			return true
		}
		// supervisores podem ter metas atribuídas fora do próprio departamento
		return s.ownedOrAssigned(r)
	case ScopeOwnedOrAssigned:
		return s.ownedOrAssigned(r)
	default:
		return false
	}
}

func (s Scope) ownedOrAssigned(r Resource) bool {
	if r.OwnerID == s.PrincipalID {
		return true
	}
	for _, id := range r.AssigneeIDs {
		if id == s.PrincipalID {
			return true
		}
	}
	return false
}
