package authz

import "github.com/gestaomeridional/plataforma/internal/meta"

// Action identifica a operação sendo avaliada.
type Action string

const (
	ActionView             Action = "view"
	ActionCreate           Action = "create"
	ActionUpdate           Action = "update"
	ActionDelete           Action = "delete"
	ActionUpdateProgress   Action = "updateProgress"
	ActionTransition       Action = "transition"
	ActionApprove          Action = "approve"
	ActionAssignSupervisor Action = "assignSupervisor"
	ActionManage           Action = "manage"
)

// Reason é o código de negação exposto à camada HTTP. Decisões são
// resultados de política, nunca exceções.
type Reason string

const (
	ReasonNone                     Reason = ""
	ReasonCrossBranch              Reason = "CROSS_BRANCH"
	ReasonOutOfScope               Reason = "OUT_OF_SCOPE"
	ReasonInsufficientRole         Reason = "INSUFFICIENT_ROLE"
	ReasonCompletionReportRequired Reason = "COMPLETION_REPORT_REQUIRED"
	ReasonInvalidTransition        Reason = "INVALID_TRANSITION"
)

// Decision é o resultado de uma avaliação de política.
type Decision struct {
	Allow  bool
	Reason Reason
}

func allow() Decision        { return Decision{Allow: true} }
func deny(r Reason) Decision { return Decision{Allow: false, Reason: r} }

type ruleKey struct {
	Kind   ResourceKind
	Action Action
}

// rule descreve o requisito de papel para uma (ação, kind). exactRoles,
// quando presente, exige papel literal e ignora o override de topo de
// Satisfies. allowOwner/allowAssignee liberam dono e responsáveis mesmo
// abaixo do rank mínimo.
type rule struct {
	minRole       Role
	exactRoles    []Role
	allowOwner    bool
	allowAssignee bool
}

// ruleTable é a tabela declarativa (papel × ação × kind) consultada por
// Evaluate. É a única fonte de requisitos de papel do sistema: UI e
// servidor leem a mesma tabela, o servidor de forma autoritativa.
var ruleTable = map[ruleKey]rule{
	{KindMeta, ActionView}:           {minRole: RoleUser},
	{KindMeta, ActionCreate}:         {minRole: RoleSupervisor},
	{KindMeta, ActionUpdate}:         {minRole: RoleSupervisor, allowOwner: true},
	{KindMeta, ActionDelete}:         {minRole: RoleAdmin, allowOwner: true},
	{KindMeta, ActionUpdateProgress}: {minRole: RoleSupervisor, allowOwner: true, allowAssignee: true},
	// responsáveis relatam progresso; mover a meta de status fica com o
	// dono ou com SUPERVISOR+
	{KindMeta, ActionTransition}: {minRole: RoleSupervisor, allowOwner: true},

	{KindRelatorio, ActionView}:   {minRole: RoleUser},
	{KindRelatorio, ActionCreate}: {minRole: RoleUser},

	{KindArquivo, ActionView}:   {minRole: RoleUser},
	{KindArquivo, ActionCreate}: {minRole: RoleUser},
	{KindArquivo, ActionDelete}: {minRole: RoleAdmin, allowOwner: true},

	{KindUsuario, ActionView}:    {minRole: RoleUser},
	{KindUsuario, ActionCreate}:  {minRole: RoleAdmin},
	{KindUsuario, ActionUpdate}:  {minRole: RoleAdmin},
	{KindUsuario, ActionApprove}: {minRole: RoleSupervisor},
	{KindUsuario, ActionDelete}:  {minRole: RoleSuperAdmin},

	{KindDepartamento, ActionView}:             {minRole: RoleUser},
	{KindDepartamento, ActionCreate}:           {minRole: RoleAdmin},
	{KindDepartamento, ActionUpdate}:           {minRole: RoleAdmin},
	{KindDepartamento, ActionDelete}:           {minRole: RoleAdmin},
	{KindDepartamento, ActionAssignSupervisor}: {minRole: RoleAdmin},

	// Provisionar sucursais é restrito ao papel literal SUPER_ADMIN;
	// DEVELOPER fica de fora de propósito (carve-out do override).
	{KindSucursal, ActionView}:   {minRole: RoleUser},
	{KindSucursal, ActionManage}: {exactRoles: []Role{RoleSuperAdmin}},
}

// Evaluate decide uma ação sobre uma instância de recurso. Função pura:
// aplicar a decisão é responsabilidade de quem chama.
//
// Ordem: sucursal → escopo → tabela de regras. DEVELOPER não é isento da
// checagem de sucursal: acesso cruzado exige troca explícita de contexto
// de sucursal feita a montante (re-escopo de identidade, não bypass).
func Evaluate(p Principal, action Action, r Resource) Decision {
	if r.SucursalID != p.SucursalID {
		return deny(ReasonCrossBranch)
	}

	scope := ResolveScope(p, r.Kind)
	if !scope.Contains(r) {
		return deny(ReasonOutOfScope)
	}

	rl, ok := ruleTable[ruleKey{Kind: r.Kind, Action: action}]
	if !ok {
		// ação não declarada na tabela: nega por padrão
		return deny(ReasonInsufficientRole)
	}

	if len(rl.exactRoles) > 0 {
		for _, exact := range rl.exactRoles {
			if p.Role == exact {
				return allow()
			}
		}
		return deny(ReasonInsufficientRole)
	}

	if Satisfies(p.Role, rl.minRole) {
		return allow()
	}
	if rl.allowOwner && p.ID == r.OwnerID {
		return allow()
	}
	if rl.allowAssignee {
		for _, id := range r.AssigneeIDs {
			if id == p.ID {
				return allow()
			}
		}
	}

	return deny(ReasonInsufficientRole)
}

// EvaluateMetaTransition avalia a mudança de status de uma meta. É a
// única ação em que a política delega uma pré-condição a outro
// componente: a guarda de conclusão do ciclo de vida.
func EvaluateMetaTransition(p Principal, r Resource, snap meta.Snapshot, target meta.Status) Decision {
	if dec := Evaluate(p, ActionTransition, r); !dec.Allow {
		return dec
	}

	if !meta.CanTransition(snap.Status, target) {
		return deny(ReasonInvalidTransition)
	}

	if target == meta.StatusCompleted && !meta.CanComplete(snap) {
		// negação esperada e visível ao usuário: envie o relatório de
		// conclusão e tente de novo
		return deny(ReasonCompletionReportRequired)
	}

	return allow()
}

// RequiredRole expõe o requisito mínimo declarado na tabela para uma
// (ação, kind); útil para a UI esconder botões sem duplicar regra.
func RequiredRole(kind ResourceKind, action Action) (Role, bool) {
	rl, ok := ruleTable[ruleKey{Kind: kind, Action: action}]
	if !ok {
		return "", false
	}
	if len(rl.exactRoles) > 0 {
		return rl.exactRoles[0], true
	}
	return rl.minRole, true
}
