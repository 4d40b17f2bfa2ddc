package authz

import (
	"testing"

	"github.com/google/uuid"

	"github.com/gestaomeridional/plataforma/internal/meta"
)

func TestEvaluateCrossBranch(t *testing.T) {
	sucursal := uuid.New()
	outra := uuid.New()

	// nem DEVELOPER atravessa a fronteira de sucursal
	dev := Principal{ID: uuid.New(), Role: RoleDeveloper, SucursalID: sucursal}
	r := Resource{Kind: KindMeta, SucursalID: outra}

	dec := Evaluate(dev, ActionView, r)
	if dec.Allow {
		t.Fatal("acesso cruzado deveria ser negado")
	}
	if dec.Reason != ReasonCrossBranch {
		t.Fatalf("razão=%s, esperava CROSS_BRANCH", dec.Reason)
	}
}

func TestEvaluateAssignedUserCanView(t *testing.T) {
	sucursal := uuid.New()
	user := Principal{ID: uuid.New(), Role: RoleUser, SucursalID: sucursal}
	r := Resource{Kind: KindMeta, SucursalID: sucursal, AssigneeIDs: []uuid.UUID{user.ID}}

	if dec := Evaluate(user, ActionView, r); !dec.Allow {
		t.Fatalf("responsável deveria enxergar a meta, razão=%s", dec.Reason)
	}
}

func TestEvaluateUserCannotCreateMeta(t *testing.T) {
	sucursal := uuid.New()
	user := Principal{ID: uuid.New(), Role: RoleUser, SucursalID: sucursal}

	// protótipo da meta a criar: dono é o próprio principal, então o
	// escopo passa e a negação cai no requisito de papel
	r := Resource{Kind: KindMeta, SucursalID: sucursal, OwnerID: user.ID}

	dec := Evaluate(user, ActionCreate, r)
	if dec.Allow {
		t.Fatal("USER não deveria criar meta")
	}
	if dec.Reason != ReasonInsufficientRole {
		t.Fatalf("razão=%s, esperava INSUFFICIENT_ROLE", dec.Reason)
	}
}

func TestEvaluateSupervisorWithoutDepartment(t *testing.T) {
	sucursal := uuid.New()
	sup := Principal{ID: uuid.New(), Role: RoleSupervisor, SucursalID: sucursal}
	r := Resource{Kind: KindMeta, SucursalID: sucursal, OwnerID: sup.ID}

	dec := Evaluate(sup, ActionCreate, r)
	if dec.Allow {
		t.Fatal("supervisor sem departamento não deveria criar meta")
	}
	if dec.Reason != ReasonOutOfScope {
		t.Fatalf("razão=%s, esperava OUT_OF_SCOPE", dec.Reason)
	}
}

func TestEvaluateOwnerOverride(t *testing.T) {
	sucursal := uuid.New()
	user := Principal{ID: uuid.New(), Role: RoleUser, SucursalID: sucursal}
	r := Resource{Kind: KindMeta, SucursalID: sucursal, OwnerID: user.ID}

	// updateProgress exige SUPERVISOR, mas libera o dono
	if dec := Evaluate(user, ActionUpdateProgress, r); !dec.Allow {
		t.Fatalf("dono deveria atualizar progresso, razão=%s", dec.Reason)
	}

	// delete exige ADMIN, mas libera o dono
	if dec := Evaluate(user, ActionDelete, r); !dec.Allow {
		t.Fatalf("dono deveria apagar a própria meta, razão=%s", dec.Reason)
	}
}

func TestEvaluateAssigneeProgressOnly(t *testing.T) {
	sucursal := uuid.New()
	user := Principal{ID: uuid.New(), Role: RoleUser, SucursalID: sucursal}
	r := Resource{Kind: KindMeta, SucursalID: sucursal, OwnerID: uuid.New(), AssigneeIDs: []uuid.UUID{user.ID}}

	// responsável relata progresso, mas não muda o status da meta
	if dec := Evaluate(user, ActionUpdateProgress, r); !dec.Allow {
		t.Fatalf("responsável deveria atualizar progresso, razão=%s", dec.Reason)
	}

	dec := Evaluate(user, ActionTransition, r)
	if dec.Allow {
		t.Fatal("responsável não deveria transicionar a meta")
	}
	if dec.Reason != ReasonInsufficientRole {
		t.Fatalf("razão=%s, esperava INSUFFICIENT_ROLE", dec.Reason)
	}
}

func TestEvaluateOrganizationalView(t *testing.T) {
	sucursal := uuid.New()
	dept := uuid.New()

	// USER enxerga o próprio departamento mesmo sem ser dono nem responsável
	user := Principal{ID: uuid.New(), Role: RoleUser, SucursalID: sucursal, DepartamentoID: &dept}
	departamento := Resource{Kind: KindDepartamento, ID: dept, SucursalID: sucursal, DepartamentoID: &dept}
	if dec := Evaluate(user, ActionView, departamento); !dec.Allow {
		t.Fatalf("USER deveria enxergar o próprio departamento, razão=%s", dec.Reason)
	}

	// qualquer papel enxerga a própria sucursal
	propria := Resource{Kind: KindSucursal, ID: sucursal, SucursalID: sucursal}
	if dec := Evaluate(user, ActionView, propria); !dec.Allow {
		t.Fatalf("USER deveria enxergar a própria sucursal, razão=%s", dec.Reason)
	}

	sup := Principal{ID: uuid.New(), Role: RoleSupervisor, SucursalID: sucursal, DepartamentoID: &dept}
	if dec := Evaluate(sup, ActionView, propria); !dec.Allow {
		t.Fatalf("SUPERVISOR deveria enxergar a própria sucursal, razão=%s", dec.Reason)
	}

	// a fronteira de sucursal continua valendo
	outra := Resource{Kind: KindSucursal, ID: uuid.New(), SucursalID: uuid.New()}
	dec := Evaluate(user, ActionView, outra)
	if dec.Allow || dec.Reason != ReasonCrossBranch {
		t.Fatalf("razão=%s, esperava CROSS_BRANCH", dec.Reason)
	}

	// visibilidade não concede gestão: update de departamento segue ADMIN+
	dec = Evaluate(user, ActionUpdate, departamento)
	if dec.Allow || dec.Reason != ReasonInsufficientRole {
		t.Fatalf("razão=%s, esperava INSUFFICIENT_ROLE", dec.Reason)
	}
}

func TestEvaluateSucursalManageCarveOut(t *testing.T) {
	sucursal := uuid.New()
	r := Resource{Kind: KindSucursal, ID: sucursal, SucursalID: sucursal}

	super := Principal{ID: uuid.New(), Role: RoleSuperAdmin, SucursalID: sucursal}
	if dec := Evaluate(super, ActionManage, r); !dec.Allow {
		t.Fatalf("SUPER_ADMIN deveria gerir sucursais, razão=%s", dec.Reason)
	}

	// DEVELOPER tem posto mais alto, mas a regra exige papel literal
	dev := Principal{ID: uuid.New(), Role: RoleDeveloper, SucursalID: sucursal}
	dec := Evaluate(dev, ActionManage, r)
	if dec.Allow {
		t.Fatal("DEVELOPER não deveria gerir sucursais")
	}
	if dec.Reason != ReasonInsufficientRole {
		t.Fatalf("razão=%s, esperava INSUFFICIENT_ROLE", dec.Reason)
	}
}

func TestEvaluateUnlistedActionDenied(t *testing.T) {
	sucursal := uuid.New()
	admin := Principal{ID: uuid.New(), Role: RoleAdmin, SucursalID: sucursal}
	r := Resource{Kind: KindRelatorio, SucursalID: sucursal}

	// relatórios não admitem delete: ação ausente da tabela nega por padrão
	if dec := Evaluate(admin, ActionDelete, r); dec.Allow {
		t.Fatal("ação não declarada deveria ser negada")
	}
}

func TestEvaluateMetaTransitionCompletionGuard(t *testing.T) {
	sucursal := uuid.New()
	admin := Principal{ID: uuid.New(), Role: RoleAdmin, SucursalID: sucursal}
	r := Resource{Kind: KindMeta, SucursalID: sucursal}

	// progresso incompleto
	snap := meta.Snapshot{Status: meta.StatusDone, Progresso: 80}
	dec := EvaluateMetaTransition(admin, r, snap, meta.StatusCompleted)
	if dec.Allow || dec.Reason != ReasonCompletionReportRequired {
		t.Fatalf("razão=%s, esperava COMPLETION_REPORT_REQUIRED", dec.Reason)
	}

	// relatório exigido e não enviado
	snap = meta.Snapshot{Status: meta.StatusDone, Progresso: 100, ExigeRelatorioConclusao: true}
	dec = EvaluateMetaTransition(admin, r, snap, meta.StatusCompleted)
	if dec.Allow || dec.Reason != ReasonCompletionReportRequired {
		t.Fatalf("razão=%s, esperava COMPLETION_REPORT_REQUIRED", dec.Reason)
	}

	// guarda satisfeita
	snap.RelatorioConclusaoEnviado = true
	if dec = EvaluateMetaTransition(admin, r, snap, meta.StatusCompleted); !dec.Allow {
		t.Fatalf("conclusão deveria ser permitida, razão=%s", dec.Reason)
	}
}

func TestEvaluateMetaTransitionTerminal(t *testing.T) {
	sucursal := uuid.New()
	admin := Principal{ID: uuid.New(), Role: RoleAdmin, SucursalID: sucursal}
	r := Resource{Kind: KindMeta, SucursalID: sucursal}

	snap := meta.Snapshot{Status: meta.StatusCompleted, Progresso: 100}
	dec := EvaluateMetaTransition(admin, r, snap, meta.StatusInProgress)
	if dec.Allow || dec.Reason != ReasonInvalidTransition {
		t.Fatalf("razão=%s, esperava INVALID_TRANSITION", dec.Reason)
	}
}

func TestRequiredRole(t *testing.T) {
	role, ok := RequiredRole(KindMeta, ActionCreate)
	if !ok || role != RoleSupervisor {
		t.Fatalf("RequiredRole(meta, create)=%s, esperava SUPERVISOR", role)
	}

	role, ok = RequiredRole(KindSucursal, ActionManage)
	if !ok || role != RoleSuperAdmin {
		t.Fatalf("RequiredRole(sucursal, manage)=%s, esperava SUPER_ADMIN", role)
	}

	if _, ok := RequiredRole(KindRelatorio, ActionDelete); ok {
		t.Fatal("ação não declarada não deveria ter requisito")
	}
}
