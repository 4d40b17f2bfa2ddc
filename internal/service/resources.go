package service

import (
	"github.com/google/uuid"

	"github.com/gestaomeridional/plataforma/internal/authz"
	"github.com/gestaomeridional/plataforma/internal/repo"
)

// Adaptadores de registros persistidos para snapshots de autorização.
// O motor de política só enxerga os campos de escopo.

func metaResource(m repo.Meta) authz.Resource {
	return authz.Resource{
		Kind:           authz.KindMeta,
		ID:             m.ID,
		SucursalID:     m.SucursalID,
		OwnerID:        m.CriadoPorID,
		DepartamentoID: m.DepartamentoID,
		AssigneeIDs:    m.ResponsaveisIDs,
	}
}

// relatorioResource herda o escopo da meta: quem enxerga a meta enxerga
// seus relatórios; destinatários explícitos contam como responsáveis.
func relatorioResource(m repo.Meta, destinatarios []uuid.UUID) authz.Resource {
	assignees := append([]uuid.UUID{}, m.ResponsaveisIDs...)
	assignees = append(assignees, destinatarios...)
	return authz.Resource{
		Kind:           authz.KindRelatorio,
		ID:             m.ID,
		SucursalID:     m.SucursalID,
		OwnerID:        m.CriadoPorID,
		DepartamentoID: m.DepartamentoID,
		AssigneeIDs:    assignees,
	}
}

func usuarioResource(u repo.Usuario) authz.Resource {
	return authz.Resource{
		Kind:           authz.KindUsuario,
		ID:             u.ID,
		SucursalID:     u.SucursalID,
		OwnerID:        u.ID,
		DepartamentoID: u.DepartamentoID,
	}
}

func departamentoResource(d repo.Departamento) authz.Resource {
	return authz.Resource{
		Kind:           authz.KindDepartamento,
		ID:             d.ID,
		SucursalID:     d.SucursalID,
		DepartamentoID: &d.ID,
	}
}

func sucursalResource(s repo.Sucursal) authz.Resource {
	return authz.Resource{
		Kind:       authz.KindSucursal,
		ID:         s.ID,
		SucursalID: s.ID,
	}
}

func arquivoResource(a repo.Arquivo) authz.Resource {
	return authz.Resource{
		Kind:           authz.KindArquivo,
		ID:             a.ID,
		SucursalID:     a.SucursalID,
		OwnerID:        a.DonoID,
		DepartamentoID: a.DepartamentoID,
	}
}
