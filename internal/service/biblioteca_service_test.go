package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/gestaomeridional/plataforma/internal/authz"
	"github.com/gestaomeridional/plataforma/internal/repo"
	"github.com/gestaomeridional/plataforma/internal/storage"
)

type stubArquivoRepo struct {
	arquivos map[uuid.UUID]repo.Arquivo
}

func newStubArquivoRepo() *stubArquivoRepo {
	return &stubArquivoRepo{arquivos: make(map[uuid.UUID]repo.Arquivo)}
}

func (s *stubArquivoRepo) GetArquivoByID(ctx context.Context, id uuid.UUID) (repo.Arquivo, error) {
	a, ok := s.arquivos[id]
	if !ok {
		return repo.Arquivo{}, repo.ErrNotFound
	}
	return a, nil
}

func (s *stubArquivoRepo) ListArquivosBySucursal(ctx context.Context, sucursalID uuid.UUID) ([]repo.Arquivo, error) {
	var out []repo.Arquivo
	for _, a := range s.arquivos {
		if a.SucursalID == sucursalID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubArquivoRepo) InsertArquivo(ctx context.Context, a repo.Arquivo) (repo.Arquivo, error) {
	s.arquivos[a.ID] = a
	return a, nil
}

func (s *stubArquivoRepo) DeleteArquivo(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.arquivos[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.arquivos, id)
	return nil
}

type stubUploader struct {
	enviados    []storage.Objeto
	removidos   []string
	falhaRemove bool
}

func (s *stubUploader) Upload(ctx context.Context, obj storage.Objeto) (*storage.Referencia, error) {
	s.enviados = append(s.enviados, obj)
	return &storage.Referencia{URL: "https://cdn.exemplo.com/" + obj.Chave}, nil
}

func (s *stubUploader) Remove(ctx context.Context, chave string) error {
	if s.falhaRemove {
		return errors.New("bucket indisponível")
	}
	s.removidos = append(s.removidos, chave)
	return nil
}

func TestUploadArquivoStoresBlobAndRecord(t *testing.T) {
	sucursal := uuid.New()
	repoStub := newStubArquivoRepo()
	up := &stubUploader{}
	svc := NewBibliotecaService(repoStub, up)

	user := authz.Principal{ID: uuid.New(), Role: authz.RoleUser, SucursalID: sucursal}
	a, err := svc.UploadArquivo(context.Background(), user, UploadArquivoInput{
		Nome:        "manual.pdf",
		ContentType: "application/pdf",
		Body:        []byte("conteúdo"),
	})
	if err != nil {
		t.Fatalf("UploadArquivo: %v", err)
	}

	if len(up.enviados) != 1 {
		t.Fatalf("uploads=%d, esperava 1", len(up.enviados))
	}
	if !strings.HasPrefix(a.Chave, "biblioteca/"+sucursal.String()+"/") || !strings.HasSuffix(a.Chave, ".pdf") {
		t.Fatalf("chave=%s fora do padrão da sucursal", a.Chave)
	}
	if a.URL == nil || *a.URL == "" {
		t.Fatal("arquivo deveria registrar a URL pública")
	}
	if _, ok := repoStub.arquivos[a.ID]; !ok {
		t.Fatal("registro deveria ser persistido")
	}
}

func TestUploadArquivoValidation(t *testing.T) {
	sucursal := uuid.New()
	svc := NewBibliotecaService(newStubArquivoRepo(), &stubUploader{})
	user := authz.Principal{ID: uuid.New(), Role: authz.RoleUser, SucursalID: sucursal}

	if _, err := svc.UploadArquivo(context.Background(), user, UploadArquivoInput{Nome: "vazio.txt"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("arquivo vazio deveria falhar validação, veio %v", err)
	}

	grande := UploadArquivoInput{Nome: "grande.bin", Body: bytes.Repeat([]byte{0}, maxArquivoBytes+1)}
	if _, err := svc.UploadArquivo(context.Background(), user, grande); !errors.Is(err, ErrValidation) {
		t.Fatalf("arquivo acima do limite deveria falhar validação, veio %v", err)
	}
}

func TestDeleteArquivoRemovesBlob(t *testing.T) {
	sucursal := uuid.New()
	repoStub := newStubArquivoRepo()
	up := &stubUploader{}
	svc := NewBibliotecaService(repoStub, up)

	dono := uuid.New()
	a := repo.Arquivo{ID: uuid.New(), SucursalID: sucursal, DonoID: dono, Nome: "antigo.pdf", Chave: "biblioteca/x/antigo.pdf"}
	repoStub.arquivos[a.ID] = a

	owner := authz.Principal{ID: dono, Role: authz.RoleUser, SucursalID: sucursal}
	if err := svc.DeleteArquivo(context.Background(), owner, a.ID); err != nil {
		t.Fatalf("DeleteArquivo: %v", err)
	}

	if _, ok := repoStub.arquivos[a.ID]; ok {
		t.Fatal("registro deveria sumir do banco")
	}
	if len(up.removidos) != 1 || up.removidos[0] != a.Chave {
		t.Fatalf("blob deveria ser removido do bucket, removidos=%v", up.removidos)
	}
}

func TestDeleteArquivoSurvivesBucketFailure(t *testing.T) {
	sucursal := uuid.New()
	repoStub := newStubArquivoRepo()
	svc := NewBibliotecaService(repoStub, &stubUploader{falhaRemove: true})

	dono := uuid.New()
	a := repo.Arquivo{ID: uuid.New(), SucursalID: sucursal, DonoID: dono, Chave: "biblioteca/x/orfao.pdf"}
	repoStub.arquivos[a.ID] = a

	owner := authz.Principal{ID: dono, Role: authz.RoleUser, SucursalID: sucursal}

	// blob órfão é aceitável; registro fantasma não
	if err := svc.DeleteArquivo(context.Background(), owner, a.ID); err != nil {
		t.Fatalf("falha no bucket não deveria propagar: %v", err)
	}
	if _, ok := repoStub.arquivos[a.ID]; ok {
		t.Fatal("registro deveria sumir mesmo com bucket fora")
	}
}

func TestDeleteArquivoRequiresOwnerOrAdmin(t *testing.T) {
	sucursal := uuid.New()
	repoStub := newStubArquivoRepo()
	up := &stubUploader{}
	svc := NewBibliotecaService(repoStub, up)

	a := repo.Arquivo{ID: uuid.New(), SucursalID: sucursal, DonoID: uuid.New(), Chave: "biblioteca/x/doc.pdf"}
	repoStub.arquivos[a.ID] = a

	outro := authz.Principal{ID: uuid.New(), Role: authz.RoleUser, SucursalID: sucursal}
	err := svc.DeleteArquivo(context.Background(), outro, a.ID)

	var policyErr *PolicyDeniedError
	if !errors.As(err, &policyErr) {
		t.Fatalf("esperava negação de política, veio %v", err)
	}
	if len(up.removidos) != 0 {
		t.Fatal("negação não deveria tocar o bucket")
	}
}
