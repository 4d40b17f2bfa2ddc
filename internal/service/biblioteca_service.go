package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gestaomeridional/plataforma/internal/authz"
	"github.com/gestaomeridional/plataforma/internal/repo"
	"github.com/gestaomeridional/plataforma/internal/storage"
)

const maxArquivoBytes = 25 << 20 // 25 MB

type arquivoRepository interface {
	GetArquivoByID(ctx context.Context, id uuid.UUID) (repo.Arquivo, error)
	ListArquivosBySucursal(ctx context.Context, sucursalID uuid.UUID) ([]repo.Arquivo, error)
	InsertArquivo(ctx context.Context, a repo.Arquivo) (repo.Arquivo, error)
	DeleteArquivo(ctx context.Context, id uuid.UUID) error
}

// BibliotecaService administra a biblioteca de arquivos da sucursal: o
// blob vai para o bucket, o registro vai para o banco.
type BibliotecaService struct {
	repo     arquivoRepository
	uploader storage.Uploader
}

// NewBibliotecaService cria o serviço da biblioteca.
func NewBibliotecaService(r arquivoRepository, up storage.Uploader) *BibliotecaService {
	if up == nil {
		up = storage.NoopUploader{}
	}
	return &BibliotecaService{repo: r, uploader: up}
}

// ListArquivos enumera itens da biblioteca visíveis ao principal.
func (s *BibliotecaService) ListArquivos(ctx context.Context, p authz.Principal) ([]repo.Arquivo, error) {
	arquivos, err := s.repo.ListArquivosBySucursal(ctx, p.SucursalID)
	if err != nil {
		return nil, err
	}

	scope := authz.ResolveScope(p, authz.KindArquivo)
	var visiveis []repo.Arquivo
	for _, a := range arquivos {
		if scope.Contains(arquivoResource(a)) {
			visiveis = append(visiveis, a)
		}
	}
	return visiveis, nil
}

// UploadArquivoInput agrupa os campos de envio de arquivo.
type UploadArquivoInput struct {
	Nome           string
	ContentType    string
	Body           []byte
	DepartamentoID *uuid.UUID
}

// UploadArquivo envia o blob e registra o item. O upload remoto vem
// primeiro; se o insert falhar depois, o blob órfão fica no bucket e é
// limpo fora de banda.
func (s *BibliotecaService) UploadArquivo(ctx context.Context, p authz.Principal, input UploadArquivoInput) (repo.Arquivo, error) {
	nome := strings.TrimSpace(input.Nome)
	if nome == "" {
		return repo.Arquivo{}, fmt.Errorf("%w: nome do arquivo obrigatório", ErrValidation)
	}
	if len(input.Body) == 0 {
		return repo.Arquivo{}, fmt.Errorf("%w: arquivo vazio", ErrValidation)
	}
	if len(input.Body) > maxArquivoBytes {
		return repo.Arquivo{}, fmt.Errorf("%w: arquivo excede o limite de 25 MB", ErrValidation)
	}

	id := uuid.New()
	novo := repo.Arquivo{
		ID:             id,
		SucursalID:     p.SucursalID,
		DepartamentoID: input.DepartamentoID,
		DonoID:         p.ID,
		Nome:           nome,
		Chave:          fmt.Sprintf("biblioteca/%s/%s%s", p.SucursalID, id, path.Ext(nome)),
		ContentType:    input.ContentType,
		Tamanho:        int64(len(input.Body)),
	}

	if dec := authz.Evaluate(p, authz.ActionCreate, arquivoResource(novo)); !dec.Allow {
		return repo.Arquivo{}, denied(dec)
	}

	res, err := s.uploader.Upload(ctx, storage.Objeto{
		Chave:       novo.Chave,
		Conteudo:    input.Body,
		ContentType: input.ContentType,
	})
	if err != nil {
		return repo.Arquivo{}, err
	}
	if res.URL != "" {
		novo.URL = &res.URL
	}

	return s.repo.InsertArquivo(ctx, novo)
}

// GetArquivo devolve o item quando visível ao principal.
func (s *BibliotecaService) GetArquivo(ctx context.Context, p authz.Principal, id uuid.UUID) (repo.Arquivo, error) {
	a, err := s.repo.GetArquivoByID(ctx, id)
	if err != nil {
		return repo.Arquivo{}, err
	}
	if dec := authz.Evaluate(p, authz.ActionView, arquivoResource(a)); !dec.Allow {
		return repo.Arquivo{}, denied(dec)
	}
	return a, nil
}

// DeleteArquivo remove o registro da biblioteca e, em seguida, o blob
// do bucket. A remoção remota é melhor-esforço: falha vira blob órfão
// limpo fora de banda, nunca registro fantasma apontando para nada.
func (s *BibliotecaService) DeleteArquivo(ctx context.Context, p authz.Principal, id uuid.UUID) error {
	a, err := s.repo.GetArquivoByID(ctx, id)
	if err != nil {
		return err
	}
	if dec := authz.Evaluate(p, authz.ActionDelete, arquivoResource(a)); !dec.Allow {
		return denied(dec)
	}

	if err := s.repo.DeleteArquivo(ctx, id); err != nil {
		return err
	}

	if err := s.uploader.Remove(ctx, a.Chave); err != nil && !errors.Is(err, storage.ErrSemBackend) {
		log.Warn().Err(err).Str("chave", a.Chave).Msg("blob órfão no bucket após remoção do registro")
	}
	return nil
}
