package storage

import (
	"context"
	"errors"
)

// ErrSemBackend indica deployment sem credenciais de bucket: a
// biblioteca fica indisponível, o resto da plataforma segue no ar.
var ErrSemBackend = errors.New("storage: bucket não configurado")

// NoopUploader é o backend usado quando o bucket não foi configurado.
type NoopUploader struct{}

func (NoopUploader) Upload(ctx context.Context, obj Objeto) (*Referencia, error) {
	return nil, ErrSemBackend
}

func (NoopUploader) Remove(ctx context.Context, chave string) error {
	return ErrSemBackend
}
