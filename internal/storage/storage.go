// Package storage guarda os blobs da biblioteca num bucket compatível
// com S3 (R2, MinIO). O banco guarda só o registro do arquivo; o
// conteúdo vive aqui.
package storage

import "context"

// Objeto é um blob da biblioteca pronto para persistir.
type Objeto struct {
	Chave       string
	Conteudo    []byte
	ContentType string
}

// Referencia aponta para o blob persistido no bucket.
type Referencia struct {
	URL  string
	ETag string
}

// Uploader persiste e remove blobs da biblioteca.
type Uploader interface {
	Upload(ctx context.Context, obj Objeto) (*Referencia, error)
	Remove(ctx context.Context, chave string) error
}
