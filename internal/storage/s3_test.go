package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBucketForTest(t *testing.T, handler http.HandlerFunc) (*Bucket, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	b, err := NewBucket(BucketConfig{
		Endpoint:     srv.URL,
		Region:       "auto",
		Bucket:       "docs",
		AccessKey:    "acesso",
		SecretKey:    "segredo",
		PublicDomain: "https://cdn.exemplo.com",
		HTTPClient:   srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewBucket: %v", err)
	}
	return b, srv
}

func TestBucketUploadSignsRequest(t *testing.T) {
	conteudo := []byte("relatório em pdf")
	var recebida *http.Request
	b, _ := newBucketForTest(t, func(w http.ResponseWriter, r *http.Request) {
		recebida = r.Clone(context.Background())
		w.Header().Set("ETag", `"abc123"`)
		w.WriteHeader(http.StatusOK)
	})

	ref, err := b.Upload(context.Background(), Objeto{
		Chave:       "biblioteca/suc-1/doc.pdf",
		Conteudo:    conteudo,
		ContentType: "application/pdf",
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if recebida.Method != http.MethodPut {
		t.Fatalf("método=%s, esperava PUT", recebida.Method)
	}
	if recebida.URL.Path != "/docs/biblioteca/suc-1/doc.pdf" {
		t.Fatalf("path=%s, esperava prefixo do bucket", recebida.URL.Path)
	}

	soma := sha256.Sum256(conteudo)
	if got := recebida.Header.Get("x-amz-content-sha256"); got != hex.EncodeToString(soma[:]) {
		t.Fatalf("hash do payload=%s não confere", got)
	}

	auth := recebida.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=acesso/") {
		t.Fatalf("authorization inesperado: %s", auth)
	}
	if !strings.Contains(auth, "SignedHeaders=content-type;host;x-amz-content-sha256;x-amz-date") {
		t.Fatalf("cabeçalhos assinados inesperados: %s", auth)
	}

	if ref.ETag != "abc123" {
		t.Fatalf("etag=%s, esperava abc123", ref.ETag)
	}
	if ref.URL != "https://cdn.exemplo.com/biblioteca/suc-1/doc.pdf" {
		t.Fatalf("url pública=%s não usa o domínio configurado", ref.URL)
	}
}

func TestBucketRemove(t *testing.T) {
	var metodo, caminho string
	b, _ := newBucketForTest(t, func(w http.ResponseWriter, r *http.Request) {
		metodo = r.Method
		caminho = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	if err := b.Remove(context.Background(), "biblioteca/suc-1/doc.pdf"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if metodo != http.MethodDelete {
		t.Fatalf("método=%s, esperava DELETE", metodo)
	}
	if caminho != "/docs/biblioteca/suc-1/doc.pdf" {
		t.Fatalf("path=%s não aponta para o objeto", caminho)
	}
}

func TestBucketUploadRemoteFailure(t *testing.T) {
	b, _ := newBucketForTest(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "acesso negado", http.StatusForbidden)
	})

	_, err := b.Upload(context.Background(), Objeto{Chave: "x", Conteudo: []byte("a")})
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("esperava erro com status remoto, veio %v", err)
	}
}

func TestNewBucketValidatesConfig(t *testing.T) {
	_, err := NewBucket(BucketConfig{Endpoint: "https://s3.exemplo.com", Region: "auto", Bucket: "docs"})
	if err == nil {
		t.Fatal("config sem credenciais deveria falhar")
	}

	_, err = NewBucket(BucketConfig{
		Endpoint: "s3.exemplo.com", Region: "auto", Bucket: "docs",
		AccessKey: "a", SecretKey: "s",
	})
	if err == nil {
		t.Fatal("endpoint sem protocolo deveria falhar")
	}
}

func TestNoopUploader(t *testing.T) {
	var up Uploader = NoopUploader{}

	if _, err := up.Upload(context.Background(), Objeto{Chave: "x", Conteudo: []byte("a")}); !errors.Is(err, ErrSemBackend) {
		t.Fatalf("esperava ErrSemBackend, veio %v", err)
	}
	if err := up.Remove(context.Background(), "x"); !errors.Is(err, ErrSemBackend) {
		t.Fatalf("esperava ErrSemBackend, veio %v", err)
	}
}
