package storage

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	algoritmoV4 = "AWS4-HMAC-SHA256"
	servicoS3   = "s3"

	// sha256 de corpo vazio, usado em DELETE
	hashCorpoVazio = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

// BucketConfig parametriza o bucket da biblioteca.
type BucketConfig struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	PublicDomain string
	HTTPClient   *http.Client
}

func (c BucketConfig) validar() error {
	obrigatorios := []struct {
		nome  string
		valor string
	}{
		{"endpoint", c.Endpoint},
		{"region", c.Region},
		{"bucket", c.Bucket},
		{"access key", c.AccessKey},
		{"secret key", c.SecretKey},
	}
	for _, campo := range obrigatorios {
		if strings.TrimSpace(campo.valor) == "" {
			return fmt.Errorf("storage: %s do bucket ausente", campo.nome)
		}
	}
	if !strings.HasPrefix(c.Endpoint, "http://") && !strings.HasPrefix(c.Endpoint, "https://") {
		return errors.New("storage: endpoint deve incluir protocolo http/https")
	}
	return nil
}

// Bucket fala o protocolo S3 direto por HTTP com assinatura SigV4, sem
// SDK: a biblioteca só precisa de PUT, DELETE e URL pública.
type Bucket struct {
	cfg    BucketConfig
	client *http.Client
	agora  func() time.Time
}

// NewBucket cria o cliente do bucket da biblioteca.
func NewBucket(cfg BucketConfig) (*Bucket, error) {
	if err := cfg.validar(); err != nil {
		return nil, err
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	return &Bucket{cfg: cfg, client: client, agora: time.Now}, nil
}

// Upload grava o blob sob a chave dada e devolve a referência pública.
func (b *Bucket) Upload(ctx context.Context, obj Objeto) (*Referencia, error) {
	if strings.TrimSpace(obj.Chave) == "" {
		return nil, errors.New("storage: chave do objeto obrigatória")
	}
	if len(obj.Conteudo) == 0 {
		return nil, errors.New("storage: conteúdo vazio")
	}

	destino := b.objectURL(obj.Chave)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, destino, bytes.NewReader(obj.Conteudo))
	if err != nil {
		return nil, err
	}

	contentType := strings.TrimSpace(obj.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	// documentos da biblioteca são internos à sucursal
	req.Header.Set("Cache-Control", "private, max-age=3600")
	req.ContentLength = int64(len(obj.Conteudo))

	soma := sha256.Sum256(obj.Conteudo)
	b.assinar(req, hex.EncodeToString(soma[:]))

	resp, err := b.do(req)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()

	return &Referencia{
		URL:  b.publicURL(obj.Chave, destino),
		ETag: strings.Trim(resp.Header.Get("ETag"), `"`),
	}, nil
}

// Remove apaga o blob do bucket. DELETE é idempotente no protocolo S3:
// remover chave inexistente não é erro.
func (b *Bucket) Remove(ctx context.Context, chave string) error {
	if strings.TrimSpace(chave) == "" {
		return errors.New("storage: chave do objeto obrigatória")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, b.objectURL(chave), nil)
	if err != nil {
		return err
	}
	b.assinar(req, hashCorpoVazio)

	resp, err := b.do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (b *Bucket) do(req *http.Request) (*http.Response, error) {
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		detalhe, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("storage: %s %s devolveu %d: %s",
			req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(detalhe)))
	}
	return resp, nil
}

func (b *Bucket) objectURL(chave string) string {
	escapada := (&url.URL{Path: strings.TrimLeft(chave, "/")}).EscapedPath()
	return strings.TrimRight(b.cfg.Endpoint, "/") + "/" + b.cfg.Bucket + "/" + escapada
}

func (b *Bucket) publicURL(chave, fallback string) string {
	dominio := strings.TrimSpace(b.cfg.PublicDomain)
	if dominio == "" {
		return fallback
	}
	escapada := (&url.URL{Path: strings.TrimLeft(chave, "/")}).EscapedPath()
	return strings.TrimRight(dominio, "/") + "/" + escapada
}

// assinar aplica SigV4 à requisição. Como a requisição é montada aqui
// mesmo, o conjunto de cabeçalhos assinados é fixo: content-type quando
// presente, host, x-amz-content-sha256 e x-amz-date, nessa ordem.
func (b *Bucket) assinar(req *http.Request, payloadHash string) {
	agora := b.agora().UTC()
	amzDate := agora.Format("20060102T150405Z")
	dia := agora.Format("20060102")

	req.Header.Set("x-amz-date", amzDate)
	req.Header.Set("x-amz-content-sha256", payloadHash)

	assinados := []string{"host", "x-amz-content-sha256", "x-amz-date"}
	if req.Header.Get("Content-Type") != "" {
		assinados = append([]string{"content-type"}, assinados...)
	}

	var canonico strings.Builder
	canonico.WriteString(req.Method + "\n")
	canonico.WriteString(encodePath(req.URL.Path) + "\n")
	canonico.WriteString(req.URL.RawQuery + "\n")
	for _, nome := range assinados {
		valor := req.Header.Get(nome)
		if nome == "host" {
			valor = req.URL.Host
		}
		canonico.WriteString(nome + ":" + strings.TrimSpace(valor) + "\n")
	}
	canonico.WriteString("\n")
	lista := strings.Join(assinados, ";")
	canonico.WriteString(lista + "\n")
	canonico.WriteString(payloadHash)

	resumo := sha256.Sum256([]byte(canonico.String()))
	escopo := dia + "/" + b.cfg.Region + "/" + servicoS3 + "/aws4_request"
	aAssinar := strings.Join([]string{
		algoritmoV4,
		amzDate,
		escopo,
		hex.EncodeToString(resumo[:]),
	}, "\n")

	chave := chaveAssinatura(b.cfg.SecretKey, dia, b.cfg.Region)
	assinatura := hex.EncodeToString(hmacSum(chave, []byte(aAssinar)))

	req.Header.Set("Authorization", fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		algoritmoV4, b.cfg.AccessKey, escopo, lista, assinatura))
}

// encodePath aplica o percent-encoding exigido pelo SigV4 preservando
// as barras do caminho.
func encodePath(p string) string {
	if p == "" {
		return "/"
	}
	var sb strings.Builder
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.', c == '~', c == '/':
			sb.WriteByte(c)
		default:
			fmt.Fprintf(&sb, "%%%02X", c)
		}
	}
	return sb.String()
}

func chaveAssinatura(secret, dia, region string) []byte {
	k := hmacSum([]byte("AWS4"+secret), []byte(dia))
	k = hmacSum(k, []byte(region))
	k = hmacSum(k, []byte(servicoS3))
	return hmacSum(k, []byte("aws4_request"))
}

func hmacSum(chave, dados []byte) []byte {
	mac := hmac.New(sha256.New, chave)
	mac.Write(dados)
	return mac.Sum(nil)
}
