package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/gestaomeridional/plataforma/internal/authz"
	"github.com/gestaomeridional/plataforma/internal/config"
	httpmiddleware "github.com/gestaomeridional/plataforma/internal/http/middleware"
	"github.com/gestaomeridional/plataforma/internal/notify"
	"github.com/gestaomeridional/plataforma/internal/repo"
	"github.com/gestaomeridional/plataforma/internal/service"
	"github.com/gestaomeridional/plataforma/internal/storage"
)

type Handler struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	redis         *redis.Client
	authService   *service.AuthService
	metas         *service.MetaService
	usuarios      *service.UsuarioService
	departamentos *service.DepartamentoService
	sucursais     *service.SucursalService
	biblioteca    *service.BibliotecaService
	notificacoes  *service.NotificacaoService
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
	devCookies    bool
}

// NewRouter monta os serviços e devolve o roteador configurado.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, authService *service.AuthService) (http.Handler, error) {
	devCookies := false
	for _, origin := range cfg.AllowOrigins {
		if strings.Contains(origin, "localhost") {
			devCookies = true
			break
		}
	}

	queries := repo.New(pool)

	var uploader storage.Uploader = storage.NoopUploader{}
	if cfg.Storage.Enabled() {
		bucket, err := storage.NewBucket(storage.BucketConfig{
			Endpoint:     cfg.Storage.Endpoint,
			Region:       cfg.Storage.Region,
			Bucket:       cfg.Storage.Bucket,
			AccessKey:    cfg.Storage.AccessKey,
			SecretKey:    cfg.Storage.SecretKey,
			PublicDomain: cfg.Storage.PublicDomain,
		})
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		uploader = bucket
	}

	router := notify.NewRouter(queries)
	deliverers := []notify.Deliverer{notify.NewStoreDeliverer(queries)}
	if webhook := notify.NewWebhookDeliverer(cfg.NotifyWebhookURL); webhook != nil {
		deliverers = append(deliverers, webhook)
	}
	if email := notify.NewEmailDeliverer(cfg.ResendAPIKey, cfg.EmailFrom, queries); email != nil {
		deliverers = append(deliverers, email)
	}
	dispatcher := notify.NewDispatcher(router, deliverers...)

	loader := httpmiddleware.NewPrincipalLoader(queries, redisClient)

	h := &Handler{
		cfg:           cfg,
		pool:          pool,
		redis:         redisClient,
		authService:   authService,
		metas:         service.NewMetaService(queries, dispatcher),
		usuarios:      service.NewUsuarioService(queries, dispatcher, loader),
		departamentos: service.NewDepartamentoService(queries, loader),
		sucursais:     service.NewSucursalService(queries),
		biblioteca:    service.NewBibliotecaService(queries, uploader),
		notificacoes:  service.NewNotificacaoService(queries),
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
		devCookies:    devCookies,
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)

		public.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", h.Login)
			auth.Post("/refresh", h.Refresh)
			auth.Post("/logout", h.Logout)
		})

		public.Post("/solicitacoes", h.SolicitarAcesso)
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(authService.JWT(), loader))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		private.Get("/me", h.Me)

		private.Route("/metas", func(m chi.Router) {
			m.Get("/", h.ListMetas)
			m.Post("/", h.CreateMeta)
			m.Get("/{id}", h.GetMeta)
			m.Delete("/{id}", h.DeleteMeta)
			m.Patch("/{id}/progresso", h.UpdateMetaProgresso)
			m.Patch("/{id}/status", h.TransitionMeta)
			m.Put("/{id}/responsaveis", h.UpdateMetaResponsaveis)
			m.Get("/{id}/relatorios", h.ListRelatorios)
			m.Post("/{id}/relatorios", h.SubmitRelatorio)
		})

		private.Route("/usuarios", func(u chi.Router) {
			u.Get("/", h.ListUsuarios)
			u.Get("/{id}", h.GetUsuario)
			u.Patch("/{id}/papel", h.ChangeUsuarioPapel)
			u.Patch("/{id}/departamento", h.ChangeUsuarioDepartamento)
			u.Post("/{id}/desativar", h.DeactivateUsuario)
			u.Delete("/{id}", h.DeleteUsuario)
		})

		private.Route("/solicitacoes", func(s chi.Router) {
			s.Get("/", h.ListSolicitacoes)
			s.Post("/{id}/aprovar", h.AprovarSolicitacao)
		})

		private.Route("/departamentos", func(d chi.Router) {
			d.Get("/", h.ListDepartamentos)
			d.Post("/", h.CreateDepartamento)
			d.Get("/{id}", h.GetDepartamento)
			d.Patch("/{id}", h.RenameDepartamento)
			d.Put("/{id}/supervisor", h.AssignSupervisor)
			d.Delete("/{id}", h.DeleteDepartamento)
		})

		private.Route("/sucursais", func(s chi.Router) {
			s.Get("/{id}", h.GetSucursal)
			s.Group(func(admin chi.Router) {
				admin.Use(httpmiddleware.RequireRole(authz.RoleSuperAdmin))
				admin.Get("/", h.ListSucursais)
				admin.Post("/", h.CreateSucursal)
				admin.Put("/{id}", h.UpdateSucursal)
			})
		})

		private.Route("/biblioteca", func(b chi.Router) {
			b.Get("/", h.ListArquivos)
			b.Post("/", h.UploadArquivo)
			b.Get("/{id}", h.GetArquivo)
			b.Delete("/{id}", h.DeleteArquivo)
		})

		private.Route("/notificacoes", func(n chi.Router) {
			n.Get("/", h.ListNotificacoes)
			n.Post("/{id}/lida", h.MarcarNotificacaoLida)
		})
	})

	return r, nil
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida conexões com Postgres e Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbErr := h.pool.Ping(ctx)
	redisErr := h.redis.Ping(ctx).Err()

	if dbErr != nil || redisErr != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "dependências indisponíveis", map[string]any{
			"db":    errorString(dbErr),
			"redis": errorString(redisErr),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
