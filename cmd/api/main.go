package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ialicitacoes/gestao-licitacoes/internal/admin"
	"github.com/ialicitacoes/gestao-licitacoes/internal/ai"
	"github.com/ialicitacoes/gestao-licitacoes/internal/auth"
	"github.com/ialicitacoes/gestao-licitacoes/internal/broker"
	"github.com/ialicitacoes/gestao-licitacoes/internal/config"
	"github.com/ialicitacoes/gestao-licitacoes/internal/db"
	"github.com/ialicitacoes/gestao-licitacoes/internal/handlers"
	"github.com/ialicitacoes/gestao-licitacoes/internal/onboarding"
	"github.com/ialicitacoes/gestao-licitacoes/internal/repository"
	"github.com/ialicitacoes/gestao-licitacoes/internal/storage"
)

func main() {
	config.LoadDotenv()
	cfg := config.LoadAPIConfig()

	// Logger JSON "global" - permite usar slog.Info/slog.Error em qualquer lugar
	_ = config.InitLogger(cfg.LogLevel)
	slog.Info("starting", "port", cfg.Port, "mongo_db", cfg.MongoDB, "onboarding_mode", cfg.OnboardingMode)

	// HOOK: tarefas administrativas one-off
	task := flag.String("task", "", "admin task: seed | token <user_id>")
	flag.Parse()
	if *task != "" {
		runTask(*task, cfg, flag.Args())
		return
	}

	// conecta Mongo
	client, err := db.NewMongoClient(cfg.MongoURI)
	if err != nil {
		log.Fatalf("mongo connect error: %v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	database := client.Database(cfg.MongoDB)

	// publisher (Rabbit)
	pub, err := broker.NewPublisher(cfg.RabbitURI, cfg.RabbitQueue)
	if err != nil {
		log.Fatalf("rabbitmq connect error: %v", err)
	}
	defer pub.Close()

	empresaRepo := repository.NewEmpresaRepository(database)
	mensagemRepo := repository.NewMensagemRepository(database)
	catalogoRepo := repository.NewCatalogoRepository(database)
	oportunidadeRepo := repository.NewOportunidadeRepository(database)
	documentoRepo := repository.NewDocumentoRepository(database)
	participacaoRepo := repository.NewParticipacaoRepository(database)

	arquivos, err := storage.NewArquivos(database)
	if err != nil {
		log.Fatalf("gridfs error: %v", err)
	}

	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := empresaRepo.EnsureIndexes(ctx); err != nil {
			slog.Warn("ensure_indexes_error", "err", err)
		}
		cancel()
	}

	estrategia, fechar := montarEstrategia(cfg)
	if fechar != nil {
		defer fechar()
	}

	ctrl := onboarding.NovoControlador(empresaRepo, mensagemRepo, catalogoRepo, estrategia, pub, slog.Default())

	oh := handlers.NewOnboardingHandler(ctrl)
	eh := handlers.NewEmpresaHandler(empresaRepo)
	oph := handlers.NewOportunidadeHandler(oportunidadeRepo, pub)
	dh := handlers.NewDocumentoHandler(documentoRepo, empresaRepo, arquivos, pub)
	ph := handlers.NewParticipacaoHandler(participacaoRepo, empresaRepo, pub)
	rh := handlers.NewRelatorioHandler(participacaoRepo, documentoRepo)

	api := http.NewServeMux()
	api.HandleFunc("/api/onboarding/mensagens", oh.Mensagens)
	api.HandleFunc("/api/empresa", eh.Empresa)
	api.HandleFunc("/api/oportunidades", oph.Oportunidades)
	api.HandleFunc("/api/oportunidades/resumo", oph.Resumo)
	api.HandleFunc("/api/oportunidades/", oph.OportunidadeByID)
	api.HandleFunc("/api/documentos", dh.Documentos)
	api.HandleFunc("/api/documentos/", dh.DocumentoArquivo)
	api.HandleFunc("/api/participacoes", ph.Participacoes)
	api.HandleFunc("/api/participacoes/", ph.ParticipacaoByID)
	api.HandleFunc("/api/relatorios/resumo", rh.Resumo)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rh.Health)
	mux.Handle("/api/", auth.RequireAuth(cfg.JWTSecret, api))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           logMiddleware(mux),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("graceful shutdown error", "err", err)
	}
}

// montarEstrategia escolhe a variante de coleta. Sem chave de IA a
// config já rebaixou para o roteiro fixo.
func montarEstrategia(cfg *config.APIConfig) (onboarding.Estrategia, func()) {
	if cfg.OnboardingMode != config.ModoExtracao {
		return onboarding.NovoRoteiro(), nil
	}
	cliente, err := ai.NovoCliente(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		slog.Warn("gemini_indisponivel_usando_roteiro", "err", err)
		return onboarding.NovoRoteiro(), nil
	}
	return onboarding.NovaExtracao(cliente, slog.Default()), cliente.Fechar
}

func runTask(task string, cfg *config.APIConfig, args []string) {
	switch task {
	case "seed":
		// conecta somente o necessário para o seed
		client, err := db.NewMongoClient(cfg.MongoURI)
		if err != nil {
			slog.Error("mongo_connect_error", "err", err)
			os.Exit(1)
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		repo := repository.NewCatalogoRepository(client.Database(cfg.MongoDB))
		if err := admin.SeedCatalogo(context.Background(), repo, slog.Default()); err != nil {
			slog.Error("seed_failed", "err", err)
			os.Exit(1)
		}
		slog.Info("seed_done")

	case "token":
		// emite um token de desenvolvimento: -task token <user_id> [email]
		if len(args) < 1 {
			slog.Error("token_task_usage", "usage", "-task token <user_id> [email]")
			os.Exit(2)
		}
		email := ""
		if len(args) > 1 {
			email = args[1]
		}
		tok, err := auth.GerarToken(cfg.JWTSecret, args[0], email, 24*time.Hour)
		if err != nil {
			slog.Error("token_error", "err", err)
			os.Exit(1)
		}
		fmt.Println(tok)

	default:
		slog.Error("unknown_admin_task", "task", task)
		os.Exit(2)
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("http_request",
			"method", r.Method, "path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
