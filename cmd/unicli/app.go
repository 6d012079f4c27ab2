package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shockz09/uni-cli-sub002/internal/config"
	"github.com/shockz09/uni-cli-sub002/internal/db"
	"github.com/shockz09/uni-cli-sub002/internal/gmail"
	"github.com/shockz09/uni-cli-sub002/internal/llm"
	"github.com/shockz09/uni-cli-sub002/internal/render"
	"github.com/shockz09/uni-cli-sub002/internal/services"
	"github.com/shockz09/uni-cli-sub002/internal/version"
	"github.com/shockz09/uni-cli-sub002/pkg/auth"
)

// app bundles the configured client and services the mail commands run on.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	logFile *os.File

	gmailClient *gmail.Client
	renderer    *render.EmailRenderer

	repo        services.MessageRepository
	emails      services.EmailService
	labels      services.LabelService
	links       services.LinkService
	attachments services.AttachmentService
	ai          services.AIService
	cache       services.CacheService

	stores       *services.StoreManager
	accountEmail string

	labelNames map[string]string
}

// withApp wires the full application before running the command body and
// tears it down afterwards.
func withApp(fn func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		return fn(ctx, a, cmd, args)
	}
}

func newApp(ctx context.Context) (*app, error) {
	configPath := getConfigPath(flagConfigPath)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load configuration: %v\n", err)
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &app{cfg: cfg}
	a.initLogger()

	credPath := getCredentialsPath(flagCredentialsPath, cfg.Credentials)
	tokenPath := getTokenPath(flagTokenPath, cfg.Token)

	if credPath == "" {
		return nil, fmt.Errorf("Gmail credentials file is required; provide it via --credentials or the config file")
	}
	if _, err := os.Stat(credPath); err != nil {
		return nil, fmt.Errorf("credentials file not found at %s; download OAuth client credentials from Google Cloud Console and place them there", credPath)
	}

	service, err := auth.NewGmailService(ctx, credPath, tokenPath, auth.DefaultScopes()...)
	if err != nil {
		return nil, fmt.Errorf("could not initialize Gmail service: %w", err)
	}

	a.gmailClient = gmail.NewClient(service)
	a.gmailClient.SetLogger(a.logger)
	a.renderer = render.NewEmailRenderer()

	repo := services.NewMessageRepository(a.gmailClient)
	a.repo = repo

	emailSvc := services.NewEmailService(repo, a.gmailClient, a.renderer)
	emailSvc.SetLogger(a.logger)
	a.emails = emailSvc

	a.labels = services.NewLabelService(a.gmailClient)
	a.links = services.NewLinkService(a.gmailClient)
	a.attachments = services.NewAttachmentService(a.gmailClient, cfg)

	// The body and summary caches are per account, so the store can only be
	// opened once the account is known. Caching is skipped when the profile
	// lookup fails.
	a.stores = services.NewStoreManager(cfg, a.logger)
	if email, err := a.gmailClient.ActiveAccountEmail(ctx); err == nil {
		a.accountEmail = email
		store, err := a.stores.OpenForAccount(ctx, email)
		if err != nil {
			if a.logger != nil {
				a.logger.Printf("warning: could not open cache store: %v", err)
			}
		} else if store != nil {
			cacheStore := db.NewCacheStore(store)
			emailSvc.SetCacheStore(cacheStore)
			a.cache = services.NewCacheService(cacheStore)
		}
	} else if a.logger != nil {
		a.logger.Printf("warning: could not resolve account email: %v", err)
	}

	aiSvc := services.NewAIService(a.llmProvider(), a.cache, cfg)
	aiSvc.SetLogger(a.logger)
	a.ai = aiSvc

	return a, nil
}

// llmProvider builds the configured LLM provider, or nil when summaries are
// disabled or misconfigured.
func (a *app) llmProvider() llm.Provider {
	cfg := a.cfg
	if !cfg.LLM.Enabled || cfg.LLM.Model == "" {
		return nil
	}

	name := cfg.LLM.Provider
	if name == "" {
		name = "ollama"
	}

	region := cfg.LLM.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}

	provider, err := llm.NewProviderFromConfig(name, cfg.LLM.Endpoint, cfg.LLM.Model, cfg.GetLLMTimeout(), region)
	if err != nil {
		if a.logger != nil {
			a.logger.Printf("warning: could not initialize LLM provider (%s): %v", name, err)
		}
		return nil
	}

	return provider
}

// initLogger opens the file logger. Logging is best effort: when the log file
// cannot be opened the commands run silently.
func (a *app) initLogger() {
	logPath := a.cfg.LogFile
	if logPath == "" {
		logDir := config.DefaultLogDir()
		if logDir == "" {
			return
		}
		logPath = filepath.Join(logDir, "unicli.log")
	} else {
		logPath = config.ExpandPath(logPath)
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}

	a.logFile = f
	a.logger = log.New(f, "[unicli] ", log.LstdFlags|log.Lmicroseconds)
	a.logger.Printf("%s starting", version.Short())
}

// Close releases the cache store and the log file
func (a *app) Close() {
	if a.stores != nil {
		if err := a.stores.Close(); err != nil && a.logger != nil {
			a.logger.Printf("warning: failed to close cache store: %v", err)
		}
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

// labelMap returns label ID to name mappings, loaded once per invocation
func (a *app) labelMap(ctx context.Context) map[string]string {
	if a.labelNames != nil {
		return a.labelNames
	}

	a.labelNames = make(map[string]string)
	if labels, err := a.labels.ListLabels(ctx); err == nil {
		for _, label := range labels {
			a.labelNames[label.Id] = label.Name
		}
	} else if a.logger != nil {
		a.logger.Printf("could not load label names: %v", err)
	}

	return a.labelNames
}

// resolveLabel turns a label name into its ID. Values that already look like
// IDs (exact ID match or system labels such as INBOX) pass through.
func (a *app) resolveLabel(ctx context.Context, nameOrID string) (string, error) {
	labels, err := a.labels.ListLabels(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list labels: %w", err)
	}

	for _, label := range labels {
		if label.Id == nameOrID {
			return label.Id, nil
		}
	}
	for _, label := range labels {
		if strings.EqualFold(label.Name, nameOrID) {
			return label.Id, nil
		}
	}

	return "", fmt.Errorf("no label named %q; run 'unicli mail labels' to list them", nameOrID)
}

// resolvePath picks the first set location for a file the CLI needs: the
// command line flag, then the environment variable, then the config file
// setting, then the built-in default. Environment and config values get
// tilde expansion, flags are taken as typed.
func resolvePath(flagValue, envVar, configValue string, fallback func() string) string {
	if flagValue != "" {
		return flagValue
	}
	if envPath := os.Getenv(envVar); envPath != "" {
		return config.ExpandPath(envPath)
	}
	if configValue != "" {
		return config.ExpandPath(configValue)
	}
	return fallback()
}

// getConfigPath resolves the configuration file location.
func getConfigPath(flagValue string) string {
	return resolvePath(flagValue, "UNICLI_CONFIG", "", config.DefaultConfigPath)
}

// getCredentialsPath resolves the OAuth client credentials location.
func getCredentialsPath(flagValue, configValue string) string {
	return resolvePath(flagValue, "UNICLI_CREDENTIALS", configValue, func() string {
		credPath, _ := config.DefaultCredentialPaths()
		return credPath
	})
}

// getTokenPath resolves the cached OAuth token location.
func getTokenPath(flagValue, configValue string) string {
	return resolvePath(flagValue, "UNICLI_TOKEN", configValue, func() string {
		_, tokenPath := config.DefaultCredentialPaths()
		return tokenPath
	})
}
