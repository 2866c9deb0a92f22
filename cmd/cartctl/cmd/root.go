// Package cmd provides the CLI commands for cartctl.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"solecart/cmd/cartctl/internal/config"
	"solecart/internal/util"
	"solecart/pkg/cart"
	"solecart/pkg/cartclient"
	"solecart/pkg/session"
	"solecart/pkg/store"
)

// cli carries flags and the per-invocation runtime built in PersistentPreRunE.
type cli struct {
	cfgFile     string
	backendURL  string
	dataFile    string
	showMetrics bool

	cfg      config.FileConfig
	logger   *slog.Logger
	kv       store.KV
	session  *session.Stored
	client   *cartclient.Client
	svc      *cart.Service
	registry *prometheus.Registry
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "cartctl",
		Short: "cartctl - shopping cart client",
		Long: `cartctl manages a shopping cart against a cart backend.

Without a session the cart is kept locally (guest cart). After "cartctl login"
every operation goes to the server and the guest cart is migrated once.
If the server is unreachable the local cart is used instead.

Configuration:
  Config is loaded from ./cartctl.yaml when present. Environment variables
  CARTCTL_BACKEND_URL, CARTCTL_STORAGE, CARTCTL_DATA_FILE, CARTCTL_LOG_LEVEL,
  REDIS_ADDR and REDIS_PASSWORD override file values.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations["offline"] == "true" {
				return nil
			}
			return c.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return c.teardown(cmd)
		},
	}
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default: ./cartctl.yaml)")
	root.PersistentFlags().StringVar(&c.backendURL, "backend", "", "cart backend base URL (overrides config)")
	root.PersistentFlags().StringVar(&c.dataFile, "data-file", "", "local cart file (overrides config)")
	root.PersistentFlags().BoolVar(&c.showMetrics, "metrics", false, "print cart metrics to stderr after the command")

	root.AddCommand(
		c.listCmd(),
		c.totalCmd(),
		c.addCmd(),
		c.removeCmd(),
		c.setCmd(),
		c.clearCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.syncCmd(),
		c.productsCmd(),
		tokenCmd(),
		versionCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (c *cli) setup(ctx context.Context) error {
	cfg, err := config.Load(c.cfgFile)
	if err != nil {
		return err
	}
	if c.backendURL != "" {
		cfg.BackendURL = c.backendURL
	}
	if c.dataFile != "" {
		cfg.Storage = config.StorageFile
		cfg.DataFile = c.dataFile
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = util.NewLogger(os.Stderr, cfg.LogLevel)

	kv, err := openKV(ctx, cfg)
	if err != nil {
		return err
	}
	c.kv = kv
	timeout, _ := cfg.Timeout()
	c.client = cartclient.NewClient(cfg.BackendURL, cartclient.WithTimeout(timeout))
	c.session = session.NewStored(kv, c.logger)
	c.registry = prometheus.NewRegistry()

	svc, err := cart.NewService(cart.Config{
		Local:   cart.NewLocalStore(kv, cart.WithLocalLogger(c.logger)),
		Remote:  c.client,
		Session: c.session,
		Logger:  c.logger,
		Metrics: cart.NewMetrics(c.registry),
	})
	if err != nil {
		return err
	}
	c.svc = svc
	return nil
}

func (c *cli) teardown(cmd *cobra.Command) error {
	var errs []error
	if c.showMetrics && c.registry != nil {
		errs = append(errs, writeMetrics(cmd, c.registry))
	}
	if closer, ok := c.kv.(store.Closer); ok {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}

func openKV(ctx context.Context, cfg config.FileConfig) (store.KV, error) {
	switch cfg.Storage {
	case config.StorageRedis:
		kv, err := store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisPrefix, 0)
		if err != nil {
			return nil, err
		}
		if err := kv.Ping(ctx); err != nil {
			_ = kv.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return kv, nil
	default:
		return store.NewFileStore(cfg.DataFile)
	}
}

func writeMetrics(cmd *cobra.Command, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(cmd.ErrOrStderr(), mf); err != nil {
			return err
		}
	}
	return nil
}

// offline marks commands that need neither config nor storage.
func offline(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations["offline"] = "true"
	return cmd
}
