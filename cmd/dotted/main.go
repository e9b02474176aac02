// Package main implements the dotted CLI for reading and editing a snapshot
// artifact by path.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jrhy/dotted"
	"github.com/jrhy/dotted/internal/config"
	"github.com/jrhy/dotted/internal/logging"
	"github.com/jrhy/dotted/persist/file"
	s3persist "github.com/jrhy/dotted/persist/s3"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// flags holds the persistent flags. Set flags win over the configuration.
type flags struct {
	configPath string
	dir        string
	artifact   string
	name       string
	dryRun     bool
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:   "dotted",
		Short: "Read and edit a nested snapshot by dotted path",
		Long: `dotted reads and edits a snapshot artifact addressed by dotted paths.

Changes are saved when the command finishes, and only if the content
changed. Configuration comes from --config, then DOTTED_ environment
variables such as DOTTED_STORE_DIR and DOTTED_LOG_LEVEL.

Examples:
  dotted set user.name Ana
  dotted set user.langs '[go, sql]'
  dotted get user:
  dotted flatten`,
		Version:      version,
		SilenceUsage: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "dotted.yaml", "configuration file")
	pf.StringVar(&f.dir, "dir", "", "directory holding the artifact")
	pf.StringVarP(&f.artifact, "artifact", "a", "", "artifact name; the extension picks json, yaml or proto")
	pf.StringVar(&f.name, "name", "", "store name recorded in the snapshot")
	pf.BoolVarP(&f.dryRun, "dry-run", "n", false, "do not save changes")

	root.AddCommand(
		newGetCmd(f),
		newSetCmd(f),
		newAddCmd(f),
		newPushCmd(f),
		newHasCmd(f),
		newDeleteCmd(f),
		newFlattenCmd(f),
		newDumpCmd(f),
		newSaveCmd(f),
	)
	return root
}

func (f *flags) load() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.dir != "" {
		cfg.Store.Dir = f.dir
	}
	if f.artifact != "" {
		cfg.Store.Artifact = f.artifact
	}
	if f.name != "" {
		cfg.Store.Name = f.name
	}
	if f.dryRun {
		cfg.Store.Autosave = false
	}
	return cfg, nil
}

func openPersist(cfg config.StoreConfig) (dotted.Persist, error) {
	if cfg.Bucket == "" {
		return file.NewPersistForPath(cfg.Dir), nil
	}
	awsConfig := &aws.Config{S3ForcePathStyle: aws.Bool(cfg.Endpoint != "")}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.Region != "" {
		awsConfig.Region = aws.String(cfg.Region)
	}
	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return s3persist.NewPersist(s3.New(sess), cfg.Bucket, cfg.Prefix), nil
}

// withStore opens the configured store, runs fn, and closes the store,
// which saves any change unless autosave is off.
func (f *flags) withStore(cmd *cobra.Command, fn func(ctx context.Context, s *dotted.Store) error) (err error) {
	cfg, err := f.load()
	if err != nil {
		return err
	}
	log, err := logging.New(&cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	persist, err := openPersist(cfg.Store)
	if err != nil {
		return err
	}
	opts := []dotted.StoreOption{
		dotted.WithStoreDelimiter(cfg.Store.Delimiter),
		dotted.WithDiagnostics(dotted.NewZapDiagnostics(log)),
		dotted.WithAutosave(cfg.Store.Autosave),
	}
	if cfg.Store.Name != "" {
		opts = append(opts, dotted.WithName(cfg.Store.Name))
	}
	if cfg.Store.Format != "" {
		opts = append(opts, dotted.WithFormat(dotted.Format(cfg.Store.Format)))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := dotted.Open(ctx, persist, cfg.Store.Artifact, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	log.Debug("store opened",
		zap.String("store", s.Name()),
		zap.String("location", persist.Locate(s.Artifact())),
		zap.Bool("autosave", s.Autosave()))
	return fn(ctx, s)
}
