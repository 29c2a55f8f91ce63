package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"article-batch-service/internal/logging"
	"article-batch-service/internal/repository/sqlite"
	"article-batch-service/internal/storage"
)

type GlobalOptions struct {
	DBPath    string
	KeyPrefix string
	LogLevel  string
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		DBPath:    "batchctl.db",
		KeyPrefix: storage.DefaultKeyPrefix,
		LogLevel:  "warn",
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.DBPath, "db", o.DBPath, "Path of the local sqlite database")
	fs.StringVar(&o.KeyPrefix, "key-prefix", o.KeyPrefix, "Prefix of the batch records")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "Log level (debug, info, warn, error)")
}

func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	logger, err := logging.New(o.LogLevel)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	return nil
}

// Store opens the local database. The caller closes the returned gateway.
func (o *GlobalOptions) Store() (*storage.Store, *sqlite.Gateway, error) {
	gw, err := sqlite.Open(o.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return storage.NewStore(gw, storage.NewKeys(o.KeyPrefix)), gw, nil
}
