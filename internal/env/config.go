package env

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	// ServerInfoPath points at the file holding the server's "ip:port".
	ServerInfoPath string `env:"KEEP_SERVER_INFO,default=server.info"`

	// BackupInfoPath points at the newline-delimited list of local files
	// to back up.
	BackupInfoPath string `env:"KEEP_BACKUP_INFO,default=backup.info"`

	DebugHTTP bool `env:"KEEP_DEBUG_HTTP"`
}

func LoadConfig(ctx context.Context) (*Config, error) {
	config := Config{}

	if err := godotenv.Load(".env.local"); err != nil {
		if !os.IsNotExist(err) {
			panic(err)
		}
	}

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
