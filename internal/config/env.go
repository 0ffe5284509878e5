package config

import (
	"github.com/JaimeStill/segmenter/internal/model"
	"github.com/JaimeStill/segmenter/internal/segmenter"
	"github.com/JaimeStill/segmenter/pkg/database"
	"github.com/JaimeStill/segmenter/pkg/middleware"
	"github.com/JaimeStill/segmenter/pkg/pagination"
	"github.com/JaimeStill/segmenter/pkg/storage"
)

const prefix = "SEGMENTER_"

// EnvSegmenterEnv selects the config.<env>.toml overlay.
const EnvSegmenterEnv = prefix + "ENV"

// Env names the variables overriding each configuration section.
type Env struct {
	ShutdownTimeout string
	Version         string

	Server    *ServerEnv
	Database  *database.Env
	Storage   *storage.Env
	API       *APIEnv
	Model     *model.Env
	Segmenter *segmenter.Env
}

var env = &Env{
	ShutdownTimeout: prefix + "SHUTDOWN_TIMEOUT",
	Version:         prefix + "VERSION",

	Server: &ServerEnv{
		Host:            prefix + "SERVER_HOST",
		Port:            prefix + "SERVER_PORT",
		ReadTimeout:     prefix + "SERVER_READ_TIMEOUT",
		WriteTimeout:    prefix + "SERVER_WRITE_TIMEOUT",
		ShutdownTimeout: prefix + "SERVER_SHUTDOWN_TIMEOUT",
	},

	Database: &database.Env{
		Host:            prefix + "DB_HOST",
		Port:            prefix + "DB_PORT",
		Name:            prefix + "DB_NAME",
		User:            prefix + "DB_USER",
		Password:        prefix + "DB_PASSWORD",
		SSLMode:         prefix + "DB_SSL_MODE",
		MaxOpenConns:    prefix + "DB_MAX_OPEN_CONNS",
		MaxIdleConns:    prefix + "DB_MAX_IDLE_CONNS",
		ConnMaxLifetime: prefix + "DB_CONN_MAX_LIFETIME",
		ConnTimeout:     prefix + "DB_CONN_TIMEOUT",
	},

	Storage: &storage.Env{
		ContainerName:    prefix + "STORAGE_CONTAINER_NAME",
		ConnectionString: prefix + "STORAGE_CONNECTION_STRING",
		MaxListSize:      prefix + "STORAGE_MAX_LIST_SIZE",
	},

	API: &APIEnv{
		BasePath:    prefix + "API_BASE_PATH",
		MaxBodySize: prefix + "API_MAX_BODY_SIZE",
		CORS: &middleware.CORSEnv{
			Enabled:          prefix + "CORS_ENABLED",
			Origins:          prefix + "CORS_ORIGINS",
			AllowedMethods:   prefix + "CORS_ALLOWED_METHODS",
			AllowedHeaders:   prefix + "CORS_ALLOWED_HEADERS",
			AllowCredentials: prefix + "CORS_ALLOW_CREDENTIALS",
			MaxAge:           prefix + "CORS_MAX_AGE",
		},
		Pagination: &pagination.ConfigEnv{
			DefaultPageSize: prefix + "PAGINATION_DEFAULT_PAGE_SIZE",
			MaxPageSize:     prefix + "PAGINATION_MAX_PAGE_SIZE",
		},
	},

	Model: &model.Env{
		APIKey:          prefix + "MODEL_API_KEY",
		Models:          prefix + "MODEL_MODELS",
		Temperature:     prefix + "MODEL_TEMPERATURE",
		MaxOutputTokens: prefix + "MODEL_MAX_OUTPUT_TOKENS",
		Timeout:         prefix + "MODEL_TIMEOUT",
	},

	Segmenter: &segmenter.Env{
		PageSize:   prefix + "PAGE_SIZE",
		MaxPages:   prefix + "MAX_PAGES",
		MaxRetries: prefix + "MAX_RETRIES",
		BaseDelay:  prefix + "BASE_DELAY",
		MaxBackoff: prefix + "MAX_BACKOFF",
		Cache:      prefix + "CACHE",
	},
}
