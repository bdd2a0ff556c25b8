package config

import "github.com/hyperjump/mdsearch/internal/models"

// Search defaults.
const (
	DefaultFuzzy         = models.DefaultFuzziness
	DefaultSnippetLength = 200
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/mdsearch/data/documents.db"
	}
	if cfg.Corpus.Extensions == nil {
		cfg.Corpus.Extensions = []string{".md"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Corpus.Directories) > 0 && cfg.Corpus.Recursive == nil {
		t := true
		cfg.Corpus.Recursive = &t
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = models.DefaultLimit
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.MaxLimit < cfg.Search.DefaultLimit {
		cfg.Search.MaxLimit = cfg.Search.DefaultLimit
	}
	if cfg.Search.MaxFuzzy == 0 {
		cfg.Search.MaxFuzzy = models.DefaultMaxFuzzy
	}
	if cfg.Search.Boost == nil {
		cfg.Search.Boost = models.DefaultBoost()
	}
	if cfg.Search.SnippetLength == 0 {
		cfg.Search.SnippetLength = DefaultSnippetLength
	}
}
