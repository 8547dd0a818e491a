package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"kelvinbot/internal/core/domain"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Store holds the credentials the bot needs, keyed by domain.TokenKey.
// Values come from a TOML or dotenv file; environment variables win.
type Store struct {
	tokens map[domain.TokenKey]string
}

func NewStore(tokens map[domain.TokenKey]string) *Store {
	s := &Store{tokens: make(map[domain.TokenKey]string, len(tokens))}
	for k, v := range tokens {
		s.tokens[k] = v
	}
	return s
}

// Load reads path and overlays the environment. A missing file is not an error.
func Load(path string) (*Store, error) {
	raw, err := readFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", path).Msg("secrets file not found, using environment only")
		raw = map[string]string{}
	} else if err != nil {
		return nil, fmt.Errorf("error reading secrets file %s: %w", path, err)
	}

	tokens := make(map[domain.TokenKey]string, len(raw))
	for name, value := range raw {
		key, err := domain.ParseTokenKey(strings.ToUpper(name))
		if err != nil {
			log.Warn().Str("key", name).Msg("ignoring unknown secret")
			continue
		}
		tokens[key] = value
	}

	for _, key := range domain.TokenKeys() {
		if value, ok := os.LookupEnv(string(key)); ok && value != "" {
			tokens[key] = value
		}
	}

	log.Debug().Int("count", len(tokens)).Msg("secrets loaded")

	return NewStore(tokens), nil
}

func readFile(path string) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".env") || filepath.Base(path) == ".env" {
		return godotenv.Read(path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	values := make(map[string]string)
	for _, k := range v.AllKeys() {
		values[k] = v.GetString(k)
	}
	return values, nil
}

func (s *Store) Get(key domain.TokenKey) (string, error) {
	value, ok := s.tokens[key]
	if !ok || value == "" {
		return "", fmt.Errorf("%s not set: %w", key, domain.ErrCredential)
	}
	return value, nil
}
