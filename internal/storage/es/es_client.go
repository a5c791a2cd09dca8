package es

import (
	"context"
	"errors"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
)

type ClientConfig struct {
	Addresses []string
	IndexName string
	Username  string
	Password  string
	// Transport replaces the default HTTP transport when set.
	Transport http.RoundTripper
}

func newClient(config ClientConfig) (*elasticsearch.TypedClient, error) {
	cfg := elasticsearch.Config{
		Addresses: config.Addresses,
		Transport: config.Transport,
	}

	if config.Username != "" && config.Password != "" {
		cfg.Username = config.Username
		cfg.Password = config.Password
	}

	return elasticsearch.NewTypedClient(cfg)
}

// Ping fails when the cluster is unreachable or answers with a non 2xx status.
func (s *ArticleStore) Ping(ctx context.Context) error {
	ok, err := s.client.Ping().Do(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("elasticsearch ping was not successful")
	}
	return nil
}
