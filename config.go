// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package courier

import (
	"io"
	"os"
	"time"

	"github.com/z5labs/courier/httpclient"

	bedrockcfg "github.com/z5labs/bedrock/config"
)

// ConfigSource standardizes the configuration template for courier
// clients. The [io.Reader] is expected to be YAML with support for Go
// templating. Currently, only 2 template functions are supported:
//   - env - this allows environment variables to be substituted into the YAML
//   - default - define a default value in case the original value is nil
func ConfigSource(r io.Reader) bedrockcfg.Source {
	return bedrockcfg.FromYaml(
		bedrockcfg.RenderTextTemplate(
			r,
			bedrockcfg.TemplateFunc("env", func(key string) any {
				v, ok := os.LookupEnv(key)
				if ok {
					return v
				}
				return nil
			}),
			bedrockcfg.TemplateFunc("default", func(def, v any) any {
				if v == nil {
					return def
				}
				return v
			}),
		),
	)
}

// Config defines the common configuration for courier clients.
type Config struct {
	BaseURL string `config:"base_url"`

	HTTP struct {
		Timeout            time.Duration `config:"timeout"`
		DisableCompression bool          `config:"disable_compression"`
	} `config:"http"`
}

// NewFromConfig reads, templates and unmarshals YAML configuration from r
// and initializes a [Client] from it, with the default [httpclient.Client]
// transport configured per the HTTP section. Explicit options override the
// configured values.
func NewFromConfig(r io.Reader, opts ...Option) (*Client, error) {
	m, err := bedrockcfg.Read(ConfigSource(r))
	if err != nil {
		return nil, err
	}

	var cfg Config
	err = m.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	transportOpts := []httpclient.Option{
		httpclient.Timeout(cfg.HTTP.Timeout),
	}
	if cfg.HTTP.DisableCompression {
		transportOpts = append(transportOpts, httpclient.DisableCompression())
	}

	opts = append([]Option{
		WithTransport(httpclient.New(transportOpts...)),
	}, opts...)
	return New(cfg.BaseURL, opts...)
}
