package webpay

import (
	"testing"

	"transbank-webpay/internal/config"
	"transbank-webpay/internal/transbank"

	"github.com/stretchr/testify/assert"
)

func TestOneclickOptions(t *testing.T) {
	live := config.Oneclick{
		Environment:       "LIVE",
		CommerceCode:      "597000000001",
		ChildCommerceCode: "597000000002",
		APIKey:            "live-key",
	}

	t.Run("EmptyEnvironmentUsesIntegration", func(t *testing.T) {
		opts, child := OneclickOptions(config.Oneclick{CommerceCode: "ignored", ChildCommerceCode: "ignored"})
		assert.Equal(t, transbank.DefaultOneclickMallOptions(), opts)
		assert.Equal(t, transbank.IntegrationOneclickChildCode, child)
	})

	t.Run("TestIgnoresCredentials", func(t *testing.T) {
		cfg := live
		cfg.Environment = "TEST"
		opts, child := OneclickOptions(cfg)
		assert.Equal(t, transbank.IntegrationOneclickMallCode, opts.CommerceCode)
		assert.Equal(t, transbank.IntegrationOneclickChildCode, child)
	})

	t.Run("Live", func(t *testing.T) {
		opts, child := OneclickOptions(live)
		assert.Equal(t, transbank.Options{
			CommerceCode: "597000000001",
			APIKey:       "live-key",
			Environment:  transbank.EnvironmentProduction,
		}, opts)
		assert.Equal(t, "597000000002", child)
		assert.Equal(t, transbank.ProductionHost, opts.Host())
	})
}
