package webpay

import (
	"transbank-webpay/internal/config"
	"transbank-webpay/internal/transbank"
)

func environmentOf(raw string) transbank.Environment {
	if raw == "" {
		return transbank.EnvironmentIntegration
	}
	return transbank.Environment(raw)
}

func resolveOptions(cfg config.Webpay) transbank.Options {
	environment := environmentOf(cfg.Environment)
	if environment == transbank.EnvironmentIntegration {
		return transbank.DefaultWebpayPlusOptions()
	}

	return transbank.Options{
		CommerceCode: cfg.CommerceCode,
		APIKey:       cfg.APIKey,
		Environment:  environment,
	}
}

// OneclickOptions resolves the mall credentials and the child commerce code
// charged by each authorization. TEST always uses the integration mall.
func OneclickOptions(cfg config.Oneclick) (transbank.Options, string) {
	environment := environmentOf(cfg.Environment)
	if environment == transbank.EnvironmentIntegration {
		return transbank.DefaultOneclickMallOptions(), transbank.IntegrationOneclickChildCode
	}

	return transbank.Options{
		CommerceCode: cfg.CommerceCode,
		APIKey:       cfg.APIKey,
		Environment:  environment,
	}, cfg.ChildCommerceCode
}
