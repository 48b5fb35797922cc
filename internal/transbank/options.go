package transbank

// Environment selects the Transbank host. Anything other than
// EnvironmentProduction talks to the integration host.
type Environment string

const (
	EnvironmentIntegration Environment = "TEST"
	EnvironmentProduction  Environment = "LIVE"
)

const (
	IntegrationHost = "https://webpay3gint.transbank.cl"
	ProductionHost  = "https://webpay3g.transbank.cl"
)

// Integration credentials published by Transbank for testing.
const (
	IntegrationAPIKey                 = "579B532A7440BB0C9079DED94D31EA1615BACEB56610332264630D42D0A36B1C"
	IntegrationWebpayPlusCommerceCode = "597055555532"
	IntegrationOneclickMallCode       = "597055555541"
	IntegrationOneclickChildCode      = "597055555542"
)

type Options struct {
	CommerceCode string
	APIKey       string
	Environment  Environment
}

func DefaultWebpayPlusOptions() Options {
	return Options{
		CommerceCode: IntegrationWebpayPlusCommerceCode,
		APIKey:       IntegrationAPIKey,
		Environment:  EnvironmentIntegration,
	}
}

func DefaultOneclickMallOptions() Options {
	return Options{
		CommerceCode: IntegrationOneclickMallCode,
		APIKey:       IntegrationAPIKey,
		Environment:  EnvironmentIntegration,
	}
}

func (o Options) Host() string {
	if o.Environment == EnvironmentProduction {
		return ProductionHost
	}
	return IntegrationHost
}
