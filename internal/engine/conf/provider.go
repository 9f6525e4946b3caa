package conf

import "github.com/google/wire"

// ProviderSet exposes the config sections as injectable values.
var ProviderSet = wire.NewSet(
	NewConf,
	wire.FieldsOf(new(AppConfig), "Log", "Mongo", "Redis", "Broker", "Metrics", "Propagation"),
)
