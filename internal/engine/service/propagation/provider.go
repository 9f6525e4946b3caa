package propagation

import "github.com/google/wire"

// ProviderSet wires the propagation service.
var ProviderSet = wire.NewSet(NewService)
