package commerce

import "go.uber.org/fx"

// Module provides the commerce repository to Fx.
var Module = fx.Provide(NewRepository)
