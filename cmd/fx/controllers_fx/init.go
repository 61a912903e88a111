package controllers_fx

import (
	"go.uber.org/fx"

	"khaja/internal/api"
)

var Module = fx.Options(
	fx.Provide(api.NewRouter))
