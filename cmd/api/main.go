package main

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/oficina/internal/app"
)

func main() {
	fx.New(app.Module, app.EventLogger).Run()
}
