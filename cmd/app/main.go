package main

import (
	"go.uber.org/fx"

	"github.com/komuzik/media-bot/internal/app"
)

func main() {
	fx.New(app.CreateApp()).Run()
}
