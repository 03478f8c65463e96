package main

import (
	"flag"
	"log"

	"refractiq/config"
	"refractiq/server"
)

func main() {
	cfgPath := flag.String("config", "", "Path to yaml config (optional, env REFRACTIQ_* overrides)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app := &server.App{}
	app.Initialize(cfg)
	if err := app.Run(); err != nil {
		log.Fatalf("server: %v", err)
	}
}
