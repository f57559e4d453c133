package main

import (
	"flag"
	"log"

	"listinglab/internal/app"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	task := flag.String("task", "serve", "Task to run: serve, fetch, optimize, or history")
	asin := flag.String("asin", "", "ASIN for fetch/optimize/history tasks")
	configPath := flag.String("config", "config.yml", "Path to the config file")
	flag.Parse()

	application := app.New(*configPath)
	defer application.Close()

	switch *task {
	case "serve":
		application.RunServer()

	case "fetch":
		requireASIN(*asin)
		application.RunFetch(*asin)

	case "optimize":
		requireASIN(*asin)
		application.RunOptimize(*asin)

	case "history":
		requireASIN(*asin)
		application.RunHistory(*asin)

	default:
		log.Fatalf("Unknown task: %s.", *task)
	}
}

func requireASIN(asin string) {
	if asin == "" {
		log.Fatal("The -asin flag is required for this task.")
	}
}
