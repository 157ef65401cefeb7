package main

import (
	"log"

	"github.com/reifyhq/reify/reifyd/server"
)

func main() {
	serverInstance := server.New()
	if err := serverInstance.Start(); err != nil {
		log.Fatal("[Reify] Failed to start server: ", err)
	}
}
