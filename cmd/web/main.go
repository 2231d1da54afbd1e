package main

import (
	"github.com/rs/zerolog/log"

	"github.com/monkichi27/number-guessing-game/internal/server"
)

func main() {
	if err := server.Run(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
