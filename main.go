package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/bacalhau-project/cryri/cmd/cli"
)

func main() {
	// .env in the working directory may hold settings overrides such as
	// CRYRI_API_TOKEN. Variables already set in the environment win.
	if err := godotenv.Load(); err != nil {
		log.Trace().Err(err).Msg("no .env file loaded")
	}
	cli.Execute()
}
