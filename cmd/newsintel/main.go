package main

import (
	"newsintel/cmd/handlers"
	"newsintel/internal/logger"
)

func main() {
	logger.Init()
	handlers.Execute()
}
