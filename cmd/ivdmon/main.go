package main

import (
	"os"

	"ivdwatch.dev/ivdmon/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
