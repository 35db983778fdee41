package main

import (
	"os"

	"funda-listing-notifier/cmd/notifier/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
