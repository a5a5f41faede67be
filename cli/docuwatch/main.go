package main

import (
	"os"

	docuwatchcmder "github.com/docuwatchco/docuwatch/cmd/docuwatch"
)

func main() {
	cmd := docuwatchcmder.NewDocuwatchCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
