package main

import (
	"fmt"
	"os"

	"github.com/newsreach/contact-discovery/discoveryservice"
)

func main() {
	if err := discoveryservice.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
