package main

import (
	"fmt"
	"os"

	"github.com/dmitrijs2005/podmate/internal/admin"
)

func main() {
	if err := admin.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
