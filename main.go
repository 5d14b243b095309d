package main

import (
	"fmt"
	"os"

	"github.com/tgproc/tgproc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
