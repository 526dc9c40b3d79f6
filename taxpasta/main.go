package main

import (
	"os"

	"github.com/Doomsbay/TaxPasta/taxpasta/cmd"
)

func main() {
	cmd.Execute(os.Args[1:])
}
