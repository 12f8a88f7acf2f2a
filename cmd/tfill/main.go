// tfill fills DOCX templates with text values and images.
package main

import (
	"os"

	"github.com/ColtonShawProctor/template-filler/internal/cmd"
)

func main() {
	if err := cmd.Execute(os.Args[1:]); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
