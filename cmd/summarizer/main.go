package main

import (
	"os"

	"github.com/Nephrolytics-ai/audio-summarizer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
