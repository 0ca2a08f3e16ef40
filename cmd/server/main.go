package main

import (
	"dash2hlsd/internal/serverapp"
	"flag"
	"fmt"
	"os"
)

func main() {
	listenAddr := flag.String("l", ":8080", "HTTP listen address")
	logLevel := flag.String("L", "info", "Log level (error, warn, info, debug)")
	outputDir := flag.String("o", "./output", "Root directory for session HLS output")
	flag.Parse()

	err := serverapp.Run(serverapp.Config{
		ListenAddr: *listenAddr,
		LogLevel:   *logLevel,
		OutputDir:  *outputDir,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
