// Package main provides the entry point for the Serous Discord bot.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/serousbot/serousbot/internal/di"
	"github.com/serousbot/serousbot/internal/logger"
)

func main() {
	// Create DI container
	injector := di.NewContainer()

	// Bootstrap all services and connect to the gateway
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start bot: %v\n", err)
		_ = injector.Shutdown()
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)

	// Wait for a shutdown signal or "exit" on the console
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exit := make(chan struct{})
	go waitForExitCommand(exit)

	select {
	case sig := <-quit:
		log.Info("Received signal", "signal", sig.String())
	case <-exit:
		log.Info("Exit requested from console")
	}

	log.Info("Shutting down bot gracefully...")

	// The DI container shuts services down in reverse dependency order
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
		os.Exit(1)
	}

	log.Success("Bot stopped")
}

// waitForExitCommand closes exit when a line reading "exit" arrives on stdin.
// A closed stdin leaves the bot running until it is signalled.
func waitForExitCommand(exit chan<- struct{}) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if strings.EqualFold(strings.TrimSpace(scanner.Text()), "exit") {
			close(exit)
			return
		}
	}
}
