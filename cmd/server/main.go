package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/redis/go-redis/v9"

	"github.com/gradebook-hq/go-auth-bridge/auth"
	"github.com/gradebook-hq/go-auth-bridge/credentials/gotrue"
	"github.com/gradebook-hq/go-auth-bridge/internal/config"
	"github.com/gradebook-hq/go-auth-bridge/profiles/pgrepo"
	"github.com/gradebook-hq/go-auth-bridge/server"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	ctx := context.Background()

	pool, err := pgrepo.NewPool(ctx, c.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("profile store: %w", err)
	}
	defer pool.Close()

	credClient, err := gotrue.NewClient(c.GetCredentialServiceURL(), c.GetCredentialServiceKey())
	if err != nil {
		return fmt.Errorf("credential service: %w", err)
	}

	var options []server.Option
	if addr := c.GetRedisAddr(); addr != "" && c.GetEnableRateLimiting() {
		limiter := server.NewLoginLimiter(
			redis.NewClient(&redis.Options{Addr: addr}),
			c.GetLoginMaxAttempts(),
			c.GetLoginAttemptWindow(),
		)
		options = append(options, server.WithLoginLimiter(limiter))
	}

	handler, err := server.New(c, auth.Stores{
		Profiles:    pgrepo.NewProfileStore(pool),
		Credentials: credClient,
	}, options...)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
