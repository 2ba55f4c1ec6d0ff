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
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-cognito-emulator/cognito"
	"github.com/jrsteele09/go-cognito-emulator/datastore"
	"github.com/jrsteele09/go-cognito-emulator/internal/config"
	"github.com/jrsteele09/go-cognito-emulator/server"
	"github.com/jrsteele09/go-cognito-emulator/userpool"
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

	_ = godotenv.Load()

	c := config.New()
	displayAppname(c.GetAppName())

	logger := newLogger(c)

	storeFactory, err := datastore.NewFileFactory(c.GetDataFolder(), logger)
	if err != nil {
		return fmt.Errorf("datastore.NewFileFactory: %w", err)
	}

	clientService, err := cognito.New(defaultPoolConfig(c), storeFactory, userpool.FactoryFunc(userpool.NewPool), logger)
	if err != nil {
		return fmt.Errorf("cognito.New: %w", err)
	}

	srv := &http.Server{Addr: c.GetPort(), Handler: server.New(c, clientService, logger)}
	go listenAndServe(srv)
	waitForStopSignal()
	returnError = shutdown(srv)
	return returnError
}

func newLogger(c config.Config) zerolog.Logger {
	if c.GetEnv() == "DEV" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func defaultPoolConfig(c config.Config) userpool.Config {
	attributes := make([]userpool.UsernameAttribute, 0)
	for _, attr := range c.GetUsernameAttributes() {
		attributes = append(attributes, userpool.UsernameAttribute(attr))
	}
	return userpool.Config{
		ID:                 c.GetDefaultPoolID(),
		UsernameAttributes: attributes,
	}
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
