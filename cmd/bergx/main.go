// Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/bergx-io/bergx-sdk-go/clients/bergxsvc"
	"github.com/bergx-io/bergx-sdk-go/config"
	dbmigrations "github.com/bergx-io/bergx-sdk-go/db_migrations"
	"github.com/bergx-io/bergx-sdk-go/observability"
	"github.com/bergx-io/bergx-sdk-go/wiring"
)

const (
	exitFailure     = 1
	exitUsage       = 2
	exitUnconfirmed = 3
)

func setupLogger(cfg *config.Config) {
	var level slog.Level
	switch cfg.LogLevel {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default to INFO
	}

	// stdout carries command output, so logs go to stderr
	opts := &slog.HandlerOptions{
		Level: level,
	}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	logger := slog.New(handler)
	slog.SetDefault(logger)

	slog.Debug("Logger configured",
		"level", level.String())
}

func main() {
	os.Exit(realMain())
}

func realMain() int {
	migrateFlag := flag.Bool("migrate", false, "migrate the credential store database")
	inputFlag := flag.String("f", "", "YAML or JSON `file` holding the request body")
	userFlag := flag.String("user", "", "load the user credential stored for this token `subject`")
	metricsFlag := flag.Bool("metrics", false, "print collected metrics to stderr on exit")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	setupLogger(cfg)

	if cfg.AutoMaxProcsEnabled {
		if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			// Convert printf-style format string to plain message for structured logging
			slog.Debug(fmt.Sprintf(format, args...))
		})); err != nil {
			slog.Error("Failed to set maxprocs", "error", err)
			return exitFailure
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTEL.StdoutTracesEnabled {
		tp, err := observability.NewStdoutTracerProvider(cfg.OTEL.ServiceName, cfg.PackageVersion, os.Stderr)
		if err != nil {
			slog.Error("Failed to set up tracing", "error", err)
			return exitFailure
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				slog.Warn("Failed to flush traces", "error", err)
			}
		}()
	}

	dependencies, err := wiring.InitializeAppParams(cfg)
	if err != nil {
		slog.Error("failed to initialize app dependencies", "error", err)
		return exitFailure
	}
	if *metricsFlag {
		defer dumpMetrics(os.Stderr, dependencies.Registry)
	}

	if *migrateFlag {
		if dependencies.DB == nil {
			slog.Error("-migrate requires DB_HOST to be configured")
			return exitFailure
		}
		if err := dbmigrations.Migrate(dependencies.DB); err != nil {
			slog.Error("error occurred while migrating", "error", err)
			return exitFailure
		}
		if flag.NArg() == 0 {
			return 0
		}
	}

	opts := cliOptions{
		inputFile:    *inputFlag,
		userSubject:  *userFlag,
		accessToken:  os.Getenv("BERGX_ACCESS_TOKEN"),
		refreshToken: os.Getenv("BERGX_REFRESH_TOKEN"),
	}
	err = run(ctx, dependencies, flag.Args(), opts, os.Stdout)
	return exitCode(err)
}

func exitCode(err error) int {
	var waitErr *bergxsvc.CompletionWaitError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, err)
		usage()
		return exitUsage
	case errors.As(err, &waitErr):
		slog.Warn("Change was applied but its completion could not be confirmed",
			"eventIds", waitErr.EventIDs, "error", waitErr.Err)
		return exitUnconfirmed
	default:
		slog.Error("Command failed", "error", err)
		return exitFailure
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: bergx [flags] <group> <action> [args]

Groups and actions:
  switches list | check <name> | check-all | create | update <name> | delete <name>
  bandit   list | create | update <id> | delete <id> | try <id> | win <id> <arm> | reset <id>
  profile  get | update | login | forget   (login and forget need -user and DB_HOST)

Request bodies (create, update, check contexts, profile claims) are read from -f.

Flags:
`)
	flag.PrintDefaults()
}
