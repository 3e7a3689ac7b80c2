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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"sigs.k8s.io/yaml"

	"github.com/bergx-io/bergx-sdk-go/clients/bergxsvc"
	"github.com/bergx-io/bergx-sdk-go/middleware/logger"
	"github.com/bergx-io/bergx-sdk-go/models"
	"github.com/bergx-io/bergx-sdk-go/wiring"
)

var errUsage = errors.New("usage error")

type cliOptions struct {
	inputFile    string
	userSubject  string
	accessToken  string
	refreshToken string
}

type commandFunc func(ctx context.Context, app *wiring.AppParams, args []string, opts cliOptions) (any, error)

var commands = map[string]map[string]commandFunc{
	"switches": {
		"list":      listSwitches,
		"check":     checkSwitch,
		"check-all": checkAllSwitches,
		"create":    createSwitch,
		"update":    updateSwitch,
		"delete":    deleteSwitch,
	},
	"bandit": {
		"list":   listCohorts,
		"create": createCohort,
		"update": updateCohort,
		"delete": deleteCohort,
		"try":    tryCohort,
		"win":    winCohort,
		"reset":  resetCohort,
	},
	"profile": {
		"get":    getProfile,
		"update": updateProfile,
		"login":  loginProfile,
		"forget": forgetProfile,
	},
}

// run executes one command and writes its JSON result to out. A result is written even when
// the completion of the change could not be confirmed.
func run(ctx context.Context, app *wiring.AppParams, args []string, opts cliOptions, out io.Writer) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: expected <group> <action>", errUsage)
	}
	group, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown group %q", errUsage, args[0])
	}
	cmd, ok := group[args[1]]
	if !ok {
		return fmt.Errorf("%w: unknown action %q for %s", errUsage, args[1], args[0])
	}

	ctx = logger.With(ctx, "command", args[0]+" "+args[1])
	result, err := cmd(ctx, app, args[2:], opts)
	if result != nil && !isNilResult(result) {
		if writeErr := writeJSON(out, result); writeErr != nil {
			return writeErr
		}
	}
	return err
}

func listSwitches(ctx context.Context, app *wiring.AppParams, args []string, _ cliOptions) (any, error) {
	if err := expectArgs(args, 0); err != nil {
		return nil, err
	}
	return app.BergxClient.GetSwitches(ctx)
}

func checkSwitch(ctx context.Context, app *wiring.AppParams, args []string, opts cliOptions) (any, error) {
	if err := expectArgs(args, 1); err != nil {
		return nil, err
	}
	var evalCtx models.EvaluationContext
	if err := readOptionalDocument(opts.inputFile, &evalCtx); err != nil {
		return nil, err
	}
	value, err := app.BergxClient.CheckSwitch(ctx, args[0], evalCtx)
	if err != nil {
		return nil, err
	}
	return map[string]bool{args[0]: value}, nil
}

func checkAllSwitches(ctx context.Context, app *wiring.AppParams, args []string, opts cliOptions) (any, error) {
	if err := expectArgs(args, 0); err != nil {
		return nil, err
	}
	var evalCtx models.EvaluationContext
	if err := readOptionalDocument(opts.inputFile, &evalCtx); err != nil {
		return nil, err
	}
	return app.BergxClient.CheckAllSwitches(ctx, evalCtx)
}

func createSwitch(ctx context.Context, app *wiring.AppParams, args []string, opts cliOptions) (any, error) {
	if err := expectArgs(args, 0); err != nil {
		return nil, err
	}
	var def models.SwitchDefinition
	if err := readDocument(opts.inputFile, &def); err != nil {
		return nil, err
	}
	return app.BergxClient.CreateSwitch(ctx, def)
}

func updateSwitch(ctx context.Context, app *wiring.AppParams, args []string, opts cliOptions) (any, error) {
	if err := expectArgs(args, 1); err != nil {
		return nil, err
	}
	var update models.SwitchUpdate
	if err := readDocument(opts.inputFile, &update); err != nil {
		return nil, err
	}
	return app.BergxClient.UpdateSwitch(ctx, args[0], update)
}

func deleteSwitch(ctx context.Context, app *wiring.AppParams, args []string, _ cliOptions) (any, error) {
	if err := expectArgs(args, 1); err != nil {
		return nil, err
	}
	return app.BergxClient.DeleteSwitch(ctx, args[0])
}

func listCohorts(ctx context.Context, app *wiring.AppParams, args []string, _ cliOptions) (any, error) {
	if err := expectArgs(args, 0); err != nil {
		return nil, err
	}
	return app.BergxClient.GetBanditCohorts(ctx)
}

func createCohort(ctx context.Context, app *wiring.AppParams, args []string, opts cliOptions) (any, error) {
	if err := expectArgs(args, 0); err != nil {
		return nil, err
	}
	var def models.CohortDefinition
	if err := readDocument(opts.inputFile, &def); err != nil {
		return nil, err
	}
	return app.BergxClient.CreateBanditCohort(ctx, def)
}

func updateCohort(ctx context.Context, app *wiring.AppParams, args []string, opts cliOptions) (any, error) {
	if err := expectArgs(args, 1); err != nil {
		return nil, err
	}
	var update models.CohortUpdate
	if err := readDocument(opts.inputFile, &update); err != nil {
		return nil, err
	}
	return app.BergxClient.UpdateBanditCohort(ctx, args[0], update)
}

func deleteCohort(ctx context.Context, app *wiring.AppParams, args []string, _ cliOptions) (any, error) {
	if err := expectArgs(args, 1); err != nil {
		return nil, err
	}
	return app.BergxClient.DeleteBanditCohort(ctx, args[0])
}

func tryCohort(ctx context.Context, app *wiring.AppParams, args []string, _ cliOptions) (any, error) {
	if err := expectArgs(args, 1); err != nil {
		return nil, err
	}
	return app.BergxClient.TryBanditCohort(ctx, args[0])
}

func winCohort(ctx context.Context, app *wiring.AppParams, args []string, _ cliOptions) (any, error) {
	if err := expectArgs(args, 2); err != nil {
		return nil, err
	}
	return app.BergxClient.WinBanditCohort(ctx, args[0], args[1])
}

func resetCohort(ctx context.Context, app *wiring.AppParams, args []string, _ cliOptions) (any, error) {
	if err := expectArgs(args, 1); err != nil {
		return nil, err
	}
	return app.BergxClient.ResetBanditCohort(ctx, args[0])
}

func getProfile(ctx context.Context, app *wiring.AppParams, args []string, opts cliOptions) (any, error) {
	if err := expectArgs(args, 0); err != nil {
		return nil, err
	}
	user, err := resolveUser(ctx, app, opts)
	if err != nil {
		return nil, err
	}
	return app.BergxClient.GetProfile(ctx, user)
}

func updateProfile(ctx context.Context, app *wiring.AppParams, args []string, opts cliOptions) (any, error) {
	if err := expectArgs(args, 0); err != nil {
		return nil, err
	}
	var claims models.UserClaims
	if err := readDocument(opts.inputFile, &claims); err != nil {
		return nil, err
	}
	user, err := resolveUser(ctx, app, opts)
	if err != nil {
		return nil, err
	}
	return app.BergxClient.UpdateProfile(ctx, user, claims)
}

// loginProfile stores the BERGX_ACCESS_TOKEN / BERGX_REFRESH_TOKEN pair under -user so later
// commands can run with -user alone.
func loginProfile(ctx context.Context, app *wiring.AppParams, args []string, opts cliOptions) (any, error) {
	if err := expectArgs(args, 0); err != nil {
		return nil, err
	}
	if err := requireStore(app, opts); err != nil {
		return nil, err
	}
	if opts.refreshToken == "" {
		return nil, fmt.Errorf("%w: profile login requires BERGX_REFRESH_TOKEN", errUsage)
	}
	err := app.CredentialStore.SaveUser(ctx, opts.userSubject, bergxsvc.UserCredential{
		AccessToken:  opts.accessToken,
		RefreshToken: opts.refreshToken,
	})
	if err != nil {
		return nil, err
	}
	return &models.MutationResponse{Status: "stored"}, nil
}

// forgetProfile removes the stored credential of -user.
func forgetProfile(ctx context.Context, app *wiring.AppParams, args []string, opts cliOptions) (any, error) {
	if err := expectArgs(args, 0); err != nil {
		return nil, err
	}
	if err := requireStore(app, opts); err != nil {
		return nil, err
	}
	if err := app.CredentialStore.ForgetUser(ctx, opts.userSubject); err != nil {
		return nil, err
	}
	return &models.MutationResponse{Status: "forgotten"}, nil
}

func requireStore(app *wiring.AppParams, opts cliOptions) error {
	if opts.userSubject == "" {
		return fmt.Errorf("%w: -user is required", errUsage)
	}
	if app.CredentialStore == nil {
		return fmt.Errorf("%w: -user requires a credential store (set DB_HOST)", errUsage)
	}
	return nil
}

// resolveUser loads the credential for -user from the store, or falls back to the
// BERGX_ACCESS_TOKEN / BERGX_REFRESH_TOKEN pair
func resolveUser(ctx context.Context, app *wiring.AppParams, opts cliOptions) (bergxsvc.UserCredential, error) {
	if opts.userSubject != "" {
		if err := requireStore(app, opts); err != nil {
			return bergxsvc.UserCredential{}, err
		}
		return app.CredentialStore.LoadUser(ctx, opts.userSubject)
	}
	if opts.accessToken == "" && opts.refreshToken == "" {
		return bergxsvc.UserCredential{}, fmt.Errorf("%w: set BERGX_ACCESS_TOKEN or BERGX_REFRESH_TOKEN, or pass -user", errUsage)
	}
	return bergxsvc.UserCredential{
		AccessToken:  opts.accessToken,
		RefreshToken: opts.refreshToken,
	}, nil
}

func expectArgs(args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: expected %d argument(s), got %d", errUsage, n, len(args))
	}
	return nil
}

// readDocument decodes a YAML or JSON file into out
func readDocument(path string, out any) error {
	if path == "" {
		return fmt.Errorf("%w: -f is required", errUsage)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func readOptionalDocument(path string, out any) error {
	if path == "" {
		return nil
	}
	return readDocument(path, out)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

func isNilResult(v any) bool {
	switch r := v.(type) {
	case json.RawMessage:
		return r == nil
	case *models.MutationResponse:
		return r == nil
	case *models.TryResponse:
		return r == nil
	case map[string]bool:
		return r == nil
	}
	return false
}

func dumpMetrics(w io.Writer, registry *prometheus.Registry) {
	families, err := registry.Gather()
	if err != nil {
		fmt.Fprintf(w, "failed to gather metrics: %v\n", err)
		return
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			fmt.Fprintf(w, "failed to write metrics: %v\n", err)
			return
		}
	}
}
