// Package doctor provides diagnostic checks for Forge CLI health.
//
// This package implements a check framework that validates:
//   - Generation backend connectivity and response time
//   - Identity provider discovery
//   - Authentication status and credential source
//   - Browser launcher availability for the sign-in flow
//   - CLI version against latest release
package doctor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/tryforce-dev/forge/internal/buildinfo"
	"github.com/tryforce-dev/forge/internal/client"
	"github.com/tryforce-dev/forge/internal/config"
	"github.com/tryforce-dev/forge/internal/identity"
	"github.com/tryforce-dev/forge/internal/update"
)

// Status represents the result of a diagnostic check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical failure.
	StatusFail
)

// Result holds the outcome of a single check.
type Result struct {
	Name    string
	Status  Status
	Message string
	Detail  string // Optional additional detail
}

// Check is a diagnostic check function.
type Check func(ctx context.Context) Result

// Runner executes diagnostic checks.
type Runner struct {
	checks []namedCheck
}

type namedCheck struct {
	name  string
	check Check
}

// New creates a new diagnostic runner.
func New() *Runner {
	r := &Runner{}

	// Register default checks
	r.AddCheck("Backend", checkBackend)
	r.AddCheck("Provider Discovery", checkDiscovery)
	r.AddCheck("Authentication", checkAuthentication)
	r.AddCheck("Browser", checkBrowser)
	r.AddCheck("CLI Version", checkCLIVersion)

	return r
}

// AddCheck registers a diagnostic check.
func (r *Runner) AddCheck(name string, check Check) {
	r.checks = append(r.checks, namedCheck{name: name, check: check})
}

// Run executes all registered checks and returns the results.
func (r *Runner) Run(ctx context.Context) []Result {
	results := make([]Result, 0, len(r.checks))

	for _, nc := range r.checks {
		result := nc.check(ctx)
		result.Name = nc.name
		results = append(results, result)
	}

	return results
}

// Summary returns counts of passed, failed, and warning checks.
func Summary(results []Result) (passed, failed, warnings int) {
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			passed++
		case StatusFail:
			failed++
		case StatusWarn:
			warnings++
		}
	}

	return passed, failed, warnings
}

// checkBackend tests connection to the generation backend.
func checkBackend(ctx context.Context) Result {
	cfg := config.Load()
	apiURL := cfg.APIURL()

	start := time.Now()

	// Health needs no token, so this isolates pure connectivity.
	api := client.New(nil).WithBaseURL(apiURL)

	status, err := api.Health(ctx)
	elapsed := time.Since(start)

	if err != nil {
		return Result{
			Status:  StatusFail,
			Message: apiURL,
			Detail:  err.Error(),
		}
	}

	if status.Status != "" && status.Status != "healthy" && status.Status != "ok" {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("%s reports %q (%dms)", apiURL, status.Status, elapsed.Milliseconds()),
		}
	}

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s (%dms)", apiURL, elapsed.Milliseconds()),
	}
}

// checkDiscovery fetches the identity provider's discovery document.
func checkDiscovery(ctx context.Context) Result {
	cfg := config.Load()

	flowCfg, err := identity.ResolveFlowConfig(cfg.Provider(), cfg.Authority(), cfg.ClientID(), cfg.RedirectPort())
	if err != nil {
		return Result{
			Status:  StatusFail,
			Message: "Sign-in is not configured",
			Detail:  err.Error(),
		}
	}

	start := time.Now()

	disc, err := identity.Discover(ctx, flowCfg.Authority)
	if err != nil {
		return Result{
			Status:  StatusFail,
			Message: flowCfg.Authority,
			Detail:  err.Error(),
		}
	}

	if disc.AuthorizationEndpoint == "" || disc.TokenEndpoint == "" {
		return Result{
			Status:  StatusFail,
			Message: flowCfg.Authority,
			Detail:  "discovery document is missing required endpoints",
		}
	}

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s (%dms)", flowCfg.Authority, time.Since(start).Milliseconds()),
	}
}

// checkAuthentication validates stored credentials.
func checkAuthentication(ctx context.Context) Result {
	source, ts := identity.GetTokens()

	if ts == nil {
		return Result{
			Status:  StatusFail,
			Message: "Not authenticated",
			Detail:  "Run 'forge auth login' to authenticate",
		}
	}

	if ts.Expired(time.Now()) {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("Token expired (via %s)", source),
			Detail:  "Run 'forge auth login' to sign in again",
		}
	}

	label := "Signed in"
	if ts.IDToken != "" {
		if profile, err := identity.ParseProfile(ts.IDToken); err == nil {
			label = profileLabel(profile)
		}
	}

	// The backend has the final word on whether the token is usable.
	cfg := config.Load()
	api := client.New(ts.Bearer).WithBaseURL(cfg.APIURL())

	status, err := api.VerifyToken(ctx)
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("Backend rejected the token (via %s)", source),
			Detail:  "Run 'forge auth login' to sign in again",
		}
	case err != nil:
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("%s (via %s)", label, source),
			Detail:  "Backend unreachable; token checked locally only",
		}
	case !status.Valid:
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("Backend rejected the token (via %s)", source),
			Detail:  "Run 'forge auth login' to sign in again",
		}
	}

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s (via %s)", label, source),
	}
}

// checkBrowser verifies a browser launcher exists for the sign-in flow.
func checkBrowser(_ context.Context) Result {
	launcher := "xdg-open"
	switch runtime.GOOS {
	case "darwin":
		launcher = "open"
	case "windows":
		launcher = "rundll32"
	}

	path, err := exec.LookPath(launcher)
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("%s not found in PATH", launcher),
			Detail:  "Sign-in will print the URL instead; use 'forge auth login --no-browser'",
		}
	}

	return Result{
		Status:  StatusPass,
		Message: path,
	}
}

// checkCLIVersion checks the CLI version against the latest release.
func checkCLIVersion(ctx context.Context) Result {
	current := buildinfo.Version

	if current == "dev" {
		return Result{
			Status:  StatusWarn,
			Message: "Development build (version check skipped)",
		}
	}

	if update.IsDisabled() {
		return Result{
			Status:  StatusPass,
			Message: fmt.Sprintf("v%s (update checks disabled)", current),
		}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	updater, err := update.NewUpdater()
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("v%s (could not check for updates)", current),
			Detail:  err.Error(),
		}
	}

	info, err := updater.CheckLatest(checkCtx, current)
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("v%s (could not check for updates)", current),
			Detail:  err.Error(),
		}
	}

	if info.UpdateAvailable {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("v%s (v%s available)", current, info.LatestVersion),
			Detail:  "Run 'forge update' to update",
		}
	}

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("v%s (latest)", current),
	}
}

// profileLabel picks the friendliest identifier the token carries.
func profileLabel(p *identity.Profile) string {
	switch {
	case p.Email != "":
		return p.Email
	case p.Username != "":
		return p.Username
	default:
		return p.Subject
	}
}

// RenderResults formats diagnostic results to the given output writer.
func RenderResults(results []Result, printFn, successFn, warningFn, failureFn, mutedFn func(format string, args ...any)) {
	maxNameLen := 0
	for _, r := range results {
		if len(r.Name) > maxNameLen {
			maxNameLen = len(r.Name)
		}
	}

	for _, r := range results {
		symbol := r.Status.Symbol()
		padding := maxNameLen - len(r.Name) + 4

		switch r.Status {
		case StatusPass:
			successFn("%-*s%s", len(r.Name)+padding, r.Name, r.Message)
		case StatusWarn:
			warningFn("%-*s%s", len(r.Name)+padding, r.Name, r.Message)
		case StatusFail:
			failureFn("%-*s%s", len(r.Name)+padding, r.Name, r.Message)
		default:
			printFn("%s %-*s%s\n", symbol, len(r.Name)+padding, r.Name, r.Message)
		}

		if r.Detail != "" {
			mutedFn("    %s", r.Detail)
		}
	}
}

// Symbol returns the status symbol for display.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return checkMark
	case StatusWarn:
		return warningMark
	case StatusFail:
		return xMark
	default:
		return "?"
	}
}

const (
	checkMark   = "✓" // ✓
	xMark       = "✗" // ✗
	warningMark = "⚠" // ⚠
)
