package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tryforce-dev/forge/internal/client"
	"github.com/tryforce-dev/forge/internal/config"
	clierrors "github.com/tryforce-dev/forge/internal/errors"
	"github.com/tryforce-dev/forge/internal/history"
	"github.com/tryforce-dev/forge/internal/output"
)

func newJiraCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jira",
		Short: "Publish generated stories to Jira Cloud",
		Long:  `Validate Jira Cloud credentials and upload generated stories as issues.`,
	}

	cmd.AddCommand(newJiraValidateCmd())
	cmd.AddCommand(newJiraUploadCmd())

	return cmd
}

// jiraFlags are the credential flags shared by the jira subcommands.
// Each falls back to its FORGE_JIRA_* environment variable so the API
// token does not have to ride the command line.
type jiraFlags struct {
	email  string
	token  string
	domain string
}

func (f *jiraFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.email, "email", "", "Atlassian account email (or FORGE_JIRA_EMAIL)")
	cmd.Flags().StringVar(&f.token, "token", "", "Jira API token (or FORGE_JIRA_TOKEN)")
	cmd.Flags().StringVar(&f.domain, "domain", "", "Atlassian domain, e.g. acme.atlassian.net (or FORGE_JIRA_DOMAIN)")
}

func (f *jiraFlags) resolve() error {
	f.email = pickFlagOrEnv(f.email, "FORGE_JIRA_EMAIL", "")
	f.token = pickFlagOrEnv(f.token, "FORGE_JIRA_TOKEN", "")
	f.domain = pickFlagOrEnv(f.domain, "FORGE_JIRA_DOMAIN", "")

	var missing []string
	if f.email == "" {
		missing = append(missing, "--email")
	}
	if f.token == "" {
		missing = append(missing, "--token")
	}
	if f.domain == "" {
		missing = append(missing, "--domain")
	}

	if len(missing) > 0 {
		return &clierrors.CLIError{
			Message: fmt.Sprintf("Missing Jira credentials: %s", strings.Join(missing, ", ")),
			Hint:    "Pass the flags or set FORGE_JIRA_EMAIL, FORGE_JIRA_TOKEN and FORGE_JIRA_DOMAIN",
			Code:    clierrors.ExitUsage,
		}
	}

	return nil
}

func newJiraValidateCmd() *cobra.Command {
	creds := &jiraFlags{}

	var project string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check Jira credentials and project access",
		Long: `Verify that the Jira credentials work against Jira Cloud and, with
--project, that the project exists and is accessible.`,
		Example: `  forge jira validate --email dev@acme.dev --token $JIRA_TOKEN --domain acme.atlassian.net
  forge jira validate --project ACME`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			if err := creds.resolve(); err != nil {
				return err
			}

			_, apiClient, err := newAPIClient()
			if err != nil {
				return err
			}

			resp, err := apiClient.ValidateJira(cmd.Context(), client.JiraValidateRequest{
				UserID:     generateUserID(),
				Email:      creds.email,
				APIToken:   creds.token,
				Domain:     creds.domain,
				ProjectKey: project,
			})
			if err != nil {
				return clierrors.BackendUnavailable(err)
			}

			if !resp.IsValid {
				return &clierrors.CLIError{
					Message: fmt.Sprintf("Jira validation failed: %s", resp.Message),
					Hint:    "Check the email, API token and domain in your Atlassian account settings",
					Code:    clierrors.ExitConfig,
				}
			}

			if resp.ProjectValidated != nil && !*resp.ProjectValidated {
				return &clierrors.CLIError{
					Message: fmt.Sprintf("Jira project check failed: %s", resp.Message),
					Hint:    fmt.Sprintf("Confirm the key %q and your access to the project", project),
					Code:    clierrors.ExitConfig,
				}
			}

			out.Success("%s", resp.Message)

			return nil
		},
	}

	creds.register(cmd)
	cmd.Flags().StringVar(&project, "project", "", "Jira project key to check access for")

	return cmd
}

func newJiraUploadCmd() *cobra.Command {
	creds := &jiraFlags{}

	var (
		project   string
		file      string
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload generated stories as Jira issues",
		Long: `Upload stories markdown to a Jira Cloud project, one issue per story.
Stories come from --file, from a recorded session via --session, or from the
backend's conversation memory when neither is given.`,
		Example: `  forge jira upload --project ACME --file stories.md
  forge jira upload --project ACME --session 7c2e1f90-4b5a-4f5e-9f00-d5a4c3b2a101`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			if err := creds.resolve(); err != nil {
				return err
			}
			if project == "" {
				return &clierrors.CLIError{
					Message: "A Jira project key is required",
					Hint:    "Pass --project with the key of the target project, e.g. --project ACME",
					Code:    clierrors.ExitUsage,
				}
			}

			stories, err := jiraStories(file, sessionID)
			if err != nil {
				return err
			}

			_, apiClient, err := newAPIClient()
			if err != nil {
				return err
			}

			spin := out.Spinner("Uploading stories")
			spin.Start()

			resp, err := apiClient.UploadStoriesToJira(cmd.Context(), client.JiraUploadRequest{
				UserID:          generateUserID(),
				Email:           creds.email,
				APIToken:        creds.token,
				Domain:          creds.domain,
				ProjectKey:      project,
				StoriesMarkdown: stories,
			})

			spin.Stop()

			if err != nil {
				return clierrors.BackendUnavailable(err)
			}

			for _, issue := range resp.CreatedIssues {
				out.Success("%s  %s", issue.Key, issue.Title)
			}
			for _, issue := range resp.FailedIssues {
				out.Failure("%s: %s", issue.Title, issue.Error)
			}

			if !resp.Success {
				return &clierrors.CLIError{
					Message: fmt.Sprintf("Jira upload failed: %s", resp.Message),
					Hint:    "Fix the reported issues and rerun, or validate access with 'forge jira validate'",
					Code:    clierrors.ExitGeneration,
				}
			}

			out.Print("%s (%d/%d)\n", resp.Message, resp.SuccessfulUploads, resp.TotalStories)

			return nil
		},
	}

	creds.register(cmd)
	cmd.Flags().StringVar(&project, "project", "", "Jira project key to create issues in")
	cmd.Flags().StringVar(&file, "file", "", "Read stories markdown from a file")
	cmd.Flags().StringVar(&sessionID, "session", "", "Take the stories from a recorded session")
	cmd.MarkFlagsMutuallyExclusive("file", "session")

	return cmd
}

// jiraStories resolves the stories markdown for an upload. An empty
// return with nil error means the backend falls back to the stories in
// its conversation memory.
func jiraStories(file, sessionID string) (string, error) {
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", &clierrors.CLIError{
				Message: fmt.Sprintf("Cannot read stories file: %v", err),
				Hint:    "Check the path passed to --file",
				Code:    clierrors.ExitUsage,
			}
		}

		return string(data), nil

	case sessionID != "":
		_, events, err := history.ReadSession(config.Load().HistoryDir(), sessionID)
		if err != nil {
			return "", err
		}

		// The last stories response wins: later revisions supersede
		// earlier ones within a session.
		for i := len(events) - 1; i >= 0; i-- {
			e := events[i]
			if e.Type == history.TypeResponse && e.Kind == "Jira Stories" {
				return e.Artifact, nil
			}
		}

		return "", &clierrors.CLIError{
			Message: fmt.Sprintf("Session %s has no recorded stories", sessionID),
			Hint:    "Generate stories first, or pass them with --file",
			Code:    clierrors.ExitUsage,
		}

	default:
		return "", nil
	}
}
