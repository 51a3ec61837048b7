package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medrec/medrec/internal/client"
	"github.com/medrec/medrec/internal/config"
	"github.com/medrec/medrec/internal/export"
	"github.com/medrec/medrec/internal/familyhistory"
	"github.com/medrec/medrec/internal/invitation"
	"github.com/medrec/medrec/internal/paperless"
	"github.com/medrec/medrec/internal/records"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medrec",
		Short: "Personal medical records client",
	}

	rootCmd.AddCommand(recordsCmd())
	rootCmd.AddCommand(invitationsCmd())
	rootCmd.AddCommand(familyCmd())
	rootCmd.AddCommand(documentsCmd())
	rootCmd.AddCommand(exportCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newClient builds the shared API client from the environment.
func newClient() (*client.Client, *config.Config, zerolog.Logger, error) {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, logger, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, logger, err
	}

	var tokens client.TokenSource
	if cfg.APITokenFile != "" {
		tokens = &client.FileTokenSource{Path: cfg.APITokenFile}
	} else {
		tokens = client.NewStaticTokenSource(cfg.APIToken)
	}

	api := client.New(cfg.APIBaseURL, tokens,
		client.WithLogger(logger),
		client.WithMaxConcurrent(cfg.MaxConcurrent),
		client.WithDispatchSpacing(cfg.DispatchSpacing),
	)
	return api, cfg, logger, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Browse medical records",
	}

	listCmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "List records of one resource type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			active, _ := cmd.Flags().GetBool("active")
			limit, _ := cmd.Flags().GetInt("limit")

			api, _, _, err := newClient()
			if err != nil {
				return err
			}
			svc := records.NewService(api)
			ctx := context.Background()

			var out interface{}
			switch args[0] {
			case "medications":
				if active {
					out, err = svc.ActiveMedications(ctx)
				} else {
					out, err = svc.ListMedications(ctx)
				}
			case "lab-results":
				if limit > 0 {
					out, err = svc.RecentLabResults(ctx, limit)
				} else {
					out, err = svc.ListLabResults(ctx)
				}
			case "conditions":
				if active {
					out, err = svc.ActiveConditions(ctx)
				} else {
					out, err = svc.ListConditions(ctx)
				}
			case "allergies":
				if active {
					out, err = svc.ActiveAllergies(ctx)
				} else {
					out, err = svc.ListAllergies(ctx)
				}
			case "procedures":
				if limit > 0 {
					out, err = svc.RecentProcedures(ctx, limit)
				} else {
					out, err = svc.ListProcedures(ctx)
				}
			case "immunizations":
				if limit > 0 {
					out, err = svc.RecentImmunizations(ctx, limit)
				} else {
					out, err = svc.ListImmunizations(ctx)
				}
			case "treatments":
				if active {
					out, err = svc.ActiveTreatments(ctx)
				} else {
					out, err = svc.ListTreatments(ctx)
				}
			case "encounters":
				if limit > 0 {
					out, err = svc.RecentEncounters(ctx, limit)
				} else {
					out, err = svc.ListEncounters(ctx)
				}
			case "practitioners":
				out, err = svc.ListPractitioners(ctx)
			default:
				return fmt.Errorf("unknown resource %q", args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
	listCmd.Flags().Bool("active", false, "Only records with an active status")
	listCmd.Flags().Int("limit", 0, "Cap the list at the newest N records")
	cmd.AddCommand(listCmd)

	return cmd
}

func invitationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invitations",
		Short: "Manage sharing invitations",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List pending and sent invitations",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, _, err := newClient()
			if err != nil {
				return err
			}
			svc := invitation.NewService(api)
			ctx := context.Background()

			pending, err := svc.ActivePending(ctx)
			if err != nil {
				return err
			}
			sent, err := svc.Sent(ctx)
			if err != nil {
				return err
			}
			return printJSON(invitation.Lists{Pending: pending, Sent: sent})
		},
	}
	cmd.AddCommand(listCmd)

	respondCmd := &cobra.Command{
		Use:   "respond <id>",
		Short: "Accept or reject a pending invitation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accept, _ := cmd.Flags().GetBool("accept")
			reject, _ := cmd.Flags().GetBool("reject")
			note, _ := cmd.Flags().GetString("note")
			if accept == reject {
				return fmt.Errorf("pass exactly one of --accept or --reject")
			}
			response := invitation.ResponseAccepted
			if reject {
				response = invitation.ResponseRejected
			}

			api, _, _, err := newClient()
			if err != nil {
				return err
			}
			svc := invitation.NewService(api)
			lists, err := svc.Respond(context.Background(), args[0], response, note)
			if err != nil {
				return err
			}
			return printJSON(lists)
		},
	}
	respondCmd.Flags().Bool("accept", false, "Accept the invitation")
	respondCmd.Flags().Bool("reject", false, "Reject the invitation")
	respondCmd.Flags().String("note", "", "Optional note sent with the response")
	cmd.AddCommand(respondCmd)

	cancelCmd := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a pending invitation you sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, _, err := newClient()
			if err != nil {
				return err
			}
			svc := invitation.NewService(api)
			ctx := context.Background()

			inv, err := findInvitation(ctx, svc, args[0])
			if err != nil {
				return err
			}
			lists, err := svc.Cancel(ctx, inv)
			if err != nil {
				return err
			}
			return printJSON(lists)
		},
	}
	cmd.AddCommand(cancelCmd)

	revokeCmd := &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an accepted family-history share",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, _, err := newClient()
			if err != nil {
				return err
			}
			svc := invitation.NewService(api)
			ctx := context.Background()

			inv, err := findInvitation(ctx, svc, args[0])
			if err != nil {
				return err
			}
			lists, err := svc.Revoke(ctx, inv)
			if err == invitation.ErrAlreadyRevoked {
				fmt.Println("Invitation was already revoked.")
				return nil
			}
			if err != nil {
				return err
			}
			return printJSON(lists)
		},
	}
	cmd.AddCommand(revokeCmd)

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Show aggregate invitation counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, _, err := newClient()
			if err != nil {
				return err
			}
			svc := invitation.NewService(api)
			sum, err := svc.Summary(context.Background())
			if err != nil {
				return err
			}
			return printJSON(sum)
		},
	}
	cmd.AddCommand(summaryCmd)

	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Purge expired and dismissed invitations",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, _, err := newClient()
			if err != nil {
				return err
			}
			svc := invitation.NewService(api)
			if err := svc.Cleanup(context.Background()); err != nil {
				return err
			}
			fmt.Println("Cleanup requested.")
			return nil
		},
	}
	cmd.AddCommand(cleanupCmd)

	return cmd
}

func findInvitation(ctx context.Context, svc *invitation.Service, id string) (*invitation.Invitation, error) {
	pending, err := svc.Pending(ctx)
	if err != nil {
		return nil, err
	}
	sent, err := svc.Sent(ctx)
	if err != nil {
		return nil, err
	}
	for _, inv := range append(pending, sent...) {
		if inv.ID == id {
			return inv, nil
		}
	}
	return nil, fmt.Errorf("invitation %s not found", id)
}

func familyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "family",
		Short: "Manage family history sharing",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List family members",
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, _ := cmd.Flags().GetString("scope")

			api, _, _, err := newClient()
			if err != nil {
				return err
			}
			svc := familyhistory.NewService(api)
			ctx := context.Background()

			var members []*familyhistory.FamilyMember
			switch scope {
			case "mine":
				members, err = svc.Mine(ctx)
			case "own":
				members, err = svc.MyOwn(ctx)
			case "shared-with-me":
				members, err = svc.SharedWithMe(ctx)
			case "shared-by-me":
				members, err = svc.SharedByMe(ctx)
			default:
				return fmt.Errorf("unknown scope %q", scope)
			}
			if err != nil {
				return err
			}
			return printJSON(members)
		},
	}
	listCmd.Flags().String("scope", "mine", "One of: mine, own, shared-with-me, shared-by-me")
	cmd.AddCommand(listCmd)

	detailsCmd := &cobra.Command{
		Use:   "details <member-id>",
		Short: "Show one family member with conditions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, _, err := newClient()
			if err != nil {
				return err
			}
			svc := familyhistory.NewService(api)
			member, err := svc.Details(context.Background(), args[0])
			if err != nil {
				return err
			}
			if member == nil {
				fmt.Println("Family member not found.")
				return nil
			}
			return printJSON(member)
		},
	}
	cmd.AddCommand(detailsCmd)

	sharesCmd := &cobra.Command{
		Use:   "shares <member-id>",
		Short: "List the active shares for a family member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, _, err := newClient()
			if err != nil {
				return err
			}
			svc := familyhistory.NewService(api)
			shares, err := svc.Shares(context.Background(), args[0])
			if err != nil {
				return err
			}
			return printJSON(shares)
		},
	}
	cmd.AddCommand(sharesCmd)

	revokeShareCmd := &cobra.Command{
		Use:   "revoke-share <member-id> <user-id>",
		Short: "Remove one recipient's access to a family member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, _, err := newClient()
			if err != nil {
				return err
			}
			svc := familyhistory.NewService(api)
			if err := svc.RevokeShare(context.Background(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Println("Share revoked.")
			return nil
		},
	}
	cmd.AddCommand(revokeShareCmd)

	inviteCmd := &cobra.Command{
		Use:   "invite",
		Short: "Invite a recipient to several family members at once",
		RunE: func(cmd *cobra.Command, args []string) error {
			memberIDs, _ := cmd.Flags().GetStringSlice("members")
			to, _ := cmd.Flags().GetString("to")
			permission, _ := cmd.Flags().GetString("permission")
			note, _ := cmd.Flags().GetString("note")
			expiresHours, _ := cmd.Flags().GetInt("expires-hours")

			api, _, _, err := newClient()
			if err != nil {
				return err
			}
			svc := familyhistory.NewService(api)
			result, err := svc.BulkInvite(context.Background(), &familyhistory.BulkInviteRequest{
				FamilyMemberIDs:      memberIDs,
				SharedWithIdentifier: to,
				PermissionLevel:      familyhistory.PermissionLevel(permission),
				SharingNote:          note,
				ExpiresHours:         expiresHours,
			})
			if err != nil {
				return err
			}
			if !result.AllSucceeded() {
				fmt.Printf("Sent %d invitation(s), %d failed:\n", result.TotalSent, result.TotalFailed)
			}
			return printJSON(result)
		},
	}
	inviteCmd.Flags().StringSlice("members", nil, "Family member IDs to share")
	inviteCmd.Flags().String("to", "", "Recipient email or user ID")
	inviteCmd.Flags().String("permission", "view", "Permission level: view or edit")
	inviteCmd.Flags().String("note", "", "Optional sharing note")
	inviteCmd.Flags().Int("expires-hours", 0, "Invitation lifetime in hours (0 = server default)")
	cmd.AddCommand(inviteCmd)

	return cmd
}

func documentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "Upload documents and track processing",
	}

	uploadCmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a document and wait for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, _ := cmd.Flags().GetString("entity-type")
			entityID, _ := cmd.Flags().GetString("entity-id")
			wait, _ := cmd.Flags().GetBool("wait")

			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			api, cfg, logger, err := newClient()
			if err != nil {
				return err
			}
			svc := paperless.NewService(api, logger)
			ctx := context.Background()

			up, err := svc.UploadDocument(ctx, entityType, entityID, filepath.Base(args[0]), content)
			if err != nil {
				return err
			}
			fmt.Printf("Uploaded. Task %s, file %s.\n", up.TaskUUID, up.FileID)
			if !wait {
				return nil
			}

			opts := &paperless.PollOptions{
				Interval:           cfg.PollInterval,
				MaxAttempts:        cfg.PollAttempts,
				BackgroundInterval: cfg.BackgroundInterval,
				BackgroundAttempts: cfg.BackgroundAttempts,
				OnBackgroundTransition: func(taskUUID string) {
					fmt.Printf("Task %s moved to background processing.\n", taskUUID)
				},
			}
			task, err := svc.PollTaskStatus(ctx, up.TaskUUID, opts)
			if err != nil {
				return err
			}
			if task.Status == paperless.StatusProcessingBackground {
				task, err = svc.ResolveBackgroundTask(ctx, up.TaskUUID, up.FileID, opts)
				if err != nil {
					return err
				}
			}
			return printJSON(task)
		},
	}
	uploadCmd.Flags().String("entity-type", "", "Record type the document attaches to")
	uploadCmd.Flags().String("entity-id", "", "Record ID the document attaches to")
	uploadCmd.Flags().Bool("wait", true, "Poll until processing finishes")
	cmd.AddCommand(uploadCmd)

	statusCmd := &cobra.Command{
		Use:   "status <task-uuid>",
		Short: "Show the current state of a processing task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, logger, err := newClient()
			if err != nil {
				return err
			}
			svc := paperless.NewService(api, logger)
			task, err := svc.TaskStatus(context.Background(), args[0])
			if err != nil {
				return err
			}
			return printJSON(task)
		},
	}
	cmd.AddCommand(statusCmd)

	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Purge orphaned document files",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, logger, err := newClient()
			if err != nil {
				return err
			}
			svc := paperless.NewService(api, logger)
			if err := svc.Cleanup(context.Background()); err != nil {
				return err
			}
			fmt.Println("Cleanup requested.")
			return nil
		},
	}
	cmd.AddCommand(cleanupCmd)

	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export records for download or backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			scope, _ := cmd.Flags().GetString("scope")
			sinceStr, _ := cmd.Flags().GetString("since")
			outPath, _ := cmd.Flags().GetString("out")

			req := export.Request{
				Format: export.Format(format),
				Scope:  export.Scope(scope),
			}
			if sinceStr != "" {
				since, err := time.Parse(time.RFC3339, sinceStr)
				if err != nil {
					return fmt.Errorf("parse --since: %w", err)
				}
				req.Since = &since
			}

			out := os.Stdout
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			api, _, _, err := newClient()
			if err != nil {
				return err
			}
			svc := export.NewService(api)
			n, err := svc.Export(context.Background(), req, out)
			if err != nil {
				return err
			}
			if outPath != "" {
				fmt.Printf("Wrote %d bytes to %s.\n", n, outPath)
			}
			return nil
		},
	}
	cmd.Flags().String("format", "json", "Export format: json or csv")
	cmd.Flags().String("scope", "all", "Export scope: all, medical, family_history, documents")
	cmd.Flags().String("since", "", "Only records changed after this RFC3339 timestamp")
	cmd.Flags().String("out", "", "Write the bundle to a file instead of stdout")
	return cmd
}
