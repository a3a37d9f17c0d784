package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/unclebandit/outreach-backend/internal/leads"
	"github.com/unclebandit/outreach-backend/internal/validator"
)

// Runtime opens the collaborators a command needs, once the command is known.
type Runtime struct {
	Open    func(ctx context.Context, in io.Reader, out io.Writer) (*App, func() error, error)
	ChatIDs func() (map[int64]string, error)
}

var errFailed = errors.New("operation failed")

func NewRootCommand(rt Runtime) *cobra.Command {
	root := &cobra.Command{
		Use:   "outreach",
		Short: "Collect leads, draft emails, send them and track replies",
		Long: `outreach runs small-business cold-outreach campaigns from a spreadsheet.

Run it without a subcommand for the interactive menu, or run one step directly:

  outreach start          collect leads and publish them as Draft rows
  outreach generate       write a subject and body into every Draft row
  outreach send --yes     send every Approved row
  outreach track          look for replies to Sent rows
  outreach verify --dns   check draft email addresses, including MX records`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rt, func(ctx context.Context, a *App) error {
				return a.Run(ctx)
			})
		},
	}

	root.AddCommand(
		opCommand(rt, "start", "Start a new campaign", func(a *App) func(context.Context) error { return a.StartCampaign }),
		opCommand(rt, "generate", "Generate emails for Draft rows", func(a *App) func(context.Context) error { return a.GenerateEmails }),
		opCommand(rt, "sheet", "Show the sheet link and status counts", func(a *App) func(context.Context) error { return a.ManageSheet }),
		opCommand(rt, "track", "Check Sent rows for replies", func(a *App) func(context.Context) error { return a.TrackResponses }),
		sendCommand(rt),
		socialCommand(rt),
		enrichCommand(rt),
		verifyCommand(rt),
		chatIDCommand(rt),
	)
	return root
}

func withApp(cmd *cobra.Command, rt Runtime, fn func(ctx context.Context, a *App) error) error {
	a, closeFn, err := rt.Open(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(cmd.Context(), a)
}

// runOp reports a failed operation on the command output and turns it into a non-zero exit.
func runOp(ctx context.Context, a *App, op func(context.Context) error) error {
	err := op(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("input ended before the operation finished: %w", err)
	}
	a.report(err)
	return errFailed
}

func opCommand(rt Runtime, use, short string, pick func(*App) func(context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rt, func(ctx context.Context, a *App) error {
				return runOp(ctx, a, pick(a))
			})
		},
	}
}

func sendCommand(rt Runtime) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send every Approved row",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rt, func(ctx context.Context, a *App) error {
				a.AssumeYes = yes
				return runOp(ctx, a, a.SendEmails)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "send without asking for confirmation")
	return cmd
}

func socialCommand(rt Runtime) *cobra.Command {
	var (
		platforms    []string
		businessType string
		location     string
		perPlatform  int
	)
	cmd := &cobra.Command{
		Use:   "social",
		Short: "Search social platforms and publish the businesses found",
		Long:  "Without --platform, --type and --location the search parameters are asked for interactively.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(platforms) == 0 || businessType == "" || location == "" {
				return withApp(cmd, rt, func(ctx context.Context, a *App) error {
					return runOp(ctx, a, a.ScrapeSocial)
				})
			}

			parsed := make([]leads.Platform, 0, len(platforms))
			for _, p := range platforms {
				pl, err := leads.ParsePlatform(p)
				if err != nil {
					return err
				}
				parsed = append(parsed, pl)
			}
			if err := validator.BusinessType(businessType); err != nil {
				return err
			}
			if err := validator.Location(location); err != nil {
				return err
			}
			if perPlatform < 1 || perPlatform > 50 {
				return fmt.Errorf("--max must be between 1 and 50")
			}
			return withApp(cmd, rt, func(ctx context.Context, a *App) error {
				return runOp(ctx, a, func(ctx context.Context) error {
					return a.collectSocial(ctx, parsed, businessType, location, perPlatform)
				})
			})
		},
	}
	cmd.Flags().StringSliceVarP(&platforms, "platform", "p", nil, "instagram, facebook or tiktok (repeatable)")
	cmd.Flags().StringVar(&businessType, "type", "", "business type to search for")
	cmd.Flags().StringVar(&location, "location", "", "location to search in")
	cmd.Flags().IntVar(&perPlatform, "max", defaultSocialMax, "results per platform (1-50)")
	return cmd
}

func enrichCommand(rt Runtime) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Find missing emails and phones for Draft rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rt, func(ctx context.Context, a *App) error {
				a.AssumeYes = yes
				return runOp(ctx, a, a.EnrichContacts)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "start without asking for confirmation")
	return cmd
}

func verifyCommand(rt Runtime) *cobra.Command {
	var dns bool
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the email addresses of Draft and Approved rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rt, func(ctx context.Context, a *App) error {
				return runOp(ctx, a, func(ctx context.Context) error {
					return a.verify(ctx, dns)
				})
			})
		},
	}
	cmd.Flags().BoolVar(&dns, "dns", false, "also require an MX record for each domain")
	return cmd
}

func chatIDCommand(rt Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "telegram-chat-id",
		Short: "List the chats that recently messaged the bot",
		Long:  "Send any message to your bot first, then run this to find the TELEGRAM_CHAT_ID to configure.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chats, err := rt.ChatIDs()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(chats) == 0 {
				fmt.Fprintln(out, "❌ No messages found. Send your bot a message and try again.")
				return nil
			}
			ids := make([]int64, 0, len(chats))
			for id := range chats {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			fmt.Fprintln(out, "✅ Chats found:")
			for _, id := range ids {
				fmt.Fprintf(out, "   TELEGRAM_CHAT_ID=%d  (%s)\n", id, chats[id])
			}
			return nil
		},
	}
}
