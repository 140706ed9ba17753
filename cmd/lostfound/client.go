package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/lostfound/internal/claim"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/search"
)

var errNotLoggedIn = errors.New(`not logged in (run "lostfound login")`)

// withApp loads configuration, opens storage and runs fn.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(context.Context, *app) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}

	log, closeLog, err := setupLogger(cfg.Logging.Level, cfg.Logging.File, o.clientOutput(cmd), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	a, err := newApp(cmd.Context(), cfg, log, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(cmd.Context(), a)
}

// currentUser returns the logged-in user.
func (a *app) currentUser(ctx context.Context) (model.User, error) {
	u, err := a.sessions.Load(ctx)
	if err != nil {
		return model.User{}, err
	}
	if u == nil {
		return model.User{}, errNotLoggedIn
	}
	return *u, nil
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <university-id>",
		Short: "Log in and remember the user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				u, err := a.gate.Login(ctx, args[0], password)
				if err != nil {
					return err
				}
				if err := a.sessions.Save(ctx, u); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", u.Name, u.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	var name, id, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				u, err := a.gate.Register(ctx, name, id, email, password)
				if err != nil {
					return err
				}
				if err := a.sessions.Save(ctx, u); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s\n", u.Name)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "full name")
	f.StringVar(&id, "id", "", "10-digit university ID")
	f.StringVar(&email, "email", "", "university email ("+model.EmailDomain+")")
	f.StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.sessions.Clear(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				u, err := a.currentUser(ctx)
				if errors.Is(err, errNotLoggedIn) {
					fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\nUniversity ID: %s\nRole: %s\n", u.Name, u.Email, u.UniversityID, u.Role)
				return nil
			})
		},
	}
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	var r model.Report
	var typ, imagePath string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report a lost or found item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				u, err := a.currentUser(ctx)
				if err != nil {
					return err
				}

				r.Type = model.ItemType(typ)
				if r.Date == "" {
					r.Date = time.Now().Format("2006-01-02T15:04")
				}
				item, err := a.portal.Report(ctx, u, r)
				if err != nil {
					return err
				}

				if imagePath != "" {
					f, err := os.Open(imagePath)
					if err != nil {
						return fmt.Errorf("opening image: %w", err)
					}
					defer f.Close()
					if item, err = a.portal.SetImage(ctx, u, item.ID, f); err != nil {
						return err
					}
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Reported %s item %s (%s)\n", item.Type, item.ID, item.Status)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&typ, "type", "t", "", "lost or found")
	f.StringVarP(&r.Name, "name", "n", "", "item name")
	f.StringVar(&r.Category, "category", "", "category")
	f.StringVar(&r.Location, "location", "", "where it was lost or found")
	f.StringVar(&r.Date, "date", "", "when (default now)")
	f.StringVar(&r.Description, "description", "", "description")
	f.StringVar(&imagePath, "image", "", "photo file (JPEG, PNG or WebP)")
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var c search.Criteria
	var admin, asJSON bool
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				u, err := a.currentUser(ctx)
				if err != nil {
					return err
				}
				if admin {
					if !u.IsAdmin() {
						return claim.ErrForbidden
					}
					c.Fields = search.AdminFields
				}

				items := a.portal.List(c)
				if limit > 0 {
					items = search.Recent(items, limit)
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), items)
				}
				return writeItemTable(cmd.OutOrStdout(), items)
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&c.Query, "query", "q", "", "search text")
	f.StringVarP(&c.Type, "type", "t", "", "lost, found or all")
	f.StringVar(&c.Category, "category", "", "category or all")
	f.StringVar(&c.Location, "location", "", "location or all")
	f.StringVar(&c.Status, "status", "", "pending, unclaimed, claimed or all")
	f.BoolVar(&admin, "admin", false, "search like the admin panel (admins only)")
	f.IntVar(&limit, "limit", 0, "show at most this many items")
	f.BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <item-id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				if _, err := a.currentUser(ctx); err != nil {
					return err
				}
				item, err := a.portal.Get(args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), item)
				}
				return writeItem(cmd.OutOrStdout(), item)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newClaimCmd(opts *rootOptions) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "claim <item-id>",
		Short: "Claim a found item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				u, err := a.currentUser(ctx)
				if err != nil {
					return err
				}
				item, err := a.portal.Claim(ctx, u, args[0], reason)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Claim submitted for %s, awaiting review\n", item.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "why the item is yours")
	return cmd
}

func newReviewCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "review <item-id> <approve|reject>",
		Short: "Approve or reject a claim (admins only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				u, err := a.currentUser(ctx)
				if err != nil {
					return err
				}
				item, err := a.portal.Review(ctx, u, args[0], claim.Decision(args[1]))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Claim on %s %s, item is %s\n", item.Name, reviewedVerb[claim.Decision(args[1])], item.Status)
				return nil
			})
		},
	}
}

var reviewedVerb = map[claim.Decision]string{
	claim.Approve: "approved",
	claim.Reject:  "rejected",
}

func newIntakeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "intake <item-id>",
		Short: "Mark a found item as received by the office (admins only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				u, err := a.currentUser(ctx)
				if err != nil {
					return err
				}
				item, err := a.portal.Intake(ctx, u, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", item.Name, item.Status)
				return nil
			})
		},
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show item counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				if _, err := a.currentUser(ctx); err != nil {
					return err
				}
				s := a.portal.Stats()
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), s)
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintf(w, "Total\t%d\n", s.Total)
				fmt.Fprintf(w, "Lost\t%d\n", s.Lost)
				fmt.Fprintf(w, "Found\t%d\n", s.Found)
				fmt.Fprintf(w, "Pending\t%d\n", s.Pending)
				fmt.Fprintf(w, "Unclaimed\t%d\n", s.Unclaimed)
				fmt.Fprintf(w, "Claimed\t%d\n", s.Claimed)
				fmt.Fprintf(w, "Awaiting review\t%d\n", s.AwaitingReview)
				return w.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeItemTable(out io.Writer, items []model.Item) error {
	if len(items) == 0 {
		fmt.Fprintln(out, "No items")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tNAME\tCATEGORY\tLOCATION\tDATE")
	for _, i := range items {
		status := string(i.Status)
		if i.AwaitingReview() {
			status += " (review)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", i.ID, i.Type, status, i.Name, i.Category, i.Location, i.Date)
	}
	return w.Flush()
}

func writeItem(out io.Writer, i model.Item) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%s\n", i.ID)
	fmt.Fprintf(w, "Name\t%s\n", i.Name)
	fmt.Fprintf(w, "Type\t%s\n", i.Type)
	fmt.Fprintf(w, "Status\t%s\n", i.Status)
	fmt.Fprintf(w, "Category\t%s\n", i.Category)
	fmt.Fprintf(w, "Location\t%s\n", i.Location)
	fmt.Fprintf(w, "Date\t%s\n", i.Date)
	if i.Description != "" {
		fmt.Fprintf(w, "Description\t%s\n", i.Description)
	}
	fmt.Fprintf(w, "Reported by\t%s (%s)\n", i.ReportedBy.Name, i.ReportedBy.UniversityID)
	if i.Image != "" {
		img := i.Image
		if strings.HasPrefix(img, "data:") {
			img = "inline photo"
		}
		fmt.Fprintf(w, "Image\t%s\n", img)
	}
	if i.ClaimedBy != nil {
		fmt.Fprintf(w, "Claimed by\t%s (%s)\n", i.ClaimedBy.Name, i.ClaimedBy.UniversityID)
		if i.ClaimDate != nil {
			fmt.Fprintf(w, "Claimed on\t%s\n", i.ClaimDate.Local().Format(time.DateTime))
		}
		fmt.Fprintf(w, "Reason\t%s\n", i.ClaimReason)
	}
	if i.ApprovedAt != nil {
		fmt.Fprintf(w, "Approved on\t%s\n", i.ApprovedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}
