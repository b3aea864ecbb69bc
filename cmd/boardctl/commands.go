package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/kanban/backend/internal/domain"
	"github.com/kanban/backend/pkg/client"
	"github.com/spf13/cobra"
)

const (
	defaultServer  = "ws://localhost:5000/ws/board"
	defaultTimeout = 5 * time.Second
)

// session is a connected client that has already received its join snapshot.
type session struct {
	c       *client.Client
	timeout time.Duration
	asJSON  bool
	out     io.Writer
}

func connect(cmd *cobra.Command) (*session, error) {
	server, _ := cmd.Flags().GetString("server")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	asJSON, _ := cmd.Flags().GetBool("json")

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	c, err := client.Dial(ctx, server)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", server, err)
	}
	if _, err := c.Next(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("waiting for board snapshot: %w", err)
	}
	return &session{c: c, timeout: timeout, asJSON: asJSON, out: cmd.OutOrStdout()}, nil
}

// mutate sends one command and prints the first snapshot for which settled
// reports true. Broadcasts caused by other clients are skipped.
func (s *session) mutate(ctx context.Context, send func(context.Context, *client.Client) error, settled func([]domain.Task) bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := send(ctx, s.c); err != nil {
		return err
	}
	for {
		tasks, err := s.c.Next(ctx)
		if err != nil {
			return fmt.Errorf("waiting for board update: %w", err)
		}
		if settled(tasks) {
			return s.print(tasks)
		}
	}
}

func (s *session) print(tasks []domain.Task) error {
	if s.asJSON {
		data, err := sonic.ConfigStd.MarshalIndent(tasks, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(s.out, string(data))
		return err
	}
	return printTable(s.out, tasks)
}

func printTable(w io.Writer, tasks []domain.Task) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tCATEGORY\tFILES\tTEXT")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", t.ID, t.Status, t.Priority, t.Category, len(t.Attachments), t.Text)
	}
	return tw.Flush()
}

func withSession(run func(cmd *cobra.Command, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := connect(cmd)
		if err != nil {
			return err
		}
		defer s.c.Close()
		return run(cmd, s, args)
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print every board snapshot until interrupted",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, s *session, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := s.print(s.c.Tasks()); err != nil {
				return err
			}
			for {
				tasks, err := s.c.Next(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return err
				}
				fmt.Fprintln(s.out)
				if err := s.print(tasks); err != nil {
					return err
				}
			}
		}),
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the current board",
		Args:  cobra.NoArgs,
		RunE: withSession(func(_ *cobra.Command, s *session, _ []string) error {
			return s.print(s.c.Tasks())
		}),
	}
}

func createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [text]",
		Short: "Add a task to the todo column",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			before := countText(s.c.Tasks(), args[0])
			return s.mutate(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				return c.Create(ctx, args[0])
			}, created(args[0], before))
		}),
	}
}

func moveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move [id] [status]",
		Short: "Move a task to todo, inprogress or done",
		Args:  cobra.ExactArgs(2),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			id, status := args[0], domain.Status(args[1])
			return s.mutate(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				if force {
					return c.MoveUnchecked(ctx, id, status)
				}
				return c.Move(ctx, id, status)
			}, moved(id, status))
		}),
	}

	cmd.Flags().BoolP("force", "f", false, "Skip the todo to done check")

	return cmd
}

func updateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			patch, err := patchFromFlags(cmd)
			if err != nil {
				return err
			}
			return s.mutate(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				return c.Update(ctx, args[0], patch)
			}, updated(args[0], patch))
		}),
	}

	cmd.Flags().String("text", "", "New task text")
	cmd.Flags().String("priority", "", "Low, Medium or High")
	cmd.Flags().String("category", "", "Feature, Bug or Enhancement")
	cmd.Flags().String("status", "", "todo, inprogress or done (not checked)")

	return cmd
}

// patchFromFlags includes only the flags that were set on the command line.
func patchFromFlags(cmd *cobra.Command) (domain.TaskPatch, error) {
	var patch domain.TaskPatch
	flags := cmd.Flags()

	if flags.Changed("text") {
		v, _ := flags.GetString("text")
		patch.Text = &v
	}
	if flags.Changed("priority") {
		v, _ := flags.GetString("priority")
		p := domain.Priority(v)
		patch.Priority = &p
	}
	if flags.Changed("category") {
		v, _ := flags.GetString("category")
		c := domain.Category(v)
		patch.Category = &c
	}
	if flags.Changed("status") {
		v, _ := flags.GetString("status")
		st := domain.Status(v)
		patch.Status = &st
	}

	if patch.IsEmpty() {
		return patch, fmt.Errorf("nothing to update: set at least one of --text, --priority, --category, --status")
	}
	return patch, nil
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Remove a task",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			return s.mutate(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				return c.Delete(ctx, args[0])
			}, deleted(args[0]))
		}),
	}
}

func attachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach [id] [file]",
		Short: "Attach a local file reference to a task",
		Long: `Attach records a file:// reference, the file name and its detected
MIME type on the task. File contents are not uploaded. Files larger
than 2MB are refused.`,
		Args: cobra.ExactArgs(2),
		RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
			att, size, err := attachmentFromFile(args[1])
			if err != nil {
				return err
			}
			att.ID = "att-" + uuid.Must(uuid.NewV7()).String()
			return s.mutate(cmd.Context(), func(ctx context.Context, c *client.Client) error {
				return c.Attach(ctx, args[0], att, size)
			}, attached(args[0], att.ID))
		}),
	}
}

func attachmentFromFile(path string) (domain.Attachment, int64, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.Attachment{}, 0, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return domain.Attachment{}, 0, err
	}
	if info.IsDir() {
		return domain.Attachment{}, 0, fmt.Errorf("%s is a directory", path)
	}

	mtype, err := mimetype.DetectFile(abs)
	if err != nil {
		return domain.Attachment{}, 0, fmt.Errorf("detect type of %s: %w", path, err)
	}

	return domain.Attachment{
		URL:  (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(),
		Name: filepath.Base(abs),
		Type: mtype.String(),
	}, info.Size(), nil
}
