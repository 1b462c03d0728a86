package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"taskboard/board"
	"taskboard/dto"
	"taskboard/model"

	"github.com/spf13/cobra"
)

var errNotSignedIn = errors.New("not signed in, run `taskboard login` first")

type clientEnv struct {
	session *board.Session
	board   *board.Board
	api     *board.Transport
	tokens  *tokenStore
}

// openClient restores the saved session and wires a board client. A
// rejected token clears the saved session.
func openClient(cmd *cobra.Command) (*clientEnv, error) {
	tokens, err := defaultTokenStore()
	if err != nil {
		return nil, err
	}
	session := board.NewSession()
	saved, err := tokens.Load()
	if err != nil {
		return nil, err
	}
	if saved != nil {
		session.Restore(*saved)
	}
	session.OnLogout(func() {
		if err := tokens.Clear(); err != nil {
			slog.Warn("failed to clear saved session", "error", err)
		}
	})

	b, api := board.NewClient(settingsFrom(cmd).apiURL, session)
	return &clientEnv{session: session, board: b, api: api, tokens: tokens}, nil
}

func (e *clientEnv) requireUser() (*model.User, error) {
	user := e.session.CurrentUser()
	if user == nil {
		return nil, errNotSignedIn
	}
	return user, nil
}

func (e *clientEnv) persist() error {
	user := e.session.CurrentUser()
	if user == nil {
		return errNotSignedIn
	}
	return e.tokens.Save(dto.AuthResponse{
		AccessToken:  e.session.Token(),
		RefreshToken: e.session.RefreshToken(),
		User:         *user,
	})
}

func loginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("TASKBOARD_PASSWORD")
			}
			env, err := openClient(cmd)
			if err != nil {
				return err
			}
			if err := env.session.Login(cmd.Context(), env.api, username, password); err != nil {
				return err
			}
			if err := env.persist(); err != nil {
				return err
			}
			user := env.session.CurrentUser()
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%s)\n", user.Username, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (default $TASKBOARD_PASSWORD)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func registerCmd() *cobra.Command {
	var req dto.RegisterRequest
	var role string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Password == "" {
				req.Password = os.Getenv("TASKBOARD_PASSWORD")
			}
			req.Role = model.Role(strings.ToUpper(role))
			env, err := openClient(cmd)
			if err != nil {
				return err
			}
			if err := env.session.Register(cmd.Context(), env.api, req); err != nil {
				return err
			}
			if err := env.persist(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered and signed in as %s\n", req.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "email address")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "password (default $TASKBOARD_PASSWORD)")
	cmd.Flags().StringVar(&role, "role", "", "ADMIN or USER (default USER)")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openClient(cmd)
			if err != nil {
				return err
			}
			env.session.Logout()
			return env.tokens.Clear()
		},
	}
}

func boardCmd() *cobra.Command {
	var filters model.TaskFilters
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show the task board grouped by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openClient(cmd)
			if err != nil {
				return err
			}
			if _, err := env.requireUser(); err != nil {
				return err
			}
			filters.Status = strings.ToUpper(filters.Status)
			if err := env.board.SetFilters(cmd.Context(), filters); err != nil {
				slog.Warn("board loaded without user directory", "error", err)
			}
			view := env.board.View()
			if view.FetchErr != nil {
				if errors.Is(view.FetchErr, board.ErrUnauthorized) {
					return errNotSignedIn
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: tasks could not be loaded: %v\n", view.FetchErr)
			}
			printBoard(cmd.OutOrStdout(), view)
			return nil
		},
	}
	cmd.Flags().StringVar(&filters.Status, "status", "", "only show TODO, IN_PROGRESS or DONE")
	cmd.Flags().StringVar(&filters.Assignee, "assignee", "", "only show tasks of this user id (admins)")
	return cmd
}

func createCmd() *cobra.Command {
	var req dto.CreateTaskRequest
	var priority, assignee string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task in the TODO column",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openClient(cmd)
			if err != nil {
				return err
			}
			if _, err := env.requireUser(); err != nil {
				return err
			}
			req.Priority = model.Priority(strings.ToUpper(priority))
			if cmd.Flags().Changed("assignee") {
				req.AssigneeID = &assignee
			}
			task, err := env.board.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", task.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Title, "title", "t", "", "title (at least 3 characters)")
	cmd.Flags().StringVarP(&req.Description, "description", "d", "", "description (at least 10 characters)")
	cmd.Flags().StringVar(&priority, "priority", string(model.PriorityMedium), "LOW, MEDIUM or HIGH")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee user id")
	return cmd
}

func updateCmd() *cobra.Command {
	var title, description, status, priority, assignee string
	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Change fields of a task; only the given flags are sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openClient(cmd)
			if err != nil {
				return err
			}
			if _, err := env.requireUser(); err != nil {
				return err
			}

			var patch dto.UpdateTaskRequest
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("status") {
				s := model.Status(strings.ToUpper(status))
				patch.Status = &s
			}
			if flags.Changed("priority") {
				p := model.Priority(strings.ToUpper(priority))
				patch.Priority = &p
			}
			if flags.Changed("assignee") {
				patch.AssigneeID = &assignee
			}

			task, err := env.board.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s: %s [%s]\n", task.ID, task.Title, task.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&status, "status", "", "TODO, IN_PROGRESS or DONE")
	cmd.Flags().StringVar(&priority, "priority", "", "LOW, MEDIUM or HIGH")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee user id; empty to unassign")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task (admins only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openClient(cmd)
			if err != nil {
				return err
			}
			if _, err := env.requireUser(); err != nil {
				return err
			}
			if err := env.board.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openClient(cmd)
			if err != nil {
				return err
			}
			if _, err := env.requireUser(); err != nil {
				return err
			}
			users, err := board.NewTaskQuery(env.api).ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE")
			for _, u := range users {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.Role)
			}
			return w.Flush()
		},
	}
}

func printBoard(out io.Writer, view board.View) {
	if view.User != nil {
		fmt.Fprintf(out, "%s (%s)\n", view.User.Username, view.User.Role)
	}
	names := make(map[string]string, len(view.Users))
	for _, u := range view.Users {
		names[u.ID] = u.Username
	}
	for _, col := range view.Columns {
		fmt.Fprintf(out, "\n== %s (%d)\n", col.Status, len(col.Tasks))
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, t := range col.Tasks {
			assignee := "-"
			if t.AssigneeID != nil {
				assignee = *t.AssigneeID
				if name, ok := names[assignee]; ok {
					assignee = name
				}
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", t.ID, t.Priority, t.Title, assignee)
		}
		_ = w.Flush()
	}
}
