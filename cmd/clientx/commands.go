package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/clientx/workspace-client/internal/app"
	"github.com/clientx/workspace-client/internal/core/domain"
)

type command struct {
	summary string
	// anonymous commands run without restoring a session first.
	anonymous bool
	run       func(ctx context.Context, c *app.Client, args []string) error
}

var commandOrder = []string{
	"login", "logout", "whoami", "register", "reset-password", "renew",
	"projects", "tasks", "notifications", "users", "dashboard", "analytics",
}

var commands = map[string]command{
	"login":          {summary: "log in and store the credential", anonymous: true, run: runLogin},
	"logout":         {summary: "erase the stored credential", anonymous: true, run: runLogout},
	"whoami":         {summary: "show the current user and menu", run: runWhoami},
	"register":       {summary: "create an account (admin, manager)", run: runRegister},
	"reset-password": {summary: "request a password reset link", anonymous: true, run: runResetPassword},
	"renew":          {summary: "renew the access credential", run: runRenew},
	"projects":       {summary: "list|show|create|update|delete projects", run: runProjects},
	"tasks":          {summary: "list|create|update|status|delete tasks", run: runTasks},
	"notifications":  {summary: "list|read notifications", run: runNotifications},
	"users":          {summary: "list users", run: runUsers},
	"dashboard":      {summary: "show dashboard totals", run: runDashboard},
	"analytics":      {summary: "show admin analytics", run: runAnalytics},
}

func runLogin(ctx context.Context, c *app.Client, args []string) error {
	var username string
	flags := pflag.NewFlagSet("login", pflag.ContinueOnError)
	flags.StringVarP(&username, "username", "u", "", "account username")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if username == "" {
		return errors.New("--username is required")
	}
	password, err := readPassword()
	if err != nil {
		return err
	}
	if err := c.Session.Login(ctx, username, password); err != nil {
		return err
	}
	return printJSON(c.Session.Snapshot().User)
}

func runLogout(ctx context.Context, c *app.Client, _ []string) error {
	return c.Logout(ctx)
}

func runWhoami(_ context.Context, c *app.Client, _ []string) error {
	snap := c.Session.Snapshot()
	return printJSON(struct {
		User       *domain.User      `json:"user"`
		Navigation domain.Navigation `json:"navigation"`
	}{snap.User, snap.Navigation()})
}

func runRegister(ctx context.Context, c *app.Client, args []string) error {
	var reg domain.Registration
	var role string
	flags := pflag.NewFlagSet("register", pflag.ContinueOnError)
	flags.StringVar(&reg.Username, "username", "", "username")
	flags.StringVar(&reg.Email, "email", "", "email address")
	flags.StringVar(&role, "role", "", "admin, manager, client or employee")
	flags.StringVar(&reg.FirstName, "first-name", "", "first name")
	flags.StringVar(&reg.LastName, "last-name", "", "last name")
	flags.StringVar(&reg.Phone, "phone", "", "phone number")
	flags.StringVar(&reg.Company, "company", "", "company")
	flags.StringVar(&reg.Department, "department", "", "department")
	if err := flags.Parse(args); err != nil {
		return err
	}
	reg.Role = domain.Role(role)
	password, err := readPassword()
	if err != nil {
		return err
	}
	reg.Password = password
	user, err := c.Session.Register(ctx, reg)
	if err != nil {
		return err
	}
	return printJSON(user)
}

func runResetPassword(ctx context.Context, c *app.Client, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: reset-password EMAIL")
	}
	return c.Session.RequestPasswordReset(ctx, args[0])
}

func runRenew(ctx context.Context, c *app.Client, _ []string) error {
	return c.Session.Renew(ctx)
}

func runProjects(ctx context.Context, c *app.Client, args []string) error {
	sub, args := subcommand(args, "list")
	switch sub {
	case "list":
		projects, err := c.Projects.Load(ctx)
		if err != nil {
			return err
		}
		return printJSON(projects)
	case "show":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		p, err := c.Projects.Get(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(p)
	case "create":
		var draft domain.ProjectDraft
		flags := pflag.NewFlagSet("projects create", pflag.ContinueOnError)
		flags.StringVar(&draft.Name, "name", "", "project name")
		flags.StringVar(&draft.Description, "description", "", "description")
		flags.Int64SliceVar(&draft.Members, "members", nil, "member user ids")
		if err := flags.Parse(args); err != nil {
			return err
		}
		p, err := c.Projects.Create(ctx, draft)
		if err != nil {
			return err
		}
		return printJSON(p)
	case "update":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		var patch domain.ProjectPatch
		flags := pflag.NewFlagSet("projects update", pflag.ContinueOnError)
		name := flags.String("name", "", "new name")
		description := flags.String("description", "", "new description")
		members := flags.Int64Slice("members", nil, "replacement member ids")
		if err := flags.Parse(args[1:]); err != nil {
			return err
		}
		if flags.Changed("name") {
			patch.Name = name
		}
		if flags.Changed("description") {
			patch.Description = description
		}
		if flags.Changed("members") {
			patch.Members = members
		}
		p, err := c.Projects.Update(ctx, id, patch)
		if err != nil {
			return err
		}
		return printJSON(p)
	case "delete":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		return c.Projects.Delete(ctx, id)
	}
	return fmt.Errorf("unknown projects command %q", sub)
}

func runTasks(ctx context.Context, c *app.Client, args []string) error {
	sub, args := subcommand(args, "list")
	switch sub {
	case "list":
		var group int64
		flags := pflag.NewFlagSet("tasks list", pflag.ContinueOnError)
		flags.Int64Var(&group, "group", 0, "only tasks of this project")
		if err := flags.Parse(args); err != nil {
			return err
		}
		var tasks []domain.Task
		var err error
		if group > 0 {
			tasks, err = c.Tasks.LoadGroup(ctx, group)
		} else {
			tasks, err = c.Tasks.Load(ctx)
		}
		if err != nil {
			return err
		}
		return printJSON(tasks)
	case "create":
		var draft domain.TaskDraft
		var group int64
		var status, due string
		flags := pflag.NewFlagSet("tasks create", pflag.ContinueOnError)
		flags.StringVar(&draft.Title, "title", "", "task title")
		flags.StringVar(&draft.Description, "description", "", "description")
		flags.Int64SliceVar(&draft.AssignedTo, "assign", nil, "assignee user ids")
		flags.Int64Var(&group, "group", 0, "project id")
		flags.StringVar(&status, "status", "", "initial status")
		flags.StringVar(&draft.Priority, "priority", "", "low, medium or high")
		flags.StringVar(&due, "due", "", "due date, YYYY-MM-DD")
		if err := flags.Parse(args); err != nil {
			return err
		}
		if group > 0 {
			draft.Group = &group
		}
		if due != "" {
			draft.DueDate = &due
		}
		draft.Status = domain.TaskStatus(status)
		t, err := c.Tasks.Create(ctx, draft)
		if err != nil {
			return err
		}
		return printJSON(t)
	case "update":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		patch, err := parseTaskPatch(args[1:])
		if err != nil {
			return err
		}
		t, err := c.Tasks.Update(ctx, id, patch)
		if err != nil {
			return err
		}
		return printJSON(t)
	case "status":
		if len(args) != 2 {
			return errors.New("usage: tasks status ID STATUS")
		}
		id, err := idArg(args)
		if err != nil {
			return err
		}
		t, err := c.Tasks.SetStatus(ctx, id, domain.TaskStatus(args[1]))
		if err != nil {
			return err
		}
		return printJSON(t)
	case "delete":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		return c.Tasks.Delete(ctx, id)
	}
	return fmt.Errorf("unknown tasks command %q", sub)
}

func parseTaskPatch(args []string) (domain.TaskPatch, error) {
	var patch domain.TaskPatch
	flags := pflag.NewFlagSet("tasks update", pflag.ContinueOnError)
	title := flags.String("title", "", "new title")
	description := flags.String("description", "", "new description")
	assign := flags.Int64Slice("assign", nil, "replacement assignee ids")
	group := flags.Int64("group", 0, "project id")
	status := flags.String("status", "", "status")
	priority := flags.String("priority", "", "priority")
	due := flags.String("due", "", "due date, YYYY-MM-DD")
	if err := flags.Parse(args); err != nil {
		return patch, err
	}
	if flags.Changed("title") {
		patch.Title = title
	}
	if flags.Changed("description") {
		patch.Description = description
	}
	if flags.Changed("assign") {
		patch.AssignedTo = assign
	}
	if flags.Changed("group") {
		patch.Group = group
	}
	if flags.Changed("status") {
		s := domain.TaskStatus(*status)
		patch.Status = &s
	}
	if flags.Changed("priority") {
		patch.Priority = priority
	}
	if flags.Changed("due") {
		patch.DueDate = due
	}
	return patch, nil
}

func runNotifications(ctx context.Context, c *app.Client, args []string) error {
	sub, _ := subcommand(args, "list")
	switch sub {
	case "list":
		notes, err := c.Notifications.Load(ctx)
		if err != nil {
			return err
		}
		return printJSON(notes)
	case "read":
		return c.Notifications.MarkAllRead(ctx)
	}
	return fmt.Errorf("unknown notifications command %q", sub)
}

func runUsers(ctx context.Context, c *app.Client, _ []string) error {
	users, err := c.Account.ListUsers(ctx)
	if err != nil {
		return err
	}
	return printJSON(users)
}

func runDashboard(ctx context.Context, c *app.Client, _ []string) error {
	stats, err := c.Account.DashboardStats(ctx)
	if err != nil {
		return err
	}
	return printJSON(stats)
}

func runAnalytics(ctx context.Context, c *app.Client, _ []string) error {
	doc, err := c.Account.Analytics(ctx)
	if err != nil {
		return err
	}
	return printJSON(doc)
}

func subcommand(args []string, fallback string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return fallback, args
	}
	return args[0], args[1:]
}

func idArg(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, errors.New("missing id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", args[0])
	}
	return id, nil
}

// readPassword prompts on the terminal with echo disabled, or reads one line
// from piped stdin.
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
