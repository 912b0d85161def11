package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/railops/railops/internal/api"
	"github.com/railops/railops/internal/config"
	"github.com/railops/railops/internal/session"
)

func cmdLogin(ctx context.Context, client *api.Client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		value, err := promptLine("Email: ")
		if err != nil {
			return err
		}
		*email = value
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	result, err := client.Login(ctx, *email, password)
	if err != nil {
		return err
	}

	fmt.Printf("Logged in as %s (%s)\n", result.User.Name, result.User.Email)
	fmt.Printf("Session %s, %d of %d active sessions\n",
		shortID(result.SessionID), result.ActiveSessionsCount, result.MaxSessions)
	fmt.Printf("Session valid until %s\n", result.RefreshExpiresAt.Local().Format(time.RFC1123))
	return nil
}

func cmdLogout(ctx context.Context, client *api.Client) error {
	if err := client.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func cmdWhoami(ctx context.Context, client *api.Client) error {
	manager := client.Session()
	state := manager.State(ctx)
	if state == session.StateUnauthenticated {
		fmt.Println("Not logged in")
		return nil
	}

	profile, err := manager.Profile(ctx)
	if err != nil {
		// Cache miss; the backend still knows us.
		profile, err = client.Profile(ctx)
		if err != nil {
			return err
		}
	}

	fmt.Printf("%s <%s>\n", profile.Name, profile.Email)
	if profile.Designation != "" {
		fmt.Printf("%s, %s depot\n", profile.Designation, profile.Depot)
	}
	fmt.Printf("Session state: %s\n", state)
	return nil
}

func cmdStatus(ctx context.Context, client *api.Client) error {
	status, err := client.SessionStatus(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Session %s\n", shortID(status.SessionID))
	fmt.Printf("Expires %s (%s remaining)\n",
		status.ExpiresAt.Local().Format(time.RFC1123),
		(time.Duration(status.TimeRemaining) * time.Second).Round(time.Minute))
	if status.ExpiringSoon {
		fmt.Println("Warning: session expires soon, log in again to extend it")
	}
	fmt.Printf("Active sessions: %d of %d\n", status.ActiveSessions, status.MaxSessions)
	return nil
}

func cmdSessions(ctx context.Context, client *api.Client) error {
	sessions, err := client.Sessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No active sessions")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDEVICE\tIP\tLOGIN\tLAST ACTIVE\tREMAINING\t")
	for _, s := range sessions {
		marker := ""
		if s.IsCurrent {
			marker = " (current)"
		}
		remaining := (time.Duration(s.TimeRemaining) * time.Second).Round(time.Minute)
		if s.ExpiringSoon {
			marker += " !"
		}
		fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\t%s\t%s\t\n",
			shortID(s.ID), marker,
			truncate(s.UserAgent, 32),
			s.IPAddress,
			s.LoginAt.Local().Format("Jan 2 15:04"),
			s.LastActivityAt.Local().Format("Jan 2 15:04"),
			remaining)
	}
	return w.Flush()
}

func cmdTerminate(ctx context.Context, client *api.Client, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: railops terminate <session-id>")
	}

	// Accept the short prefix shown by the sessions command.
	id := args[0]
	sessions, err := client.Sessions(ctx)
	if err != nil {
		return err
	}
	for _, s := range sessions {
		if strings.HasPrefix(s.ID, id) {
			id = s.ID
			break
		}
	}

	if err := client.TerminateSession(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Session %s terminated\n", shortID(id))
	return nil
}

func cmdChangePassword(ctx context.Context, client *api.Client) error {
	current, err := promptPassword("Current password: ")
	if err != nil {
		return err
	}
	next, err := promptPassword("New password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Confirm new password: ")
	if err != nil {
		return err
	}

	err = client.ChangePassword(ctx, api.ChangePasswordRequest{
		CurrentPassword: current,
		NewPassword:     next,
		ConfirmPassword: confirm,
	})
	if err != nil {
		return err
	}
	fmt.Println("Password updated")
	return nil
}

// cmdWatch holds the process open with the background revalidator running, so
// the session keeps refreshing until expiry, Ctrl+C, or forced logout.
func cmdWatch(ctx context.Context, cfg *config.Config, client *api.Client) error {
	manager := client.Session()
	if !manager.Authenticated(ctx) {
		return session.ErrNotAuthenticated
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	expired := make(chan struct{}, 1)
	manager.OnSessionExpired(func() {
		select {
		case expired <- struct{}{}:
		default:
		}
	})

	revalidator := session.NewRevalidator(manager, cfg.Client.RevalidateInterval, client.Logger())
	revalidator.Start(ctx)
	defer revalidator.Stop()

	fmt.Printf("Watching session, revalidating every %s. Ctrl+C to stop.\n", cfg.Client.RevalidateInterval)
	select {
	case <-ctx.Done():
		fmt.Println("\nStopped")
		return nil
	case <-expired:
		fmt.Println("Session ended. Run 'railops login' to start a new one.")
		return session.ErrSessionExpired
	}
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptLine(prompt)
	}

	fmt.Print(prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
