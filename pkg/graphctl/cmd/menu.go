package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/telekom/graphctl/pkg/graphctl/graph"
	"github.com/telekom/graphctl/pkg/graphctl/output"
)

var menuChoices = []string{
	"Exit",
	"Display access token",
	"List my inbox",
	"Send mail",
	"Make a Graph call",
}

func NewMenuCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Greet the signed-in user and run Graph calls from an interactive menu",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, facade, err := runtimeAndFacade(cmd)
			if err != nil {
				return err
			}
			return runMenu(cmd.Context(), rt, facade)
		},
	}
}

func runMenu(ctx context.Context, rt *runtimeState, facade *graph.Facade) error {
	w := rt.Writer()
	errColor := color.New(color.FgRed)

	raw, err := facade.GetCurrentUser(ctx)
	if err != nil {
		return err
	}
	user, err := graph.DecodeUser(raw)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Hello, %s!\nEmail: %s\n", user.DisplayName, orNone(user.PreferredAddress()))

	interactive := isTerminal(rt.reader)
	scanner := bufio.NewScanner(rt.reader)
	for {
		_, _ = fmt.Fprintln(w, "\nPlease choose one of the following options:")
		for i, choice := range menuChoices {
			_, _ = fmt.Fprintf(w, "%d. %s\n", i, choice)
		}
		if interactive {
			_, _ = fmt.Fprint(w, "> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		var actionErr error
		switch strings.TrimSpace(scanner.Text()) {
		case "0":
			_, _ = fmt.Fprintln(w, "Goodbye...")
			return nil
		case "1":
			var tok string
			if tok, actionErr = rt.session.UserToken(ctx); actionErr == nil {
				_, _ = fmt.Fprintf(w, "User token: %s\n", tok)
			}
		case "2":
			var inbox *graph.MessageCollection
			if inbox, actionErr = facade.GetInboxMessages(ctx); actionErr == nil {
				output.WriteInboxTable(w, inbox)
			}
		case "3":
			if _, actionErr = sendMail(ctx, rt, facade, sendOptions{subject: defaultSubject, body: defaultBody, to: user.PreferredAddress()}); actionErr == nil {
				_, _ = fmt.Fprintln(w, "Mail sent.")
			}
		case "4":
			var result *graph.SyncResult
			if result, actionErr = facade.SyncPhoto(ctx); actionErr == nil {
				output.WriteSyncTable(w, result)
			}
		default:
			_, _ = fmt.Fprintln(w, "Invalid choice! Please try again.")
		}
		if actionErr != nil {
			// Stop on cancellation; other failures are reported and the menu continues.
			if ctx.Err() != nil {
				return actionErr
			}
			_, _ = errColor.Fprintf(w, "Error: %v\n", actionErr)
		}
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func orNone(s string) string {
	if s == "" {
		return "NONE"
	}
	return s
}
