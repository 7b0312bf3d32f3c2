package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"speckit/internal/artifact"
	"speckit/internal/gateway/service/session"
	"speckit/internal/project"
)

var chatSession string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the workflow from the terminal",
	Long: `chat runs the same workflow as the gateway against the configured store.
Type a message to send it, /<n> to click the n-th action of the last reply,
/files to list generated documents, /show <name> to print one and /quit to
leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig("")
		a, closer, err := openApp(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}
		defer closer.Close()
		defer a.Shutdown(context.Background())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		id := strings.TrimSpace(chatSession)
		if id == "" {
			st, err := a.Sessions.Create(ctx, session.DefaultUser)
			if err != nil {
				return err
			}
			id = st.SessionID
		}
		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		return runChat(ctx, a.Sessions, id, os.Stdin, cmd.OutOrStdout(), interactive)
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatSession, "session", "", "resume this session instead of starting a new one")
}

type chatter interface {
	Get(ctx context.Context, user, id string) (project.State, error)
	Send(ctx context.Context, user, id, text string, attachments []project.Attachment) (session.Outcome, error)
	Click(ctx context.Context, user, id string, action project.ChatAction) (session.Outcome, error)
}

// runChat reads commands from in until EOF, /quit or ctx ends. The prompt
// is printed only when interactive.
func runChat(ctx context.Context, svc chatter, id string, in io.Reader, out io.Writer, interactive bool) error {
	st, err := svc.Get(ctx, session.DefaultUser, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "session %s\n", st.SessionID)
	printMessages(out, st.ChatHistory)
	seen := len(st.ChatHistory)

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if interactive {
			fmt.Fprint(out, "> ")
		}
		if !sc.Scan() {
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		var outcome session.Outcome
		switch {
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/files":
			for _, p := range documentPaths(st.Files) {
				fmt.Fprintln(out, p)
			}
			continue
		case strings.HasPrefix(line, "/show "):
			name := strings.TrimSpace(strings.TrimPrefix(line, "/show "))
			n := artifact.FindByPredicate(st.Files, func(n *artifact.Node) bool {
				return n.IsFile() && n.Name == name
			})
			if n == nil {
				fmt.Fprintf(out, "no document named %s\n", name)
				continue
			}
			fmt.Fprintln(out, n.Content)
			continue
		case strings.HasPrefix(line, "/"):
			action, ok := pickAction(st.ChatHistory, strings.TrimPrefix(line, "/"))
			if !ok {
				fmt.Fprintf(out, "unknown command %s\n", line)
				continue
			}
			fmt.Fprintf(out, "[%s]\n", action.Label)
			outcome, err = svc.Click(ctx, session.DefaultUser, id, action)
		default:
			outcome, err = svc.Send(ctx, session.DefaultUser, id, line, nil)
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			if cur, gerr := svc.Get(ctx, session.DefaultUser, id); gerr == nil {
				st, seen = cur, len(cur.ChatHistory)
			}
			continue
		}
		if outcome.Cancelled {
			fmt.Fprintln(out, "(cancelled)")
		}
		st = outcome.State
		if seen < len(st.ChatHistory) {
			printMessages(out, botMessages(st.ChatHistory[seen:]))
		}
		seen = len(st.ChatHistory)
	}
}

func botMessages(msgs []project.ChatMessage) []project.ChatMessage {
	var out []project.ChatMessage
	for _, m := range msgs {
		if m.Author == project.AuthorBot {
			out = append(out, m)
		}
	}
	return out
}

func printMessages(out io.Writer, msgs []project.ChatMessage) {
	for _, m := range msgs {
		if m.Author != project.AuthorBot {
			continue
		}
		fmt.Fprintln(out, m.Content)
		for i, a := range m.Actions {
			fmt.Fprintf(out, "  /%d %s\n", i+1, a.Label)
		}
	}
}

// pickAction resolves "/<n>" against the actions of the latest message that
// offers any.
func pickAction(history []project.ChatMessage, arg string) (project.ChatAction, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return project.ChatAction{}, false
	}
	for i := len(history) - 1; i >= 0; i-- {
		if len(history[i].Actions) == 0 {
			continue
		}
		if n > len(history[i].Actions) {
			return project.ChatAction{}, false
		}
		return history[i].Actions[n-1], true
	}
	return project.ChatAction{}, false
}

func documentPaths(files artifact.Tree) []string {
	var out []string
	var visit func(prefix string, n *artifact.Node)
	visit = func(prefix string, n *artifact.Node) {
		p := path.Join(prefix, n.Name)
		if n.IsFile() {
			out = append(out, p)
			return
		}
		for _, c := range n.Children {
			visit(p, c)
		}
	}
	for _, root := range files {
		visit("", root)
	}
	return out
}
