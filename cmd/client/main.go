// Command client is a terminal chat client: it signs in, opens the
// conversation with one peer and sends every stdin line as a message.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"directchat/backend/internal/client"
	"directchat/backend/internal/logger"
	"directchat/backend/internal/models"

	"github.com/fatih/color"
	"github.com/samber/lo"
)

var (
	infoColor = color.New(color.FgCyan)
	peerColor = color.New(color.FgGreen, color.Bold)
	selfColor = color.New(color.FgBlue)
	errColor  = color.New(color.FgRed)
)

func main() {
	server := flag.String("server", "http://localhost:8080", "Chat server base URL")
	email := flag.String("email", "", "Account email")
	password := flag.String("password", "", "Account password")
	peerEmail := flag.String("peer", "", "Email of the user to chat with")
	logLevel := flag.String("log", "warn", "Log level")
	flag.Parse()

	if *email == "" || *password == "" || *peerEmail == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *server, *email, *password, *peerEmail, *logLevel); err != nil {
		errColor.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, server, email, password, peerEmail, logLevel string) error {
	log := logger.Init(logLevel)
	api := client.NewAPIClient(server)

	me, token, err := api.SignIn(ctx, email, password)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	users, err := api.Users(ctx)
	if err != nil {
		return err
	}
	peer, ok := lo.Find(users, func(u models.User) bool { return strings.EqualFold(u.Email, peerEmail) })
	if !ok {
		return fmt.Errorf("no user with email %s", peerEmail)
	}
	names := lo.SliceToMap(users, func(u models.User) (string, string) { return u.ID, u.FullName })

	wsURL, err := api.WebSocketURL()
	if err != nil {
		return err
	}
	session := client.NewSession(client.ChannelDialer(wsURL, log), log)
	defer session.Close()

	session.Subscribe(models.EventPresenceUpdate, func(models.Event) {
		online := lo.FilterMap(session.Online(), func(id string, _ int) (string, bool) {
			name, known := names[id]
			return name, known
		})
		infoColor.Printf("* online: %s\n", strings.Join(online, ", "))
	})
	session.Subscribe(models.EventNewMessage, func(evt models.Event) {
		msg, err := evt.DecodeMessage()
		if err == nil && msg.SenderID == peer.ID {
			printMessage(msg, peer.FullName, peerColor)
		}
	})
	if err := session.SetToken(ctx, token); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	conv := client.NewConversation(api, session, client.NewReconciler(me.ID), log)
	defer conv.Close()
	if err := conv.Open(ctx, peer.ID); err != nil {
		return err
	}

	infoColor.Printf("Chatting with %s. Type a message, /file <path> to send media, Ctrl+D to quit.\n", peer.FullName)
	for _, e := range conv.Reconciler.Entries() {
		if e.Message.SenderID == me.ID {
			printMessage(e.Message, "me", selfColor)
		} else {
			printMessage(e.Message, peer.FullName, peerColor)
		}
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			draft, err := parseLine(line)
			if err != nil {
				errColor.Println(err)
				continue
			}
			if draft.Empty() {
				continue
			}
			if _, err := conv.Send(ctx, draft); err != nil {
				errColor.Printf("! not sent: %v\n", err)
				discardFailed(conv.Reconciler)
			}
		}
	}
}

// parseLine turns "/file <path> [caption]" into a draft with an attachment
// and anything else into a text draft.
func parseLine(line string) (client.Draft, error) {
	rest, isFile := strings.CutPrefix(line, "/file ")
	if !isFile {
		return client.Draft{Text: line}, nil
	}

	path, caption, _ := strings.Cut(strings.TrimSpace(rest), " ")
	data, err := os.ReadFile(path)
	if err != nil {
		return client.Draft{}, fmt.Errorf("read %s: %w", path, err)
	}
	d := client.Draft{Text: caption}
	d.Attach(client.Attachment{Filename: filepath.Base(path), Data: data})
	return d, nil
}

// discardFailed drops failed entries; this client reports the error instead
// of keeping them for retry.
func discardFailed(rec *client.Reconciler) {
	for _, e := range rec.Entries() {
		if e.State == client.StateFailed {
			rec.Discard(e.TempID)
		}
	}
}

func printMessage(m models.Message, who string, c *color.Color) {
	body := m.Text
	if m.Media != "" {
		body = strings.TrimSpace(body + " [" + m.Media + "]")
	}
	c.Printf("[%s] %s: ", m.CreatedAt.Local().Format("15:04"), who)
	fmt.Println(body)
}

