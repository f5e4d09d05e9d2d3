package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"directchat/backend/internal/auth"
	"directchat/backend/internal/config"
	"directchat/backend/internal/models"
	"directchat/backend/internal/storage"

	"github.com/olekukonko/tablewriter"
	"github.com/redis/go-redis/v9"
)

const usage = `Usage: admin <command> [args]

Commands:
  users                     list registered users
  history <user_a> <user_b> print the conversation between two users
  revoke <token>            revoke an identity token (needs REDIS_ADDR)`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	command := os.Args[1]
	switch command {
	case "users":
		store := openStore(ctx, cfg)
		defer store.Close(ctx)
		if err := listUsers(ctx, store, os.Stdout); err != nil {
			log.Fatalf("Error listing users: %v", err)
		}
	case "history":
		if len(os.Args) != 4 {
			fmt.Println("Usage: admin history <user_a> <user_b>")
			os.Exit(1)
		}
		store := openStore(ctx, cfg)
		defer store.Close(ctx)
		if err := printHistory(ctx, store, os.Stdout, os.Args[2], os.Args[3]); err != nil {
			log.Fatalf("Error reading history: %v", err)
		}
	case "revoke":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin revoke <token>")
			os.Exit(1)
		}
		if cfg.RedisAddr == "" {
			log.Fatal("REDIS_ADDR must be set to revoke tokens")
		}
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()

		tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, auth.NewRedisDenylist(rdb))
		claims, err := tokens.ResolveClaims(ctx, os.Args[2])
		if err != nil {
			log.Fatalf("Token is not active: %v", err)
		}
		if err := tokens.Revoke(ctx, os.Args[2]); err != nil {
			log.Fatalf("Error revoking token: %v", err)
		}
		fmt.Printf("Token %s of user %s has been revoked.\n", claims.ID, claims.Subject)
	default:
		fmt.Println("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg config.Config) storage.Storage {
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}
	return store
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func listUsers(ctx context.Context, s storage.Storage, w io.Writer) error {
	// "" matches no id, so every user is listed
	users, err := s.ListUsersExcept(ctx, "")
	if err != nil {
		return err
	}

	table := newTable(w, "ID", "Name", "Email", "Created")
	for _, u := range users {
		table.Append([]string{u.ID, u.FullName, u.Email, u.CreatedAt.Format(time.RFC3339)})
	}
	table.Render()
	return nil
}

func printHistory(ctx context.Context, s storage.Storage, w io.Writer, a, b string) error {
	messages, err := s.GetConversation(ctx, a, b)
	if err != nil {
		return err
	}

	table := newTable(w, "Time", "From", "To", "Text", "Media")
	for _, m := range messages {
		table.Append(historyRow(m))
	}
	table.Render()
	return nil
}

func historyRow(m models.Message) []string {
	text := m.Text
	if len(text) > 60 {
		text = text[:57] + "..."
	}
	return []string{m.CreatedAt.Format("2006-01-02 15:04:05"), short(m.SenderID), short(m.ReceiverID), text, m.Media}
}

// short keeps the first 8 characters of an id for readability.
func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
