// Command mintmember provisions a member directly in storage and prints the
// raw bearer token once. Use it to create the first admin before the API has
// any credentials, or to mint service accounts out of band.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"postboard/internal/config"
	"postboard/internal/members"
	"postboard/internal/models"
	"postboard/internal/storage"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	name       = flag.String("name", "", "Display name for the new member (required)")
	admin      = flag.Bool("admin", false, "Grant the member admin privileges")
)

func main() {
	flag.Parse()

	if *name == "" {
		fmt.Fprintln(os.Stderr, "error: -name is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	store, err := storage.NewStorage(ctx, storage.Config{
		Type:             cfg.Storage.Type,
		ConnectionString: cfg.Storage.Database.DSN,
		MaxOpenConns:     cfg.Storage.Database.MaxOpenConns,
	})
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if cfg.Storage.Type == models.StorageTypeMemory {
		slog.Error("Memory storage does not persist; point -config at the server's storage backend")
		os.Exit(1)
	}

	resp, err := members.NewService(store).Create(ctx, &models.CreateMemberRequest{
		Name:    *name,
		IsAdmin: *admin,
	})
	if err != nil {
		slog.Error("Failed to create member", "error", err)
		os.Exit(1)
	}

	fmt.Printf("id:     %s\n", resp.ID)
	fmt.Printf("name:   %s\n", resp.Name)
	fmt.Printf("admin:  %t\n", resp.IsAdmin)
	fmt.Printf("token:  %s\n", resp.Token)
	fmt.Fprintln(os.Stderr, "Store this token now; it cannot be recovered later.")
}
