// Command zone-import loads a master zone file into an existing or new zone.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/poyrazK/zonekeeper/internal/adapters/repository"
	"github.com/poyrazK/zonekeeper/internal/config"
	"github.com/poyrazK/zonekeeper/internal/core/ports"
	"github.com/poyrazK/zonekeeper/internal/core/services"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	zoneName := flag.String("zone", "", "zone to import into, e.g. example.com.")
	source := flag.String("file", "-", "zone file path or http(s) URL; - reads stdin")
	flag.Parse()

	if *zoneName == "" {
		log.Fatal("-zone is required")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := sql.Open("pgx", cfg.DB.URL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		if errClose := db.Close(); errClose != nil {
			log.Printf("failed to close database: %v", errClose)
		}
	}()

	svc := services.NewDNSService(repository.NewPostgresRepository(db), services.Options{
		Logger:      slog.New(slog.NewJSONHandler(os.Stderr, nil)),
		Nameservers: cfg.Zones.Nameservers,
		SOAMName:    cfg.Zones.SOAMName,
		SOARName:    cfg.Zones.SOARName,
		DefaultTTL:  cfg.Zones.DefaultTTL,
	})

	if err := RunImport(context.Background(), svc, *source, *zoneName, os.Stdout); err != nil {
		log.Fatalf("import failed: %v", err)
	}
}

// RunImport reads source and imports it into zoneName.
func RunImport(ctx context.Context, svc ports.ImportService, source, zoneName string, out io.Writer) error {
	r, err := openSource(ctx, source)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := r.Close(); errClose != nil {
			log.Printf("failed to close %s: %v", source, errClose)
		}
	}()

	zone, imported, err := svc.ImportZone(ctx, r, zoneName)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "imported %d records into %s (%s)\n", imported, zone.Name, zone.ID)
	return nil
}

func openSource(ctx context.Context, source string) (io.ReadCloser, error) {
	switch {
	case source == "-":
		return io.NopCloser(os.Stdin), nil
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to download: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("bad status: %s", resp.Status)
		}
		return resp.Body, nil
	case source == "":
		return nil, errors.New("empty source")
	default:
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open zone file: %w", err)
		}
		return f, nil
	}
}
