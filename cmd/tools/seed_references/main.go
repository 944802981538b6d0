package main

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/kapu/interview-teleprompter-go/internal/profile"
	"github.com/kapu/interview-teleprompter-go/internal/service/database"
	"github.com/kapu/interview-teleprompter-go/internal/service/knowledge"
	"github.com/kapu/interview-teleprompter-go/internal/util"
)

var (
	profileName = flag.StringP("profile", "p", "academic", "profile whose references are seeded")
	profileFile = flag.String("profile-file", "", "seed from a YAML profile file instead")
	dryRun      = flag.Bool("dry-run", false, "list the references without writing")
	dbHost      = flag.String("db-host", "localhost", "PostgreSQL host")
	dbPort      = flag.Int("db-port", 5432, "PostgreSQL port")
	dbUser      = flag.String("db-user", "teleprompter", "PostgreSQL user")
	dbPass      = flag.String("db-pass", os.Getenv("POSTGRES_PASSWORD"), "PostgreSQL password")
	dbName      = flag.String("db-name", "teleprompter", "PostgreSQL database")
)

// seed_references copies a profile's papers and personal work into the
// references table so the API can serve them from PostgreSQL.
func main() {
	flag.Parse()

	logger, err := util.NewLogger("info", "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var p *profile.Profile
	if *profileFile != "" {
		p, err = profile.LoadFile(*profileFile)
	} else {
		p, err = profile.Load(*profileName)
	}
	if err != nil {
		logger.Fatal("Failed to load profile", zap.Error(err))
	}

	logger.Info("Loaded references",
		zap.String("profile", p.Name),
		zap.Int("count", len(p.References)),
	)
	if *dryRun {
		for _, ref := range p.References {
			fmt.Printf("%-24s %-8s %s\n", ref.ID, ref.Kind, ref.Title)
		}
		return
	}
	if len(p.References) == 0 {
		logger.Info("Nothing to seed")
		return
	}

	pg, err := database.NewPostgresService(database.PostgresConfig{
		Host:     *dbHost,
		Port:     *dbPort,
		User:     *dbUser,
		Password: *dbPass,
		Database: *dbName,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pg.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := knowledge.NewRepository(pg, p.Name, logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to prepare schema", zap.Error(err))
	}

	n, err := repo.Seed(ctx, p.References)
	if err != nil {
		logger.Fatal("Seed failed", zap.Error(err))
	}
	logger.Info("Seed complete", zap.String("profile", p.Name), zap.Int("upserted", n))
}
