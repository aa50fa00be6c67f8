package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ikkim/localbiz-backend/config"
	"github.com/ikkim/localbiz-backend/internal/app/repository"
	"github.com/ikkim/localbiz-backend/internal/app/service"
	"github.com/ikkim/localbiz-backend/internal/db"
	"github.com/ikkim/localbiz-backend/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	filePath   string
	ownerEmail string
	assumeYes  bool
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import businesses from an .xlsx workbook",
	Long: `Import businesses, their payment options and opening hours from an .xlsx
workbook. Every business is registered under an existing user.

Example:
  seed --file businesses.xlsx --owner owner@example.com --yes`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVarP(&filePath, "file", "f", "", "path to the businesses .xlsx workbook")
	rootCmd.Flags().StringVarP(&ownerEmail, "owner", "o", "", "email of the existing user who will own the imported businesses")
	rootCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")
	_ = rootCmd.MarkFlagRequired("file")
	_ = rootCmd.MarkFlagRequired("owner")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSeed(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Initialize(logger.Config{Level: cfg.Log.Level, Format: "console", EnableColor: true})

	if err := db.Initialize(&cfg.Database); err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	inputs, skipped, err := readBusinessesFromXLSX(filePath)
	if err != nil {
		return fmt.Errorf("read XLSX: %w", err)
	}
	for _, s := range skipped {
		fmt.Printf("  skipped row %d: %s\n", s.Row, s.Reason)
	}
	fmt.Printf("Businesses to import: %d (skipped %d rows)\n", len(inputs), len(skipped))

	if !assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return nil
		}
	}

	appLog := logger.Get()
	conn := db.GetDB()
	users := repository.NewUserRepository(conn, appLog)
	businesses := service.NewBusinessService(conn, repository.NewBusinessRepository(conn, appLog), users, appLog)

	owner, err := users.FindByEmail(ctx, ownerEmail)
	if err != nil {
		return fmt.Errorf("owner %s not found: %w", ownerEmail, err)
	}

	result := importBusinesses(ctx, businesses, owner.ID, inputs)
	for _, f := range result.Failed {
		fmt.Printf("  failed %s: %s\n", f.UEN, f.Reason)
	}

	fmt.Println("Import completed.")
	fmt.Printf("Imported: %d, already present: %d, failed: %d\n", result.Imported, result.Existing, len(result.Failed))
	return nil
}

type importFailure struct {
	UEN    string
	Reason string
}

type importResult struct {
	Imported int
	Existing int
	Failed   []importFailure
}

// importBusinesses registers each business through the service so the same
// validation and ownership rules apply as for the API. Businesses whose UEN
// already exists are counted, not overwritten.
func importBusinesses(ctx context.Context, svc *service.BusinessService, ownerID uint, inputs []service.BusinessInput) importResult {
	var result importResult
	for _, input := range inputs {
		_, err := svc.RegisterBusiness(ctx, ownerID, input)
		switch {
		case err == nil:
			result.Imported++
		case errors.Is(err, service.ErrBusinessExists):
			result.Existing++
		default:
			result.Failed = append(result.Failed, importFailure{UEN: input.UEN, Reason: err.Error()})
		}
	}
	return result
}
