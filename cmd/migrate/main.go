package main

import (
	"fmt"                            // Console output
	"os"                             // Exit codes
	"rental_system/internal/config"  // Custom import path (Config)
	"rental_system/internal/db"      // Custom import path (Database)
	"rental_system/internal/service" // Account creation

	"github.com/spf13/cobra" // Command line interface
	"gorm.io/gorm"           // GORM ORM library
)

// open connects with the configured driver and migrates the schema
func open() (*gorm.DB, *config.Config, error) {
	cfg := config.LoadConfig() // Load configuration
	gdb, err := db.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return gdb, cfg, nil
}

func createAdminCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			gdb, cfg, err := open()
			if err != nil {
				return err
			}
			svc := service.New(gdb, service.Deps{JWTSecret: cfg.JWTSecret})
			user, err := svc.CreateAdmin(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Admin %s created with id %s\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "login password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// Main entry point for migration
func main() {
	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the rental database schema",
		RunE: func(*cobra.Command, []string) error {
			_, _, err := open()
			return err
		},
		SilenceUsage: true,
	}
	rootCmd.AddCommand(createAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
