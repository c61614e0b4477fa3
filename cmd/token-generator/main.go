// Command token-generator mints bearer tokens for local testing of the shop
// API, signed with the configured JWT secret.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/config"
	"github.com/phrazzld/shop-api/internal/domain"
	"github.com/phrazzld/shop-api/internal/service/auth"
)

type options struct {
	userID     string
	role       string
	customerID string
}

func main() {
	var opts options
	flag.StringVar(&opts.userID, "user", "", "user ID (random when empty)")
	flag.StringVar(&opts.role, "role", string(domain.RoleCustomer), "role: admin or customer")
	flag.StringVar(&opts.customerID, "customer", "", "customer account ID (required for customers)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := run(context.Background(), cfg.Auth, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, authCfg config.AuthConfig, opts options, out io.Writer) error {
	role := domain.Role(opts.role)
	if !role.IsValid() {
		return fmt.Errorf("unknown role %q", opts.role)
	}

	userID := uuid.New()
	if opts.userID != "" {
		id, err := uuid.Parse(opts.userID)
		if err != nil {
			return fmt.Errorf("invalid user ID: %w", err)
		}
		userID = id
	}

	customerID := uuid.Nil
	if opts.customerID != "" {
		id, err := uuid.Parse(opts.customerID)
		if err != nil {
			return fmt.Errorf("invalid customer ID: %w", err)
		}
		customerID = id
	}
	if role == domain.RoleCustomer && customerID == uuid.Nil {
		return errors.New("customer tokens require -customer")
	}

	svc, err := auth.NewJWTService(authCfg)
	if err != nil {
		return err
	}

	token, err := svc.GenerateToken(ctx, userID, role, customerID)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "Authorization: Bearer %s\n", token)
	return err
}
