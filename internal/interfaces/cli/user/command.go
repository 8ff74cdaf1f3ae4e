package user

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/orris-inc/tollgate/internal/application/user/dto"
	"github.com/orris-inc/tollgate/internal/infrastructure/auth"
	"github.com/orris-inc/tollgate/internal/infrastructure/database"
	"github.com/orris-inc/tollgate/internal/infrastructure/permission"
	"github.com/orris-inc/tollgate/internal/infrastructure/repository"
	httpRouter "github.com/orris-inc/tollgate/internal/interfaces/http"
	"github.com/orris-inc/tollgate/internal/interfaces/cli/bootstrap"
)

var (
	flags  bootstrap.Flags
	email  string
	name   string
	userID uint
	role   string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage billing users",
		Long:  `Create users, mint access tokens and grant roles without going through the HTTP API.`,
	}

	cmd.PersistentFlags().StringVarP(&flags.Env, "env", "e", "development", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	cmd.AddCommand(
		newCreateCommand(),
		newTokenCommand(),
		newGrantRoleCommand(),
	)

	return cmd
}

func newCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Long:  `Create a user with its default subscription, provision the Stripe customer and print an access token.`,
		RunE:  runCreate,
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print an access token for a user",
		RunE:  runToken,
	}

	cmd.Flags().UintVar(&userID, "id", 0, "User ID (required)")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func newGrantRoleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grant-role",
		Short: "Grant a role to a user",
		RunE:  runGrantRole,
	}

	cmd.Flags().UintVar(&userID, "id", 0, "User ID (required)")
	cmd.Flags().StringVar(&role, "role", permission.RoleAdmin, "Role to grant")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func runCreate(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap.InitDatabase(flags)
	if err != nil {
		return err
	}
	defer database.Close()

	container, err := httpRouter.NewContainer(cfg, database.Get(), nil, log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	created, err := container.CreateUser().Execute(ctx, dto.CreateUserRequest{Email: email, Name: name})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	u, err := repository.NewUserRepository(database.Get(), log).GetByEmail(ctx, created.Email)
	if err != nil {
		return fmt.Errorf("failed to reload created user: %w", err)
	}
	if u == nil {
		return fmt.Errorf("created user %s not found", created.Email)
	}

	return printToken(cmd.OutOrStdout(), container.JWTService(), u.ID(), u.SID(), created)
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap.InitDatabase(flags)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	u, err := repository.NewUserRepository(database.Get(), log).GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if u == nil {
		return fmt.Errorf("user %d not found", userID)
	}

	jwtSvc := auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.AccessExpMinutes)
	return printToken(cmd.OutOrStdout(), jwtSvc, u.ID(), u.SID(), nil)
}

func runGrantRole(cmd *cobra.Command, args []string) error {
	_, log, err := bootstrap.InitDatabase(flags)
	if err != nil {
		return err
	}
	defer database.Close()

	enforcer, err := permission.NewEnforcer(database.Get(), log)
	if err != nil {
		return err
	}
	if err := enforcer.SeedBillingPolicies(); err != nil {
		return err
	}
	if err := enforcer.AddRoleForUser(userID, role); err != nil {
		return fmt.Errorf("failed to grant role: %w", err)
	}

	log.Infow("role granted", "user_id", userID, "role", role)
	fmt.Fprintf(cmd.OutOrStdout(), "Granted role %q to user %d\n", role, userID)
	return nil
}

func printToken(out io.Writer, jwtSvc *auth.JWTService, id uint, sid string, created *dto.UserResponse) error {
	token, err := jwtSvc.Generate(id, sid)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	if created != nil {
		fmt.Fprintf(out, "User:     %s (id %d)\n", created.Email, id)
		if created.StripeCustomerID != nil {
			fmt.Fprintf(out, "Customer: %s\n", *created.StripeCustomerID)
		}
	}
	fmt.Fprintf(out, "Token:    %s\n", token.Token)
	fmt.Fprintf(out, "Expires:  %s\n", token.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}
