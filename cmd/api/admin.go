package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/solve-chamados/internal/domain"
	"github.com/spec-kit/solve-chamados/internal/repository"
	"github.com/spec-kit/solve-chamados/internal/service"
	apperrors "github.com/spec-kit/solve-chamados/pkg/util/errorutil"
)

func newBootstrapAdminCommand() *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "bootstrap-admin",
		Short: "Create or reset an administrator account",
		Long: `Create an administrator with the given credentials. If the email is already
registered the account is promoted to admin, reactivated, and its password reset.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			defer env.close()

			ctx := cmd.Context()
			pg, err := env.connectPostgres(ctx)
			if err != nil {
				return err
			}
			defer pg.Close()

			users := service.NewUserService(env.authService(pg.Pool))
			role := domain.RoleAdmin

			user, err := users.Create(ctx, service.RegisterInput{Name: name, Email: email, Password: password, Role: &role})
			if err == nil {
				env.logger.Info("administrator created", zap.Int64("user_id", user.ID), zap.String("email", user.Email))
				return nil
			}
			if apperrors.ToDomainError(err).Code != apperrors.CodeConflict {
				return err
			}

			existing, err := repository.NewUserRepository(pg.Pool).GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
			if err != nil {
				return fmt.Errorf("load existing account: %w", err)
			}
			active := true
			if _, err := users.Update(ctx, existing.ID, service.UserPatch{Role: &role, IsActive: &active}); err != nil {
				return err
			}
			if err := users.ChangePassword(ctx, existing.ID, password, password); err != nil {
				return err
			}
			env.logger.Info("administrator reset", zap.Int64("user_id", existing.ID), zap.String("email", existing.Email))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Administrator email (required)")
	cmd.Flags().StringVar(&name, "name", "Administrator", "Display name for a new account")
	cmd.Flags().StringVar(&password, "password", "", "Password to set (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newSessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Session maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete every expired session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			defer env.close()

			pg, err := env.connectPostgres(cmd.Context())
			if err != nil {
				return err
			}
			defer pg.Close()

			removed, err := env.authService(pg.Pool).PurgeExpiredSessions(cmd.Context())
			if err != nil {
				return err
			}
			env.logger.Info("expired sessions purged", zap.Int64("removed", removed))
			return nil
		},
	})
	return cmd
}
