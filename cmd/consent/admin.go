package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/carelink/internal/consent/app"
	"github.com/aussiebroadwan/carelink/internal/consent/domain"
	"github.com/aussiebroadwan/carelink/internal/consent/store"
	"github.com/aussiebroadwan/carelink/pkg/idx"
	"github.com/aussiebroadwan/carelink/pkg/jwtx"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func rolesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Manage application roles",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "assign <user_id> <role>",
		Short: "Assign a role to an identity-provider user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			role := domain.Role(args[1])
			if !role.Valid() {
				return fmt.Errorf("unknown role %q", args[1])
			}

			return withStore(cmd.Context(), func(ctx context.Context, _ app.Config, st store.Store) error {
				if err := st.Roles().AssignRole(ctx, userID, role); err != nil {
					return fmt.Errorf("assign role: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "assigned %s to %s\n", role, userID)
				return nil
			})
		},
	})

	return cmd
}

func requestersCmd() *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "requesters",
		Short: "Manage requesters",
	}

	add := &cobra.Command{
		Use:   "add <user_id>",
		Short: "Register a partner requester and grant it the partner role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(accountID) == "" {
				return errors.New("--account is required")
			}

			return withStore(cmd.Context(), func(ctx context.Context, _ app.Config, st store.Store) error {
				return st.WithTx(ctx, func(tx store.Tx) error {
					err := tx.Requesters().CreateRequester(ctx, domain.Requester{
						ID:        userID,
						Role:      domain.RolePartner,
						AccountID: accountID,
						CreatedAt: time.Now().UTC(),
					})
					if err != nil {
						return fmt.Errorf("create requester: %w", err)
					}
					if err := tx.Roles().AssignRole(ctx, userID, domain.RolePartner); err != nil {
						return fmt.Errorf("assign role: %w", err)
					}
					fmt.Fprintln(cmd.OutOrStdout(), userID)
					return nil
				})
			})
		},
	}
	add.Flags().StringVar(&accountID, "account", "", "top-level account the requester acts for")
	cmd.AddCommand(add)

	return cmd
}

func subjectsCmd() *cobra.Command {
	var s domain.Subject

	cmd := &cobra.Command{
		Use:   "subjects",
		Short: "Manage subjects",
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Register a subject and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(s.OwnerAccountID) == "" {
				return errors.New("--owner is required")
			}
			s.ID = idx.New().String()
			s.CreatedAt = time.Now().UTC()

			return withStore(cmd.Context(), func(ctx context.Context, _ app.Config, st store.Store) error {
				if err := st.Subjects().CreateSubject(ctx, s); err != nil {
					if errors.Is(err, store.ErrAlreadyExists) {
						return fmt.Errorf("short code %q is already taken", s.ShortCode)
					}
					return fmt.Errorf("create subject: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), s.ID)
				return nil
			})
		},
	}
	add.Flags().StringVar(&s.ShortCode, "short-code", "", "public short code; leave empty for records that cannot be linked")
	add.Flags().StringVar(&s.Email, "email", "", "delivery email address")
	add.Flags().StringVar(&s.Phone, "phone", "", "phone number")
	add.Flags().StringVar(&s.OwnerAccountID, "owner", "", "owning account id")
	cmd.AddCommand(add)

	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		email string
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <user_id>",
		Short: "Mint a development bearer token signed with AUTH_JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}

			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			if !cfg.IsDev() {
				return errors.New("token minting is only available in development environments")
			}
			if cfg.AuthJWTSecret == "" {
				return errors.New("AUTH_JWT_SECRET is required to mint tokens")
			}

			claims := jwtx.NewClaims(userID, email, cfg.AuthIssuer, cfg.Audiences(), ttl, time.Now())
			token, err := jwtx.SignHS256([]byte(cfg.AuthJWTSecret), claims)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")

	return cmd
}

func parseUserID(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("user id must be a uuid: %w", err)
	}
	return id.String(), nil
}
