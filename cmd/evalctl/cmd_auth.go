package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spec-kit/evaluation-service/internal/api/dto"
	"github.com/spec-kit/evaluation-service/internal/auth"
	"github.com/spec-kit/evaluation-service/internal/client"
	"github.com/spec-kit/evaluation-service/internal/session"
)

func newLoginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(email) == "" || password == "" {
				return errors.New("please fill in all fields")
			}
			res, err := client.New(apiURL, "").Login(cmd.Context(), email, password)
			if err != nil {
				if client.IsForbidden(err) {
					return errors.New(auth.DeactivatedMessage)
				}
				return errors.New("login failed, please check your credentials")
			}
			s, err := session.Decode(res.Token.Token)
			if err != nil {
				return err
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			if err := store.Save(s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Login Successful: %s (%s)\n", s.Email, s.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newRegisterCmd() *cobra.Command {
	var req dto.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account; manager and hr need the invite code",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := client.New(apiURL, "").Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User Registered Successfully: %s (%s)\n", user.Email, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "full name")
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	cmd.Flags().StringVar(&req.Role, "role", "intern", "manager, intern or hr")
	cmd.Flags().StringVar(&req.InviteCode, "invite-code", "", "invite code for manager and hr accounts")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "whoami",
		Short:   "Show the signed-in account",
		PreRunE: requireSession,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := currentSession(cmd)
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s), expires %s\n", s.Email, s.Role, s.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
}
