package main

import (
	"fmt"
	"time"

	"procurement/internal/auth"
	"procurement/internal/procurement"
	"procurement/models"

	"github.com/spf13/cobra"
)

var (
	memberOrgID   string
	memberOrgName string
	memberUserID  string
	memberEmail   string
	memberName    string
	memberRole    string
	tokenTTL      time.Duration
)

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "Manage organization members",
}

// membersAddCmd: первичная настройка владельца организации
var membersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create the organization if needed and add a member to it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		store, closeStore, err := openStore(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer closeStore()

		role, err := models.ParseRole(memberRole)
		if err != nil {
			return err
		}
		svc := procurement.NewService(store, nil, nil, log)
		member, err := svc.AddMember(cmd.Context(),
			models.Organization{ID: memberOrgID, Name: memberOrgName},
			models.Member{UserID: memberUserID, Role: role, Email: memberEmail, Name: memberName},
		)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "member %s added to %s as %s\n", member.UserID, member.OrganizationID, member.Role)
		return nil
	},
}

// tokenCmd выпускает токен для локальной разработки
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := bootstrap()
		if err != nil {
			return err
		}
		token, err := auth.IssueToken(cfg.JWT.SigningKey, models.Identity{
			UserID: memberUserID,
			OrgID:  memberOrgID,
			Email:  memberEmail,
			Name:   memberName,
		}, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{membersAddCmd, tokenCmd} {
		c.Flags().StringVar(&memberOrgID, "org", "", "organization id")
		c.Flags().StringVar(&memberUserID, "user", "", "user id")
		c.Flags().StringVar(&memberEmail, "email", "", "user email")
		c.Flags().StringVar(&memberName, "name", "", "user display name")
		_ = c.MarkFlagRequired("org")
		_ = c.MarkFlagRequired("user")
	}
	membersAddCmd.Flags().StringVar(&memberOrgName, "org-name", "", "organization name (defaults to id)")
	membersAddCmd.Flags().StringVar(&memberRole, "role", string(models.RoleOwner), "member role")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")

	membersCmd.AddCommand(membersAddCmd)
	rootCmd.AddCommand(membersCmd, tokenCmd)
}
