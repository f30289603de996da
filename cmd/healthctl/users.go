package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/repository"
)

var listRole string

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Inspect and manage accounts",
}

var usersListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List accounts, optionally filtered by role",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := repository.NewUserRepository(pool)

		var (
			users []models.User
			err   error
		)
		if listRole != "" {
			if !access.ValidRole(listRole) {
				return fmt.Errorf("unknown role %q", listRole)
			}
			users, err = repo.ListByRole(cmd.Context(), listRole)
		} else {
			users, err = repo.ListAll(cmd.Context())
		}
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}

		if len(users) == 0 {
			fmt.Println("No users found.")
			return nil
		}
		for _, user := range users {
			fmt.Println(formatUserRow(user))
		}
		return nil
	},
}

var usersSetRoleCmd = &cobra.Command{
	Use:   "set-role <user-id> <user|expert>",
	Short: "Change an account's role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseID(args[0])
		if err != nil {
			return err
		}
		role := strings.ToLower(args[1])
		if !access.ValidRole(role) {
			return fmt.Errorf("unknown role %q", args[1])
		}

		if err := repository.NewUserRepository(pool).SetRole(cmd.Context(), userID, role); err != nil {
			return fmt.Errorf("set role: %w", err)
		}
		color.Green("user %d is now %s", userID, role)
		return nil
	},
}

var usersLinkCmd = &cobra.Command{
	Use:   "link <user-id> <expert-id>",
	Short: "Link a user to an expert",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseID(args[0])
		if err != nil {
			return err
		}
		expertID, err := parseID(args[1])
		if err != nil {
			return err
		}

		repo := repository.NewUserRepository(pool)
		expert, err := repo.GetByID(cmd.Context(), expertID)
		if err != nil {
			return fmt.Errorf("load expert: %w", err)
		}
		if expert.Role != access.RoleExpert {
			return fmt.Errorf("user %d is not an expert", expertID)
		}

		if _, err := repo.SetExpert(cmd.Context(), userID, &expertID); err != nil {
			return fmt.Errorf("link: %w", err)
		}
		color.Green("user %d linked to expert %d", userID, expertID)
		return nil
	},
}

var usersUnlinkCmd = &cobra.Command{
	Use:   "unlink <user-id>",
	Short: "Remove a user's expert",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseID(args[0])
		if err != nil {
			return err
		}
		if _, err := repository.NewUserRepository(pool).SetExpert(cmd.Context(), userID, nil); err != nil {
			return fmt.Errorf("unlink: %w", err)
		}
		color.Green("user %d unlinked", userID)
		return nil
	},
}

func init() {
	usersListCmd.Flags().StringVarP(&listRole, "role", "r", "", "filter by role (user or expert)")
	usersCmd.AddCommand(usersListCmd, usersSetRoleCmd, usersLinkCmd, usersUnlinkCmd)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func formatUserRow(user models.User) string {
	faint := color.New(color.Faint)

	expert := "-"
	if user.ExpertID != nil {
		expert = strconv.FormatInt(*user.ExpertID, 10)
	}
	return fmt.Sprintf("%s %s %s %s expert=%s",
		faint.Sprintf("%6d", user.ID),
		padRight(user.Role, 6),
		padRight(user.Username, 24),
		user.Email,
		expert,
	)
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
