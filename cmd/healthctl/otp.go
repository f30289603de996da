package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/services"
)

var otpCmd = &cobra.Command{
	Use:   "otp",
	Short: "Password reset code maintenance",
}

var otpPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete used and expired reset codes",
	RunE: func(cmd *cobra.Command, args []string) error {
		service := services.NewOTPService(pool, services.LogMailer{}, nil, false)
		deleted, err := service.PurgeExpired(cmd.Context())
		if err != nil {
			return fmt.Errorf("purge: %w", err)
		}
		color.Green("removed %d reset codes", deleted)
		return nil
	},
}

func init() {
	otpCmd.AddCommand(otpPurgeCmd)
}
