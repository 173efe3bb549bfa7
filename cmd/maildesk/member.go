package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loywise/maildesk/internal/config"
	"github.com/loywise/maildesk/internal/models"
	"github.com/loywise/maildesk/internal/store"
	"github.com/loywise/maildesk/internal/store/postgres"
)

var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Inspect and provision membership records",
}

var newMember models.Member

var memberAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Insert a membership record unless the number is already taken",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}
		db, err := postgres.NewDB(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		created, err := postgres.NewMemberStore(db).CreateMemberIfAbsent(cmd.Context(), newMember)
		if err != nil {
			return err
		}
		if !created {
			fmt.Printf("member %s already exists, left unchanged\n", newMember.MemberNo)
			return nil
		}
		fmt.Printf("member %s created\n", newMember.MemberNo)
		return nil
	},
}

var memberShowCmd = &cobra.Command{
	Use:   "show <number|email>",
	Short: "Look up a membership record by number or email address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}
		db, err := postgres.NewDB(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		members := postgres.NewMemberStore(db)
		var member *models.Member
		if strings.Contains(args[0], "@") {
			member, err = members.GetMemberByEmail(cmd.Context(), args[0])
		} else {
			member, err = members.GetMemberByNumber(cmd.Context(), args[0])
		}
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no member record for %q", args[0])
		}
		if err != nil {
			return err
		}

		fmt.Printf("number: %s\n", member.MemberNo)
		fmt.Printf("name:   %s %s %s\n", member.Title, member.FirstName, member.LastName)
		fmt.Printf("tier:   %s\n", member.Tier)
		fmt.Printf("email:  %s\n", member.Email)
		return nil
	},
}

func init() {
	memberAddCmd.Flags().StringVar(&newMember.MemberNo, "number", "", "member number (required)")
	memberAddCmd.Flags().StringVar(&newMember.Email, "email", "", "email address")
	memberAddCmd.Flags().StringVar(&newMember.Title, "title", "", "salutation")
	memberAddCmd.Flags().StringVar(&newMember.FirstName, "first", "", "first name")
	memberAddCmd.Flags().StringVar(&newMember.LastName, "last", "", "last name")
	memberAddCmd.Flags().StringVar(&newMember.Tier, "tier", "", "single-character tier code")
	_ = memberAddCmd.MarkFlagRequired("number")

	memberCmd.AddCommand(memberAddCmd)
	memberCmd.AddCommand(memberShowCmd)
	rootCmd.AddCommand(memberCmd)
}
