package main

import (
	"fmt"
	"strconv"

	"github.com/shinyyama/ctrl-alt-block/internal/model"
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "bytectl",
		Short:         "Operate on CTRL+ALT+BLOCK byte balances",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.AddCommand(
		newBalanceCmd(a),
		newAwardCmd(a),
		newSpendCmd(a),
		newGlitchCmd(a),
		newStreakBonusCmd(a),
		newCheckAchievementsCmd(a),
		newSetTierCmd(a),
		newExportCmd(a),
	)
	return root
}

func newBalanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <user-id>",
		Short: "Show balance, earning stats and recent transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := a.bytes.GetUserByteInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printf(out, "user:      %s (%s)\n", info.UserID, info.Tier)
			printf(out, "balance:   %d\n", info.Balance)
			printf(out, "today:     %d\n", info.Stats.Today)
			printf(out, "this week: %d\n", info.Stats.ThisWeek)
			printf(out, "all time:  %d\n", info.Stats.AllTime)
			printf(out, "streak:    %d\n", info.Stats.CurrentStreak)
			for _, e := range info.RecentTransactions {
				printf(out, "  %s  %-22s %+6d  -> %d\n",
					e.CreatedAt.UTC().Format("2006-01-02 15:04"), e.Activity, e.Amount, e.BalanceAfter)
			}
			return nil
		},
	}
}

func newAwardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "award <user-id> <activity>",
		Short: "Award bytes for an earning activity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.bytes.AwardBytes(cmd.Context(), args[0], args[1], map[string]interface{}{"source": "bytectl"})
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "%s (awarded %d, balance %d)\n", res.Message, res.BytesAwarded, res.NewBalance)
			for _, ach := range res.Achievements {
				printf(cmd.OutOrStdout(), "unlocked %s (+%d)\n", ach.ID, ach.RewardBytes)
			}
			return nil
		},
	}
}

func newSpendCmd(a *app) *cobra.Command {
	var description, relatedID string
	cmd := &cobra.Command{
		Use:   "spend <user-id> <amount>",
		Short: "Spend bytes from a balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			var rel *string
			if relatedID != "" {
				rel = &relatedID
			}
			res, err := a.bytes.SpendBytes(cmd.Context(), args[0], amount, description, rel, map[string]interface{}{"source": "bytectl"})
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "%s (balance %d)\n", res.Message, res.NewBalance)
			if !res.Success {
				return fmt.Errorf("spend refused: %s", res.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "ledger description")
	cmd.Flags().StringVar(&relatedID, "related-id", "", "id of the purchased item")
	return cmd
}

func newGlitchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "glitch <user-id>",
		Short: "Roll a random glitch bonus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.bytes.GenerateGlitchBonus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "%s tier=%s balance=%d\n", res.Message, res.Tier, res.NewBalance)
			return nil
		},
	}
}

func newStreakBonusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "streak-bonus <user-id> <streak-type> <days>",
		Short: "Pay the bonus for a streak milestone",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("days: %w", err)
			}
			res, err := a.bytes.AwardStreakBonus(cmd.Context(), args[0], args[1], days)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "%s (awarded %d, balance %d)\n", res.Message, res.BytesAwarded, res.NewBalance)
			return nil
		},
	}
}

func newCheckAchievementsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check-achievements <user-id>",
		Short: "Grant every achievement the user currently qualifies for",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unlocked, err := a.achievements.CheckAchievements(cmd.Context(), args[0], "", nil)
			if err != nil {
				return err
			}
			if len(unlocked) == 0 {
				printf(cmd.OutOrStdout(), "nothing new\n")
			}
			for _, ach := range unlocked {
				printf(cmd.OutOrStdout(), "unlocked %s (+%d)\n", ach.ID, ach.RewardBytes)
			}
			return nil
		},
	}
}

func newSetTierCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-tier <user-id> <free|paid>",
		Short: "Change a user's subscription tier",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier := model.UserTier(args[1])
			if tier != model.UserTierFree && tier != model.UserTierPaid {
				return fmt.Errorf("unknown tier %q", args[1])
			}
			u, err := a.users.UpdateProfile(cmd.Context(), args[0], nil, &tier)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "%s is now %s\n", u.ID, u.Tier)
			return nil
		},
	}
}
