package main

import (
	"github.com/spf13/cobra"

	"star-notary/internal/api"
	"star-notary/internal/domain"
)

func (c *cli) ownerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "owner <token-id>",
		Short: "Show the owner of a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTokenID(args[0])
			if err != nil {
				return err
			}
			cl, err := c.client()
			if err != nil {
				return err
			}
			owner, err := cl.Owner(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.print(api.OwnerResponse{Owner: owner})
		},
	}
}

func (c *cli) transferCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "transfer <token-id> <to>",
		Short: "Transfer a token (any listing is cancelled)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTokenID(args[0])
			if err != nil {
				return err
			}
			to, err := parseAddress(args[1])
			if err != nil {
				return err
			}
			var fromAddr domain.Address
			if from == "" {
				fromAddr, err = c.callerAddress()
			} else {
				fromAddr, err = parseAddress(from)
			}
			if err != nil {
				return err
			}

			cl, err := c.client()
			if err != nil {
				return err
			}
			if err := cl.Transfer(cmd.Context(), id, fromAddr, to); err != nil {
				return err
			}
			return c.print(api.OwnerResponse{Owner: to})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "current owner (default: the caller)")
	return cmd
}

func (c *cli) approveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <token-id> <to>",
		Short: "Approve an account to transfer one token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTokenID(args[0])
			if err != nil {
				return err
			}
			to, err := parseAddress(args[1])
			if err != nil {
				return err
			}
			cl, err := c.client()
			if err != nil {
				return err
			}
			if err := cl.Approve(cmd.Context(), id, to); err != nil {
				return err
			}
			return c.print(api.ApprovedResponse{Approved: to})
		},
	}
}

func (c *cli) depositCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deposit <account> <amount>",
		Short: "Fund an account (caller must be the faucet)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			cl, err := c.client()
			if err != nil {
				return err
			}
			bal, err := cl.Deposit(cmd.Context(), account, amount)
			if err != nil {
				return err
			}
			return c.print(api.AccountResponse{Account: account, Balance: bal})
		},
	}
}

// balanceOutput combines the native balance and token count of an account.
type balanceOutput struct {
	Account domain.Address  `json:"account"`
	Balance domain.Lamports `json:"balance,string"`
	Tokens  uint64          `json:"tokens"`
}

func (c *cli) balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance [account]",
		Short: "Show an account's lamports and token count (default: the caller)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var account domain.Address
			var err error
			if len(args) == 1 {
				account, err = parseAddress(args[0])
			} else {
				account, err = c.callerAddress()
			}
			if err != nil {
				return err
			}

			cl, err := c.client()
			if err != nil {
				return err
			}
			bal, err := cl.Account(cmd.Context(), account)
			if err != nil {
				return err
			}
			tokens, err := cl.TokenBalance(cmd.Context(), account)
			if err != nil {
				return err
			}
			return c.print(balanceOutput{Account: account, Balance: bal, Tokens: tokens})
		},
	}
}
