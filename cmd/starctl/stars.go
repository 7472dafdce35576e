package main

import (
	"github.com/spf13/cobra"

	"star-notary/internal/api"
)

func (c *cli) createCmd() *cobra.Command {
	var req api.CreateStarRequest

	cmd := &cobra.Command{
		Use:   "create <token-id>",
		Short: "Register a star as a new token owned by the caller",
		Example: `  starctl create 1 --name "Awesome Star" --story "Found it" \
    --ra 032.155 --dec 121.874 --mag 245.978`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTokenID(args[0])
			if err != nil {
				return err
			}
			req.TokenID = id

			cl, err := c.client()
			if err != nil {
				return err
			}
			info, err := cl.CreateStar(cmd.Context(), req)
			if err != nil {
				return err
			}
			return c.print(info)
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "star name")
	cmd.Flags().StringVar(&req.Story, "story", "", "discovery story")
	cmd.Flags().StringVar(&req.RA, "ra", "", "right ascension, stored verbatim")
	cmd.Flags().StringVar(&req.Dec, "dec", "", "declination, stored verbatim")
	cmd.Flags().StringVar(&req.Mag, "mag", "", "magnitude, stored verbatim")
	return cmd
}

func (c *cli) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <token-id>",
		Short: "Show a star's name, story and coordinates",
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
			info, err := cl.StarInfo(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.print(info)
		},
	}
}

func (c *cli) existsCmd() *cobra.Command {
	var ra, dec, mag string

	cmd := &cobra.Command{
		Use:   "exists",
		Short: "Check whether coordinates are already registered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := c.client()
			if err != nil {
				return err
			}
			exists, err := cl.StarExists(cmd.Context(), ra, dec, mag)
			if err != nil {
				return err
			}
			return c.print(api.ExistsResponse{Exists: exists})
		},
	}

	cmd.Flags().StringVar(&ra, "ra", "", "right ascension")
	cmd.Flags().StringVar(&dec, "dec", "", "declination")
	cmd.Flags().StringVar(&mag, "mag", "", "magnitude")
	return cmd
}

func (c *cli) sellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sell <token-id> <price>",
		Short: "Put the caller's star up for sale",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTokenID(args[0])
			if err != nil {
				return err
			}
			price, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			cl, err := c.client()
			if err != nil {
				return err
			}
			if err := cl.PutUpForSale(cmd.Context(), id, price); err != nil {
				return err
			}
			return c.print(api.PriceResponse{TokenID: id, Price: price})
		},
	}
}

func (c *cli) unsellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unsell <token-id>",
		Short: "Withdraw the caller's star from sale",
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
			return cl.RemoveFromSale(cmd.Context(), id)
		},
	}
}

func (c *cli) priceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "price <token-id>",
		Short: "Show the asking price of a listed star",
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
			price, err := cl.Price(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.print(api.PriceResponse{TokenID: id, Price: price})
		},
	}
}

func (c *cli) buyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buy <token-id> <payment>",
		Short: "Buy a listed star; any overpayment is refunded",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTokenID(args[0])
			if err != nil {
				return err
			}
			payment, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			cl, err := c.client()
			if err != nil {
				return err
			}
			sale, err := cl.Buy(cmd.Context(), id, payment)
			if err != nil {
				return err
			}
			return c.print(sale)
		},
	}
}

func (c *cli) listingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listings",
		Short: "List every star up for sale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := c.client()
			if err != nil {
				return err
			}
			listings, err := cl.Listings(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(listings)
		},
	}
}

func (c *cli) salesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sales <token-id>",
		Short: "Show a star's sale history",
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
			sales, err := cl.Sales(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.print(sales)
		},
	}
}
