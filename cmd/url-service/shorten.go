package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/umanagarjuna/linkshort/internal/url/domain"
)

var (
	longURLFlag    string
	customCodeFlag string
	expiresFlag    int
)

var shortenCmd = &cobra.Command{
	Use:   "shorten",
	Short: "Allocate a short code for a long URL",
	Example: `  url-service shorten --url="https://go.dev/doc/effective_go"
  url-service shorten --url="https://example.com" --code=promo --expires=60`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		req := &domain.ShortenRequest{
			LongURL:         longURLFlag,
			CustomShortCode: customCodeFlag,
		}
		if expiresFlag > 0 {
			req.ExpirationMinutes = &expiresFlag
		}

		url, err := a.service.Shorten(cmd.Context(), req)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), a.service.ShortURL(url.ShortCode))
		return nil
	},
}

func init() {
	shortenCmd.Flags().StringVar(&longURLFlag, "url", "", "long URL to shorten")
	shortenCmd.Flags().StringVar(&customCodeFlag, "code", "", "custom short code")
	shortenCmd.Flags().IntVar(&expiresFlag, "expires", 0, "expiration in minutes, 0 for never")
	_ = shortenCmd.MarkFlagRequired("url")

	rootCmd.AddCommand(shortenCmd)
}
