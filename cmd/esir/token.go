package main

import (
	"fmt"
	"time"

	"github.com/esir-council/esir/src/api/webserver"
	"github.com/esir-council/esir/src/council"
	"github.com/spf13/cobra"
)

type tokenArguments struct {
	VoterID uint64
	TTL     time.Duration
}

var tokenArgs tokenArguments

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for a voter",
	RunE:  tokenRun,
}

func init() {
	tokenCmd.Flags().Uint64VarP(&tokenArgs.VoterID, "voter", "v", 0, "voter id")
	tokenCmd.Flags().DurationVar(&tokenArgs.TTL, "ttl", 0, "token lifetime (default TOKEN_TTL)")
	_ = tokenCmd.MarkFlagRequired("voter")
}

func tokenRun(cmd *cobra.Command, args []string) error {
	cfg, db, err := openDB(cmd.Context())
	if err != nil {
		return err
	}
	v, err := council.New(db).Voter(cmd.Context(), tokenArgs.VoterID)
	if err != nil {
		return err
	}
	if !v.Active {
		return fmt.Errorf("voter %d is not active", v.ID)
	}
	ttl := tokenArgs.TTL
	if ttl <= 0 {
		ttl = cfg.TokenTTL
	}
	tok, err := webserver.IssueToken([]byte(cfg.JWTSecret), v.ID, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}
