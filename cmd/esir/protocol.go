package main

import (
	"fmt"
	"strconv"

	"github.com/esir-council/esir/src/config"
	"github.com/esir-council/esir/src/council"
	"github.com/esir-council/esir/src/reports"
	"github.com/spf13/cobra"
)

var protocolDir string

var protocolCmd = &cobra.Command{
	Use:   "protocol <session-id>",
	Short: "Write the protocol PDF of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  protocolRun,
}

func init() {
	protocolCmd.Flags().StringVarP(&protocolDir, "out", "o", ".", "output directory")
}

func protocolRun(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid session id %q", args[0])
	}
	cfg, db, err := openDB(cmd.Context())
	if err != nil {
		return err
	}
	font, err := reports.LoadFont(cfg.ProtocolFont, cfg.ProtocolFontBold)
	if err != nil {
		return err
	}
	name := config.LoadCouncil(db).Name

	p, err := council.New(db).Protocol(cmd.Context(), council.SystemActor, id)
	if err != nil {
		return err
	}
	path, err := reports.NewGenerator(name, reports.WithFont(font)).SaveProtocol(protocolDir, p)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
