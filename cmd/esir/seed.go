package main

import (
	"crypto/rand"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/esir-council/esir/src/council"
	"github.com/esir-council/esir/src/types"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

const (
	passwordLength   = 12
	passwordAlphabet = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var seedRosterCmd = &cobra.Command{
	Use:   "seed-roster <file>",
	Short: "Register voters from a \"First,Last[,role]\" file",
	Long: `Registers every voter listed in the file. Each line holds first name,
last name and an optional role (councillor, presidium, administrator).
Voters whose login already exists are skipped. New voters get a random
initial password that must be changed on first use; the passwords are
printed once.`,
	Args: cobra.ExactArgs(1),
	RunE: seedRosterRun,
}

type rosterEntry struct {
	FirstName string
	LastName  string
	Role      types.Role
}

func parseRoster(r io.Reader) ([]rosterEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var out []rosterEntry
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 2 || len(rec) > 3 {
			return nil, fmt.Errorf("line %d: want first,last[,role]", line)
		}
		e := rosterEntry{
			FirstName: strings.TrimSpace(rec[0]),
			LastName:  strings.TrimSpace(rec[1]),
			Role:      types.RoleCouncillor,
		}
		if len(rec) == 3 && strings.TrimSpace(rec[2]) != "" {
			e.Role = types.Role(strings.ToLower(strings.TrimSpace(rec[2])))
		}
		if e.FirstName == "" || e.LastName == "" {
			return nil, fmt.Errorf("line %d: empty name", line)
		}
		if !e.Role.Valid() {
			return nil, fmt.Errorf("line %d: unknown role %q", line, e.Role)
		}
		out = append(out, e)
	}
}

func randomPassword() (string, error) {
	b := make([]byte, passwordLength)
	limit := big.NewInt(int64(len(passwordAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b[i] = passwordAlphabet[n.Int64()]
	}
	return string(b), nil
}

func seedRosterRun(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	entries, err := parseRoster(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	_, db, err := openDB(cmd.Context())
	if err != nil {
		return err
	}
	return seedRoster(cmd, council.New(db), entries)
}

func seedRoster(cmd *cobra.Command, svc *council.Service, entries []rosterEntry) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LOGIN\tNAME\tROLE\tPASSWORD")
	for _, e := range entries {
		password, err := randomPassword()
		if err != nil {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		v, created, err := svc.RegisterVoter(cmd.Context(), types.Voter{
			Login:              council.LoginFor(e.FirstName, e.LastName),
			FirstName:          e.FirstName,
			LastName:           e.LastName,
			Role:               e.Role,
			PasswordHash:       string(hash),
			MustChangePassword: true,
			Active:             true,
		})
		if err != nil {
			return err
		}
		if !created {
			fmt.Fprintf(tw, "%s\t%s %s\t%s\t(exists)\n", council.LoginFor(e.FirstName, e.LastName), e.FirstName, e.LastName, e.Role)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.Login, v.FullName(), v.Role, password)
	}
	return tw.Flush()
}
