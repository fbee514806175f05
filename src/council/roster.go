package council

import (
	"context"
	"fmt"
	"strings"

	"github.com/esir-council/esir/src/logging"
	"github.com/esir-council/esir/src/types"
)

// Capability is a permission bit granted by a role.
type Capability uint8

const (
	CanVote Capability = 1 << iota
	CanOperateSession
	CanAdminister
)

func (c Capability) String() string {
	switch c {
	case CanVote:
		return "can_vote"
	case CanOperateSession:
		return "can_operate_session"
	case CanAdminister:
		return "can_administer"
	}
	return fmt.Sprintf("capability(%d)", uint8(c))
}

// Capabilities is a set of Capability bits.
type Capabilities uint8

var roleCapabilities = map[types.Role]Capabilities{
	types.RoleCouncillor:    Capabilities(CanVote),
	types.RolePresidium:     Capabilities(CanVote | CanOperateSession),
	types.RoleAdministrator: Capabilities(CanVote | CanOperateSession | CanAdminister),
}

// CapabilitiesOf returns the capability set for a role; unknown roles get none.
func CapabilitiesOf(role types.Role) Capabilities {
	return roleCapabilities[role]
}

func (cs Capabilities) Has(c Capability) bool {
	return cs&Capabilities(c) != 0
}

// Can reports whether the voter is active and holds c.
func Can(v types.Voter, c Capability) bool {
	return v.Active && CapabilitiesOf(v.Role).Has(c)
}

// Require returns ErrPermissionDenied unless the voter holds c.
func Require(v types.Voter, c Capability) error {
	if !Can(v, c) {
		return fmt.Errorf("voter %d lacks %s: %w", v.ID, c, ErrPermissionDenied)
	}
	return nil
}

// RolesWith lists the roles whose capability set contains c.
func RolesWith(c Capability) []types.Role {
	var out []types.Role
	for _, r := range []types.Role{types.RoleCouncillor, types.RolePresidium, types.RoleAdministrator} {
		if CapabilitiesOf(r).Has(c) {
			out = append(out, r)
		}
	}
	return out
}

// SystemActor is used by trusted local tooling (CLI commands).
var SystemActor = types.Voter{Login: "system", Role: types.RoleAdministrator, Active: true}

// Voter loads a roster entry.
func (s *Service) Voter(ctx context.Context, id uint64) (types.Voter, error) {
	var v types.Voter
	if err := s.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return types.Voter{}, lookupErr(err, "voter", id)
	}
	return v, nil
}

// Voters lists active voters holding c, ordered by surname.
func (s *Service) Voters(ctx context.Context, c Capability) ([]types.Voter, error) {
	var out []types.Voter
	err := s.db.WithContext(ctx).
		Where("active = ? AND role IN ?", true, RolesWith(c)).
		Order("last_name, first_name").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list voters: %w", err)
	}
	return out, nil
}

// EligibleCount counts active voters that may vote; it is the quorum base.
func (s *Service) EligibleCount(ctx context.Context) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&types.Voter{}).
		Where("active = ? AND role IN ?", true, RolesWith(CanVote)).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count eligible voters: %w", err)
	}
	return int(n), nil
}

// RegisterVoter adds v to the roster. It reports created=false when the
// login is taken, leaving the existing entry untouched.
func (s *Service) RegisterVoter(ctx context.Context, v types.Voter) (types.Voter, bool, error) {
	v.Login = strings.TrimSpace(v.Login)
	if v.Login == "" || !v.Role.Valid() {
		return types.Voter{}, false, fmt.Errorf("voter %q role %q: %w", v.Login, v.Role, ErrInvalidInput)
	}
	if err := s.db.WithContext(ctx).Create(&v).Error; err != nil {
		if logging.IsDuplicateKey(err) {
			return types.Voter{}, false, nil
		}
		return types.Voter{}, false, fmt.Errorf("create voter %q: %w", v.Login, err)
	}
	return v, true, nil
}

var loginFolding = strings.NewReplacer(
	"ą", "a", "ć", "c", "ę", "e", "ł", "l", "ń", "n",
	"ó", "o", "ś", "s", "ź", "z", "ż", "z",
)

// LoginFor derives a roster login ("first.last", ASCII-folded).
func LoginFor(first, last string) string {
	login := strings.ToLower(strings.TrimSpace(first) + "." + strings.TrimSpace(last))
	login = loginFolding.Replace(login)
	return strings.ReplaceAll(login, " ", "-")
}
