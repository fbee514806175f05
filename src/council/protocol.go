package council

import (
	"context"

	"github.com/esir-council/esir/src/types"
)

// ProtocolItem is one agenda item as recorded in the protocol.
type ProtocolItem struct {
	Item   types.AgendaItem
	Poll   *types.Poll
	Result *Result
}

// Protocol gathers everything the session protocol document shows.
type Protocol struct {
	Session    types.Session
	Quorum     Quorum
	Attendance []AttendanceRow
	Items      []ProtocolItem
}

// Protocol assembles the session record. Results go through Disclose, so a
// secret poll that is still open appears with its ballot count only.
func (s *Service) Protocol(ctx context.Context, actor types.Voter, sessionID uint64) (Protocol, error) {
	if err := Require(actor, CanOperateSession); err != nil {
		return Protocol{}, err
	}
	sess, err := s.Session(ctx, sessionID)
	if err != nil {
		return Protocol{}, err
	}
	quorum, err := s.QuorumStatus(ctx, sessionID)
	if err != nil {
		return Protocol{}, err
	}
	sheet, err := s.attendanceSheet(ctx, sessionID)
	if err != nil {
		return Protocol{}, err
	}
	agenda, err := s.Agenda(ctx, sessionID)
	if err != nil {
		return Protocol{}, err
	}

	p := Protocol{Session: sess, Quorum: quorum, Attendance: sheet}
	for _, e := range agenda {
		pi := ProtocolItem{Item: e.Item, Poll: e.Poll}
		if e.Poll != nil {
			res, err := s.Results(ctx, e.Poll.ID)
			if err != nil {
				return Protocol{}, err
			}
			pi.Result = &res
		}
		p.Items = append(p.Items, pi)
	}
	return p, nil
}
