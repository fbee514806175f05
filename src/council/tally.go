package council

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/esir-council/esir/src/types"
)

// Counts holds ballots per choice.
type Counts struct {
	For     int
	Against int
	Abstain int
}

func (c Counts) Cast() int {
	return c.For + c.Against + c.Abstain
}

// Tally is the full outcome of a poll. It is always computed in full; what
// may be shown to whom is decided by Disclose.
type Tally struct {
	PollID    uint64
	Majority  types.MajorityRule
	Counts    Counts
	Passed    bool
	Threshold *int
}

// Compute applies the poll's majority rule to counts.
//
// Simple majority passes on strictly more for than against. Absolute
// majority needs floor(d/2)+1 votes for, where d is the poll's eligible count
// or, when unset, the ballots cast. With d == 0 the threshold is 1.
func Compute(poll types.Poll, counts Counts) Tally {
	t := Tally{PollID: poll.ID, Majority: poll.Majority, Counts: counts}
	switch poll.Majority {
	case types.MajorityAbsolute:
		denominator := counts.Cast()
		if poll.EligibleCount != nil {
			denominator = *poll.EligibleCount
		}
		threshold := denominator/2 + 1
		t.Threshold = &threshold
		t.Passed = counts.For >= threshold
	default:
		t.Passed = counts.For > counts.Against
	}
	return t
}

// Result is the served view of a tally.
type Result struct {
	PollID    uint64 `json:"pollId"`
	Open      bool   `json:"open"`
	Cast      int    `json:"cast"`
	Withheld  bool   `json:"withheld"`
	For       *int   `json:"for"`
	Against   *int   `json:"against"`
	Abstain   *int   `json:"abstain"`
	Passed    *bool  `json:"passed"`
	Threshold *int   `json:"threshold"`
	Majority  string `json:"majority"`
}

// withheldResult is the whole wire form of a withheld result.
type withheldResult struct {
	PollID   uint64 `json:"pollId"`
	Open     bool   `json:"open"`
	Cast     int    `json:"cast"`
	Withheld bool   `json:"withheld"`
}

// MarshalJSON drops the split keys of a withheld result. A disclosed result
// always carries every key; threshold is null under simple majority.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Withheld {
		return json.Marshal(withheldResult{PollID: r.PollID, Open: r.Open, Cast: r.Cast, Withheld: true})
	}
	type plain Result
	return json.Marshal(plain(r))
}

// Disclose projects a tally for serving: a secret poll that is still open
// shows only how many ballots were cast.
func Disclose(poll types.Poll, t Tally) Result {
	r := Result{PollID: poll.ID, Open: poll.Open, Cast: t.Counts.Cast()}
	if poll.Secret() && poll.Open {
		r.Withheld = true
		return r
	}
	forCount, against, abstain, passed := t.Counts.For, t.Counts.Against, t.Counts.Abstain, t.Passed
	r.For, r.Against, r.Abstain, r.Passed = &forCount, &against, &abstain, &passed
	r.Threshold = t.Threshold
	r.Majority = string(t.Majority)
	return r
}

// Summarize counts the ballots of a poll and computes its tally.
func (s *Service) Summarize(ctx context.Context, pollID uint64) (types.Poll, Tally, error) {
	poll, _, err := s.pollSession(ctx, pollID)
	if err != nil {
		return types.Poll{}, Tally{}, err
	}
	counts, err := s.countVotes(ctx, pollID)
	if err != nil {
		return types.Poll{}, Tally{}, err
	}
	return poll, Compute(poll, counts), nil
}

// Results is Summarize followed by Disclose.
func (s *Service) Results(ctx context.Context, pollID uint64) (Result, error) {
	poll, t, err := s.Summarize(ctx, pollID)
	if err != nil {
		return Result{}, err
	}
	return Disclose(poll, t), nil
}

func (s *Service) countVotes(ctx context.Context, pollID uint64) (Counts, error) {
	type agg struct {
		Choice types.Choice
		Count  int
	}
	var rows []agg
	err := s.db.WithContext(ctx).Model(&types.Vote{}).
		Select("choice, count(*) as count").
		Where("poll_id = ?", pollID).
		Group("choice").
		Scan(&rows).Error
	if err != nil {
		return Counts{}, fmt.Errorf("count votes for poll %d: %w", pollID, err)
	}

	var c Counts
	for _, r := range rows {
		switch r.Choice {
		case types.ChoiceFor:
			c.For = r.Count
		case types.ChoiceAgainst:
			c.Against = r.Count
		case types.ChoiceAbstain:
			c.Abstain = r.Count
		}
	}
	return c, nil
}
