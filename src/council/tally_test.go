package council

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/esir-council/esir/src/types"
)

func TestComputeSimpleMajority(t *testing.T) {
	cases := []struct {
		counts Counts
		passed bool
	}{
		{Counts{For: 5, Against: 3}, true},
		{Counts{For: 3, Against: 5}, false},
		{Counts{For: 4, Against: 4}, false},
		{Counts{For: 1, Against: 0, Abstain: 10}, true},
		{Counts{}, false},
	}
	poll := types.Poll{Majority: types.MajoritySimple}
	for _, tc := range cases {
		got := Compute(poll, tc.counts)
		if got.Passed != tc.passed {
			t.Fatalf("%+v: passed = %v, want %v", tc.counts, got.Passed, tc.passed)
		}
		if got.Threshold != nil {
			t.Fatalf("%+v: simple majority must not carry a threshold, got %d", tc.counts, *got.Threshold)
		}
	}
}

func TestComputeAbsoluteMajority(t *testing.T) {
	cases := []struct {
		name      string
		eligible  *int
		counts    Counts
		threshold int
		passed    bool
	}{
		{"eligible 21, 11 for", intPtr(21), Counts{For: 11, Against: 2}, 11, true},
		{"eligible 21, 10 for", intPtr(21), Counts{For: 10, Against: 0}, 11, false},
		{"ballots as denominator", nil, Counts{For: 2, Against: 1, Abstain: 1}, 3, false},
		{"ballots as denominator, passes", nil, Counts{For: 3, Against: 1}, 3, true},
		{"eligible even", intPtr(20), Counts{For: 11}, 11, true},
		{"zero denominator, nothing cast", nil, Counts{}, 1, false},
		{"zero eligible, one for", intPtr(0), Counts{For: 1}, 1, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			poll := types.Poll{Majority: types.MajorityAbsolute, EligibleCount: tc.eligible}
			got := Compute(poll, tc.counts)
			if got.Threshold == nil || *got.Threshold != tc.threshold {
				t.Fatalf("threshold = %v, want %d", got.Threshold, tc.threshold)
			}
			if got.Passed != tc.passed {
				t.Fatalf("passed = %v, want %v", got.Passed, tc.passed)
			}
		})
	}
}

func TestDiscloseWithholdsSecretOpenSplit(t *testing.T) {
	poll := types.Poll{ID: 7, Open: true, Visibility: types.VisibilitySecret, Majority: types.MajoritySimple}
	tally := Compute(poll, Counts{For: 2, Against: 1})

	res := Disclose(poll, tally)
	if res.Cast != 3 || !res.Withheld {
		t.Fatalf("expected withheld result with 3 ballots, got %+v", res)
	}
	if res.For != nil || res.Against != nil || res.Abstain != nil || res.Passed != nil {
		t.Fatalf("secret open poll leaked its split: %+v", res)
	}
	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"for"`, `"against"`, `"abstain"`, `"passed"`} {
		if strings.Contains(string(raw), key) {
			t.Fatalf("serialized result contains %s: %s", key, raw)
		}
	}

	poll.Open = false
	res = Disclose(poll, tally)
	if res.Withheld || res.For == nil || *res.For != 2 || *res.Against != 1 || *res.Abstain != 0 {
		t.Fatalf("closed secret poll should expose the split, got %+v", res)
	}
	if res.Passed == nil || !*res.Passed {
		t.Fatalf("expected passed=true, got %+v", res.Passed)
	}
}

func TestDisclosePublicOpenPollShowsSplit(t *testing.T) {
	poll := types.Poll{ID: 3, Open: true, Visibility: types.VisibilityPublic, Majority: types.MajorityAbsolute, EligibleCount: intPtr(21)}
	res := Disclose(poll, Compute(poll, Counts{For: 11}))
	if res.Withheld || res.For == nil || *res.For != 11 {
		t.Fatalf("public poll must expose its split while open, got %+v", res)
	}
	if res.Threshold == nil || *res.Threshold != 11 || res.Majority != "absolute" {
		t.Fatalf("unexpected threshold/majority: %+v", res)
	}
}

func TestComputeQuorum(t *testing.T) {
	cases := []struct {
		eligible, present, threshold int
		met                          bool
	}{
		{21, 11, 11, true},
		{21, 10, 11, false},
		{20, 11, 11, true},
		{20, 10, 11, false},
		{0, 0, 1, false},
	}
	for _, tc := range cases {
		q := ComputeQuorum(tc.eligible, tc.present)
		if q.Threshold != tc.threshold || q.Met != tc.met {
			t.Fatalf("ComputeQuorum(%d, %d) = %+v", tc.eligible, tc.present, q)
		}
	}
}

func TestResultJSONShape(t *testing.T) {
	simple := types.Poll{ID: 4, Visibility: types.VisibilityPublic, Majority: types.MajoritySimple}
	raw, err := json.Marshal(Disclose(simple, Compute(simple, Counts{For: 1, Against: 1})))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"pollId", "open", "cast", "withheld", "for", "against", "abstain", "passed", "threshold", "majority"} {
		if _, ok := got[key]; !ok {
			t.Fatalf("disclosed result lacks %q: %s", key, raw)
		}
	}
	if got["threshold"] != nil {
		t.Fatalf("simple majority threshold should be null: %s", raw)
	}
	if got["passed"] != false || got["withheld"] != false {
		t.Fatalf("unexpected flags: %s", raw)
	}

	secret := types.Poll{ID: 5, Open: true, Visibility: types.VisibilitySecret, Majority: types.MajorityAbsolute}
	raw, err = json.Marshal(Disclose(secret, Compute(secret, Counts{For: 3})))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got = nil
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 4 || got["withheld"] != true || got["cast"] != float64(3) {
		t.Fatalf("withheld result should carry only poll, state and cast: %s", raw)
	}
}
