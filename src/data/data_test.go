package data

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/esir-council/esir/src/council"
	"github.com/esir-council/esir/src/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestEnsureParam(t *testing.T) {
	cases := []struct {
		dsn, key, val, want string
	}{
		{"u:p@tcp(db:3306)/esir", "parseTime", "true", "u:p@tcp(db:3306)/esir?parseTime=true"},
		{"u:p@tcp(db:3306)/esir?tls=true", "parseTime", "true", "u:p@tcp(db:3306)/esir?tls=true&parseTime=true"},
		{"u:p@tcp(db:3306)/esir?parseTime=false", "parseTime", "true", "u:p@tcp(db:3306)/esir?parseTime=false"},
	}
	for _, tc := range cases {
		if got := ensureParam(tc.dsn, tc.key, tc.val); got != tc.want {
			t.Fatalf("ensureParam(%q) = %q, want %q", tc.dsn, got, tc.want)
		}
	}
}

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true, Logger: NewLogger()})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := Migrate(ctx, db); err != nil {
			t.Fatalf("migrate #%d: %v", i+1, err)
		}
	}
	var n int64
	if err := db.Model(&types.CouncilState{}).Count(&n).Error; err != nil {
		t.Fatalf("count state: %v", err)
	}
	if n != 1 {
		t.Fatalf("council state rows = %d, want 1", n)
	}
}

func TestSettingsCache(t *testing.T) {
	db := openSQLite(t)
	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Create(&types.Setting{Name: "council_name", Value: "Rada Miasta", Active: true}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.Create(&types.Setting{Name: "retired", Value: "x", Active: false}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := LoadSettings(db); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := GetSetting("council_name"); got != "Rada Miasta" {
		t.Fatalf("council_name = %q", got)
	}
	if got := GetSetting("retired"); got != "" {
		t.Fatalf("inactive setting leaked: %q", got)
	}

	if err := SetSetting(db, "council_name", "Rada Gminy"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := LoadSettings(db); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := GetSetting("council_name"); got != "Rada Gminy" {
		t.Fatalf("after upsert council_name = %q", got)
	}
	if all := AllSettings(); len(all) != 1 {
		t.Fatalf("unexpected cache %v", all)
	}
}

func TestEventValuesRoundTrip(t *testing.T) {
	at := time.Unix(1773334800, 0)
	values, err := eventValues(council.Event{
		Type:    council.EventVoteCast,
		PollID:  42,
		VoterID: 7,
		Fields:  map[string]interface{}{"cast": 3},
	}, at)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, ok := values["voter_id"]; ok {
		t.Fatalf("voter id must not reach the stream: %v", values)
	}

	// Redis hands every field back as a string.
	raw := make(map[string]interface{}, len(values))
	for k, v := range values {
		raw[k] = fmt.Sprint(v)
	}
	ev := parseStreamEvent("1-0", raw)
	if ev.Type != council.EventVoteCast || ev.PollID != 42 || ev.Time != at.Unix() || ev.ID == "" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if cast, ok := ev.Fields["cast"].(float64); !ok || cast != 3 {
		t.Fatalf("fields = %v", ev.Fields)
	}
}
