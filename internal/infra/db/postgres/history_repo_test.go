package postgres

import (
	"context"
	"database/sql/driver"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	domain "github.com/bryanwahyu/phish-detector/internal/domain/history"
	"github.com/bryanwahyu/phish-detector/internal/infra/db/dbtest"
)

func TestHistoryRepository_EnsureSchema(t *testing.T) {
	db, drv := dbtest.Open()
	defer db.Close()
	if err := NewHistoryRepository(db).EnsureSchema(context.Background()); err != nil {
		t.Fatal(err)
	}
	execs := drv.Execs()
	if len(execs) != 1 || !strings.Contains(execs[0].Query, "threats      TEXT[]") {
		t.Errorf("execs = %+v", execs)
	}
}

func TestHistoryRepository_SaveEncodesArray(t *testing.T) {
	db, drv := dbtest.Open()
	defer db.Close()

	at := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	err := NewHistoryRepository(db).Save(context.Background(), &domain.Record{
		ID:          "r1",
		SessionID:   "sess-1",
		ContentType: "email",
		RiskLevel:   "medium",
		Confidence:  87,
		Threats:     []string{`Contains urgency keyword: "urgent"`, "Suspicious domain detected"},
		TextDigest:  "d1",
		TextLength:  40,
		CreatedAt:   at,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	args := drv.Execs()[0].Args
	if args[0] != "r1" || args[1] != "sess-1" || args[4] != int64(87) || args[9] != at {
		t.Errorf("args = %#v", args)
	}
	if got, want := args[5], `{"Contains urgency keyword: \"urgent\"","Suspicious domain detected"}`; got != want {
		t.Errorf("threats arg = %#v, want %#v", got, want)
	}
}

func TestHistoryRepository_SaveNilThreats(t *testing.T) {
	db, drv := dbtest.Open()
	defer db.Close()
	if err := NewHistoryRepository(db).Save(context.Background(), &domain.Record{ID: "r1"}); err != nil {
		t.Fatal(err)
	}
	args := drv.Execs()[0].Args
	if args[5] != "{}" {
		t.Errorf("threats arg = %#v, want {}", args[5])
	}
	if _, ok := args[9].(time.Time); !ok {
		t.Errorf("created_at arg = %#v", args[9])
	}
}

func TestHistoryRepository_PaginateScansArray(t *testing.T) {
	db, drv := dbtest.Open()
	defer db.Close()
	at := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	drv.OnQuery("FROM verdict_history", dbtest.Rows{
		Columns: []string{"id", "session_id", "content_type", "risk_level", "confidence",
			"threats", "text_digest", "text_length", "report_url", "created_at"},
		Values: [][]driver.Value{
			{"r1", "", "sms", "high", int64(93), []byte(`{"SMS contains links","Reply STOP"}`), "d1", int64(9), "", at},
			{"r0", "", "url", "low", int64(85), []byte(`{}`), "d0", int64(3), "", at},
		},
	})

	got, err := NewHistoryRepository(db).Paginate(context.Background(), 1, 20)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if !reflect.DeepEqual(got[0].Threats, []string{"SMS contains links", "Reply STOP"}) {
		t.Errorf("threats = %q", got[0].Threats)
	}
	if got[1].Threats == nil || len(got[1].Threats) != 0 {
		t.Errorf("empty array = %#v", got[1].Threats)
	}
	if got[0].ID != "r1" || !got[0].CreatedAt.Equal(at) {
		t.Errorf("first = %+v", got[0])
	}
	if q := drv.Queries()[0]; q.Args[0] != int64(20) || q.Args[1] != int64(0) {
		t.Errorf("limit/offset = %v", q.Args)
	}
}

func TestHistoryRepository_PaginateHugePage(t *testing.T) {
	db, drv := dbtest.Open()
	defer db.Close()
	got, err := NewHistoryRepository(db).Paginate(context.Background(), math.MaxInt, 20)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("Paginate = %v, %v", got, err)
	}
	if len(drv.Queries()) != 0 {
		t.Error("overflowing page should not reach the database")
	}
}
