package cli

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/cadence/internal/config"
	"github.com/julianstephens/cadence/internal/constants"
	apperrors "github.com/julianstephens/cadence/internal/errors"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/storage"
)

func TestParseWeekdays(t *testing.T) {
	tests := []struct {
		input   string
		want    []time.Weekday
		wantErr bool
	}{
		{"mon,wed,fri", []time.Weekday{time.Monday, time.Wednesday, time.Friday}, false},
		{"Sunday, SAT", []time.Weekday{time.Sunday, time.Saturday}, false},
		{"", nil, false},
		{"mon,funday", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseWeekdays(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWeekdays() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseWeekdays() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseWeekdays()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseMonthDays(t *testing.T) {
	got, err := ParseMonthDays("1, 15,31")
	if err != nil || len(got) != 3 || got[2] != 31 {
		t.Errorf("ParseMonthDays() = %v, %v", got, err)
	}
	for _, bad := range []string{"0", "32", "x"} {
		if _, err := ParseMonthDays(bad); err == nil {
			t.Errorf("ParseMonthDays(%q) should fail", bad)
		}
	}
}

func TestParseDayOfYear(t *testing.T) {
	got, err := ParseDayOfYear("02-29")
	if err != nil || got.Month != time.February || got.Day != 29 {
		t.Errorf("ParseDayOfYear() = %+v, %v", got, err)
	}
	if _, err := ParseDayOfYear("13-01"); err == nil {
		t.Error("ParseDayOfYear(13-01) should fail")
	}
}

func TestResolveDatabase(t *testing.T) {
	cfg := config.Config{Database: "/home/u/.config/cadence/cadence.db"}
	fromKeyring := func() (string, error) { return "postgres://u@keyring/cadence", nil }
	noKeyring := func() (string, error) { return "", errors.New("not found") }

	tests := []struct {
		name    string
		flag    string
		envDB   string
		envConn string
		keyring func() (string, error)
		want    string
	}{
		{"flag wins", "/tmp/flag.db", "/env.db", "postgres://u@env/cadence", fromKeyring, "/tmp/flag.db"},
		{"env db before connection", "", "/env.db", "postgres://u@env/cadence", fromKeyring, cfg.Database},
		{"env connection", "", "", "postgres://u@env/cadence", fromKeyring, "postgres://u@env/cadence"},
		{"keyring", "", "", "", fromKeyring, "postgres://u@keyring/cadence"},
		{"config fallback", "", "", "", noKeyring, cfg.Database},
		{"no keyring func", "", "", "", nil, cfg.Database},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(constants.EnvDB, tt.envDB)
			t.Setenv(constants.EnvDBConn, tt.envConn)
			if got := ResolveDatabase(tt.flag, cfg, tt.keyring); got != tt.want {
				t.Errorf("ResolveDatabase() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFindTask(t *testing.T) {
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "tasks.json"))
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	for _, id := range []string{"abc123", "abd456", "xyz789"} {
		task := models.Task{ID: id, Title: id, Priority: 3, DueDate: now, Status: models.StatusPending, CreatedAt: now}
		if err := store.AddTask(task); err != nil {
			t.Fatal(err)
		}
	}
	ctx := NewContext(store, config.Config{Timezone: "UTC"})

	if task, err := ctx.FindTask("abc123"); err != nil || task.ID != "abc123" {
		t.Errorf("exact match = %v, %v", task.ID, err)
	}
	if task, err := ctx.FindTask("xy"); err != nil || task.ID != "xyz789" {
		t.Errorf("prefix match = %v, %v", task.ID, err)
	}
	if _, err := ctx.FindTask("ab"); err == nil {
		t.Error("ambiguous prefix should fail")
	}
	if _, err := ctx.FindTask("nope"); !errors.Is(err, apperrors.ErrTaskNotFound) {
		t.Errorf("missing task error = %v, want ErrTaskNotFound", err)
	}
}

func TestPoints(t *testing.T) {
	if got := Points(0); got != "0" {
		t.Errorf("Points(0) = %q", got)
	}
}
