package cleanup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

type fakeResult struct {
	rowsAffected int64
}

func (r *fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r *fakeResult) RowsAffected() (int64, error) { return r.rowsAffected, nil }

// Executor インターフェースに対するモック実装
type mockExecutor struct {
	queries []string
	args    [][]interface{}
	result  sql.Result
	err     error
}

func (m *mockExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	m.queries = append(m.queries, query)
	m.args = append(m.args, args)
	return m.result, m.err
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func TestNewJob_DefaultRetentionDays(t *testing.T) {
	var buf bytes.Buffer
	job := NewJob(&mockExecutor{result: &fakeResult{}}, newTestLogger(&buf), 0)

	if job.retentionDays != 180 {
		t.Errorf("retentionDays = %d, want 180", job.retentionDays)
	}
}

func TestJob_Name(t *testing.T) {
	var buf bytes.Buffer
	job := NewJob(&mockExecutor{result: &fakeResult{}}, newTestLogger(&buf), 0)

	if job.Name() != "cleanup-derived-rows" {
		t.Errorf("Name() = %q, want %q", job.Name(), "cleanup-derived-rows")
	}
}

// インサイトと予測の両方に対してDELETEが発行されること
func TestJob_RunOnce_DeletesDerivedRows(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockExecutor{result: &fakeResult{rowsAffected: 5}}
	job := NewJob(mock, newTestLogger(&buf), 90)

	if err := job.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	if len(mock.queries) != 2 {
		t.Fatalf("発行されたクエリ = %d, want 2", len(mock.queries))
	}
	if !strings.Contains(mock.queries[0], "DELETE FROM insights") {
		t.Errorf("1つ目のクエリはinsightsのDELETEであるべき: %q", mock.queries[0])
	}
	if !strings.Contains(mock.queries[1], "DELETE FROM predictions") {
		t.Errorf("2つ目のクエリはpredictionsのDELETEであるべき: %q", mock.queries[1])
	}
	for i, query := range mock.queries {
		if !strings.Contains(query, "created_at <") {
			t.Errorf("クエリ%dは保持期間条件を含むべき: %q", i, query)
		}
	}
}

// 保持期間がintervalパラメータとして渡されること
func TestJob_RunOnce_PassesRetentionInterval(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockExecutor{result: &fakeResult{}}
	job := NewJob(mock, newTestLogger(&buf), 90)

	if err := job.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	for i, args := range mock.args {
		if len(args) != 1 {
			t.Fatalf("クエリ%dの引数 = %d, want 1", i, len(args))
		}
		if args[0] != "90 days" {
			t.Errorf("クエリ%dのinterval = %v, want %q", i, args[0], "90 days")
		}
	}
}

// ユーザーが入力したテーブルを削除対象にしないこと
func TestJob_RunOnce_DoesNotTouchUserData(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockExecutor{result: &fakeResult{}}
	job := NewJob(mock, newTestLogger(&buf), 0)

	if err := job.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	protected := []string{"health_records", "vital_signs", "medications", "appointments", "users"}
	for _, query := range mock.queries {
		for _, table := range protected {
			if strings.Contains(query, table) {
				t.Errorf("ユーザー入力テーブル %q を削除対象にしてはならない: %q", table, query)
			}
		}
	}
}

func TestJob_RunOnce_ExecFailureReturnsError(t *testing.T) {
	var buf bytes.Buffer
	mock := &mockExecutor{err: errors.New("connection refused")}
	job := NewJob(mock, newTestLogger(&buf), 0)

	if err := job.RunOnce(context.Background()); err == nil {
		t.Fatal("DELETE失敗はエラーを返すべき")
	}
}
