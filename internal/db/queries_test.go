package db

import (
	"context"
	"database/sql"
	"testing"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestGet_Missing(t *testing.T) {
	database := setupDB(t)

	value, found, err := Get(context.Background(), database, "flowfocus.notes")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Errorf("found = true for missing key, value %q", value)
	}
}

func TestPutGet_RoundTrip(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()

	if err := Put(ctx, database, "flowfocus.notes", []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	value, found, err := Get(ctx, database, "flowfocus.notes")
	if err != nil || !found {
		t.Fatalf("Get() = %v, %v", found, err)
	}
	if string(value) != `[{"id":"a"}]` {
		t.Errorf("value = %s", value)
	}
}

func TestPut_Overwrites(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()

	for _, v := range []string{`[1]`, `[1,2]`} {
		if err := Put(ctx, database, "k", []byte(v)); err != nil {
			t.Fatalf("Put(%s) error = %v", v, err)
		}
	}
	value, _, _ := Get(ctx, database, "k")
	if string(value) != `[1,2]` {
		t.Errorf("value = %s, want [1,2]", value)
	}

	rows, err := List(ctx, database)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("len(rows) = %d, want 1", len(rows))
	}
}

func TestDeleteAndList(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()

	_ = Put(ctx, database, "b", []byte(`[]`))
	_ = Put(ctx, database, "a", []byte(`[]`))

	rows, err := List(ctx, database)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(rows) != 2 || rows[0].Key != "a" || rows[1].Key != "b" {
		t.Fatalf("rows = %+v, want a,b", rows)
	}
	if rows[0].UpdatedAt == 0 {
		t.Error("UpdatedAt not set")
	}

	if err := Delete(ctx, database, "a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := Delete(ctx, database, "missing"); err != nil {
		t.Fatalf("Delete(missing) error = %v", err)
	}
	_, found, _ := Get(ctx, database, "a")
	if found {
		t.Error("key a still present after delete")
	}
}
