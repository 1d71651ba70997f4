package db

import (
	"reflect"
	"testing"
)

func TestSQL_ArgOrder(t *testing.T) {
	b := NewSelect("pages", "e").
		Columns("e.id", "e.name").
		Join("INNER JOIN x ON x.id = e.id AND x.kind = ?", "j1").
		Where("e.name LIKE ?", "w1").
		Where("e.owned_by = ?", "w2").
		OrderBy("(SELECT MAX(c.at) FROM c WHERE c.kind = ?) DESC", "o1").
		Limit(10).
		Offset(20)

	sql, args := b.SQL()

	want := "SELECT e.id, e.name FROM pages AS e" +
		" INNER JOIN x ON x.id = e.id AND x.kind = ?" +
		" WHERE (e.name LIKE ?) AND (e.owned_by = ?)" +
		" ORDER BY (SELECT MAX(c.at) FROM c WHERE c.kind = ?) DESC" +
		" LIMIT 10 OFFSET 20"
	if sql != want {
		t.Errorf("SQL:\ngot:  %s\nwant: %s", sql, want)
	}
	if !reflect.DeepEqual(args, []any{"j1", "w1", "w2", "o1"}) {
		t.Errorf("args = %v, want joins then wheres then orders", args)
	}
}

func TestSQL_Minimal(t *testing.T) {
	sql, args := NewSelect("books", "e").SQL()

	if sql != "SELECT e.* FROM books AS e" {
		t.Errorf("SQL = %q", sql)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want none", args)
	}
}

func TestSQL_OffsetWithoutLimit(t *testing.T) {
	sql, _ := NewSelect("books", "e").Offset(5).SQL()

	if sql != "SELECT e.* FROM books AS e" {
		t.Errorf("offset without limit should not render, got %q", sql)
	}
}

func TestCountSQL(t *testing.T) {
	b := NewSelect("pages", "e").
		Join("INNER JOIN x ON x.id = e.id").
		Where("e.restricted = ?", 0).
		OrderBy("e.updated_at DESC").
		Limit(10)

	sql, args := b.CountSQL()

	want := "SELECT COUNT(*) FROM pages AS e INNER JOIN x ON x.id = e.id WHERE (e.restricted = ?)"
	if sql != want {
		t.Errorf("CountSQL:\ngot:  %s\nwant: %s", sql, want)
	}
	if !reflect.DeepEqual(args, []any{0}) {
		t.Errorf("args = %v, want [0]", args)
	}
}

func TestWhereNever(t *testing.T) {
	sql, _ := NewSelect("pages", "e").WhereNever().SQL()

	if sql != "SELECT e.* FROM pages AS e WHERE (1 = 0)" {
		t.Errorf("SQL = %q", sql)
	}
}

func TestEscapeLike(t *testing.T) {
	cases := map[string]string{
		"plain":      "plain",
		"50%":        `50\%`,
		"under_sc":   `under\_sc`,
		`back\slash`: `back\\slash`,
		`%_\`:        `\%\_\\`,
	}

	for in, want := range cases {
		if got := EscapeLike(in); got != want {
			t.Errorf("EscapeLike(%q) = %q, want %q", in, got, want)
		}
	}
}
