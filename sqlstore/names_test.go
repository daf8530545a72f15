package sqlstore

import "testing"

func TestSanitizeTableName(t *testing.T) {
	valid := []string{"outbox_messages", "schema.outbox", "OUTBOX_1"}
	for _, name := range valid {
		if _, err := SanitizeTableName(name); err != nil {
			t.Fatalf("expected valid name %q: %v", name, err)
		}
	}

	invalid := []string{"", "outbox;drop", "outbox-1", "schema..outbox", "schema.outbox;", "outbox messages"}
	for _, name := range invalid {
		if _, err := SanitizeTableName(name); err == nil {
			t.Fatalf("expected invalid name %q", name)
		}
	}
}

func TestIndexAndSplitTableName(t *testing.T) {
	if got := IndexName("app.outbox", "created_at"); got != "idx_app_outbox_created_at" {
		t.Fatalf("unexpected index name: %s", got)
	}
	schema, name := SplitTableName("app.outbox")
	if schema != "app" || name != "outbox" {
		t.Fatalf("unexpected split: %q %q", schema, name)
	}
	schema, name = SplitTableName("outbox")
	if schema != "" || name != "outbox" {
		t.Fatalf("unexpected split: %q %q", schema, name)
	}
}

func TestRebindDollar(t *testing.T) {
	got := RebindDollar("DELETE FROM t WHERE id IN (SELECT id FROM t WHERE created_at <= ? LIMIT ?)")
	want := "DELETE FROM t WHERE id IN (SELECT id FROM t WHERE created_at <= $1 LIMIT $2)"
	if got != want {
		t.Fatalf("unexpected query:\n%s\n%s", got, want)
	}
}
