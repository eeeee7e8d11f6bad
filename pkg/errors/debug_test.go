package errors

import (
	stdErrors "errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpExtractsPgxDetails(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "offer_scopes_pkey", TableName: "offer_scopes"}
	err := Wrap(CodeDependency, pgErr, "insert scopes")

	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", d.Code)
	}
	if d.PGCode != "23505" || d.PGConstraint != "offer_scopes_pkey" || d.PGTable != "offer_scopes" {
		t.Fatalf("unexpected pg details %+v", d)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected chain of 2, got %v", d.Chain)
	}
	if d.Fields()["pg_code"] != "23505" {
		t.Fatalf("expected pg_code field, got %v", d.Fields())
	}
}

func TestDumpExtractsPqDetails(t *testing.T) {
	err := Wrap(CodeDependency, &pq.Error{Code: "23503", Table: "offers"}, "delete offer")
	d := Dump(err)
	if d.PGCode != "23503" || d.PGTable != "offers" {
		t.Fatalf("unexpected pq details %+v", d)
	}
}

func TestDumpPlainError(t *testing.T) {
	d := Dump(stdErrors.New("plain"))
	if d.Code != "" || d.PGCode != "" {
		t.Fatalf("expected no code details, got %+v", d)
	}
	if _, ok := d.Fields()["pg_code"]; ok {
		t.Fatal("expected pg fields to be omitted")
	}
	if Dump(nil).TopMessage != "" {
		t.Fatal("expected empty dump for nil")
	}
}
