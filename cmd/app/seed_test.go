package main

import (
	"context"
	"testing"

	"formula/internal/dataset"
)

func seed(t *testing.T, path string) {
	t.Helper()
	ctx := context.Background()
	src, err := dataset.Open(ctx, "sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	for _, q := range []string{
		"create table items (id integer primary key, net real)",
		"insert into items (net) values (2), (10)",
	} {
		if _, err := src.Exec(ctx, q); err != nil {
			t.Fatal(err)
		}
	}
}
