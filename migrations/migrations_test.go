package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedSchema(t *testing.T) {
	files, err := fs.Glob(FS, "*.sql")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no migrations embedded")
	}

	data, err := fs.ReadFile(FS, "001_init.sql")
	if err != nil {
		t.Fatal(err)
	}
	for _, table := range []string{"riders", "drivers", "wallets", "rides"} {
		if !strings.Contains(string(data), "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Errorf("001_init.sql does not create %s", table)
		}
	}
}
