package sqlstore

import "fmt"

type queries struct {
	insert  string
	find    string
	delete  string
	cleanup string
	count   string
}

// #nosec G201 -- table names are sanitized before reaching here.
func newQueries(d Dialect, table string) queries {
	return queries{
		insert:  d.Rebind(fmt.Sprintf("INSERT INTO %s (id, body, created_at) VALUES (?, ?, ?)", table)),
		find:    d.Rebind(fmt.Sprintf("SELECT body FROM %s WHERE id = ?", table)),
		delete:  d.Rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", table)),
		cleanup: d.CleanupQuery(table),
		count:   fmt.Sprintf("SELECT COUNT(*) FROM %s", table),
	}
}
