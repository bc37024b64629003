package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
//
// Foreign keys are declared for integrity, but cascade deletes are NOT:
// deleting a list or task removes its children through explicit
// statements inside one transaction, so readers never observe a
// half-applied cascade.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS lists (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	is_default INTEGER NOT NULL DEFAULT 0 CHECK(is_default IN (0, 1)),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id           TEXT PRIMARY KEY,
	list_id      TEXT NOT NULL REFERENCES lists(id),
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'open' CHECK(status IN ('open', 'complete')),
	priority     TEXT NOT NULL DEFAULT 'medium' CHECK(priority IN ('low', 'medium', 'high')),
	due_date     DATETIME,
	recurrence   TEXT NOT NULL DEFAULT '' CHECK(recurrence IN ('', 'daily', 'weekly', 'monthly')),
	created_at   DATETIME NOT NULL,
	completed_at DATETIME,
	updated_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS subtasks (
	id         TEXT PRIMARY KEY,
	task_id    TEXT NOT NULL REFERENCES tasks(id),
	title      TEXT NOT NULL,
	done       INTEGER NOT NULL DEFAULT 0 CHECK(done IN (0, 1)),
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_list_id ON tasks(list_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks(due_date);
CREATE INDEX IF NOT EXISTS idx_subtasks_task_id ON subtasks(task_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_tasks_list_status
	ON tasks(list_id, status);

CREATE INDEX IF NOT EXISTS idx_tasks_status_due
	ON tasks(status, due_date);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
