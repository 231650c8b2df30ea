package sqlite

// SchemaSQL returns the authoritative schema. Tests load it through this
// function instead of hardcoding CREATE TABLE statements.
func SchemaSQL() string {
	return schemaSQL
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS capacity_records (
	process          TEXT NOT NULL,
	date             TEXT NOT NULL,
	shift_hours      TEXT NOT NULL,
	workstations     INTEGER NOT NULL,
	occupied_hours   TEXT NOT NULL,
	remaining_hours  TEXT NOT NULL,
	PRIMARY KEY (process, date)
);

CREATE TABLE IF NOT EXISTS scheduled_rows (
	seq                 INTEGER PRIMARY KEY AUTOINCREMENT,
	id                  TEXT NOT NULL UNIQUE,
	plan_no             TEXT NOT NULL UNIQUE,
	source_no           TEXT NOT NULL,
	product_code        TEXT NOT NULL,
	bom_id              TEXT NOT NULL DEFAULT '',
	process             TEXT NOT NULL,
	schedule_date       TEXT NOT NULL,
	required_hours      TEXT NOT NULL,
	daily_total_hours   TEXT NOT NULL,
	daily_before_hours  TEXT NOT NULL,
	scheduled_hours     TEXT NOT NULL,
	remaining_hours     TEXT NOT NULL,
	schedule_qty        INTEGER NOT NULL,
	target_qty          INTEGER NOT NULL,
	cumulative_qty      INTEGER NOT NULL DEFAULT 0,
	unscheduled_qty     INTEGER NOT NULL DEFAULT 0,
	next_schedule_date  TEXT,
	previous_plan_no    TEXT NOT NULL DEFAULT '',
	schedule_count      INTEGER NOT NULL,
	customer_order      TEXT NOT NULL DEFAULT '',
	state               INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_rows_source ON scheduled_rows(source_no);
CREATE INDEX IF NOT EXISTS idx_rows_process_date ON scheduled_rows(process, schedule_date);

CREATE TABLE IF NOT EXISTS material_requirements (
	id                 TEXT PRIMARY KEY,
	plan_no            TEXT NOT NULL,
	source_no          TEXT NOT NULL,
	parent_row_id      TEXT NOT NULL,
	material_code      TEXT NOT NULL,
	demand_qty         INTEGER NOT NULL,
	available_qty      INTEGER NOT NULL,
	replenishment_qty  INTEGER NOT NULL,
	source_process     TEXT NOT NULL DEFAULT '',
	customer_order     TEXT NOT NULL DEFAULT '',
	demand_date        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_requirements_source ON material_requirements(source_no);

CREATE TABLE IF NOT EXISTS procurement_requests (
	plan_no                TEXT PRIMARY KEY,
	source_requirement_id  TEXT NOT NULL,
	customer_order         TEXT NOT NULL,
	material_code          TEXT NOT NULL,
	required_qty           INTEGER NOT NULL,
	lead_time_days         INTEGER NOT NULL,
	plan_arrival_date      TEXT NOT NULL,
	UNIQUE (customer_order, material_code)
);
`
