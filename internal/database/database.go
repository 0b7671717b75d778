package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Open connects to the SQLite file at path and runs migrations. Pragmas are
// passed in the DSN so every pooled connection enforces foreign keys.
func Open(path string) (*sql.DB, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// SQLite handles one writer and many readers in WAL mode.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates every table and index that does not exist yet.
func Migrate(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, firstLine(stmt))
		}
	}
	return nil
}

// Tables lists every application table in dependency order, parents first.
var Tables = []string{
	"categories", "sections", "master_batches", "users", "sessions", "items", "machines",
	"customers", "customer_products", "orders", "job_orders", "rolls", "raw_materials",
	"final_products", "quality_check_types", "quality_checks", "corrective_actions",
	"quality_violations", "quality_penalties", "sms_templates", "sms_notification_rules",
	"sms_messages", "mix_materials", "mix_items", "mix_machines", "modules", "permissions",
	"material_inputs", "material_input_items", "plate_pricing_parameters",
	"plate_calculations", "aba_material_configs", "time_attendance", "employee_of_month",
	"hr_violations", "hr_complaints", "maintenance_requests", "maintenance_actions",
	"maintenance_schedule", "audit_log",
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		code TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS sections (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS master_batches (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name TEXT DEFAULT '',
		email TEXT DEFAULT '',
		phone TEXT DEFAULT '',
		is_admin INTEGER DEFAULT 0,
		is_active INTEGER DEFAULT 1,
		section_id TEXT REFERENCES sections(id),
		failed_login_attempts INTEGER DEFAULT 0,
		locked_until TEXT,
		last_login TEXT,
		created_at TEXT DEFAULT (datetime('now'))
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TEXT DEFAULT (datetime('now')),
		expires_at TEXT NOT NULL,
		last_activity TEXT DEFAULT (datetime('now'))
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		category_id TEXT NOT NULL REFERENCES categories(id),
		name TEXT NOT NULL,
		full_name TEXT DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS machines (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		section_id TEXT REFERENCES sections(id),
		is_active INTEGER DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		name_ar TEXT DEFAULT '',
		user_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
		plate_drawer_code TEXT DEFAULT '',
		phone TEXT DEFAULT '',
		address TEXT DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS customer_products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id TEXT NOT NULL REFERENCES customers(id),
		category_id TEXT NOT NULL REFERENCES categories(id),
		item_id TEXT NOT NULL REFERENCES items(id),
		master_batch_id TEXT REFERENCES master_batches(id),
		size_caption TEXT DEFAULT '',
		width REAL DEFAULT 0,
		left_f REAL DEFAULT 0,
		right_f REAL DEFAULT 0,
		thickness REAL DEFAULT 0,
		printing_cylinder REAL DEFAULT 0,
		length_cm REAL DEFAULT 0,
		cutting_length REAL DEFAULT 0,
		raw_material TEXT DEFAULT '',
		printed TEXT DEFAULT '',
		cutting_unit TEXT DEFAULT '',
		unit_weight REAL DEFAULT 0,
		packing TEXT DEFAULT '',
		notes TEXT DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT DEFAULT (datetime('now')),
		customer_id TEXT NOT NULL REFERENCES customers(id),
		note TEXT DEFAULT '',
		status TEXT DEFAULT 'pending',
		user_id INTEGER REFERENCES users(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS job_orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		customer_product_id INTEGER NOT NULL REFERENCES customer_products(id),
		customer_id TEXT DEFAULT '',
		quantity REAL NOT NULL CHECK(quantity > 0),
		finished_qty REAL DEFAULT 0,
		received_qty REAL DEFAULT 0,
		status TEXT DEFAULT 'pending'
	)`,
	`CREATE TABLE IF NOT EXISTS rolls (
		id TEXT PRIMARY KEY,
		job_order_id INTEGER NOT NULL REFERENCES job_orders(id) ON DELETE CASCADE,
		serial_number TEXT NOT NULL,
		extruding_qty REAL DEFAULT 0,
		printing_qty REAL DEFAULT 0,
		cutting_qty REAL DEFAULT 0,
		waste_qty REAL DEFAULT 0,
		current_stage TEXT DEFAULT 'extrusion',
		status TEXT DEFAULT 'processing',
		created_by_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
		printed_by_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
		cut_by_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
		created_at TEXT DEFAULT (datetime('now')),
		printed_at TEXT,
		cut_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS raw_materials (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		quantity REAL DEFAULT 0 CHECK(quantity >= 0),
		unit TEXT NOT NULL,
		last_updated TEXT DEFAULT (datetime('now'))
	)`,
	`CREATE TABLE IF NOT EXISTS final_products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_order_id INTEGER NOT NULL REFERENCES job_orders(id) ON DELETE CASCADE,
		quantity REAL NOT NULL,
		completed_date TEXT DEFAULT (date('now')),
		status TEXT DEFAULT 'in-stock'
	)`,
	`CREATE TABLE IF NOT EXISTS quality_check_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT DEFAULT '',
		checklist_items TEXT DEFAULT '[]',
		parameters TEXT DEFAULT '[]',
		target_stage TEXT NOT NULL,
		is_active INTEGER DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS quality_checks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		check_type_id TEXT NOT NULL REFERENCES quality_check_types(id),
		roll_id TEXT REFERENCES rolls(id) ON DELETE SET NULL,
		job_order_id INTEGER REFERENCES job_orders(id) ON DELETE SET NULL,
		checked_by INTEGER REFERENCES users(id) ON DELETE SET NULL,
		status TEXT DEFAULT 'pending',
		notes TEXT DEFAULT '',
		checklist_results TEXT DEFAULT '[]',
		parameter_values TEXT DEFAULT '[]',
		issue_severity TEXT DEFAULT '',
		image_urls TEXT DEFAULT '[]',
		checked_at TEXT DEFAULT (datetime('now'))
	)`,
	`CREATE TABLE IF NOT EXISTS corrective_actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		quality_check_id INTEGER NOT NULL REFERENCES quality_checks(id) ON DELETE CASCADE,
		action TEXT NOT NULL,
		implemented_by INTEGER REFERENCES users(id) ON DELETE SET NULL,
		implementation_date TEXT DEFAULT '',
		verified_by INTEGER REFERENCES users(id) ON DELETE SET NULL,
		verified_date TEXT DEFAULT '',
		status TEXT DEFAULT 'open',
		notes TEXT DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS quality_violations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		quality_check_id INTEGER REFERENCES quality_checks(id) ON DELETE SET NULL,
		reported_by INTEGER NOT NULL REFERENCES users(id),
		violation_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		description TEXT NOT NULL,
		affected_area TEXT DEFAULT '',
		report_date TEXT DEFAULT (datetime('now')),
		status TEXT DEFAULT 'open',
		resolution_notes TEXT DEFAULT '',
		resolved_date TEXT DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS quality_penalties (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		violation_id INTEGER NOT NULL REFERENCES quality_violations(id) ON DELETE CASCADE,
		assigned_to INTEGER NOT NULL REFERENCES users(id),
		assigned_by INTEGER NOT NULL REFERENCES users(id),
		penalty_type TEXT NOT NULL,
		amount REAL DEFAULT 0,
		currency TEXT DEFAULT 'SAR',
		description TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT DEFAULT '',
		status TEXT DEFAULT 'pending',
		comments TEXT DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS sms_templates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT DEFAULT '',
		template TEXT NOT NULL,
		variables TEXT DEFAULT '[]',
		message_type TEXT NOT NULL,
		is_active INTEGER DEFAULT 1,
		created_by INTEGER REFERENCES users(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sms_notification_rules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		trigger_event TEXT NOT NULL,
		template_id TEXT REFERENCES sms_templates(id) ON DELETE SET NULL,
		recipient_roles TEXT DEFAULT '[]',
		conditions TEXT DEFAULT '',
		is_active INTEGER DEFAULT 1,
		priority TEXT DEFAULT 'normal',
		cooldown_minutes INTEGER DEFAULT 0,
		working_hours_only INTEGER DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS sms_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		recipient TEXT NOT NULL,
		message TEXT NOT NULL,
		status TEXT DEFAULT 'pending',
		order_id INTEGER REFERENCES orders(id) ON DELETE SET NULL,
		job_order_id INTEGER REFERENCES job_orders(id) ON DELETE SET NULL,
		customer_id TEXT REFERENCES customers(id) ON DELETE SET NULL,
		sent_by INTEGER REFERENCES users(id) ON DELETE SET NULL,
		message_type TEXT DEFAULT 'custom',
		priority TEXT DEFAULT 'normal',
		provider_id TEXT DEFAULT '',
		error_message TEXT DEFAULT '',
		retry_count INTEGER DEFAULT 0,
		created_at TEXT DEFAULT (datetime('now')),
		sent_at TEXT,
		delivered_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS mix_materials (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mix_date TEXT DEFAULT (datetime('now')),
		mix_person INTEGER REFERENCES users(id) ON DELETE SET NULL,
		total_quantity REAL DEFAULT 0,
		created_at TEXT DEFAULT (datetime('now'))
	)`,
	`CREATE TABLE IF NOT EXISTS mix_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mix_id INTEGER NOT NULL REFERENCES mix_materials(id) ON DELETE CASCADE,
		raw_material_id INTEGER NOT NULL REFERENCES raw_materials(id),
		quantity REAL NOT NULL CHECK(quantity > 0),
		percentage REAL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS mix_machines (
		mix_id INTEGER NOT NULL REFERENCES mix_materials(id) ON DELETE CASCADE,
		machine_id TEXT NOT NULL REFERENCES machines(id) ON DELETE CASCADE,
		PRIMARY KEY (mix_id, machine_id)
	)`,
	`CREATE TABLE IF NOT EXISTS modules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		description TEXT DEFAULT '',
		category TEXT DEFAULT '',
		route TEXT DEFAULT '',
		is_active INTEGER DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS permissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		section_id TEXT NOT NULL REFERENCES sections(id) ON DELETE CASCADE,
		module_id INTEGER NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
		can_view INTEGER DEFAULT 0,
		can_create INTEGER DEFAULT 0,
		can_edit INTEGER DEFAULT 0,
		can_delete INTEGER DEFAULT 0,
		is_active INTEGER DEFAULT 1,
		UNIQUE(section_id, module_id)
	)`,
	`CREATE TABLE IF NOT EXISTS material_inputs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT DEFAULT (datetime('now')),
		user_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
		note TEXT DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS material_input_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		input_id INTEGER NOT NULL REFERENCES material_inputs(id) ON DELETE CASCADE,
		raw_material_id INTEGER NOT NULL REFERENCES raw_materials(id),
		quantity REAL NOT NULL CHECK(quantity > 0)
	)`,
	`CREATE TABLE IF NOT EXISTS plate_pricing_parameters (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		value REAL NOT NULL,
		type TEXT NOT NULL,
		description TEXT DEFAULT '',
		is_active INTEGER DEFAULT 1,
		last_updated TEXT DEFAULT (datetime('now'))
	)`,
	`CREATE TABLE IF NOT EXISTS plate_calculations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id TEXT REFERENCES customers(id) ON DELETE SET NULL,
		width REAL NOT NULL,
		height REAL NOT NULL,
		area REAL NOT NULL,
		colors INTEGER DEFAULT 1,
		plate_type TEXT DEFAULT '',
		thickness REAL DEFAULT 0,
		base_price_per_unit REAL NOT NULL,
		color_multiplier REAL NOT NULL,
		thickness_multiplier REAL NOT NULL,
		customer_discount REAL DEFAULT 0,
		calculated_price REAL NOT NULL,
		notes TEXT DEFAULT '',
		created_by INTEGER REFERENCES users(id) ON DELETE SET NULL,
		created_at TEXT DEFAULT (datetime('now'))
	)`,
	`CREATE TABLE IF NOT EXISTS aba_material_configs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT DEFAULT '',
		config_data TEXT NOT NULL,
		is_default INTEGER DEFAULT 0,
		created_by INTEGER REFERENCES users(id) ON DELETE SET NULL,
		created_at TEXT DEFAULT (datetime('now'))
	)`,
	`CREATE TABLE IF NOT EXISTS time_attendance (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		check_in_time TEXT,
		check_out_time TEXT,
		check_in_location TEXT DEFAULT '',
		check_out_location TEXT DEFAULT '',
		working_hours REAL DEFAULT 0,
		overtime_hours REAL DEFAULT 0,
		status TEXT DEFAULT 'present',
		notes TEXT DEFAULT '',
		UNIQUE(user_id, date)
	)`,
	`CREATE TABLE IF NOT EXISTS employee_of_month (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		obligation_points REAL DEFAULT 0,
		quality_score REAL DEFAULT 0,
		attendance_score REAL DEFAULT 0,
		productivity_score REAL DEFAULT 0,
		total_score REAL DEFAULT 0,
		rank INTEGER DEFAULT 0,
		reward TEXT DEFAULT '',
		reward_type TEXT DEFAULT '',
		notes TEXT DEFAULT '',
		UNIQUE(user_id, month, year)
	)`,
	`CREATE TABLE IF NOT EXISTS hr_violations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		violation_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		description TEXT NOT NULL,
		action_taken TEXT DEFAULT '',
		reported_by INTEGER NOT NULL REFERENCES users(id),
		date TEXT DEFAULT (date('now')),
		status TEXT DEFAULT 'open',
		resolution_notes TEXT DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS hr_complaints (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		complainant_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		against_user_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
		complaint_type TEXT NOT NULL,
		subject TEXT NOT NULL,
		description TEXT NOT NULL,
		priority TEXT DEFAULT 'medium',
		status TEXT DEFAULT 'submitted',
		assigned_to INTEGER REFERENCES users(id) ON DELETE SET NULL,
		resolution TEXT DEFAULT '',
		is_anonymous INTEGER DEFAULT 0,
		submitted_date TEXT DEFAULT (datetime('now')),
		resolved_date TEXT DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS maintenance_requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_number TEXT NOT NULL UNIQUE,
		machine_id TEXT NOT NULL REFERENCES machines(id),
		damage_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		description TEXT NOT NULL,
		reported_by INTEGER REFERENCES users(id) ON DELETE SET NULL,
		status TEXT DEFAULT 'pending',
		priority INTEGER DEFAULT 2,
		assigned_technician INTEGER REFERENCES users(id) ON DELETE SET NULL,
		estimated_repair_time REAL DEFAULT 0,
		actual_repair_time REAL DEFAULT 0,
		notes TEXT DEFAULT '',
		created_at TEXT DEFAULT (datetime('now')),
		completed_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS maintenance_actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id INTEGER NOT NULL REFERENCES maintenance_requests(id) ON DELETE CASCADE,
		machine_id TEXT NOT NULL REFERENCES machines(id),
		action_type TEXT NOT NULL,
		part_replaced TEXT DEFAULT '',
		description TEXT NOT NULL,
		performed_by INTEGER REFERENCES users(id) ON DELETE SET NULL,
		hours REAL DEFAULT 0,
		cost REAL DEFAULT 0,
		status TEXT DEFAULT 'in_progress',
		action_date TEXT DEFAULT (datetime('now'))
	)`,
	`CREATE TABLE IF NOT EXISTS maintenance_schedule (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		machine_id TEXT NOT NULL REFERENCES machines(id) ON DELETE CASCADE,
		task_name TEXT NOT NULL,
		description TEXT DEFAULT '',
		maintenance_type TEXT DEFAULT '',
		frequency TEXT NOT NULL,
		last_completed TEXT,
		next_due TEXT NOT NULL,
		assigned_to INTEGER REFERENCES users(id) ON DELETE SET NULL,
		priority INTEGER DEFAULT 2,
		estimated_hours REAL DEFAULT 0,
		instructions TEXT DEFAULT '',
		status TEXT DEFAULT 'active'
	)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT DEFAULT 'system',
		action TEXT NOT NULL,
		module TEXT NOT NULL,
		record_id TEXT NOT NULL,
		summary TEXT DEFAULT '',
		created_at TEXT DEFAULT (datetime('now'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_items_category ON items(category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_machines_section ON machines(section_id)`,
	`CREATE INDEX IF NOT EXISTS idx_customer_products_customer ON customer_products(customer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_job_orders_order ON job_orders(order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_rolls_job_order ON rolls(job_order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_rolls_stage ON rolls(current_stage)`,
	`CREATE INDEX IF NOT EXISTS idx_quality_checks_roll ON quality_checks(roll_id)`,
	`CREATE INDEX IF NOT EXISTS idx_mix_items_mix ON mix_items(mix_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sms_messages_order ON sms_messages(order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_log_created ON audit_log(created_at)`,
}
