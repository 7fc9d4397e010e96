package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per finished session
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			exercise TEXT NOT NULL CHECK(exercise IN ('Squats', 'Arm Raises')),
			goal INTEGER NOT NULL CHECK(goal > 0),
			count INTEGER NOT NULL DEFAULT 0,
			wrong INTEGER NOT NULL DEFAULT 0,
			right_count INTEGER NOT NULL DEFAULT 0,
			left_count INTEGER NOT NULL DEFAULT 0,
			goal_reached INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME NOT NULL,
			stopped_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
