package postgresql

// migrations returns the schema migrations for the run-state store, keyed by
// version.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS runs (
				run_id     VARCHAR(255) PRIMARY KEY,
				strategy   VARCHAR(255) NOT NULL,
				symbol     VARCHAR(64),
				timeframe  VARCHAR(32),
				state      JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs (created_at DESC);
			CREATE INDEX IF NOT EXISTS idx_runs_strategy ON runs (strategy);
		`,
	}
}
