package store

// TableName is the ledger table.
const TableName = "mazaneh_prices"

const createTableSQL = `
CREATE TABLE IF NOT EXISTS mazaneh_prices (
	id                   BIGSERIAL PRIMARY KEY,
	price                BIGINT NOT NULL,
	created_at_gregorian TEXT   NOT NULL,
	created_at_shamsi    TEXT   NOT NULL
)`

const (
	insertSQL = `
		INSERT INTO mazaneh_prices (price, created_at_gregorian, created_at_shamsi)
		VALUES ($1, $2, $3)
		RETURNING id`

	latestSQL = `
		SELECT id, price, created_at_gregorian, created_at_shamsi
		FROM mazaneh_prices
		ORDER BY id DESC
		LIMIT 1`

	sizeSQL  = `SELECT pg_total_relation_size('mazaneh_prices')`
	countSQL = `SELECT count(*) FROM mazaneh_prices`

	deleteOldestSQL = `
		DELETE FROM mazaneh_prices
		WHERE id IN (SELECT id FROM mazaneh_prices ORDER BY id ASC LIMIT $1)`

	compactSQL = `VACUUM FULL mazaneh_prices`
)
