package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	config "github.com/supereum/explorer-indexer/configs"
	"github.com/supereum/explorer-indexer/internal/common"
)

type PostgresConnector struct {
	db  *sql.DB
	cfg *config.PostgresConfig
}

func NewPostgresConnector(cfg *config.PostgresConfig) (*PostgresConnector, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "require"
		log.Info().Msg("No SSL mode specified, defaulting to 'require' for secure connection")
	}
	connStr += fmt.Sprintf(" sslmode=%s", sslMode)

	if cfg.ConnectTimeout > 0 {
		connStr += fmt.Sprintf(" connect_timeout=%d", cfg.ConnectTimeout)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	if cfg.MaxConnLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.MaxConnLifetime) * time.Second)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresConnector{
		db:  db,
		cfg: cfg,
	}, nil
}

func (p *PostgresConnector) Close() error {
	return p.db.Close()
}

func (p *PostgresConnector) ExecuteUnit(ctx context.Context, fn func(unit IUnit) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return persistenceError("begin unit", err)
	}

	if err := fn(&postgresUnit{ctx: ctx, tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error().Err(rbErr).Msg("Failed to roll back unit")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return persistenceError("commit unit", err)
	}
	return nil
}

func (p *PostgresConnector) GetMaxBlockNumber(ctx context.Context) (uint64, bool, error) {
	var maxNumber sql.NullInt64
	if err := p.db.QueryRowContext(ctx, `SELECT MAX(number) FROM blocks`).Scan(&maxNumber); err != nil {
		return 0, false, persistenceError("max block number", err)
	}
	if !maxNumber.Valid {
		return 0, false, nil
	}
	return uint64(maxNumber.Int64), true, nil
}

func (p *PostgresConnector) GetNetworkAggregate(ctx context.Context) (*common.NetworkAggregate, error) {
	query := `SELECT total_blocks, total_transactions, average_block_time, active_validators, last_updated
	          FROM network_stats WHERE id = 1`

	var agg common.NetworkAggregate
	err := p.db.QueryRowContext(ctx, query).Scan(
		&agg.TotalBlocks, &agg.TotalTransactions, &agg.AverageBlockTimeSeconds, &agg.ActiveValidatorCount, &agg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &common.NetworkAggregate{}, nil
	}
	if err != nil {
		return nil, persistenceError("network aggregate", err)
	}
	return &agg, nil
}

type postgresUnit struct {
	ctx context.Context
	tx  *sql.Tx
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

const blockColumns = `number, hash, previous_hash, timestamp, mined_by, validated_by,
	difficulty, total_difficulty, is_pow, size, gas_used, gas_limit,
	nonce, merkle_root, state_root, receipts_root, transaction_count`

// UpsertBlock reports a change only when its own insert succeeded or when it
// replaced a different hash on the locked row.
func (u *postgresUnit) UpsertBlock(block *common.Block) (bool, error) {
	args := []interface{}{
		block.Number, block.Hash, block.ParentHash, block.Timestamp,
		nullString(block.ProducerPoW), nullString(block.ProducerPoS),
		bigString(block.Difficulty), bigString(block.TotalDifficulty), block.ProducerPoS == "",
		block.SizeBytes, block.GasUsed, block.GasLimit,
		block.Nonce, block.MerkleRoot, block.StateRoot, block.ReceiptsRoot, block.TransactionCount,
	}

	insert := `INSERT INTO blocks (` + blockColumns + `)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	           ON CONFLICT (number) DO NOTHING
	           RETURNING number`
	var inserted uint64
	err := u.tx.QueryRowContext(u.ctx, insert, args...).Scan(&inserted)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, persistenceError("insert block", err)
	}

	var previousHash string
	err = u.tx.QueryRowContext(u.ctx, `SELECT hash FROM blocks WHERE number = $1 FOR UPDATE`, block.Number).Scan(&previousHash)
	if err != nil {
		return false, persistenceError("read block", err)
	}

	update := `UPDATE blocks SET
	             hash = $2,
	             previous_hash = $3,
	             timestamp = $4,
	             mined_by = $5,
	             validated_by = $6,
	             difficulty = $7,
	             total_difficulty = $8,
	             is_pow = $9,
	             size = $10,
	             gas_used = $11,
	             gas_limit = $12,
	             nonce = $13,
	             merkle_root = $14,
	             state_root = $15,
	             receipts_root = $16,
	             transaction_count = $17
	           WHERE number = $1`
	if _, err := u.tx.ExecContext(u.ctx, update, args...); err != nil {
		return false, persistenceError("update block", err)
	}
	return previousHash != block.Hash, nil
}

func (u *postgresUnit) EnsureAddress(address string, seenAt int64) error {
	query := `INSERT INTO addresses (address, balance, total_received, total_sent, tx_count, first_seen, last_seen)
	          VALUES ($1, 0, 0, 0, 0, $2, $2)
	          ON CONFLICT (address) DO NOTHING`
	if _, err := u.tx.ExecContext(u.ctx, query, address, seenAt); err != nil {
		return persistenceError("ensure address", err)
	}
	return nil
}

func (u *postgresUnit) UpsertTransaction(tx *common.Transaction) (bool, error) {
	var blockNumber sql.NullInt64
	if tx.BlockNumber != nil {
		if *tx.BlockNumber > math.MaxInt64 {
			return false, persistenceError("upsert transaction", fmt.Errorf("block number %d out of range", *tx.BlockNumber))
		}
		blockNumber = sql.NullInt64{Int64: int64(*tx.BlockNumber), Valid: true}
	}

	query := `INSERT INTO transactions (
	            id, block_number, block_hash, sender, receiver, amount, gas_fee,
	            gas_price, gas_limit, gas_used, tx_type, data, timestamp, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	          ON CONFLICT (id) DO UPDATE SET
	            block_number = COALESCE(EXCLUDED.block_number, transactions.block_number),
	            block_hash = COALESCE(EXCLUDED.block_hash, transactions.block_hash),
	            sender = EXCLUDED.sender,
	            receiver = EXCLUDED.receiver,
	            amount = EXCLUDED.amount,
	            gas_fee = EXCLUDED.gas_fee,
	            gas_price = EXCLUDED.gas_price,
	            gas_limit = EXCLUDED.gas_limit,
	            gas_used = EXCLUDED.gas_used,
	            tx_type = EXCLUDED.tx_type,
	            data = EXCLUDED.data,
	            timestamp = EXCLUDED.timestamp,
	            status = CASE
	              WHEN COALESCE(EXCLUDED.block_number, transactions.block_number) IS NOT NULL
	                AND EXCLUDED.status IN ('pending', 'unknown') THEN 'confirmed'
	              ELSE EXCLUDED.status
	            END
	          RETURNING (xmax = 0) AS inserted`

	var inserted bool
	err := u.tx.QueryRowContext(u.ctx, query,
		tx.Hash, blockNumber, nullString(tx.BlockHash), nullString(tx.Sender), nullString(tx.Receiver),
		tx.Amount, tx.FeePaid, tx.GasPrice, tx.GasLimit, tx.GasUsed,
		tx.Kind, tx.Data, tx.Timestamp, string(tx.Status),
	).Scan(&inserted)
	if err != nil {
		return false, persistenceError("upsert transaction", err)
	}
	return inserted, nil
}

func (u *postgresUnit) ApplyAddressDelta(delta common.AddressDelta, seenAt int64) error {
	authoritative := delta.BalanceAfter != nil
	balance := delta.ReceivedDelta.Sub(delta.SentDelta)
	if authoritative {
		balance = *delta.BalanceAfter
	}

	query := `INSERT INTO addresses (address, balance, total_received, total_sent, tx_count, first_seen, last_seen)
	          VALUES ($1, $2, $3, $4, $5, $6, $6)
	          ON CONFLICT (address) DO UPDATE SET
	            total_received = addresses.total_received + EXCLUDED.total_received,
	            total_sent = addresses.total_sent + EXCLUDED.total_sent,
	            tx_count = addresses.tx_count + EXCLUDED.tx_count,
	            balance = CASE WHEN $7 THEN EXCLUDED.balance ELSE addresses.balance + EXCLUDED.balance END,
	            last_seen = GREATEST(addresses.last_seen, EXCLUDED.last_seen)`

	_, err := u.tx.ExecContext(u.ctx, query,
		delta.Address, balance, delta.ReceivedDelta, delta.SentDelta, delta.TxCountDelta, seenAt, authoritative)
	if err != nil {
		return persistenceError("apply address delta", err)
	}
	return nil
}

func (u *postgresUnit) IncrementValidatorBlocks(address string, delta int64) error {
	query := `INSERT INTO validators (address, blocks_validated, stake, uptime, score, active)
	          VALUES ($1, $2, 0, 0, 0, TRUE)
	          ON CONFLICT (address) DO UPDATE SET
	            blocks_validated = validators.blocks_validated + EXCLUDED.blocks_validated`
	if _, err := u.tx.ExecContext(u.ctx, query, address, delta); err != nil {
		return persistenceError("increment validator", err)
	}
	return nil
}

func (u *postgresUnit) UpsertValidatorSnapshot(stat common.ValidatorStat) error {
	query := `INSERT INTO validators (address, blocks_validated, stake, uptime, score, active)
	          VALUES ($1, 0, $2, $3, $4, $5)
	          ON CONFLICT (address) DO UPDATE SET
	            stake = EXCLUDED.stake,
	            uptime = EXCLUDED.uptime,
	            score = EXCLUDED.score,
	            active = EXCLUDED.active`
	if _, err := u.tx.ExecContext(u.ctx, query, stat.Address, stat.Stake, stat.Uptime, stat.Score, stat.Active); err != nil {
		return persistenceError("upsert validator", err)
	}
	return nil
}

func (u *postgresUnit) RecentBlockTimes(limit int) ([]BlockTime, error) {
	rows, err := u.tx.QueryContext(u.ctx, `SELECT number, timestamp FROM blocks ORDER BY number DESC LIMIT $1`, limit)
	if err != nil {
		return nil, persistenceError("recent block times", err)
	}
	defer rows.Close()

	times := make([]BlockTime, 0, limit)
	for rows.Next() {
		var bt BlockTime
		if err := rows.Scan(&bt.Number, &bt.Timestamp); err != nil {
			return nil, persistenceError("scan block time", err)
		}
		times = append(times, bt)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("recent block times", err)
	}
	return times, nil
}

func (u *postgresUnit) count(query string) (uint64, error) {
	var n uint64
	if err := u.tx.QueryRowContext(u.ctx, query).Scan(&n); err != nil {
		return 0, persistenceError("count", err)
	}
	return n, nil
}

func (u *postgresUnit) CountBlocks() (uint64, error) {
	return u.count(`SELECT COUNT(*) FROM blocks`)
}

func (u *postgresUnit) CountTransactions() (uint64, error) {
	return u.count(`SELECT COUNT(*) FROM transactions`)
}

func (u *postgresUnit) CountActiveValidators() (uint64, error) {
	return u.count(`SELECT COUNT(*) FROM validators WHERE active`)
}

// aggregateLockKey identifies the transaction-scoped advisory lock guarding network_stats.
const aggregateLockKey = 7216001

func (u *postgresUnit) LockAggregate() error {
	if _, err := u.tx.ExecContext(u.ctx, `SELECT pg_advisory_xact_lock($1)`, aggregateLockKey); err != nil {
		return persistenceError("lock network aggregate", err)
	}
	return nil
}

func (u *postgresUnit) SaveNetworkAggregate(aggregate common.NetworkAggregate) error {
	query := `INSERT INTO network_stats (id, total_blocks, total_transactions, average_block_time, active_validators, last_updated)
	          VALUES (1, $1, $2, $3, $4, $5)
	          ON CONFLICT (id) DO UPDATE SET
	            total_blocks = EXCLUDED.total_blocks,
	            total_transactions = EXCLUDED.total_transactions,
	            average_block_time = EXCLUDED.average_block_time,
	            active_validators = EXCLUDED.active_validators,
	            last_updated = EXCLUDED.last_updated`
	_, err := u.tx.ExecContext(u.ctx, query,
		aggregate.TotalBlocks, aggregate.TotalTransactions, aggregate.AverageBlockTimeSeconds,
		aggregate.ActiveValidatorCount, aggregate.UpdatedAt)
	if err != nil {
		return persistenceError("save network aggregate", err)
	}
	return nil
}
