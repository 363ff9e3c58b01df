package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"

	"lending_sim/pkg/db"
)

// Entry — недавно открытый адрес с метаданными последнего расчёта.
type Entry struct {
	Address  string
	Market   string
	LastSeen time.Time
	Meta     EntryMeta
}

// EntryMeta хранится json-ом в одной колонке.
type EntryMeta struct {
	HealthFactor  string `json:"healthFactor"`
	CollateralUSD string `json:"collateralUsd"`
	DebtUSD       string `json:"debtUsd"`
}

// Store — персистентная история адресов (кто что смотрел).
type Store struct {
	tx    db.TxManager
	limit int
}

func New(tx db.TxManager, limit int) *Store {
	if limit <= 0 {
		limit = 10
	}
	return &Store{tx: tx, limit: limit}
}

const upsertSQL = `
INSERT INTO recent_addresses (address, market, last_seen, meta)
VALUES ($1, $2, now(), $3)
ON CONFLICT (address, market)
DO UPDATE SET last_seen = now(), meta = EXCLUDED.meta`

const trimSQL = `
DELETE FROM recent_addresses
WHERE (address, market) NOT IN (
    SELECT address, market FROM recent_addresses
    ORDER BY last_seen DESC
    LIMIT $1
)`

const listSQL = `
SELECT address, market, last_seen, meta
FROM recent_addresses
ORDER BY last_seen DESC
LIMIT $1`

// Touch поднимает адрес наверх истории и подрезает хвост до лимита.
func (s *Store) Touch(ctx context.Context, entry *Entry) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("history.Touch: %w", err)
		}
	}()

	var meta []byte
	meta, err = sonic.Marshal(entry.Meta)
	if err != nil {
		return err
	}

	return s.tx.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctxTx, upsertSQL, entry.Address, entry.Market, meta); err != nil {
			return err
		}
		_, err := tx.Exec(ctxTx, trimSQL, s.limit)
		return err
	})
}

// Recent возвращает историю, новые сверху.
func (s *Store) Recent(ctx context.Context) (out []*Entry, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("history.Recent: %w", err)
		}
	}()

	err = s.tx.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctxTx, listSQL, s.limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				e    Entry
				meta []byte
			)
			if err := rows.Scan(&e.Address, &e.Market, &e.LastSeen, &meta); err != nil {
				return err
			}
			if len(meta) > 0 {
				if err := sonic.Unmarshal(meta, &e.Meta); err != nil {
					return err
				}
			}
			out = append(out, &e)
		}
		return rows.Err()
	})
	return out, err
}
