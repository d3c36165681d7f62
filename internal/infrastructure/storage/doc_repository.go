package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wupeiyao/larkchat/internal/domain/doc"
)

// DocRepository base_doc 表的 SQLite 仓储实现
type DocRepository struct {
	db *sql.DB
	tx *sql.Tx // 非空表示绑定在事务上
}

var _ doc.Repository = (*DocRepository)(nil)

// NewDocRepository 创建文档仓储实例
func NewDocRepository(db *sql.DB) (*DocRepository, error) {
	if err := initDocTable(db); err != nil {
		return nil, err
	}
	return &DocRepository{db: db}, nil
}

// initDocTable 初始化文档表
func initDocTable(db *sql.DB) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS base_doc (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		doc_id TEXT NOT NULL UNIQUE,
		vector_doc_id TEXT,
		doc_name TEXT NOT NULL,
		url TEXT NOT NULL,
		modified_time TEXT NOT NULL,
		created_time INTEGER NOT NULL,
		updated_time INTEGER NOT NULL
	);`

	if _, err := db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create base_doc table: %w", err)
	}
	return nil
}

func (r *DocRepository) q() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// ListAll 列出全部文档
func (r *DocRepository) ListAll(ctx context.Context) ([]*doc.LocalDoc, error) {
	query := `
		SELECT id, doc_id, vector_doc_id, doc_name, url, modified_time, created_time, updated_time
		FROM base_doc
		ORDER BY id`

	rows, err := r.q().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query docs: %w", err)
	}
	defer rows.Close()

	docs := make([]*doc.LocalDoc, 0)
	for rows.Next() {
		var (
			d                    doc.LocalDoc
			vectorDocID          sql.NullString
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&d.ID, &d.DocID, &vectorDocID, &d.Name, &d.URL, &d.ModifiedAt, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan doc: %w", err)
		}
		d.VectorDocID = vectorDocID.String
		d.CreatedAt = time.UnixMilli(createdAt)
		d.UpdatedAt = time.UnixMilli(updatedAt)
		docs = append(docs, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate docs: %w", err)
	}

	return docs, nil
}

// SaveBatch 批量新增，回填 ID 和时间戳
func (r *DocRepository) SaveBatch(ctx context.Context, docs []*doc.LocalDoc) error {
	if len(docs) == 0 {
		return nil
	}

	return withTx(ctx, r.db, r.tx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO base_doc
			(doc_id, vector_doc_id, doc_name, url, modified_time, created_time, updated_time)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		now := time.Now()
		for _, d := range docs {
			res, err := stmt.ExecContext(ctx,
				d.DocID,
				nullString(d.VectorDocID),
				d.Name,
				d.URL,
				d.ModifiedAt,
				now.UnixMilli(),
				now.UnixMilli(),
			)
			if err != nil {
				return fmt.Errorf("failed to insert doc %s: %w", d.DocID, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to get inserted id: %w", err)
			}
			d.ID = id
			d.CreatedAt = now
			d.UpdatedAt = now
		}
		return nil
	})
}

// UpdateBatchByID 按自增 ID 批量更新
func (r *DocRepository) UpdateBatchByID(ctx context.Context, docs []*doc.LocalDoc) error {
	if len(docs) == 0 {
		return nil
	}

	return withTx(ctx, r.db, r.tx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			UPDATE base_doc
			SET doc_id = ?, vector_doc_id = ?, doc_name = ?, url = ?, modified_time = ?, updated_time = ?
			WHERE id = ?`)
		if err != nil {
			return fmt.Errorf("failed to prepare update: %w", err)
		}
		defer stmt.Close()

		now := time.Now()
		for _, d := range docs {
			res, err := stmt.ExecContext(ctx,
				d.DocID,
				nullString(d.VectorDocID),
				d.Name,
				d.URL,
				d.ModifiedAt,
				now.UnixMilli(),
				d.ID,
			)
			if err != nil {
				return fmt.Errorf("failed to update doc %s: %w", d.DocID, err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get affected rows: %w", err)
			}
			if affected == 0 {
				return fmt.Errorf("failed to update doc %s: no row with id %d", d.DocID, d.ID)
			}
			d.UpdatedAt = now
		}
		return nil
	})
}

// RemoveByDocIDs 按远端文档 ID 批量删除
func (r *DocRepository) RemoveByDocIDs(ctx context.Context, docIDs []string) error {
	if len(docIDs) == 0 {
		return nil
	}

	return withTx(ctx, r.db, r.tx, func(tx *sql.Tx) error {
		for _, chunk := range chunkStrings(docIDs, 500) {
			args := make([]any, len(chunk))
			for i, id := range chunk {
				args[i] = id
			}
			query := `DELETE FROM base_doc WHERE doc_id IN (` + placeholders(len(chunk)) + `)`
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to delete docs: %w", err)
			}
		}
		return nil
	})
}

// Transact 在单个事务中执行 fn
func (r *DocRepository) Transact(ctx context.Context, fn func(repo doc.Repository) error) error {
	return withTx(ctx, r.db, r.tx, func(tx *sql.Tx) error {
		return fn(&DocRepository{db: r.db, tx: tx})
	})
}

// nullString 空字符串存为 NULL
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
