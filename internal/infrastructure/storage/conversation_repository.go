package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wupeiyao/larkchat/internal/domain/conversation"
)

// ConversationRepository base_conversation 表的 SQLite 仓储实现
type ConversationRepository struct {
	db *sql.DB
	tx *sql.Tx
}

var _ conversation.Repository = (*ConversationRepository)(nil)

// NewConversationRepository 创建会话仓储实例
func NewConversationRepository(db *sql.DB) (*ConversationRepository, error) {
	if err := initConversationTable(db); err != nil {
		return nil, err
	}
	return &ConversationRepository{db: db}, nil
}

// initConversationTable 初始化会话表
func initConversationTable(db *sql.DB) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS base_conversation (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		created_time INTEGER NOT NULL,
		updated_time INTEGER NOT NULL
	);`

	if _, err := db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create base_conversation table: %w", err)
	}

	createIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_base_conversation_created ON base_conversation(created_time);`

	if _, err := db.Exec(createIndexSQL); err != nil {
		return fmt.Errorf("failed to create base_conversation index: %w", err)
	}
	return nil
}

func (r *ConversationRepository) q() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// Create 新建会话，回填 ID 和时间戳
func (r *ConversationRepository) Create(ctx context.Context, c *conversation.Conversation) error {
	now := time.Now()
	res, err := r.q().ExecContext(ctx, `
		INSERT INTO base_conversation (conversation_id, title, content, created_time, updated_time)
		VALUES (?, ?, ?, ?, ?)`,
		c.ConversationID, c.Title, c.Content, now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted id: %w", err)
	}
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

// FindByConversationID 按会话 ID 查询
func (r *ConversationRepository) FindByConversationID(ctx context.Context, conversationID string) (*conversation.Conversation, error) {
	query := `
		SELECT id, conversation_id, title, content, created_time, updated_time
		FROM base_conversation
		WHERE conversation_id = ?`

	c, err := scanConversation(r.q().QueryRowContext(ctx, query, conversationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", conversation.ErrConversationNotFound, conversationID)
		}
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	return c, nil
}

// List 按创建时间升序列出全部会话
func (r *ConversationRepository) List(ctx context.Context) ([]*conversation.Conversation, error) {
	query := `
		SELECT id, conversation_id, title, content, created_time, updated_time
		FROM base_conversation
		ORDER BY created_time ASC, id ASC`

	rows, err := r.q().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	list := make([]*conversation.Conversation, 0)
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}
	return list, nil
}

// UpdateTitle 更新标题
func (r *ConversationRepository) UpdateTitle(ctx context.Context, conversationID, title string) error {
	return r.updateColumn(ctx, conversationID, "title", title)
}

// UpdateContent 覆盖消息内容
func (r *ConversationRepository) UpdateContent(ctx context.Context, conversationID, content string) error {
	return r.updateColumn(ctx, conversationID, "content", content)
}

// updateColumn column 只由本文件传入，不接受外部输入
func (r *ConversationRepository) updateColumn(ctx context.Context, conversationID, column, value string) error {
	query := `UPDATE base_conversation SET ` + column + ` = ?, updated_time = ? WHERE conversation_id = ?`
	res, err := r.q().ExecContext(ctx, query, value, time.Now().UnixMilli(), conversationID)
	if err != nil {
		return fmt.Errorf("failed to update conversation %s: %w", column, err)
	}
	return expectAffected(res, conversationID)
}

// Delete 删除会话
func (r *ConversationRepository) Delete(ctx context.Context, conversationID string) error {
	res, err := r.q().ExecContext(ctx, `DELETE FROM base_conversation WHERE conversation_id = ?`, conversationID)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return expectAffected(res, conversationID)
}

// Transact 在单个事务中执行 fn
func (r *ConversationRepository) Transact(ctx context.Context, fn func(repo conversation.Repository) error) error {
	return withTx(ctx, r.db, r.tx, func(tx *sql.Tx) error {
		return fn(&ConversationRepository{db: r.db, tx: tx})
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*conversation.Conversation, error) {
	var (
		c                    conversation.Conversation
		createdAt, updatedAt int64
	)
	if err := row.Scan(&c.ID, &c.ConversationID, &c.Title, &c.Content, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = time.UnixMilli(createdAt)
	c.UpdatedAt = time.UnixMilli(updatedAt)
	return &c, nil
}

func expectAffected(res sql.Result, conversationID string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", conversation.ErrConversationNotFound, conversationID)
	}
	return nil
}
