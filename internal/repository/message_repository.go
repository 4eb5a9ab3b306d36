package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"disaster-response-go/internal/apperr"
	"disaster-response-go/internal/model"

	"gorm.io/gorm"
)

// MessageRepository 定义了对结构化消息表的数据操作接口。
// 类别列随数据而定，因此表结构在写入时按 MessageTable 动态生成。
type MessageRepository interface {
	Replace(ctx context.Context, table *model.MessageTable) error
	Load(ctx context.Context) (*model.MessageTable, error)
}

type messageRepository struct {
	db    *gorm.DB
	table string
}

// NewMessageRepository 创建一个新的 MessageRepository 实例。
func NewMessageRepository(db *gorm.DB, table string) MessageRepository {
	return &messageRepository{db: db, table: table}
}

// Replace 以覆盖方式写入整张表：删除旧表、按列重建、分批插入。
func (r *messageRepository) Replace(ctx context.Context, table *model.MessageTable) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Migrator().HasTable(r.table) {
			if err := tx.Migrator().DropTable(r.table); err != nil {
				return fmt.Errorf("删除旧表 %s 失败: %w", r.table, err)
			}
		}
		if err := tx.Exec(r.createTableSQL(tx, table)).Error; err != nil {
			return fmt.Errorf("创建表 %s 失败: %w", r.table, err)
		}

		rows := make([]map[string]interface{}, 0, len(table.Records))
		for _, rec := range table.Records {
			rows = append(rows, toRow(table.Categories, rec))
		}
		if len(rows) == 0 {
			return nil
		}
		// 每200条记录一批，避免超出 sqlite 的绑定变量上限
		return tx.Table(r.table).CreateInBatches(rows, 200).Error
	})
}

// Load 按存储顺序读取整张表。
func (r *messageRepository) Load(ctx context.Context) (*model.MessageTable, error) {
	db := r.db.WithContext(ctx)
	if !db.Migrator().HasTable(r.table) {
		return nil, fmt.Errorf("表 %s 不存在: %w", r.table, apperr.ErrInputNotFound)
	}

	rows, err := db.Table(r.table).Rows()
	if err != nil {
		return nil, fmt.Errorf("读取表 %s 失败: %w", r.table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	layout, err := newColumnLayout(cols)
	if err != nil {
		return nil, err
	}

	table := &model.MessageTable{Categories: layout.categories}
	for rows.Next() {
		dest := layout.newScanDest()
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("扫描表 %s 失败: %w", r.table, err)
		}
		rec, err := layout.record(dest)
		if err != nil {
			return nil, err
		}
		table.Records = append(table.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

func (r *messageRepository) createTableSQL(tx *gorm.DB, table *model.MessageTable) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	tx.Dialector.QuoteTo(&b, r.table)
	b.WriteString(" (")
	for i, col := range table.Columns() {
		if i > 0 {
			b.WriteString(", ")
		}
		tx.Dialector.QuoteTo(&b, col)
		b.WriteByte(' ')
		b.WriteString(columnType(col))
	}
	b.WriteString(")")
	return b.String()
}

func columnType(col string) string {
	switch col {
	case model.ColumnID:
		return "BIGINT"
	case model.ColumnMessage, model.ColumnOriginal, model.ColumnGenre:
		return "TEXT"
	default:
		return "INTEGER"
	}
}

func toRow(categories []string, rec model.MessageRecord) map[string]interface{} {
	row := make(map[string]interface{}, len(model.FixedColumns)+len(categories))
	row[model.ColumnID] = rec.ID
	row[model.ColumnMessage] = rec.Message
	row[model.ColumnOriginal] = sql.NullString{String: rec.Original, Valid: rec.Original != ""}
	row[model.ColumnGenre] = rec.Genre
	row[model.ColumnGenreDirect] = rec.Direct
	row[model.ColumnGenreNews] = rec.News
	row[model.ColumnGenreSocial] = rec.Social
	for i, name := range categories {
		row[name] = rec.Labels[i]
	}
	return row
}

// columnLayout 记录查询结果中每一列的含义。
type columnLayout struct {
	columns    []string
	fixed      map[string]int
	categories []string
	catIndex   []int
}

func newColumnLayout(cols []string) (*columnLayout, error) {
	l := &columnLayout{columns: cols, fixed: make(map[string]int)}
	isFixed := make(map[string]bool, len(model.FixedColumns))
	for _, c := range model.FixedColumns {
		isFixed[c] = true
	}
	for i, c := range cols {
		if isFixed[c] {
			l.fixed[c] = i
			continue
		}
		l.categories = append(l.categories, c)
		l.catIndex = append(l.catIndex, i)
	}
	for _, c := range model.FixedColumns {
		if _, ok := l.fixed[c]; !ok {
			return nil, fmt.Errorf("缺少列 %s: %w", c, apperr.ErrSchemaMismatch)
		}
	}
	if len(l.categories) == 0 {
		return nil, fmt.Errorf("没有任何类别列: %w", apperr.ErrSchemaMismatch)
	}
	return l, nil
}

func (l *columnLayout) newScanDest() []interface{} {
	dest := make([]interface{}, len(l.columns))
	for i, c := range l.columns {
		switch c {
		case model.ColumnMessage, model.ColumnOriginal, model.ColumnGenre:
			dest[i] = new(sql.NullString)
		default:
			dest[i] = new(sql.NullInt64)
		}
	}
	return dest
}

func (l *columnLayout) record(dest []interface{}) (model.MessageRecord, error) {
	str := func(col string) string { return dest[l.fixed[col]].(*sql.NullString).String }
	num := func(i int) int64 { return dest[i].(*sql.NullInt64).Int64 }

	rec := model.MessageRecord{
		ID:       num(l.fixed[model.ColumnID]),
		Message:  str(model.ColumnMessage),
		Original: str(model.ColumnOriginal),
		Genre:    str(model.ColumnGenre),
		GenreIndicators: model.GenreIndicators{
			Direct: uint8(num(l.fixed[model.ColumnGenreDirect])),
			News:   uint8(num(l.fixed[model.ColumnGenreNews])),
			Social: uint8(num(l.fixed[model.ColumnGenreSocial])),
		},
		Labels: make([]uint8, len(l.catIndex)),
	}
	for j, i := range l.catIndex {
		v := num(i)
		if v != 0 && v != 1 {
			return rec, fmt.Errorf("消息 %d 的类别 %s 取值 %d 非二值: %w", rec.ID, l.categories[j], v, apperr.ErrSchemaMismatch)
		}
		rec.Labels[j] = uint8(v)
	}
	return rec, nil
}
