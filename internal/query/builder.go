package query

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Filter operators accepted as a `__` suffix on filter parameters.
var operators = map[string]string{
	"eq":  "=",
	"gt":  ">",
	"gte": ">=",
	"lt":  "<",
	"lte": "<=",
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Builder validates and applies list-query stages against one model's
// parsed schema. It is pure computation; the *gorm.DB it receives carries
// the connection.
type Builder struct {
	schema *schema.Schema
	naming schema.NamingStrategy
}

var schemaCache sync.Map

// NewBuilder parses the model's schema once.
func NewBuilder(model any) (*Builder, error) {
	s, err := schema.Parse(model, &schemaCache, schema.NamingStrategy{})
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return &Builder{schema: s}, nil
}

// ApplyFilters adds one WHERE clause per valid filter. A filter is dropped
// silently when its field is not a declared attribute, its operator is
// unknown, or its value does not coerce to the field's type.
func (b *Builder) ApplyFilters(tx *gorm.DB, filters map[string]string) *gorm.DB {
	for expr, raw := range filters {
		name, op := expr, "eq"
		if i := strings.LastIndex(expr, "__"); i > 0 {
			name, op = expr[:i], expr[i+2:]
		}
		sqlOp, ok := operators[op]
		if !ok {
			continue
		}
		field, ok := b.schema.FieldsByDBName[name]
		if !ok {
			continue
		}
		value, ok := coerce(field, raw)
		if !ok {
			continue
		}
		tx = tx.Where(fmt.Sprintf("%s %s ?", field.DBName, sqlOp), value)
	}
	return tx
}

// coerce converts a raw query value to the field's declared type.
func coerce(field *schema.Field, raw string) (any, bool) {
	switch field.DataType {
	case schema.String:
		return raw, true
	case schema.Int, schema.Uint:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, false
		}
		return n, true
	case schema.Float:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	case schema.Bool:
		switch strings.ToLower(raw) {
		case "true", "1", "yes":
			return true, true
		default:
			return false, true
		}
	case schema.Time:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, true
			}
		}
		return nil, false
	default:
		if isJSONField(field) {
			if !json.Valid([]byte(raw)) {
				return nil, false
			}
			return datatypes.JSON(raw), true
		}
		return raw, true
	}
}

func isJSONField(field *schema.Field) bool {
	return strings.EqualFold(string(field.DataType), "json")
}

// ApplySearch OR-matches term across the given fields. A plain field is
// matched as a case-insensitive substring; a `parent.key` field targets a
// JSON column and matches the key's exact value, not a substring.
func (b *Builder) ApplySearch(tx *gorm.DB, term string, fields []string) *gorm.DB {
	if term == "" || len(fields) == 0 {
		return tx
	}
	cond := tx.Session(&gorm.Session{NewDB: true})
	matched := false
	for _, name := range fields {
		if parent, key, isJSON := strings.Cut(name, "."); isJSON {
			field, ok := b.schema.FieldsByDBName[parent]
			if !ok || !isJSONField(field) {
				continue
			}
			cond = cond.Or(datatypes.JSONQuery(field.DBName).Equals(term, key))
			matched = true
			continue
		}
		field, ok := b.schema.FieldsByDBName[name]
		if !ok {
			continue
		}
		cond = cond.Or(fmt.Sprintf("LOWER(%s) LIKE ?", field.DBName), "%"+strings.ToLower(term)+"%")
		matched = true
	}
	if !matched {
		return tx
	}
	return tx.Where(cond)
}

// ApplySort adds ORDER BY clauses for a comma-separated field list; a `-`
// prefix sorts descending. Fields are validated against the schema,
// including one `__`-separated relation hop; invalid entries are skipped.
func (b *Builder) ApplySort(tx *gorm.DB, sort string) *gorm.DB {
	for _, entry := range strings.Split(sort, ",") {
		name := strings.TrimSpace(entry)
		if name == "" {
			continue
		}
		desc := strings.HasPrefix(name, "-")
		name = strings.TrimPrefix(name, "-")

		parts := strings.SplitN(name, "__", 2)
		if len(parts) == 1 {
			field, ok := b.schema.FieldsByDBName[name]
			if !ok {
				continue
			}
			tx = tx.Order(clause.OrderByColumn{
				Column: clause.Column{Name: field.DBName},
				Desc:   desc,
			})
			continue
		}

		rel := b.relation(parts[0])
		if rel == nil {
			continue
		}
		field, ok := rel.FieldSchema.FieldsByDBName[parts[1]]
		if !ok {
			continue
		}
		tx = tx.Joins(rel.Name).Order(clause.OrderByColumn{
			Column: clause.Column{Table: rel.Name, Name: field.DBName},
			Desc:   desc,
		})
	}
	return tx
}

// relation resolves a snake_case parameter segment to a to-one relation.
func (b *Builder) relation(name string) *schema.Relationship {
	for _, rel := range b.schema.Relationships.Relations {
		if rel.Type != schema.BelongsTo && rel.Type != schema.HasOne {
			continue
		}
		if b.naming.ColumnName("", rel.Name) == name {
			return rel
		}
	}
	return nil
}
