package repository

import (
	"fmt"
	"strings"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

const postJoins = `FROM posts p
JOIN categories c ON c.id = p.category_id
JOIN statuses s ON s.id = p.status_id`

// PostFilter narrows a post listing. Zero values mean "no constraint".
type PostFilter struct {
	// PublishedOnly restricts results to the publish status. Public listings always set it.
	PublishedOnly bool
	Category      string
	CategoryID    uint
	StatusID      uint
	Keyword       string
}

// predicate is a conjunctive WHERE clause with numbered placeholders.
type predicate struct {
	clauses []string
	args    []any
}

func (p *predicate) bind(value any) string {
	p.args = append(p.args, value)
	return fmt.Sprintf("$%d", len(p.args))
}

func (p *predicate) sql() string {
	if len(p.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(p.clauses, " AND ")
}

// where builds the predicate for f. likeOp is ILIKE on Postgres and LIKE on
// SQLite, whose LIKE already ignores ASCII case.
func (f PostFilter) where(likeOp string) *predicate {
	p := &predicate{}
	if f.PublishedOnly {
		p.clauses = append(p.clauses, "s.status = "+p.bind(models.StatusPublish))
	}
	if f.Category != "" {
		p.clauses = append(p.clauses, "c.name = "+p.bind(f.Category))
	}
	if f.CategoryID != 0 {
		p.clauses = append(p.clauses, "p.category_id = "+p.bind(f.CategoryID))
	}
	if f.StatusID != 0 {
		p.clauses = append(p.clauses, "p.status_id = "+p.bind(f.StatusID))
	}
	if f.Keyword != "" {
		k := p.bind("%" + f.Keyword + "%")
		p.clauses = append(p.clauses, fmt.Sprintf(
			"(p.title %[1]s %[2]s OR p.description %[1]s %[2]s OR p.content %[1]s %[2]s)", likeOp, k))
	}
	return p
}

// likeOperator picks the case-insensitive match operator for the connected dialect.
func likeOperator(db *gorm.DB) string {
	if db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return "ILIKE"
	}
	return "LIKE"
}
