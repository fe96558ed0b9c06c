package datastore

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/omniguard/internal/common"
)

func quote(id string) string {
	return `"` + id + `"`
}

func checkTable(t Table) error {
	if !t.known() {
		return fmt.Errorf("%w: unknown table %q", common.ErrValidation, t)
	}
	return nil
}

func checkColumns(t Table, cols ...Column) error {
	for _, c := range cols {
		if !t.hasColumn(c) {
			return fmt.Errorf("%w: unknown column %q in table %q", common.ErrValidation, c, t)
		}
	}
	return nil
}

func checkFields(t Table, fields []Field) error {
	seen := make(map[Column]struct{}, len(fields))
	for _, f := range fields {
		if err := checkColumns(t, f.Column); err != nil {
			return err
		}
		if _, dup := seen[f.Column]; dup {
			return fmt.Errorf("%w: column %q given twice", common.ErrValidation, f.Column)
		}
		seen[f.Column] = struct{}{}
	}
	return nil
}

// where renders AND-ed equality predicates, numbering placeholders from next.
func where(d Dialect, conds []Field, next int) (string, []any) {
	if len(conds) == 0 {
		return "", nil
	}
	parts := make([]string, len(conds))
	args := make([]any, len(conds))
	for i, c := range conds {
		parts[i] = quote(string(c.Column)) + " = " + d.placeholder(next+i)
		args[i] = c.Value
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

func buildInsert(d Dialect, t Table, fields []Field) (string, []any, error) {
	if err := checkTable(t); err != nil {
		return "", nil, err
	}
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("%w: nothing to insert into %q", common.ErrValidation, t)
	}
	if err := checkFields(t, fields); err != nil {
		return "", nil, err
	}

	cols := make([]string, len(fields))
	marks := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, f := range fields {
		cols[i] = quote(string(f.Column))
		marks[i] = d.placeholder(i + 1)
		args[i] = f.Value
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(string(t)), strings.Join(cols, ", "), strings.Join(marks, ", "))
	return query, args, nil
}

func buildSelect(d Dialect, t Table, conds []Field, cols []Column) (string, []any, error) {
	if err := checkTable(t); err != nil {
		return "", nil, err
	}
	if err := checkColumns(t, cols...); err != nil {
		return "", nil, err
	}
	for _, c := range conds {
		if err := checkColumns(t, c.Column); err != nil {
			return "", nil, err
		}
	}

	projection := "*"
	if len(cols) > 0 {
		quoted := make([]string, len(cols))
		for i, c := range cols {
			quoted[i] = quote(string(c))
		}
		projection = strings.Join(quoted, ", ")
	}

	w, args := where(d, conds, 1)
	return "SELECT " + projection + " FROM " + quote(string(t)) + w, args, nil
}

func buildUpdate(d Dialect, t Table, fields, conds []Field) (string, []any, error) {
	if err := checkTable(t); err != nil {
		return "", nil, err
	}
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("%w: nothing to update in %q", common.ErrValidation, t)
	}
	if len(conds) == 0 {
		return "", nil, fmt.Errorf("%w: update of %q without conditions", common.ErrValidation, t)
	}
	if err := checkFields(t, fields); err != nil {
		return "", nil, err
	}
	for _, c := range conds {
		if err := checkColumns(t, c.Column); err != nil {
			return "", nil, err
		}
	}

	sets := make([]string, len(fields))
	args := make([]any, 0, len(fields)+len(conds))
	for i, f := range fields {
		sets[i] = quote(string(f.Column)) + " = " + d.placeholder(i+1)
		args = append(args, f.Value)
	}

	w, wargs := where(d, conds, len(fields)+1)
	args = append(args, wargs...)
	return "UPDATE " + quote(string(t)) + " SET " + strings.Join(sets, ", ") + w, args, nil
}

func buildDelete(d Dialect, t Table, conds []Field) (string, []any, error) {
	if err := checkTable(t); err != nil {
		return "", nil, err
	}
	if len(conds) == 0 {
		return "", nil, fmt.Errorf("%w: delete from %q without conditions", common.ErrValidation, t)
	}
	for _, c := range conds {
		if err := checkColumns(t, c.Column); err != nil {
			return "", nil, err
		}
	}

	w, args := where(d, conds, 1)
	return "DELETE FROM " + quote(string(t)) + w, args, nil
}
