package ddl

import (
	"fmt"
	"strings"

	gddl "nyctaxi/internal/ddl"
)

// BuildCreateTableSQL renders
//
//	CREATE TABLE IF NOT EXISTS "schema"."table" (
//	  "col" TYPE [NOT NULL] [DEFAULT expr],
//	  ...
//	);
//
// Identifiers are quoted; Default is emitted as raw SQL.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	fqn := quoteFQN(strings.TrimSpace(t.FQN))
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		def, err := columnSQL(c)
		if err != nil {
			return "", err
		}
		cols = append(cols, def)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", fqn, strings.Join(cols, ",\n  ")), nil
}

// BuildAddColumnSQL renders an additive ALTER TABLE for one column:
//
//	ALTER TABLE "table" ADD COLUMN "col" TYPE;
func BuildAddColumnSQL(table string, c gddl.ColumnDef) (string, error) {
	fqn := quoteFQN(strings.TrimSpace(table))
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	def, err := columnSQL(c)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", fqn, def), nil
}

func columnSQL(c gddl.ColumnDef) (string, error) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return "", fmt.Errorf("ddl: column with empty name")
	}
	typ := strings.TrimSpace(c.SQLType)
	if typ == "" {
		return "", fmt.Errorf("ddl: column %s missing SQLType", name)
	}

	var sb strings.Builder
	sb.WriteString(quoteIdent(name))
	sb.WriteByte(' ')
	sb.WriteString(typ)
	if !c.Nullable {
		sb.WriteString(" NOT NULL")
	}
	if d := strings.TrimSpace(c.Default); d != "" {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(d)
	}
	return sb.String(), nil
}

// quoteIdent quotes a single identifier segment, doubling embedded quotes.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// quoteFQN quotes each non-empty dot-separated segment of name.
func quoteFQN(name string) string {
	parts := strings.Split(name, ".")
	out := parts[:0]
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, quoteIdent(p))
	}
	return strings.Join(out, ".")
}
