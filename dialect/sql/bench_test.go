package sql

import (
	"testing"

	"github.com/syssam/selectq/dialect"
)

var benchDialects = []string{dialect.SQLite, dialect.MySQL, dialect.Postgres, dialect.Oracle}

func BenchmarkSelector_Simple(b *testing.B) {
	for _, d := range benchDialects {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				Dialect(d).Select("id", "name", "email").
					From("users").
					Query()
			}
		})
	}
}

func BenchmarkSelector_WithJoins(b *testing.B) {
	for _, d := range benchDialects {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				s := Dialect(d).Select("u.id", "u.name", "p.title")
				e := s.Expr()
				s.From("users u").
					InnerJoin("posts p", "u.id", "p.user_id").
					LeftJoin("comments c", e.ColumnsEQ("c.post_id", "p.id")).
					Where(e.Bool("u.active", true)).
					OrderBy("u.created_at").
					Limit(10).
					Query()
			}
		})
	}
}

func BenchmarkSelector_Complex(b *testing.B) {
	for _, d := range benchDialects {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				s := Dialect(d).SelectDistinct("dept", "COUNT(*) AS cnt")
				e := s.Expr()
				s.From("employees").
					Where(
						e.Or(e.EQ("status", "active"), e.EQ("status", "pending")),
						e.In("region", "eu", "us", "apac"),
						e.Between("salary", 1000, 9000),
						e.NotNull("manager_id"),
					).
					GroupBy("dept").
					Having(e.P("COUNT(*) > 5")).
					OrderBy("cnt", Desc).
					LimitOffset(20, 40).
					ForUpdate().
					Query()
			}
		})
	}
}

func BenchmarkIdentResolver(b *testing.B) {
	r := NewIdentResolver(dialect.MustGet(dialect.Postgres), QuoteAsNeeded)
	names := []string{"id", "user", "u.created_at", "users u", "COUNT(*) AS cnt", "CamelCase"}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		r.ResolveAll(names)
	}
}

func BenchmarkParamBinder(b *testing.B) {
	for _, style := range []dialect.PlaceholderStyle{dialect.PlaceholderQuestion, dialect.PlaceholderDollar, dialect.PlaceholderNamed} {
		b.Run(style.String(), func(b *testing.B) {
			b.ReportAllocs()
			pb := NewParamBinder(style)
			for i := 0; i < b.N; i++ {
				for j := 0; j < 8; j++ {
					pb.Bind(j)
				}
				pb.Args()
				pb.Reset()
			}
		})
	}
}
