package sqlxrepos

import (
	sq "github.com/Masterminds/squirrel"
)

// psql is the shared statement builder; all queries use $N placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
