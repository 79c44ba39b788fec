/*
Package beanload binds the rows of a tabular query result to instances of a
record type, matching column names to tagged struct fields and converting
each cell's text into the field's declared type.

It removes the repetitive extraction code between a query executor and
application records. Any struct works as a record type; the only requirement
is a `db` tag per bindable field:

	type Person struct {
		ID     int       `db:"id"`
		Name   string    `db:"name"`
		Joined time.Time `db:"created"`
	}

Rows are pulled lazily, one record per row:

	it := beanload.Each[Person](ctx, beanload.SQL(db, "SELECT id, name, created FROM person"))
	for it.Next() {
		person, err := it.Get()
		...
	}
	err := it.Close()

or drained through the convenience adapters [First], [Collect] and
[KeyedMap].

# Conversion

Each cell is converted by a rule resolved for the field's declared type.
Rules for numbers, bool, string and time.Time are built in; types
implementing encoding.TextUnmarshaler convert through that, and an
application can register its own rules with [RegisterConverter]. The
built-in rules keep two deliberate asymmetries: a NULL numeric cell reads as
zero rather than erroring, and the bool rule maps any text other than "1"
and a case-insensitive "true" to false. Pointer fields receive nil for NULL
cells.

# Sources

The result rows arrive through the [Source] and [Cursor] interfaces, so the
query executor stays external. [SQL] and [Prepared] adapt database/sql.

# Caches

Field resolution runs once per record type and conversion rules resolve once
per column set; both caches live for the process. The package-level
functions share the [Default] loader; construct a [Loader] to scope the
caches and converter registry to an application component.
*/
package beanload
