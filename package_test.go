package beanload_test

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	. "gopkg.in/check.v1"

	"github.com/simon-engledew/beanload"
	"github.com/simon-engledew/beanload/convert"
)

type PackageSuite struct{}

var _ = Suite(&PackageSuite{})

func setupDB() (*sql.DB, error) {
	return sql.Open("sqlite3", ":memory:")
}

func createExampleDB(c *C, createTables string, inserts []string) *sql.DB {
	db, err := setupDB()
	c.Assert(err, IsNil)

	_, err = db.Exec(createTables)
	c.Assert(err, IsNil)
	for _, insert := range inserts {
		_, err := db.Exec(insert)
		c.Assert(err, IsNil)
	}
	return db
}

// Rank converts from text through encoding.TextUnmarshaler, the way an
// enumeration does.
type Rank int

const (
	Junior Rank = iota
	Senior
	Principal
)

func (r *Rank) UnmarshalText(text []byte) error {
	switch string(text) {
	case "junior":
		*r = Junior
	case "senior":
		*r = Senior
	case "principal":
		*r = Principal
	}
	return nil
}

type Employee struct {
	ID     int       `db:"id"`
	Name   string    `db:"name"`
	Active bool      `db:"active"`
	Score  float64   `db:"score"`
	Rank   Rank      `db:"rank"`
	Joined time.Time `db:"joined"`
}

func (e Employee) Key() int { return e.ID }

func employeeDB(c *C) *sql.DB {
	createTables := `
CREATE TABLE employee (
	id integer,
	name text,
	active integer,
	score real,
	rank text,
	joined text
);
`
	inserts := []string{
		"INSERT INTO employee VALUES (1, 'Ada', 1, 99.5, 'principal', '2024-03-01 10:00:00');",
		"INSERT INTO employee VALUES (2, 'Brian', 0, 75.25, 'senior', '2020-06-15 08:30:00');",
		"INSERT INTO employee VALUES (3, 'Grace', 1, 80.0, 'junior', '2023-01-02 23:59:59');",
	}
	return createExampleDB(c, createTables, inserts)
}

func (s *PackageSuite) TestCollect(c *C) {
	db := employeeDB(c)
	defer db.Close()

	employees, err := beanload.Collect[Employee](context.Background(), nil,
		beanload.SQL(db, "SELECT id, name, active, score, rank, joined FROM employee ORDER BY id"))
	c.Assert(err, IsNil)
	c.Assert(employees, HasLen, 3)

	ada := employees[0]
	c.Check(ada.ID, Equals, 1)
	c.Check(ada.Name, Equals, "Ada")
	c.Check(ada.Active, Equals, true)
	c.Check(ada.Score, Equals, 99.5)
	c.Check(ada.Rank, Equals, Principal)
	c.Check(ada.Joined.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)), Equals, true)

	// "0" converts through the fallback boolean parse, not the "1"
	// shortcut.
	c.Check(employees[1].Active, Equals, false)
	c.Check(employees[2].Rank, Equals, Junior)
}

func (s *PackageSuite) TestCollectAppendsToSupplied(c *C) {
	db := employeeDB(c)
	defer db.Close()

	seed := []Employee{{ID: 99, Name: "Zero"}}
	employees, err := beanload.Collect[Employee](context.Background(), seed,
		beanload.SQL(db, "SELECT id, name FROM employee ORDER BY id"))
	c.Assert(err, IsNil)
	c.Assert(employees, HasLen, 4)
	c.Check(employees[0].ID, Equals, 99)
	c.Check(employees[1].ID, Equals, 1)
}

func (s *PackageSuite) TestFirst(c *C) {
	db := employeeDB(c)
	defer db.Close()

	employee, err := beanload.First[Employee](context.Background(),
		beanload.SQL(db, "SELECT id, name FROM employee ORDER BY id LIMIT 1"))
	c.Assert(err, IsNil)
	c.Assert(employee, NotNil)
	c.Check(*employee, Equals, Employee{ID: 1, Name: "Ada"})
}

func (s *PackageSuite) TestFirstEmpty(c *C) {
	db := employeeDB(c)
	defer db.Close()

	employee, err := beanload.First[Employee](context.Background(),
		beanload.SQL(db, "SELECT id, name FROM employee WHERE id = 42"))
	c.Assert(err, IsNil)
	c.Check(employee, IsNil)
}

func (s *PackageSuite) TestEach(c *C) {
	db := employeeDB(c)
	defer db.Close()

	it := beanload.Each[Employee](context.Background(),
		beanload.SQL(db, "SELECT id, name FROM employee ORDER BY id"))
	var names []string
	for it.Next() {
		employee, err := it.Get()
		c.Assert(err, IsNil)
		names = append(names, employee.Name)
	}
	c.Assert(it.Close(), IsNil)
	c.Check(names, DeepEquals, []string{"Ada", "Brian", "Grace"})
}

func (s *PackageSuite) TestEachEmpty(c *C) {
	db := employeeDB(c)
	defer db.Close()

	it := beanload.Each[Employee](context.Background(),
		beanload.SQL(db, "SELECT id, name FROM employee WHERE id = 42"))
	c.Check(it.Next(), Equals, false)
	c.Assert(it.Err(), IsNil)
	c.Assert(it.Close(), IsNil)
}

func (s *PackageSuite) TestKeyedMapLastWriteWins(c *C) {
	createTables := `
CREATE TABLE revision (
	id integer,
	name text
);
`
	inserts := []string{
		"INSERT INTO revision VALUES (1, 'first draft');",
		"INSERT INTO revision VALUES (2, 'chapter two');",
		"INSERT INTO revision VALUES (1, 'final draft');",
	}
	db := createExampleDB(c, createTables, inserts)
	defer db.Close()

	people, err := beanload.KeyedMap(context.Background(), map[int]Person{},
		beanload.SQL(db, "SELECT id, name FROM revision ORDER BY rowid"))
	c.Assert(err, IsNil)
	c.Assert(people, HasLen, 2)
	c.Check(people[1].Name, Equals, "final draft")
	c.Check(people[2].Name, Equals, "chapter two")
}

func (s *PackageSuite) TestUnknownColumn(c *C) {
	db := employeeDB(c)
	defer db.Close()

	_, err := beanload.Collect[Person](context.Background(), nil,
		beanload.SQL(db, "SELECT id, name, score FROM employee"))
	var unknown *beanload.UnknownPropertyError
	c.Assert(errors.As(err, &unknown), Equals, true)
	c.Check(unknown.Column, Equals, "score")
	c.Check(unknown.Type, Equals, reflect.TypeOf(Person{}))
}

func (s *PackageSuite) TestUnparsableTime(c *C) {
	createTables := "CREATE TABLE event (joined text);"
	inserts := []string{"INSERT INTO event VALUES ('not-a-date');"}
	db := createExampleDB(c, createTables, inserts)
	defer db.Close()

	type Event struct {
		Joined time.Time `db:"joined"`
	}
	_, err := beanload.First[Event](context.Background(),
		beanload.SQL(db, "SELECT joined FROM event"))
	var convErr *beanload.ConversionError
	c.Assert(errors.As(err, &convErr), Equals, true)
	c.Check(convErr.Property, Equals, "joined")
	var formatErr *convert.FormatError
	c.Assert(errors.As(err, &formatErr), Equals, true)
	c.Check(formatErr.Raw, Equals, "not-a-date")
}

func (s *PackageSuite) TestNullColumns(c *C) {
	createTables := "CREATE TABLE note (id integer, title text);"
	inserts := []string{"INSERT INTO note VALUES (NULL, NULL);"}
	db := createExampleDB(c, createTables, inserts)
	defer db.Close()

	type Note struct {
		ID    int     `db:"id"`
		Title *string `db:"title"`
	}
	note, err := beanload.First[Note](context.Background(),
		beanload.SQL(db, "SELECT id, title FROM note"))
	c.Assert(err, IsNil)
	c.Assert(note, NotNil)
	c.Check(note.ID, Equals, 0)
	c.Check(note.Title, IsNil)
}

func (s *PackageSuite) TestPreparedSource(c *C) {
	db := employeeDB(c)
	defer db.Close()

	stmt, err := db.Prepare("SELECT id, name FROM employee WHERE id = ?")
	c.Assert(err, IsNil)
	defer stmt.Close()

	employee, err := beanload.First[Employee](context.Background(), beanload.Prepared(stmt, 2))
	c.Assert(err, IsNil)
	c.Assert(employee, NotNil)
	c.Check(employee.Name, Equals, "Brian")

	// A Source re-runs the statement per use.
	employee, err = beanload.First[Employee](context.Background(), beanload.Prepared(stmt, 3))
	c.Assert(err, IsNil)
	c.Assert(employee, NotNil)
	c.Check(employee.Name, Equals, "Grace")
}

type Tags []string

func (s *PackageSuite) TestRegisteredConverter(c *C) {
	createTables := "CREATE TABLE post (id integer, tags text);"
	inserts := []string{"INSERT INTO post VALUES (1, 'go,sql,binding');"}
	db := createExampleDB(c, createTables, inserts)
	defer db.Close()

	tagsType := reflect.TypeOf(Tags(nil))
	beanload.RegisterConverter(tagsType, func(typ reflect.Type, raw *string) (any, error) {
		if raw == nil {
			return nil, nil
		}
		return Tags(strings.Split(*raw, ",")), nil
	})
	defer beanload.UnregisterConverter(tagsType)

	type Post struct {
		ID   int  `db:"id"`
		Tags Tags `db:"tags"`
	}
	post, err := beanload.First[Post](context.Background(),
		beanload.SQL(db, "SELECT id, tags FROM post"))
	c.Assert(err, IsNil)
	c.Assert(post, NotNil)
	c.Check(post.Tags, DeepEquals, Tags{"go", "sql", "binding"})
}

func (s *PackageSuite) TestSetTimeLayout(c *C) {
	createTables := "CREATE TABLE event (joined text);"
	inserts := []string{"INSERT INTO event VALUES ('01/03/2024');"}
	db := createExampleDB(c, createTables, inserts)
	defer db.Close()

	beanload.SetTimeLayout("02/01/2006")
	defer beanload.SetTimeLayout(convert.DefaultTimeLayout)

	type Event struct {
		Joined time.Time `db:"joined"`
	}
	event, err := beanload.First[Event](context.Background(),
		beanload.SQL(db, "SELECT joined FROM event"))
	c.Assert(err, IsNil)
	c.Assert(event, NotNil)
	c.Check(event.Joined.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)), Equals, true)
}

func (s *PackageSuite) TestQueryFailure(c *C) {
	db := employeeDB(c)
	defer db.Close()

	_, err := beanload.Collect[Employee](context.Background(), nil,
		beanload.SQL(db, "SELECT id FROM no_such_table"))
	var cursorErr *beanload.CursorError
	c.Assert(errors.As(err, &cursorErr), Equals, true)
}
