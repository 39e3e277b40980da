package pawid

import (
	"embed"
	"io/fs"

	"github.com/juho05/log"
)

//go:embed db/migrations/sqlite
var sqliteMigrationsFS embed.FS

//go:embed db/migrations/postgres
var postgresMigrationsFS embed.FS

//go:embed emails
var emailFS embed.FS

var (
	SQLiteMigrationsFS   fs.FS
	PostgresMigrationsFS fs.FS
	EmailFS              fs.FS
)

func init() {
	var err error
	SQLiteMigrationsFS, err = fs.Sub(sqliteMigrationsFS, "db/migrations/sqlite")
	if err != nil {
		log.Fatal(err)
	}
	PostgresMigrationsFS, err = fs.Sub(postgresMigrationsFS, "db/migrations/postgres")
	if err != nil {
		log.Fatal(err)
	}
	EmailFS, err = fs.Sub(emailFS, "emails")
	if err != nil {
		log.Fatal(err)
	}
}
